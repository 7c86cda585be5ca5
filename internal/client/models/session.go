// Package models defines client-side data models used by the SanderCoin CLI.
package models

import "github.com/shopspring/decimal"

// Session is the in-memory representation of the authenticated user.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
	Balance     decimal.Decimal
	IsVerified  bool
}

// Credential is the durable record enabling session restoration.
type Credential struct {
	UserID    string
	AuthToken string
}

// Empty reports whether either part of the credential is missing.
func (c Credential) Empty() bool {
	return c.UserID == "" || c.AuthToken == ""
}
