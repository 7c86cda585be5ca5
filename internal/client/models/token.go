package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the last known token balance of a user.
type BalanceSnapshot struct {
	UserID    string
	Value     decimal.Decimal
	FetchedAt time.Time
}

// TokenValue is the current price of one token.
type TokenValue struct {
	Value     decimal.Decimal
	Timestamp string
}

// Receipt is the normalized outcome of a purchase, sale or transfer.
type Receipt struct {
	TransactionID string
	Amount        decimal.Decimal
	// NewBalance is set only when the server reported the post-transaction
	// balance of the initiating user.
	NewBalance *decimal.Decimal
	Message    string
}

// Transaction is one row of a user's history.
type Transaction struct {
	ID         string
	Type       string
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
	Timestamp  string
}
