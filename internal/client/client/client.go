package client

import (
	"context"

	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/shopspring/decimal"
)

// Client is the contract of the remote exchange API as used by the CLI.
type Client interface {
	// SetToken sets the bearer token sent with subsequent calls. An empty
	// token removes the header.
	SetToken(token string)
	Authenticate(ctx context.Context, identifier, secret string) (*AuthResult, error)
	Register(ctx context.Context, userID, email string) error
	Verify(ctx context.Context, req VerifyRequest) (*AuthResult, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetTokenValue(ctx context.Context) (models.TokenValue, error)
	Distribute(ctx context.Context, req DistributeRequest) (*models.Receipt, error)
	Sell(ctx context.Context, req SellRequest) (*models.Receipt, error)
	Transfer(ctx context.Context, req TransferRequest) (*models.Receipt, error)
	GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

// AuthResult is what Authenticate and Verify return on success. Token is
// empty when the server did not issue a new one.
type AuthResult struct {
	Token   string
	Session models.Session
}

// VerifyRequest carries either a registration code or a stored token.
type VerifyRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code,omitempty"`
	Token  string `json:"token,omitempty"`
}

// DistributeRequest buys tokens with a card.
type DistributeRequest struct {
	UserID     string
	Amount     decimal.Decimal
	CardNumber string
	Expiration string
	CVV        string
}

// SellRequest sells tokens back to the exchange.
type SellRequest struct {
	UserID string
	Amount decimal.Decimal
}

// TransferRequest moves tokens between two users.
type TransferRequest struct {
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
}
