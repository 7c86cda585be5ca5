// Package fake provides an in-memory client.Client for tests.
package fake

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/shopspring/decimal"
)

// Client answers every call through an optional hook. Unset hooks return
// zero values. Calls are counted per method name.
type Client struct {
	AuthenticateFn    func(ctx context.Context, identifier, secret string) (*client.AuthResult, error)
	RegisterFn        func(ctx context.Context, userID, email string) error
	VerifyFn          func(ctx context.Context, req client.VerifyRequest) (*client.AuthResult, error)
	GetBalanceFn      func(ctx context.Context, userID string) (decimal.Decimal, error)
	GetTokenValueFn   func(ctx context.Context) (models.TokenValue, error)
	DistributeFn      func(ctx context.Context, req client.DistributeRequest) (*models.Receipt, error)
	SellFn            func(ctx context.Context, req client.SellRequest) (*models.Receipt, error)
	TransferFn        func(ctx context.Context, req client.TransferRequest) (*models.Receipt, error)
	GetTransactionsFn func(ctx context.Context, userID string) ([]models.Transaction, error)

	mu    sync.Mutex
	token string
	calls map[string]int
}

var _ client.Client = (*Client)(nil)

func (c *Client) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

// Calls returns how many times method name was invoked.
func (c *Client) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// Token returns the token last passed to SetToken.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Authenticate(ctx context.Context, identifier, secret string) (*client.AuthResult, error) {
	c.record("Authenticate")
	if c.AuthenticateFn == nil {
		return &client.AuthResult{}, nil
	}
	return c.AuthenticateFn(ctx, identifier, secret)
}

func (c *Client) Register(ctx context.Context, userID, email string) error {
	c.record("Register")
	if c.RegisterFn == nil {
		return nil
	}
	return c.RegisterFn(ctx, userID, email)
}

func (c *Client) Verify(ctx context.Context, req client.VerifyRequest) (*client.AuthResult, error) {
	c.record("Verify")
	if c.VerifyFn == nil {
		return &client.AuthResult{}, nil
	}
	return c.VerifyFn(ctx, req)
}

func (c *Client) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	c.record("GetBalance")
	if c.GetBalanceFn == nil {
		return decimal.Zero, nil
	}
	return c.GetBalanceFn(ctx, userID)
}

func (c *Client) GetTokenValue(ctx context.Context) (models.TokenValue, error) {
	c.record("GetTokenValue")
	if c.GetTokenValueFn == nil {
		return models.TokenValue{}, nil
	}
	return c.GetTokenValueFn(ctx)
}

func (c *Client) Distribute(ctx context.Context, req client.DistributeRequest) (*models.Receipt, error) {
	c.record("Distribute")
	if c.DistributeFn == nil {
		return &models.Receipt{}, nil
	}
	return c.DistributeFn(ctx, req)
}

func (c *Client) Sell(ctx context.Context, req client.SellRequest) (*models.Receipt, error) {
	c.record("Sell")
	if c.SellFn == nil {
		return &models.Receipt{}, nil
	}
	return c.SellFn(ctx, req)
}

func (c *Client) Transfer(ctx context.Context, req client.TransferRequest) (*models.Receipt, error) {
	c.record("Transfer")
	if c.TransferFn == nil {
		return &models.Receipt{}, nil
	}
	return c.TransferFn(ctx, req)
}

func (c *Client) GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	c.record("GetTransactions")
	if c.GetTransactionsFn == nil {
		return nil, nil
	}
	return c.GetTransactionsFn(ctx, userID)
}
