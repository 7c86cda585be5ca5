package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/common"
)

// BalanceService reads the authoritative token balance of a user.
type BalanceService interface {
	// Fetch returns ErrEmptyUserID without calling the exchange when userID
	// is empty; remote failures are *OperationError.
	Fetch(ctx context.Context, userID string) (models.BalanceSnapshot, error)
}

type balanceService struct {
	client client.Client
	now    func() time.Time
}

func NewBalanceService(c client.Client) BalanceService {
	return &balanceService{client: c, now: time.Now}
}

func (b *balanceService) Fetch(ctx context.Context, userID string) (models.BalanceSnapshot, error) {
	if userID == "" {
		return models.BalanceSnapshot{}, common.ErrEmptyUserID
	}

	value, err := b.client.GetBalance(ctx, userID)
	if err != nil {
		return models.BalanceSnapshot{}, &OperationError{Op: "balance", Message: client.MessageOr(err, "failed to load balance"), Err: err}
	}

	return models.BalanceSnapshot{UserID: userID, Value: value, FetchedAt: b.now()}, nil
}
