package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/common"
)

// AccountService creates and verifies exchange accounts.
//
// A new user calls Register with the id they want and their email; the
// exchange mails a code which is then passed to Verify. Neither call logs
// the user in.
type AccountService interface {
	Register(ctx context.Context, userID, email string) error
	Verify(ctx context.Context, userID, code string) (models.Session, error)
}

type accountService struct {
	client client.Client
}

func NewAccountService(c client.Client) AccountService {
	return &accountService{client: c}
}

func (a *accountService) Register(ctx context.Context, userID, email string) error {
	if userID == "" {
		return common.ErrEmptyUserID
	}
	if !strings.Contains(email, "@") {
		return &OperationError{Op: "register", Message: "invalid email"}
	}

	if err := a.client.Register(ctx, userID, email); err != nil {
		return &OperationError{Op: "register", Message: client.MessageOr(err, "failed to register user"), Err: err}
	}
	return nil
}

func (a *accountService) Verify(ctx context.Context, userID, code string) (models.Session, error) {
	if userID == "" {
		return models.Session{}, common.ErrEmptyUserID
	}
	if code == "" {
		return models.Session{}, &OperationError{Op: "verify", Message: "verification code is required"}
	}

	res, err := a.client.Verify(ctx, client.VerifyRequest{UserID: userID, Code: code})
	if err != nil {
		return models.Session{}, &OperationError{Op: "verify", Message: client.MessageOr(err, "failed to verify code"), Err: err}
	}
	return res.Session, nil
}
