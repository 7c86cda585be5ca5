package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sandercoin/internal/client/guard"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/client/services"
	"github.com/dmitrijs2005/sandercoin/internal/client/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func displayName(s models.Session) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}

// userMessage picks the text to show for err.
func userMessage(err error) string {
	var authErr *session.AuthError
	var opErr *services.OperationError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &opErr):
		return opErr.Message
	default:
		return err.Error()
	}
}

// Register asks for a user id and an email, creates the account and then
// offers to enter the verification code right away.
func (a *App) Register(ctx context.Context) error {
	userID, err := getSimpleText(a.reader, "Enter user id", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	if err := a.accounts.Register(ctx, userID, email); err != nil {
		a.println("Registration failed:", userMessage(err))
		return err
	}
	a.println("Registered. A verification code was sent to", email)

	return a.verify(ctx, userID)
}

// Verify confirms an account with the mailed code.
func (a *App) Verify(ctx context.Context) error {
	userID, err := getSimpleText(a.reader, "Enter user id", a.out)
	if err != nil {
		return err
	}
	return a.verify(ctx, userID)
}

func (a *App) verify(ctx context.Context, userID string) error {
	code, err := getSimpleText(a.reader, "Enter verification code", a.out)
	if err != nil {
		return err
	}

	if _, err := a.accounts.Verify(ctx, userID, code); err != nil {
		a.println("Verification failed:", userMessage(err))
		return err
	}
	a.println("Account verified, you can log in now.")
	return nil
}

// Login asks for credentials and opens a session. When the login was
// triggered by a protected page, that page is opened afterwards.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	sess, err := a.store.Login(ctx, email, string(password))
	clear(password)
	if err != nil {
		a.println("Login failed:", userMessage(err))
		return err
	}
	a.println("Welcome,", displayName(sess))

	if next := a.guard.AfterLogin(); next != guard.PathHome {
		return a.Open(ctx, next)
	}
	return nil
}

// Logout always succeeds.
func (a *App) Logout(ctx context.Context) error {
	a.store.Logout(ctx)
	a.println("Logged out.")
	return nil
}
