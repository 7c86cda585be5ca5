package guard

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/client/fake"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCreds struct{}

func (nopCreds) Load(context.Context) (models.Credential, error) { return models.Credential{}, nil }
func (nopCreds) Save(context.Context, models.Credential) error { return nil }
func (nopCreds) Clear(context.Context) error { return nil }

func newStore() *session.Store {
	fc := &fake.Client{
		AuthenticateFn: func(context.Context, string, string) (*client.AuthResult, error) {
			return &client.AuthResult{Token: "tok", Session: models.Session{UserID: "alice"}}, nil
		},
	}
	return session.NewStore(fc, nopCreds{}, nil)
}

func TestNavigate_Anonymous(t *testing.T) {
	g := New(newStore())
	defer g.Close()

	tests := []struct {
		path string
		want Decision
	}{
		{path: "/purchase", want: Decision{Redirect: PathLogin, From: PathPurchase}},
		{path: "sell", want: Decision{Redirect: PathLogin, From: PathSell}},
		{path: "/Transfer/", want: Decision{Redirect: PathLogin, From: PathTransfer}},
		{path: "/history", want: Decision{Redirect: PathLogin, From: PathHistory}},
		{path: "/", want: Decision{}},
		{path: "/login", want: Decision{}},
		{path: "/register", want: Decision{}},
		{path: "/value", want: Decision{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := g.Navigate(tt.path)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, tt.want.Redirect == "", d.Allowed())
		})
	}
}

func TestAfterLogin_ReturnsRecordedPath(t *testing.T) {
	store := newStore()
	g := New(store)
	defer g.Close()

	assert.Equal(t, PathHome, g.AfterLogin())

	d := g.Navigate("/sell")
	require.False(t, d.Allowed())

	_, err := store.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	assert.Equal(t, PathSell, g.AfterLogin())
	assert.Equal(t, PathHome, g.AfterLogin())
	assert.True(t, g.Navigate("/sell").Allowed())
}

func TestNavigate_FollowsLogout(t *testing.T) {
	store := newStore()
	_, err := store.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	g := New(store)
	defer g.Close()
	assert.True(t, g.Navigate("/transfer").Allowed())

	store.Logout(context.Background())
	assert.Equal(t, Decision{Redirect: PathLogin, From: PathTransfer}, g.Navigate("/transfer"))
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected("/history"))
	assert.False(t, IsProtected("/help"))
	assert.Equal(t, "/", Clean(""))
	assert.Equal(t, "/sell", Clean(" /SELL/ "))
}
