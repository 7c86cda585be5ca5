// Package guard keeps anonymous users away from pages that need a session.
package guard

import (
	"strings"
	"sync"

	"github.com/dmitrijs2005/sandercoin/internal/client/session"
)

const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathPurchase = "/purchase"
	PathSell     = "/sell"
	PathTransfer = "/transfer"
	PathHistory  = "/history"
)

var protected = map[string]bool{
	PathPurchase: true,
	PathSell:     true,
	PathTransfer: true,
	PathHistory:  true,
}

// IsProtected reports whether path requires a session.
func IsProtected(path string) bool {
	return protected[Clean(path)]
}

// Clean lower-cases path and gives it exactly one leading slash and no
// trailing one.
func Clean(path string) string {
	return "/" + strings.Trim(strings.ToLower(strings.TrimSpace(path)), "/")
}

// Decision is the outcome of a navigation. An empty Redirect means the
// navigation is allowed.
type Decision struct {
	Redirect string
	From     string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

// Authenticator is the part of session.Store the guard needs.
type Authenticator interface {
	IsAuthenticated() bool
	Subscribe(fn func(session.State)) (cancel func())
}

// Guard decides navigations against the live session state.
type Guard struct {
	mu            sync.Mutex
	authenticated bool
	pending       string
	cancel        func()
}

// New starts tracking store. Call Close to stop.
func New(store Authenticator) *Guard {
	g := &Guard{authenticated: store.IsAuthenticated()}
	g.cancel = store.Subscribe(func(st session.State) {
		g.mu.Lock()
		g.authenticated = st.Authenticated()
		g.mu.Unlock()
	})
	return g
}

// Navigate checks path. A protected path without a session redirects to
// the login page and remembers path for AfterLogin.
func (g *Guard) Navigate(path string) Decision {
	p := Clean(path)

	g.mu.Lock()
	defer g.mu.Unlock()

	if !protected[p] || g.authenticated {
		return Decision{}
	}
	g.pending = p
	return Decision{Redirect: PathLogin, From: p}
}

// AfterLogin returns the path that was redirected to login, or the home
// path, and forgets it.
func (g *Guard) AfterLogin() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.pending
	g.pending = ""
	if p == "" {
		return PathHome
	}
	return p
}

func (g *Guard) Close() {
	if g.cancel != nil {
		g.cancel()
	}
}
