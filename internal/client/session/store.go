// Package session holds the authenticated user of the running client.
//
// A Store is created once per process and handed to every consumer that
// needs to know who is logged in: the route guard, the transaction forms and
// the REPL prompt. Consumers read it directly or Subscribe to be told about
// changes. The durable side of the session is a CredentialStore; only
// Restore reads it and only Login and Logout write it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/common"
	"github.com/dmitrijs2005/sandercoin/internal/logging"
	"github.com/shopspring/decimal"
)

// State is a point-in-time copy of the store.
type State struct {
	// Session is nil when nobody is logged in.
	Session *models.Session
	// Restored is set once Restore or Login has completed.
	Restored bool
}

func (s State) Authenticated() bool { return s.Session != nil }

type Store struct {
	client client.Client
	creds  CredentialStore
	log    logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	session   *models.Session
	restored  bool
	observers map[int]func(State)
	nextID    int

	notifyMu    sync.Mutex
	restoreOnce sync.Once
	restoreErr  error
}

func NewStore(c client.Client, creds CredentialStore, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		client:    c,
		creds:     creds,
		log:       log,
		now:       time.Now,
		observers: make(map[int]func(State)),
	}
}

// Restore rebuilds the session from the stored credential. Only the first
// call does any work; later calls return the state and error of the first.
func (s *Store) Restore(ctx context.Context) (State, error) {
	s.restoreOnce.Do(func() {
		s.restoreErr = s.restore(ctx)
		s.mu.Lock()
		s.restored = true
		s.mu.Unlock()
		s.notify()
	})
	return s.State(), s.restoreErr
}

func (s *Store) restore(ctx context.Context) error {
	cred, err := s.creds.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if cred.Empty() {
		return nil
	}

	if tokenExpired(cred.AuthToken, s.now()) {
		s.clearCredential(ctx)
		return &AuthError{Message: "session expired", Err: common.ErrTokenExpired}
	}

	s.client.SetToken(cred.AuthToken)
	res, err := s.client.Verify(ctx, client.VerifyRequest{UserID: cred.UserID, Token: cred.AuthToken})
	if err != nil {
		s.client.SetToken("")
		s.clearCredential(ctx)
		return &AuthError{Message: client.MessageOr(err, "session verification failed"), Err: err}
	}

	sess := res.Session
	if sess.UserID == "" {
		sess.UserID = cred.UserID
	}
	if res.Token != "" && res.Token != cred.AuthToken {
		s.client.SetToken(res.Token)
		if err := s.creds.Save(ctx, models.Credential{UserID: sess.UserID, AuthToken: res.Token}); err != nil {
			s.log.Warn(ctx, "failed to save refreshed credential", "error", err)
		}
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()

	s.log.Info(ctx, "session restored", "user_id", sess.UserID)
	return nil
}

// Login authenticates against the exchange. On failure the current session
// is left as it was.
func (s *Store) Login(ctx context.Context, identifier, secret string) (models.Session, error) {
	res, err := s.client.Authenticate(ctx, identifier, secret)
	if err != nil {
		return models.Session{}, &AuthError{Message: client.MessageOr(err, "login failed"), Err: err}
	}

	if err := s.creds.Save(ctx, models.Credential{UserID: res.Session.UserID, AuthToken: res.Token}); err != nil {
		s.log.Warn(ctx, "failed to persist credential", "error", err)
	}
	s.client.SetToken(res.Token)

	// A later Restore must not replay the old credential over this login.
	s.restoreOnce.Do(func() {})

	sess := res.Session
	s.mu.Lock()
	s.session = &sess
	s.restored = true
	s.mu.Unlock()
	s.notify()

	s.log.Info(ctx, "logged in", "user_id", sess.UserID)
	return sess, nil
}

// Logout forgets the session and the stored credential. It never fails and
// may be called any number of times.
func (s *Store) Logout(ctx context.Context) {
	s.clearCredential(ctx)
	s.client.SetToken("")

	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	if had {
		s.notify()
	}
}

func (s *Store) clearCredential(ctx context.Context) {
	if err := s.creds.Clear(ctx); err != nil {
		s.log.Error(ctx, "failed to clear credential", "error", err)
	}
}

// Current returns a copy of the session, if any.
func (s *Store) Current() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return models.Session{}, false
	}
	return *s.session, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	st := State{Restored: s.restored}
	if s.session != nil {
		cp := *s.session
		st.Session = &cp
	}
	return st
}

// UpdateBalance records a freshly reconciled balance of userID. It is a
// no-op unless userID owns the current session.
func (s *Store) UpdateBalance(userID string, value decimal.Decimal) {
	s.mu.Lock()
	if s.session == nil || s.session.UserID != userID || s.session.Balance.Equal(value) {
		s.mu.Unlock()
		return
	}
	s.session.Balance = value
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// notify delivers the latest state to every observer. Observers run outside
// the state lock and may call back into the store.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	st := s.stateLocked()
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
