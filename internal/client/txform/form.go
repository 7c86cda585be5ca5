// Package txform implements the purchase, sell and transfer forms.
//
// A Form owns one Draft and the last known balance of the draft owner. Field
// edits are normalized as they arrive. Submit validates the draft, sends a
// copy of it to the exchange and then reconciles the balance with what the
// server reported.
//
// Every submission remembers the draft version and owner it was started
// with. A result that comes back after the form was closed or switched to
// another owner is dropped. If only the draft was edited meanwhile, the
// balance is still reconciled but the outcome banner is not shown.
package txform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/client/services"
	"github.com/dmitrijs2005/sandercoin/internal/logging"
	"github.com/shopspring/decimal"
)

// Fee is the flat network fee shown in projected balances.
var Fee = decimal.RequireFromString("0.001")

var (
	// ErrStaleResponse is returned by Submit and RefreshBalance when the
	// result no longer matches the form and was not shown.
	ErrStaleResponse = errors.New("stale response discarded")
	ErrClosed        = errors.New("form is closed")
	ErrInProgress    = errors.New("submission already in progress")
	ErrFieldLocked   = errors.New("field is set by the current session")
)

// State is the position of a form in its submit cycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BalancePublisher receives balances reconciled by a form.
type BalancePublisher interface {
	UpdateBalance(userID string, value decimal.Decimal)
}

// Deps are the collaborators of a Form. Publisher and Log may be nil.
type Deps struct {
	Client    client.Client
	Balances  services.BalanceService
	Publisher BalancePublisher
	Log       logging.Logger
	Now       func() time.Time
}

// Status is a copy of what the form currently shows.
type Status struct {
	State   State
	Draft   Draft
	Error   string
	Success string
	// Balance is nil until a balance of the current owner was fetched.
	Balance *models.BalanceSnapshot
}

type Form struct {
	kind Kind
	deps Deps

	mu          sync.Mutex
	draft       Draft
	state       State
	errMsg      string
	successMsg  string
	snapshot    *models.BalanceSnapshot
	version     uint64
	ownerGen    uint64
	balanceGen  uint64
	ownerLocked bool
	inFlight    bool
	closed      bool
}

func New(kind Kind, deps Deps) *Form {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Balances == nil {
		deps.Balances = services.NewBalanceService(deps.Client)
	}
	return &Form{kind: kind, deps: deps}
}

func (f *Form) Kind() Kind { return f.kind }

// Mount prepares the form for display. With a session the owner field is
// filled in and locked to the session user. The owner's balance is fetched
// when an owner is known.
func (f *Form) Mount(ctx context.Context, sess *models.Session) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if sess != nil {
		f.setOwnerLocked(sess.UserID)
		f.ownerLocked = true
		if f.snapshot == nil && sess.UserID != "" {
			f.snapshot = &models.BalanceSnapshot{UserID: sess.UserID, Value: sess.Balance, FetchedAt: f.deps.Now()}
		}
	}
	f.mu.Unlock()

	return f.RefreshBalance(ctx)
}

// Close detaches the form. Results of submissions still in flight are
// discarded.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Update stores a normalized field value and returns the form to Idle. It
// reports whether the balance owner changed, in which case the caller
// should RefreshBalance.
func (f *Form) Update(field Field, raw string) (ownerChanged bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrClosed
	}
	if !f.kind.has(field) {
		return false, fmt.Errorf("%s form has no field %q", f.kind, field)
	}

	if field == f.kind.OwnerField() {
		if f.ownerLocked {
			return false, ErrFieldLocked
		}
		ownerChanged = f.setOwnerLocked(raw)
	} else {
		f.draft.set(field, raw)
	}

	f.version++
	f.state = StateIdle
	f.errMsg = ""
	f.successMsg = ""
	return ownerChanged, nil
}

// Edit is Update followed by a balance refresh when the owner changed.
func (f *Form) Edit(ctx context.Context, field Field, raw string) error {
	changed, err := f.Update(field, raw)
	if err != nil {
		return err
	}
	if changed {
		return f.RefreshBalance(ctx)
	}
	return nil
}

// setOwnerLocked changes the owner and drops the balance of the previous
// one. Must be called with f.mu held.
func (f *Form) setOwnerLocked(owner string) bool {
	if f.draft.Owner(f.kind) == owner {
		return false
	}
	f.draft.set(f.kind.OwnerField(), owner)
	f.ownerGen++
	f.snapshot = nil
	return true
}

// Retry returns a finished form to Idle without touching the draft.
func (f *Form) Retry() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return
	}
	f.state = StateIdle
	f.errMsg = ""
	f.successMsg = ""
}

// RefreshBalance fetches the balance of the current owner. A failed fetch
// keeps the previous snapshot; a fetch overtaken by a newer fetch or by a
// submission's reported balance is dropped.
func (f *Form) RefreshBalance(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	owner := f.draft.Owner(f.kind)
	gen := f.ownerGen
	if owner != "" {
		f.balanceGen++
	}
	bgen := f.balanceGen
	f.mu.Unlock()

	if owner == "" {
		return nil
	}

	snap, err := f.deps.Balances.Fetch(ctx, owner)

	f.mu.Lock()
	if f.closed || gen != f.ownerGen {
		f.mu.Unlock()
		f.deps.Log.Debug(ctx, "discarding balance of previous owner", "form", f.kind.String(), "user_id", owner)
		return ErrStaleResponse
	}
	// A later fetch or a server-reported balance supersedes this one.
	if bgen != f.balanceGen {
		f.mu.Unlock()
		f.deps.Log.Debug(ctx, "discarding superseded balance", "form", f.kind.String(), "user_id", owner)
		return ErrStaleResponse
	}
	if err != nil {
		f.mu.Unlock()
		f.deps.Log.Warn(ctx, "balance fetch failed", "form", f.kind.String(), "user_id", owner, "error", err)
		return err
	}
	f.snapshot = &snap
	f.mu.Unlock()

	f.publish(owner, snap.Value)
	return nil
}

// Validate checks the current draft against the current snapshot and
// records the failure, if any.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if verr := Validate(f.kind, f.draft, f.balanceLocked(), f.deps.Now()); verr != nil {
		f.state = StateFailed
		f.errMsg = verr.Message
		return verr
	}
	return nil
}

// Submit validates the draft against the freshest snapshot the form holds
// and sends it. It returns *ValidationError, *services.OperationError or
// ErrStaleResponse on failure.
func (f *Form) Submit(ctx context.Context) (*models.Receipt, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrInProgress
	}

	f.state = StateValidating
	f.errMsg = ""
	f.successMsg = ""

	draft := f.draft
	if verr := Validate(f.kind, draft, f.balanceLocked(), f.deps.Now()); verr != nil {
		f.state = StateFailed
		f.errMsg = verr.Message
		f.mu.Unlock()
		return nil, verr
	}

	f.state = StateSubmitting
	f.inFlight = true
	version, gen := f.version, f.ownerGen
	f.mu.Unlock()

	receipt, err := f.send(ctx, draft)

	f.mu.Lock()
	f.inFlight = false
	if f.closed || gen != f.ownerGen {
		f.mu.Unlock()
		f.deps.Log.Debug(ctx, "discarding result of stale submission", "form", f.kind.String())
		return nil, ErrStaleResponse
	}
	current := version == f.version

	if err != nil {
		msg := client.MessageOr(err, f.kind.failureMessage())
		if current {
			f.state = StateFailed
			f.errMsg = msg
		}
		f.mu.Unlock()

		f.deps.Log.Warn(ctx, "transaction failed", "form", f.kind.String(), "error", err)
		if !current {
			return nil, ErrStaleResponse
		}
		return nil, &services.OperationError{Op: f.kind.String(), Message: msg, Err: err}
	}

	if current {
		f.state = StateSucceeded
		f.successMsg = f.kind.successMessage()
		f.draft.clearPayment()
		f.version++
	}

	owner := draft.Owner(f.kind)
	applied := false
	if receipt.NewBalance != nil {
		f.snapshot = &models.BalanceSnapshot{UserID: owner, Value: *receipt.NewBalance, FetchedAt: f.deps.Now()}
		f.balanceGen++
		applied = true
	}
	f.mu.Unlock()

	f.deps.Log.Info(ctx, "transaction completed", "form", f.kind.String(), "transaction_id", receipt.TransactionID)

	if applied {
		f.publish(owner, *receipt.NewBalance)
	} else if rerr := f.RefreshBalance(ctx); rerr != nil && !errors.Is(rerr, ErrStaleResponse) {
		f.deps.Log.Warn(ctx, "balance refresh after transaction failed", "form", f.kind.String(), "error", rerr)
	}

	if !current {
		return nil, ErrStaleResponse
	}
	return receipt, nil
}

func (f *Form) send(ctx context.Context, d Draft) (*models.Receipt, error) {
	switch f.kind {
	case Purchase:
		return f.deps.Client.Distribute(ctx, client.DistributeRequest{
			UserID:     d.UserID,
			Amount:     d.Amount,
			CardNumber: d.CardNumber,
			Expiration: d.Expiration,
			CVV:        d.CVV,
		})
	case Sell:
		return f.deps.Client.Sell(ctx, client.SellRequest{UserID: d.UserID, Amount: d.Amount})
	case Transfer:
		return f.deps.Client.Transfer(ctx, client.TransferRequest{
			SenderID:   d.SenderID,
			ReceiverID: d.ReceiverID,
			Amount:     d.Amount,
		})
	default:
		return nil, fmt.Errorf("unknown form kind %s", f.kind)
	}
}

func (f *Form) publish(owner string, value decimal.Decimal) {
	if f.deps.Publisher != nil {
		f.deps.Publisher.UpdateBalance(owner, value)
	}
}

func (f *Form) balanceLocked() *decimal.Decimal {
	if f.snapshot == nil {
		return nil
	}
	v := f.snapshot.Value
	return &v
}

// Status returns a copy of the form for display.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := Status{State: f.state, Draft: f.draft, Error: f.errMsg, Success: f.successMsg}
	if f.snapshot != nil {
		snap := *f.snapshot
		st.Balance = &snap
	}
	return st
}

// Value returns the current value of field as text.
func (f *Form) Value(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.get(field)
}

// Projected is the balance left after a sell or transfer of the current
// amount including Fee. It is a hint only and changes nothing.
func (f *Form) Projected() (decimal.Decimal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.kind == Purchase || f.snapshot == nil {
		return decimal.Zero, false
	}
	return f.snapshot.Value.Sub(f.draft.Amount).Sub(Fee), true
}

// Cost is the price of the current purchase amount at tokenValue.
func (f *Form) Cost(tokenValue decimal.Decimal) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Amount.Mul(tokenValue)
}

// CardDisplay returns the card number grouped in blocks of four.
func (f *Form) CardDisplay() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormatCard(f.draft.CardNumber)
}
