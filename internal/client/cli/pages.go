package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/guard"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/client/txform"
)

// ErrUnknownPage is returned by Open for paths with no page behind them.
var ErrUnknownPage = errors.New("unknown page")

// Open navigates to path through the route guard. Anonymous users asking
// for a protected page are sent to login first.
func (a *App) Open(ctx context.Context, path string) error {
	d := a.guard.Navigate(path)
	if !d.Allowed() {
		a.printf("Please log in to open %s.\n", d.From)
		return a.Login(ctx)
	}

	switch guard.Clean(path) {
	case guard.PathPurchase:
		return a.runForm(ctx, txform.Purchase)
	case guard.PathSell:
		return a.runForm(ctx, txform.Sell)
	case guard.PathTransfer:
		return a.runForm(ctx, txform.Transfer)
	case guard.PathHistory:
		return a.History(ctx)
	case guard.PathLogin:
		return a.Login(ctx)
	case guard.PathHome:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPage, path)
	}
}

// Balance shows the balance of the session user, or of a user id typed in
// by an anonymous user.
func (a *App) Balance(ctx context.Context) error {
	userID := ""
	if sess, ok := a.store.Current(); ok {
		userID = sess.UserID
	} else {
		id, err := getSimpleText(a.reader, "Enter user id", a.out)
		if err != nil {
			return err
		}
		userID = id
	}

	snap, err := a.balances.Fetch(ctx, userID)
	if err != nil {
		a.println("Could not load balance:", userMessage(err))
		return err
	}
	a.store.UpdateBalance(snap.UserID, snap.Value)
	a.printf("Balance of %s: %s SND\n", snap.UserID, snap.Value.StringFixed(4))
	return nil
}

// Value shows the token value, fetching it when the watcher has none yet.
func (a *App) Value(ctx context.Context) error {
	v, ok := a.tokenValue(ctx)
	if !ok {
		a.println("Token value is not available right now.")
		return client.ErrUnavailable
	}
	a.printf("1 SND = %s (as of %s)\n", v.Value.StringFixed(4), v.Timestamp)
	return nil
}

func (a *App) tokenValue(ctx context.Context) (models.TokenValue, bool) {
	if a.watcher != nil {
		if v, ok := a.watcher.Last(); ok {
			return v, true
		}
		if err := a.watcher.Refresh(ctx); err == nil {
			return a.watcher.Last()
		}
		return models.TokenValue{}, false
	}

	v, err := a.client.GetTokenValue(ctx)
	if err != nil {
		a.log.Warn(ctx, "token value fetch failed", "error", err)
		return models.TokenValue{}, false
	}
	return v, true
}

// History lists the transactions of the session user.
func (a *App) History(ctx context.Context) error {
	sess, ok := a.store.Current()
	if !ok {
		return client.ErrUnauthorized
	}

	list, err := a.client.GetTransactions(ctx, sess.UserID)
	if err != nil {
		a.println("Could not load transactions:", client.MessageOr(err, "failed to load transactions"))
		return err
	}
	if len(list) == 0 {
		a.println("No transactions yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tFROM\tTO\tAMOUNT\tTIME")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Type, t.SenderID, t.ReceiverID, t.Amount.StringFixed(4), t.Timestamp)
	}
	return tw.Flush()
}

// runForm drives one transaction form: it asks for every field, shows the
// hints, submits and offers to retry on failure.
func (a *App) runForm(ctx context.Context, kind txform.Kind) error {
	f := txform.New(kind, txform.Deps{
		Client:    a.client,
		Balances:  a.balances,
		Publisher: a.store,
		Log:       a.log,
	})
	defer f.Close()

	var sess *models.Session
	if s, ok := a.store.Current(); ok {
		sess = &s
	}
	if err := f.Mount(ctx, sess); err != nil {
		a.println("Could not load balance:", userMessage(err))
	}

	a.printf("== %s ==\n", strings.ToUpper(kind.String()))
	a.printBalance(f)

	for {
		if err := a.fillForm(ctx, f, sess != nil); err != nil {
			return err
		}
		a.printHints(ctx, f)

		ok, err := confirm(a.reader, "Submit?", a.out)
		if err != nil {
			return err
		}
		if !ok {
			a.println("Cancelled.")
			return nil
		}

		receipt, err := f.Submit(ctx)
		if err == nil {
			st := f.Status()
			a.println(st.Success)
			if receipt.TransactionID != "" {
				a.println("Transaction id:", receipt.TransactionID)
			}
			a.printBalance(f)
			return nil
		}

		if errors.Is(err, txform.ErrStaleResponse) {
			return err
		}
		a.println("Error:", f.Status().Error)

		again, cerr := confirm(a.reader, "Try again?", a.out)
		if cerr != nil {
			return cerr
		}
		if !again {
			return err
		}
		f.Retry()
	}
}

// fillForm prompts for every field of the form. An empty answer keeps the
// current value; the owner field is skipped when the session fixes it.
func (a *App) fillForm(ctx context.Context, f *txform.Form, ownerFixed bool) error {
	kind := f.Kind()
	for _, field := range kind.Fields() {
		if field == kind.OwnerField() && ownerFixed {
			continue
		}

		prompt := fieldPrompts[field]
		if cur := f.Value(field); cur != "" && cur != "0" {
			prompt += " [" + cur + "]"
		}
		raw, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}

		if err := f.Edit(ctx, field, raw); err != nil && !errors.Is(err, txform.ErrStaleResponse) {
			a.println("Could not load balance:", userMessage(err))
		}
		if field == kind.OwnerField() {
			a.printBalance(f)
		}
	}
	return nil
}

var fieldPrompts = map[txform.Field]string{
	txform.FieldUserID:     "User id",
	txform.FieldSenderID:   "Sender id",
	txform.FieldReceiverID: "Receiver id",
	txform.FieldAmount:     "Amount (SND)",
	txform.FieldCardNumber: "Card number",
	txform.FieldExpiration: "Expiration (MM/YY)",
	txform.FieldCVV:        "CVV",
}

func (a *App) printBalance(f *txform.Form) {
	if b := f.Status().Balance; b != nil {
		a.printf("Balance of %s: %s SND\n", b.UserID, b.Value.StringFixed(4))
	}
}

func (a *App) printHints(ctx context.Context, f *txform.Form) {
	if f.Kind() == txform.Purchase {
		a.println("Card:", f.CardDisplay())
		if v, ok := a.tokenValue(ctx); ok {
			a.printf("Total cost: %s\n", f.Cost(v.Value).StringFixed(2))
		}
		return
	}
	if p, ok := f.Projected(); ok {
		a.printf("Balance after this operation (fee %s): %s SND\n", txform.Fee.String(), p.StringFixed(4))
	}
}
