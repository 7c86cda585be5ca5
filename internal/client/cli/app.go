package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/config"
	"github.com/dmitrijs2005/sandercoin/internal/client/guard"
	"github.com/dmitrijs2005/sandercoin/internal/client/services"
	"github.com/dmitrijs2005/sandercoin/internal/client/session"
	"github.com/dmitrijs2005/sandercoin/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	db       *sql.DB
	client   client.Client
	store    *session.Store
	guard    *guard.Guard
	accounts services.AccountService
	balances services.BalanceService
	watcher  *services.TokenValueWatcher
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the local database and wires the exchange client, the
// session store and the services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient := client.NewSanderCoinClient(c.ServerURL, c.RequestTimeout, c.RequestsPerSecond)
	store := session.NewStore(apiClient, session.NewSQLCredentialStore(db), log)

	a := newApp(apiClient, store, log, bufio.NewReader(os.Stdin), os.Stdout)
	a.config = c
	a.db = db
	a.watcher = services.NewTokenValueWatcher(apiClient, c.TokenRefreshInterval, log)
	return a, nil
}

func newApp(c client.Client, store *session.Store, log logging.Logger, r *bufio.Reader, w io.Writer) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		log:      log,
		client:   c,
		store:    store,
		guard:    guard.New(store),
		accounts: services.NewAccountService(c),
		balances: services.NewBalanceService(c),
		reader:   r,
		out:      w,
	}
}

// Run restores the previous session, starts the token value watcher and
// serves the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	a.println("Welcome to SanderCoin CLI (type 'help' for commands)")
	a.restore(ctx)

	if a.watcher != nil {
		a.watcher.Start(ctx)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) restore(ctx context.Context) {
	st, err := a.store.Restore(ctx)
	switch {
	case err != nil:
		a.log.Warn(ctx, "session restore failed", "error", err)
		a.println("Your previous session is no longer valid, please log in again.")
	case st.Authenticated():
		a.println("Welcome back,", displayName(*st.Session))
	}
}

func (a *App) close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.guard.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error(context.Background(), "failed to close database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.IsAuthenticated()
}

func (a *App) getStatus() string {
	sess, ok := a.store.Current()
	if !ok {
		return "(guest)"
	}
	return fmt.Sprintf("(%s %s SND)", displayName(sess), sess.Balance.StringFixed(4))
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
