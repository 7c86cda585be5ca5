package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/logging"
	"github.com/sony/gobreaker"
)

// DefaultTokenRefreshInterval is how often the token value is polled.
const DefaultTokenRefreshInterval = time.Minute

// TokenValueWatcher keeps the latest token price in memory, polling the
// exchange in the background. A failed poll keeps the previous value.
type TokenValueWatcher struct {
	client   client.Client
	interval time.Duration
	log      logging.Logger
	breaker  *gobreaker.CircuitBreaker

	mu    sync.RWMutex
	last  models.TokenValue
	known bool

	wg   sync.WaitGroup
	quit chan struct{}
	once sync.Once
}

func newTokenBreaker(log logging.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "token-value",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

func NewTokenValueWatcher(c client.Client, interval time.Duration, log logging.Logger) *TokenValueWatcher {
	if interval <= 0 {
		interval = DefaultTokenRefreshInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	return &TokenValueWatcher{
		client:   c,
		interval: interval,
		log:      log,
		breaker:  newTokenBreaker(log),
		quit:     make(chan struct{}),
	}
}

// Start fetches once right away and then on every tick until Stop is called
// or ctx is done.
func (w *TokenValueWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop ends the polling loop and waits for it to exit. It is safe to call
// more than once.
func (w *TokenValueWatcher) Stop() {
	w.once.Do(func() { close(w.quit) })
	w.wg.Wait()
}

func (w *TokenValueWatcher) run(ctx context.Context) {
	defer w.wg.Done()

	w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *TokenValueWatcher) poll(ctx context.Context) {
	if err := w.Refresh(ctx); err != nil {
		w.log.Warn(ctx, "token value refresh failed", "error", err)
	}
}

// Refresh fetches the value once. While the breaker is open it fails fast
// with gobreaker.ErrOpenState.
func (w *TokenValueWatcher) Refresh(ctx context.Context) error {
	res, err := w.breaker.Execute(func() (interface{}, error) {
		return w.client.GetTokenValue(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return err
		}
		return &OperationError{Op: "token value", Message: client.MessageOr(err, "failed to load token value"), Err: err}
	}

	v := res.(models.TokenValue)
	w.mu.Lock()
	w.last = v
	w.known = true
	w.mu.Unlock()

	w.log.Debug(ctx, "token value refreshed", "value", v.Value.String())
	return nil
}

// Last returns the most recent value and whether one was ever fetched.
func (w *TokenValueWatcher) Last() (models.TokenValue, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.known
}
