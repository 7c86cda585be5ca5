package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/client/fake"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValueWatcher_KeepsLastValueOnError(t *testing.T) {
	var fail atomic.Bool
	fc := &fake.Client{
		GetTokenValueFn: func(context.Context) (models.TokenValue, error) {
			if fail.Load() {
				return models.TokenValue{}, &client.Error{Kind: client.KindUnavailable, Err: errors.New("dial")}
			}
			return models.TokenValue{Value: decimal.RequireFromString("0.5"), Timestamp: "t1"}, nil
		},
	}
	w := NewTokenValueWatcher(fc, time.Hour, nil)

	_, known := w.Last()
	assert.False(t, known)

	require.NoError(t, w.Refresh(context.Background()))

	fail.Store(true)
	err := w.Refresh(context.Background())
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)

	v, known := w.Last()
	require.True(t, known)
	assert.Equal(t, "0.5", v.Value.String())
}

func TestTokenValueWatcher_BreakerOpensAfterFailures(t *testing.T) {
	fc := &fake.Client{
		GetTokenValueFn: func(context.Context) (models.TokenValue, error) {
			return models.TokenValue{}, errors.New("down")
		},
	}
	w := NewTokenValueWatcher(fc, time.Hour, nil)

	for i := 0; i < 3; i++ {
		require.Error(t, w.Refresh(context.Background()))
	}
	err := w.Refresh(context.Background())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, fc.Calls("GetTokenValue"))
}

func TestTokenValueWatcher_StartPollsImmediatelyAndStops(t *testing.T) {
	fc := &fake.Client{
		GetTokenValueFn: func(context.Context) (models.TokenValue, error) {
			return models.TokenValue{Value: decimal.NewFromInt(2)}, nil
		},
	}
	w := NewTokenValueWatcher(fc, 10*time.Millisecond, nil)
	w.Start(context.Background())

	require.Eventually(t, func() bool { return fc.Calls("GetTokenValue") >= 2 }, time.Second, 5*time.Millisecond)

	w.Stop()
	w.Stop()
	calls := fc.Calls("GetTokenValue")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, fc.Calls("GetTokenValue"))

	v, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, "2", v.Value.String())
}

func TestTokenValueWatcher_StopsWithContext(t *testing.T) {
	fc := &fake.Client{}
	w := NewTokenValueWatcher(fc, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	require.Eventually(t, func() bool { return fc.Calls("GetTokenValue") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
