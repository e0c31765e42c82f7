package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	candleusecase "stock_insight/internal/feature/candles/usecase"
)

type stubSymbols struct {
	codes []string
	err   error
}

func (s stubSymbols) ListActiveCodes(ctx context.Context) ([]string, error) {
	return s.codes, s.err
}

type stubIngester struct {
	mu    sync.Mutex
	calls [][]string
	done  chan struct{}
}

func (s *stubIngester) IngestAll(ctx context.Context, symbols []string) (candleusecase.IngestResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, symbols)
	s.mu.Unlock()
	if s.done != nil {
		select {
		case s.done <- struct{}{}:
		default:
		}
	}
	return candleusecase.IngestResult{Succeeded: len(symbols)}, nil
}

func TestRunOnce(t *testing.T) {
	t.Parallel()

	ing := &stubIngester{}
	res, err := runOnce(context.Background(), stubSymbols{codes: []string{"AAPL", "MSFT"}}, ing, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, [][]string{{"AAPL", "MSFT"}}, ing.calls)
}

func TestRunOnce_SymbolError(t *testing.T) {
	t.Parallel()

	ing := &stubIngester{}
	_, err := runOnce(context.Background(), stubSymbols{err: errors.New("db down")}, ing, 0)
	assert.ErrorContains(t, err, "failed to load symbols")
	assert.Empty(t, ing.calls)
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	c := cron.New(cron.WithSeconds())
	ing := &stubIngester{done: make(chan struct{}, 1)}
	require.NoError(t, schedule(context.Background(), c, "* * * * * *", stubSymbols{codes: []string{"AAPL"}}, ing, time.Second))

	c.Start()
	defer c.Stop()

	select {
	case <-ing.done:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled ingest did not run")
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	t.Parallel()

	err := schedule(context.Background(), cron.New(), "not a cron", stubSymbols{}, &stubIngester{}, 0)
	assert.ErrorContains(t, err, "register ingest task")
}
