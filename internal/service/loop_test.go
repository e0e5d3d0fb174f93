package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/logger"
)

type countingHeaters struct {
	runs atomic.Int32
	err  error
}

func (c *countingHeaters) Run(context.Context, RunOptions) (*RunReport, error) {
	c.runs.Add(1)
	return &RunReport{}, c.err
}

func (c *countingHeaters) Ledger(context.Context) (ledger.Entry, error) { return ledger.Entry{}, nil }

func TestLoopService_RunsUntilCanceled(t *testing.T) {
	h := &countingHeaters{err: ErrRunInProgress}
	loop := NewLoopService(h, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for h.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("loop did not tick, runs=%d", h.runs.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestLoopService_NonPositiveIntervalReturns(t *testing.T) {
	h := &countingHeaters{}
	NewLoopService(h, logger.Nop()).Run(context.Background(), 0)
	if h.runs.Load() != 0 {
		t.Fatalf("expected no runs, got %d", h.runs.Load())
	}
}
