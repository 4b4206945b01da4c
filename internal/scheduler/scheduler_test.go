package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	calls  atomic.Int32
	notify chan struct{}
	fail   func(call int32) error
}

func (r *countingRunner) Run(ctx context.Context) error {
	call := r.calls.Add(1)
	select {
	case r.notify <- struct{}{}:
	default:
	}
	if r.fail != nil {
		return r.fail(call)
	}
	return nil
}

func waitForCall(t *testing.T, ch <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(within):
		t.Fatalf("runner was not called within %s", within)
	}
}

func TestSchedulerRunsImmediately(t *testing.T) {
	runner := &countingRunner{notify: make(chan struct{}, 1)}
	s := New(time.Hour, runner)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	waitForCall(t, runner.notify, 2*time.Second)
}

func TestSchedulerSurvivesFailingCycles(t *testing.T) {
	runner := &countingRunner{
		notify: make(chan struct{}, 4),
		fail: func(call int32) error {
			if call == 1 {
				panic("boom")
			}
			return errors.New("corrupt known set")
		},
	}
	s := New(time.Second, runner)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	waitForCall(t, runner.notify, 2*time.Second)
	waitForCall(t, runner.notify, 3*time.Second)
	waitForCall(t, runner.notify, 3*time.Second)

	if got := runner.calls.Load(); got < 3 {
		t.Errorf("expected at least 3 calls, got %d", got)
	}
}

type blockingRunner struct {
	active  atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
}

func (r *blockingRunner) Run(ctx context.Context) error {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)
	r.calls.Add(1)

	select {
	case <-time.After(1500 * time.Millisecond):
	case <-ctx.Done():
	}
	return nil
}

func TestSchedulerDoesNotOverlapCycles(t *testing.T) {
	runner := &blockingRunner{}
	s := New(time.Second, runner)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	time.Sleep(3500 * time.Millisecond)
	s.Stop()

	if runner.overlap.Load() {
		t.Error("cycles overlapped")
	}
	if runner.calls.Load() < 2 {
		t.Errorf("expected delayed cycles to run, got %d calls", runner.calls.Load())
	}
}
