// Package tracker drives one code submission from submit to a terminal
// judging outcome, polling the status endpoint on a fixed cadence.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"algotutor/internal/domain/model"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

func (s State) Done() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

const (
	DefaultInterval = 2 * time.Second
	DefaultMaxPolls = 150
)

var (
	ErrSubmitFailed        = errors.New("submission failed")
	ErrMissingSubmissionID = errors.New("submission response has no submission id")
	ErrStatusCheckFailed   = errors.New("failed to check submission status")
	ErrPollBudgetExceeded  = errors.New("submission did not finish within the poll budget")
	ErrSubmissionFailed    = errors.New("submission finished with an error")
)

// Judge is the backend as seen by the tracker.
type Judge interface {
	Submit(ctx context.Context, req model.SubmitRequest) (*model.SubmissionStatus, error)
	Status(ctx context.Context, submissionID string) (*model.SubmissionStatus, error)
}

type Event struct {
	State        State
	SubmissionID string
	Status       *model.SubmissionStatus
	Err          error
}

// Observer receives every transition on the run goroutine. Stop called from
// OnEvent cancels the run without waiting for it; an observer must not begin
// a new run with Start or Run.
type Observer interface {
	OnEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type Options struct {
	Interval time.Duration // delay between polls; DefaultInterval when zero
	MaxPolls int           // 0 polls until a terminal tag or cancellation
	Observer Observer

	// Wait replaces the tracker's timer. Tests use it to avoid real sleeps.
	Wait func(ctx context.Context, d time.Duration) error
}

// Snapshot is the tracker's state at one instant.
type Snapshot struct {
	State        State
	SubmissionID string
	Status       *model.SubmissionStatus
	Err          error
	Polls        int
}

// Tracker follows one submission at a time. Starting a new run cancels the
// previous one and resets all per-run state.
type Tracker struct {
	judge Judge
	opts  Options

	startMu sync.Mutex

	mu     sync.Mutex
	snap   Snapshot
	cancel context.CancelFunc
	done   chan struct{}

	notifying bool // an observer callback is in progress

	timer *time.Timer // owned by the run goroutine
}

func New(judge Judge, opts Options) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Tracker{judge: judge, opts: opts, snap: Snapshot{State: StateIdle}}
}

// Start begins tracking req in the background.
func (t *Tracker) Start(ctx context.Context, req model.SubmitRequest) {
	runCtx, finish := t.begin(ctx)
	go func() {
		defer finish()
		t.drive(runCtx, req)
	}()
}

// Run tracks req and blocks until it reaches a terminal state.
func (t *Tracker) Run(ctx context.Context, req model.SubmitRequest) (*model.SubmissionStatus, error) {
	runCtx, finish := t.begin(ctx)
	defer finish()
	return t.drive(runCtx, req)
}

// Wait blocks until the current run, if any, has finished.
func (t *Tracker) Wait() (*model.SubmissionStatus, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
	s := t.Snapshot()
	return s.Status, s.Err
}

// Stop cancels the current run and waits for it to exit. It is a no-op when
// nothing is running. While an observer is being notified Stop only cancels;
// use Wait to block until the run is gone.
func (t *Tracker) Stop() {
	t.stop(false)
}

func (t *Tracker) stop(alwaysWait bool) {
	t.mu.Lock()
	cancel, done, notifying := t.cancel, t.done, t.notifying
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if alwaysWait || !notifying {
		<-done
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Submitting is true while a run is submitting or polling.
func (t *Tracker) Submitting() bool {
	s := t.Snapshot().State
	return s == StateSubmitting || s == StatePolling
}

func (t *Tracker) begin(ctx context.Context) (context.Context, func()) {
	t.startMu.Lock()
	defer t.startMu.Unlock()

	t.stop(true)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.snap = Snapshot{State: StateIdle}
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	return runCtx, func() {
		cancel()
		close(done)
	}
}

func (t *Tracker) drive(ctx context.Context, req model.SubmitRequest) (*model.SubmissionStatus, error) {
	t.update(StateSubmitting, nil, nil, false)

	resp, err := t.judge.Submit(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return t.cancelled(ctx)
		}
		return t.fail(nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err))
	}
	if resp == nil || resp.SubmissionID == "" {
		return t.fail(resp, ErrMissingSubmissionID)
	}

	t.mu.Lock()
	t.snap.SubmissionID = resp.SubmissionID
	t.mu.Unlock()
	t.update(StatePolling, resp, nil, false)

	for {
		st, err := t.judge.Status(ctx, resp.SubmissionID)
		if err != nil {
			if ctx.Err() != nil {
				return t.cancelled(ctx)
			}
			return t.fail(nil, fmt.Errorf("%w: %w", ErrStatusCheckFailed, err))
		}

		if st.Status.IsTerminal() {
			if st.Status == model.StatusCompleted {
				t.update(StateSucceeded, st, nil, true)
				return st, nil
			}
			err := ErrSubmissionFailed
			if msg := st.ErrorText(); msg != "" {
				err = fmt.Errorf("%w: %s", ErrSubmissionFailed, msg)
			}
			return t.fail(st, err)
		}

		t.update(StatePolling, st, nil, true)
		if t.opts.MaxPolls > 0 && t.Snapshot().Polls >= t.opts.MaxPolls {
			return t.fail(st, ErrPollBudgetExceeded)
		}
		if err := t.sleep(ctx, t.opts.Interval); err != nil {
			return t.cancelled(ctx)
		}
	}
}

func (t *Tracker) sleep(ctx context.Context, d time.Duration) error {
	if t.opts.Wait != nil {
		return t.opts.Wait(ctx, d)
	}
	if t.timer == nil {
		t.timer = time.NewTimer(d)
	} else {
		t.timer.Reset(d)
	}
	select {
	case <-ctx.Done():
		t.timer.Stop()
		return ctx.Err()
	case <-t.timer.C:
		return nil
	}
}

func (t *Tracker) fail(st *model.SubmissionStatus, err error) (*model.SubmissionStatus, error) {
	t.update(StateFailed, st, err, false)
	return st, err
}

func (t *Tracker) cancelled(ctx context.Context) (*model.SubmissionStatus, error) {
	err := ctx.Err()
	t.update(StateCancelled, nil, err, false)
	return t.Snapshot().Status, err
}

// update records a transition and notifies the observer. A nil status keeps
// the last snapshot.
func (t *Tracker) update(state State, st *model.SubmissionStatus, err error, polled bool) {
	t.mu.Lock()
	t.snap.State = state
	if st != nil {
		t.snap.Status = st
	}
	if err != nil {
		t.snap.Err = err
	}
	if polled {
		t.snap.Polls++
	}
	ev := Event{State: state, SubmissionID: t.snap.SubmissionID, Status: t.snap.Status, Err: err}
	if t.opts.Observer == nil {
		t.mu.Unlock()
		return
	}
	t.notifying = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.notifying = false
		t.mu.Unlock()
	}()
	t.opts.Observer.OnEvent(ev)
}
