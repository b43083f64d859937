// Package task provides restartable work slots: starting new work in a slot
// cancels whatever the slot was running before.
package task

import (
	"context"
	"errors"
	"sync"
)

// ErrAborted is the cancellation cause recorded when work is superseded.
var ErrAborted = errors.New("task aborted")

// IsAborted reports whether err stems from a superseded or canceled task.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// Slot holds at most one live piece of work.
type Slot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelCauseFunc
}

// Ticket identifies one run in a Slot.
type Ticket struct {
	slot *Slot
	gen  uint64
	ctx  context.Context
}

// Begin aborts the current run, if any, and starts a new one derived from
// parent.
func (s *Slot) Begin(parent context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrAborted)
	}
	s.gen++
	s.cancel = cancel
	gen := s.gen
	s.mu.Unlock()

	return ctx, Ticket{slot: s, gen: gen, ctx: ctx}
}

// Abort cancels the current run without starting a new one.
func (s *Slot) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrAborted)
		s.cancel = nil
	}
	s.gen++
}

// Valid reports whether the ticket is still the slot's current run and
// has not been canceled.
func (t Ticket) Valid() bool {
	if t.slot == nil {
		return false
	}
	t.slot.mu.Lock()
	current := t.slot.gen == t.gen
	t.slot.mu.Unlock()
	return current && t.ctx.Err() == nil
}

// Check returns nil while the ticket is valid, otherwise the cancellation
// cause.
func (t Ticket) Check() error {
	if t.Valid() {
		return nil
	}
	if t.ctx != nil {
		if cause := context.Cause(t.ctx); cause != nil {
			return cause
		}
	}
	return ErrAborted
}

// End releases the ticket's context. The slot stays free for the next
// Begin.
func (t Ticket) End() {
	if t.slot == nil {
		return
	}
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	if t.slot.gen == t.gen && t.slot.cancel != nil {
		t.slot.cancel(context.Canceled)
		t.slot.cancel = nil
	}
}
