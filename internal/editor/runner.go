package editor

import (
	"context"
	"errors"
	"sync"

	"draftly/internal/domain/models/workspace"
)

// ErrSuperseded is returned when a generation finished after a newer one
// was started for the same editing surface; its result must be discarded.
var ErrSuperseded = errors.New("generation superseded by a newer request")

// GenerateFunc performs one generation request. It must honor context
// cancellation: stopping mid-request leaves already-incorporated content
// alone and applies nothing further.
type GenerateFunc func(ctx context.Context) (*workspace.GenerationResult, error)

// Runner serializes AI generation for one editing surface with
// latest-wins semantics: starting a new generation cancels the in-flight
// one, and a response that arrives after being superseded is ignored
// rather than applied to the store.
type Runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewRunner creates a generation runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes fn under a cancellable context. If another Run begins while
// fn is in flight, fn's context is cancelled and its eventual result is
// dropped with ErrSuperseded - only the latest response may mutate the
// store.
func (r *Runner) Run(ctx context.Context, fn GenerateFunc) (*workspace.GenerationResult, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	result, err := fn(runCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		return nil, ErrSuperseded
	}
	r.cancel = nil
	cancel()
	return result, err
}

// Cancel aborts the in-flight generation, if any. Partial content already
// incorporated stays; nothing further is applied.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		r.seq++
	}
}
