// Package bridge connects concurrent request handlers to the single
// goroutine that owns engine state. Handlers submit a task and block for
// the result; the owning loop consumes tasks one at a time.
package bridge

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Maestro/internal/core"
)

// Task is one unit of loop-bound work.
type Task func(ctx context.Context) (any, error)

type result struct {
	val any
	err error
}

type call struct {
	task Task
	done chan result
}

// Bridge is safe for concurrent Submit from any number of goroutines.
// Exactly one goroutine must consume it via Run.
type Bridge struct {
	queue   chan call
	timeout time.Duration
}

func New(depth int, timeout time.Duration) *Bridge {
	if depth < 1 {
		depth = 1
	}
	return &Bridge{
		queue:   make(chan call, depth),
		timeout: timeout,
	}
}

// Submit enqueues task and blocks until it completes, it fails, or the
// bridge timeout elapses. The timeout covers both the wait for queue space
// and the wait for the result. A task error is returned verbatim.
//
// Timeout does NOT cancel the task: the loop may still run it and mutate
// state after the caller has given up. Treat ErrBridgeTimeout as "outcome
// unknown", never as "definitely failed".
func (b *Bridge) Submit(ctx context.Context, task Task) (any, error) {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	// done is buffered so the loop never blocks on an abandoned caller.
	c := call{task: task, done: make(chan result, 1)}

	select {
	case b.queue <- c:
	case <-timer.C:
		log.Warn().Str("module", "bridge").Msg("submit timed out waiting for queue space")
		return nil, core.ErrBridgeTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-c.done:
		return r.val, r.err
	case <-timer.C:
		log.Warn().Str("module", "bridge").Msg("call timed out, outcome unknown")
		return nil, core.ErrBridgeTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Call is Submit with a typed result.
func Call[T any](ctx context.Context, b *Bridge, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := b.Submit(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Run consumes the queue until ctx is cancelled. The caller owning engine
// state runs this on its own goroutine; no other goroutine may.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-b.queue:
			v, err := c.task(ctx)
			c.done <- result{val: v, err: err}
		}
	}
}

// Depth reports queued, not-yet-consumed calls.
func (b *Bridge) Depth() int {
	return len(b.queue)
}
