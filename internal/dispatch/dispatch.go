// Package dispatch runs CPU bound extraction work on a bounded worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
)

// ErrTaskPanicked is returned by Run when the task panicked
var ErrTaskPanicked = errors.New("task panicked")

// how long Run waits before offering a task to a full pool again
const resubmitInterval = 5 * time.Millisecond

// Pool is a fixed size worker pool
type Pool struct {
	pool *ants.Pool
}

// NewPool creates a pool running at most size tasks at once
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			slog.Error("Worker task panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Running returns the number of busy workers
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Cap returns the pool size
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release stops the pool. Tasks already running finish on their own.
func (p *Pool) Release() {
	p.pool.Release()
}

// Run submits fn and waits for its result or for ctx to end. While every worker is busy
// the task waits for a free one until ctx ends. A task already running is not
// interrupted when ctx ends; only the wait is abandoned.
func Run[T any](ctx context.Context, p *Pool, fn func() T) (T, error) {
	var zero T
	result := make(chan T, 1)
	failed := make(chan struct{})

	task := func() {
		defer func() {
			if r := recover(); r != nil {
				close(failed)
				panic(r)
			}
		}()
		result <- fn()
	}
	if err := p.submit(ctx, task); err != nil {
		return zero, err
	}

	select {
	case v := <-result:
		return v, nil
	case <-failed:
		return zero, ErrTaskPanicked
	case <-ctx.Done():
		return zero, fmt.Errorf("waiting for task: %w", ctx.Err())
	}
}

func (p *Pool) submit(ctx context.Context, task func()) error {
	for {
		err := p.pool.Submit(task)
		if !errors.Is(err, ants.ErrPoolOverload) {
			if err != nil {
				return fmt.Errorf("submitting task: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for a free worker: %w", ctx.Err())
		case <-time.After(resubmitInterval):
		}
	}
}
