// Package workerpool runs generation calls on a fixed number of workers.
//
// Requests beyond the number of workers wait in a bounded queue, and
// submitters block while the queue is full. Every request carries its own
// deadline covering both queue wait and execution.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure Pool implements the interface.
var _ driven.Dispatcher = (*Pool)(nil)

// DefaultWorkers is the number of workers used when none is configured.
const DefaultWorkers = 3

type result struct {
	out string
	err error
}

type job struct {
	ctx  context.Context
	task driven.Task
	done chan result
}

// Pool is a bounded worker pool. The zero value is not usable; call New.
type Pool struct {
	jobs    chan job
	quit    chan struct{}
	group   *errgroup.Group
	workers int

	// mu guards sends on jobs against Shutdown closing it.
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// New starts size workers with room for queue waiting requests.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	if queue < 0 {
		queue = 0
	}

	p := &Pool{
		jobs:    make(chan job, queue),
		quit:    make(chan struct{}),
		group:   new(errgroup.Group),
		workers: size,
	}
	for i := 0; i < size; i++ {
		p.group.Go(p.work)
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) work() error {
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			j.done <- result{err: err}
			continue
		}
		out, err := run(j)
		j.done <- result{out: out, err: err}
	}
	return nil
}

func run(j job) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return j.task(j.ctx)
}

// Submit queues task and waits for its result. A positive timeout bounds
// the request from the moment of submission. When it elapses the task
// context is cancelled and domain.ErrTimedOut is returned.
func (p *Pool) Submit(ctx context.Context, timeout time.Duration, task driven.Task) (string, error) {
	if task == nil {
		return "", domain.ErrInvalidInput
	}

	reqCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	j := job{ctx: reqCtx, task: task, done: make(chan result, 1)}
	if err := p.enqueue(reqCtx, j); err != nil {
		return "", p.classify(ctx, err)
	}

	select {
	case r := <-j.done:
		if r.err != nil && reqCtx.Err() != nil && errors.Is(r.err, reqCtx.Err()) {
			return "", p.classify(ctx, r.err)
		}
		return r.out, r.err
	case <-reqCtx.Done():
		return "", p.classify(ctx, reqCtx.Err())
	}
}

func (p *Pool) enqueue(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return domain.ErrPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	case <-p.quit:
		return domain.ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classify maps a request deadline to ErrTimedOut while leaving
// cancellation by the caller as it is.
func (p *Pool) classify(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return domain.ErrTimedOut
	}
	return err
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Shutdown stops accepting work and waits for queued and running tasks to
// finish. It returns ctx.Err() if ctx ends first; the workers keep draining
// in the background. Calling Shutdown more than once is safe.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
