// Package parallel runs independent tasks on a bounded set of goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/dd0wney/rk-toolkit/pkg/logging"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// WorkerPool manages a fixed set of worker goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // guards closed and sends on taskQueue
	closed    bool
	logger    logging.Logger
}

// NewWorkerPool starts a pool with the given number of workers. A
// non-positive count uses GOMAXPROCS.
func NewWorkerPool(workers int, logger logging.Logger) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	wp := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logging.OrDefault(logger),
	}
	for i := 0; i < workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
	return wp
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		task()
	}
}

// Submit queues a task. It blocks while the queue is full.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}
	wp.taskQueue <- task
	return nil
}

// Close stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Map applies fn to every item on the pool and returns the results in
// input order. The first error cancels the tasks that have not started yet
// and is returned; a panicking task yields a *PanicError.
func Map[T, R any](ctx context.Context, wp *WorkerPool, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	results := make([]R, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := wp.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error("task panicked",
						logging.Component("parallel"),
						logging.Int("index", i),
						logging.Any("panic", r),
					)
					cancel(&PanicError{Value: r})
				}
			}()
			if ctx.Err() != nil {
				return
			}
			r, err := fn(ctx, i, item)
			if err != nil {
				cancel(err)
				return
			}
			results[i] = r
		})
		if err != nil {
			wg.Done()
			cancel(err)
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return results, nil
}
