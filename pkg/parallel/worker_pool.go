// Package parallel provides the bounded worker pool that fans out the
// per-iteration force work of the layout engine.
package parallel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
)

// WorkerPool manages a fixed set of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned by Run after Close.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a pool with the given number of workers. Zero or
// negative means runtime.GOMAXPROCS(0).
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
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

// Submit queues a task. It returns false if the pool is closed. A panic in
// the task is recovered so the worker survives.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- func() {
		defer func() { _ = recover() }()
		task()
	}
	return true
}

// Run executes every task on the pool and blocks until all of them have
// returned. Panics inside tasks are reported as errors.
func (wp *WorkerPool) Run(tasks []func()) error {
	var (
		done   sync.WaitGroup
		errMu  sync.Mutex
		panics []error
	)

	wp.mu.RLock()
	if wp.closed {
		wp.mu.RUnlock()
		return ErrPoolClosed
	}
	for i, task := range tasks {
		done.Add(1)
		wp.taskQueue <- func() {
			defer done.Done()
			defer func() {
				if r := recover(); r != nil {
					errMu.Lock()
					panics = append(panics, fmt.Errorf("task %d panicked: %v", i, r))
					errMu.Unlock()
				}
			}()
			task()
		}
	}
	wp.mu.RUnlock()

	done.Wait()
	return errors.Join(panics...)
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

// Split divides n items into at most lanes contiguous [lo, hi) ranges of
// near-equal size. Empty ranges are never returned.
func Split(n, lanes int) [][2]int {
	if n <= 0 {
		return nil
	}
	lanes = max(1, min(lanes, n))
	out := make([][2]int, 0, lanes)
	size, rem := n/lanes, n%lanes
	lo := 0
	for i := 0; i < lanes; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return out
}
