// Package parallel runs independent jobs on a bounded pool of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	MaxWorkers int

	// Timeout bounds the whole Execute call. 0 means no timeout.
	Timeout time.Duration
}

// DefaultPoolConfig returns min(NumCPU, 8) workers, at least 2, and no timeout.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a copy of the config with n workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy of the config with the given timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// PoolMetrics holds execution statistics of the last Execute call.
type PoolMetrics struct {
	TotalTasks     int
	CompletedTasks int
	FailedTasks    int
	TotalDuration  time.Duration
	MaxTaskTime    time.Duration
}

// TaskResult holds the outcome of one input.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
}

// WorkerPool executes a function over inputs with bounded concurrency.
type WorkerPool[T any, R any] struct {
	config PoolConfig

	mu      sync.Mutex
	metrics PoolMetrics
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// Workers returns the configured concurrency.
func (p *WorkerPool[T, R]) Workers() int {
	return p.config.MaxWorkers
}

// Execute applies fn to every input and returns results in input order.
// Inputs not started before the context ends carry the context error.
func (p *WorkerPool[T, R]) Execute(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	results := make([]TaskResult[T, R], len(inputs))
	started := make([]bool, len(inputs))
	indexCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(p.config.MaxWorkers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				taskStart := time.Now()
				result, err := fn(ctx, inputs[idx])
				results[idx] = TaskResult[T, R]{
					Input:    inputs[idx],
					Result:   result,
					Error:    err,
					Duration: time.Since(taskStart),
				}
			}
		}()
	}

dispatch:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break dispatch
		case indexCh <- i:
			started[i] = true
		}
	}
	close(indexCh)
	wg.Wait()

	for i := range results {
		if !started[i] {
			results[i] = TaskResult[T, R]{Input: inputs[i], Error: ctx.Err()}
		}
	}

	p.recordMetrics(results, time.Since(start))
	return results
}

func (p *WorkerPool[T, R]) recordMetrics(results []TaskResult[T, R], total time.Duration) {
	m := PoolMetrics{TotalTasks: len(results), TotalDuration: total}
	for _, r := range results {
		if r.Error != nil {
			m.FailedTasks++
		} else {
			m.CompletedTasks++
		}
		if r.Duration > m.MaxTaskTime {
			m.MaxTaskTime = r.Duration
		}
	}

	p.mu.Lock()
	p.metrics = m
	p.mu.Unlock()
}

// Metrics returns statistics of the last Execute call.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}
