package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is one unit of pool work. It must honor ctx.
type Task[R any] func(ctx context.Context) R

// Pool runs tasks on a fixed number of goroutines and streams their results
type Pool[R any] struct {
	size    int
	tasks   chan Task[R]
	results chan R

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex // guards closed against sends on tasks
	closed bool

	running     sync.WaitGroup
	resultsOnce sync.Once

	submitted atomic.Int64
	completed atomic.Int64
}

// NewPool creates a pool of size workers whose tasks run under a child of ctx
func NewPool[R any](ctx context.Context, size int) *Pool[R] {
	if size <= 0 {
		size = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		size:    size,
		tasks:   make(chan Task[R], size*2),
		results: make(chan R, size*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool[R]) Start() {
	p.running.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.run()
	}
}

func (p *Pool[R]) run() {
	defer p.running.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			r := task(p.ctx)
			p.completed.Add(1)
			select {
			case p.results <- r:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a task, blocking while the queue is full.
// It reports false once the pool is closed or its context is done.
func (p *Pool[R]) Submit(task Task[R]) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed || p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- task:
		p.submitted.Add(1)
		return true
	}
}

// Results streams results as tasks complete.
// The channel is closed once every worker has stopped.
func (p *Pool[R]) Results() <-chan R {
	return p.results
}

// Close stops accepting tasks; queued tasks still run
func (p *Pool[R]) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	go func() {
		p.running.Wait()
		p.closeResults()
	}()
}

// Wait closes the pool and collects every remaining result
func (p *Pool[R]) Wait() []R {
	p.Close()

	var out []R
	for r := range p.results {
		out = append(out, r)
	}
	return out
}

// Shutdown cancels running tasks, drops queued ones and stops the workers
func (p *Pool[R]) Shutdown() {
	p.cancel()
	p.running.Wait()
	p.closeResults()
}

// Stats reports how many tasks were accepted and how many finished
func (p *Pool[R]) Stats() (submitted, completed int64) {
	return p.submitted.Load(), p.completed.Load()
}

func (p *Pool[R]) closeResults() {
	p.resultsOnce.Do(func() { close(p.results) })
}
