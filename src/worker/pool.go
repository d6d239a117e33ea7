package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Job is one unit of work. It runs on a pool goroutine.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with strict back-pressure: it accepts
// at most size jobs in flight (running or queued) and drops the rest.
type Pool struct {
	jobs     chan job
	size     int32
	inFlight atomic.Int32
	wg       sync.WaitGroup
}

type job struct {
	ctx context.Context
	fn  Job
}

// New creates a worker pool. Size defaults to 1 when size<=0.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan job, size), size: int32(size)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
}

func (p *Pool) run(j job) {
	defer p.inFlight.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker: PANIC in job: %v", r)
		}
	}()
	j.fn(j.ctx)
}

// Submit enqueues fn if the pool has capacity. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, fn Job) bool {
	if p.inFlight.Add(1) > p.size {
		p.inFlight.Add(-1)
		return false
	}
	p.jobs <- job{ctx: ctx, fn: fn}
	return true
}

// Busy reports whether any job is running or queued.
func (p *Pool) Busy() bool { return p.inFlight.Load() > 0 }

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
