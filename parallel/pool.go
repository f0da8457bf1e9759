package parallel

import (
	"runtime"
	"sync"
)

// Pool runs tasks on a fixed number of goroutines. With a single worker
// tasks run synchronously on the caller's goroutine.
type Pool struct {
	workers int
	wg      sync.WaitGroup
	work    chan func()
	stop    func()
}

// Start launches numWorkers goroutines; values below 1 mean GOMAXPROCS.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{workers: numWorkers, stop: func() {}}
	if numWorkers == 1 {
		return pool
	}

	pool.work = make(chan func(), numWorkers)
	for range numWorkers {
		pool.wg.Go(func() {
			for f := range pool.work {
				f()
			}
		})
	}
	pool.stop = sync.OnceFunc(func() { close(pool.work) })
	return pool
}

func (p *Pool) Workers() int {
	return p.workers
}

// Go queues f, blocking while all workers are busy. It must not be called
// after Wait.
func (p *Pool) Go(f func()) {
	if p.work == nil {
		f()
		return
	}
	p.work <- f
}

// Wait stops accepting work and blocks until queued tasks are done.
func (p *Pool) Wait() {
	p.stop()
	p.wg.Wait()
}
