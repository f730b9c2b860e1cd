// Package parallel runs conversion jobs on a fixed number of workers and
// keeps count of how they ended.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type (
	// Job is one unit of work. A non-nil error counts the job as failed; the
	// job is expected to log its own failure.
	Job        func() error
	SubmitFunc func(Job)
	// WaitFunc blocks until every submitted job finished. With done set the
	// pool stops accepting work, otherwise it stays usable.
	WaitFunc   func(done bool) Result
	CancelFunc func()
)

// Result counts finished jobs.
type Result struct {
	Processed uint64
	Failed    uint64
}

func (r Result) Total() uint64 {
	return r.Processed + r.Failed
}

type Pool struct {
	wg        sync.WaitGroup
	pending   sync.WaitGroup
	processed atomic.Uint64
	failed    atomic.Uint64

	Submit SubmitFunc
	Wait   WaitFunc
	Cancel CancelFunc
}

func (p *Pool) run(job Job) {
	if err := job(); err != nil {
		p.failed.Add(1)
		return
	}
	p.processed.Add(1)
}

func (p *Pool) result() Result {
	return Result{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Start returns a pool with numWorkers workers. Less than one means one per
// available CPU; exactly one runs every job inline on the submitting
// goroutine.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{}
	pool.Submit = pool.run
	pool.Wait = func(bool) Result { return pool.result() }
	pool.Cancel = func() {}

	if numWorkers > 1 {
		jobs := make(chan Job, numWorkers)

		for range numWorkers {
			pool.wg.Go(func() {
				for job := range jobs {
					pool.run(job)
					pool.pending.Done()
				}
			})
		}

		pool.Submit = func(job Job) {
			pool.pending.Add(1)
			jobs <- job
		}

		pool.Cancel = sync.OnceFunc(func() { close(jobs) })
		pool.Wait = func(done bool) Result {
			if done {
				pool.Cancel()
				pool.wg.Wait()
			} else {
				pool.pending.Wait()
			}
			return pool.result()
		}
	}

	return pool
}
