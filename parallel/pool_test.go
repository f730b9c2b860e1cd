package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestPool(t *testing.T) {
	for _, workers := range []int{1, 4, 0} {
		pool := Start(workers)

		var ran atomic.Int64
		for i := range 100 {
			pool.Submit(func() error {
				ran.Add(1)
				if i%10 == 0 {
					return errors.New("failed")
				}
				return nil
			})
		}

		res := pool.Wait(true)
		if ran.Load() != 100 {
			t.Fatalf("workers=%d: ran %d jobs, want 100", workers, ran.Load())
		}
		if res.Processed != 90 || res.Failed != 10 || res.Total() != 100 {
			t.Fatalf("workers=%d: result %+v", workers, res)
		}
	}
}

func TestPoolWaitKeepsAccepting(t *testing.T) {
	pool := Start(3)
	pool.Submit(func() error { return nil })
	if res := pool.Wait(false); res.Processed != 1 {
		t.Fatalf("result %+v", res)
	}

	pool.Submit(func() error { return nil })
	if res := pool.Wait(true); res.Processed != 2 {
		t.Fatalf("result %+v", res)
	}
	// a second stop is harmless
	pool.Wait(true)
}
