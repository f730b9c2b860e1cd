package watch

import (
	"sync"
	"time"
)

// debouncer coalesces rapid event bursts into a single callback per file.
type debouncer struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	delay    time.Duration
	onFire   func(path string)
	stopped  bool
	inflight sync.WaitGroup
}

func newDebouncer(delay time.Duration, onFire func(path string)) *debouncer {
	return &debouncer{
		timers: make(map[string]*time.Timer),
		delay:  delay,
		onFire: onFire,
	}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, path)
		d.inflight.Add(1)
		d.mu.Unlock()

		defer d.inflight.Done()
		d.onFire(path)
	})
}

// stop cancels pending callbacks and waits for running ones. No callback
// starts after stop returns.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
	d.mu.Unlock()
	d.inflight.Wait()
}
