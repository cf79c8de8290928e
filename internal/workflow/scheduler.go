package workflow

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled task. It is safe to call more than once and
// from inside the task itself.
type CancelFunc func()

// Scheduler runs delayed and repeating tasks. Implementations must not run a
// task after its CancelFunc has returned, except for a call already in
// progress.
type Scheduler interface {
	After(d time.Duration, fn func()) CancelFunc
	Every(d time.Duration, fn func()) CancelFunc
}

// SystemScheduler runs tasks on the runtime timers.
type SystemScheduler struct{}

func (SystemScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (SystemScheduler) Every(d time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

// tasks tracks the cancel funcs of everything one workflow has scheduled.
type tasks struct {
	next    int
	pending map[int]CancelFunc
}

func (t *tasks) add(cancel CancelFunc) int {
	if t.pending == nil {
		t.pending = make(map[int]CancelFunc)
	}
	t.next++
	t.pending[t.next] = cancel
	return t.next
}

func (t *tasks) cancel(id int) {
	if c, ok := t.pending[id]; ok {
		delete(t.pending, id)
		c()
	}
}

func (t *tasks) cancelAll() {
	for id, c := range t.pending {
		delete(t.pending, id)
		c()
	}
}
