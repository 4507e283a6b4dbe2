package quiz

import (
	"sync"
	"time"
)

// DefaultAutoAdvance is how long a correct sentence answer stays on screen
// before the session moves on by itself.
const DefaultAutoAdvance = time.Second

// AutoAdvance fires a callback once after a fixed delay unless cancelled
// first. The serving layer arms it when a correct answer lands and cancels it
// on any user action that preempts the advance. A zero or negative delay
// disables scheduling entirely.
type AutoAdvance struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewAutoAdvance(delay time.Duration) *AutoAdvance {
	return &AutoAdvance{delay: delay}
}

// Schedule arms the timer, replacing any pending one. fn runs on its own
// goroutine when the delay elapses.
func (a *AutoAdvance) Schedule(fn func()) {
	if a == nil || a.delay <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, fn)
}

// Cancel stops a pending advance. It is safe when nothing is scheduled; a
// callback that already started running is not interrupted.
func (a *AutoAdvance) Cancel() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
