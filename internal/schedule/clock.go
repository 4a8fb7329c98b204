package schedule

import (
	"sync"
	"time"
)

// Clock abstracts the recurring timer that drives progressive rendering, so
// the scheduler can be driven by a real timer in production and ticked by
// hand in tests.
type Clock interface {
	// Start arms a recurring tick at the given interval. Restarting an
	// armed clock rearms it.
	Start(interval time.Duration, tick func())
	// SetInterval changes the interval; it takes effect on the next tick.
	SetInterval(interval time.Duration)
	// Stop cancels pending ticks. A tick already executing completes.
	Stop()
}

// WallClock drives ticks from a goroutine with a real timer.
type WallClock struct {
	mu       sync.Mutex
	interval time.Duration
	cancel   chan struct{}
}

// NewWallClock creates a stopped wall clock.
func NewWallClock() *WallClock {
	return &WallClock{}
}

// Start arms the clock. Any previous run is cancelled first.
func (c *WallClock) Start(interval time.Duration, tick func()) {
	c.mu.Lock()
	if c.cancel != nil {
		close(c.cancel)
	}
	c.interval = interval
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(cancel, tick)
}

func (c *WallClock) run(cancel chan struct{}, tick func()) {
	for {
		c.mu.Lock()
		interval := c.interval
		c.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-cancel:
			timer.Stop()
			return
		case <-timer.C:
			tick()
		}
	}
}

// SetInterval changes the tick interval without restarting the sequence.
func (c *WallClock) SetInterval(interval time.Duration) {
	c.mu.Lock()
	c.interval = interval
	c.mu.Unlock()
}

// Stop cancels pending ticks.
func (c *WallClock) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.mu.Unlock()
}
