// Package schedule drives incremental, cancellable page rasterization: one
// render step per tick of a caller-supplied clock, never blocking the
// interactive surface.
package schedule

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/render"
)

// Tick interval bounds in milliseconds.
const (
	MinIntervalMS     = 0
	MaxIntervalMS     = 1000
	DefaultIntervalMS = 100
)

// ClampInterval forces a tick interval into the supported range.
func ClampInterval(ms int) int {
	if ms < MinIntervalMS {
		return MinIntervalMS
	}
	if ms > MaxIntervalMS {
		return MaxIntervalMS
	}
	return ms
}

// State of the scheduler's render-all sequence.
type State int

const (
	// Idle means no sequence is armed.
	Idle State = iota
	// Running means ticks are advancing the cursor through the document.
	Running
)

// Sink is the display collaborator receiving rendered pages.
type Sink interface {
	// VisibleRange returns the inclusive page index range currently on
	// screen.
	VisibleRange() (first, last int)
	// HasPage reports whether the page's display slot already holds a
	// rendered image.
	HasPage(page int) bool
	// SetPage hands a rendered image to the page's display slot.
	SetPage(page int, raster *render.Raster)
}

// Renderer is the slice of the page renderer the scheduler drives.
type Renderer interface {
	Render(page int) *render.Raster
	PageCount() int
}

// Scheduler is an Idle/Running state machine rasterizing one page per tick.
// At most one render is in flight at any instant.
type Scheduler struct {
	renderer Renderer
	sink     Sink
	clock    Clock
	logger   zerolog.Logger

	mu       sync.Mutex
	interval time.Duration
	cursor   int
	state    State
	epoch    uint64
	run      uint64
}

// New creates an idle scheduler. A nil clock gets a wall clock. intervalMS
// is clamped to the supported range.
func New(renderer Renderer, sink Sink, clock Clock, intervalMS int, logger zerolog.Logger) *Scheduler {
	if clock == nil {
		clock = NewWallClock()
	}
	return &Scheduler{
		renderer: renderer,
		sink:     sink,
		clock:    clock,
		interval: time.Duration(ClampInterval(intervalMS)) * time.Millisecond,
		logger:   logger.With().Str("component", "schedule").Logger(),
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartAll arms a full-document render sequence: cursor to page zero and one
// tick per interval. No-op while already running.
func (s *Scheduler) StartAll() {
	s.mu.Lock()
	if s.state == Running {
		s.mu.Unlock()
		return
	}
	s.cursor = 0
	s.state = Running
	s.run++
	interval := s.interval
	s.mu.Unlock()

	s.logger.Debug().Dur("interval", interval).Msg("render-all started")
	s.clock.Start(interval, s.Tick)
}

// Tick performs one render step: render the cursor page if its slot is still
// empty, then advance. The tick handling the final page returns the
// scheduler to Idle and stops the clock; this is the only tick-driven exit.
// Exported so tests and synchronous drivers can tick by hand.
func (s *Scheduler) Tick() {
	// Read the page count before taking the lock; the renderer may itself
	// serialize on the session that also drives this scheduler.
	pageCount := s.renderer.PageCount()

	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return
	}
	if s.cursor >= pageCount {
		s.state = Idle
		s.mu.Unlock()
		s.clock.Stop()
		return
	}
	page := s.cursor
	s.cursor++
	last := s.cursor >= pageCount
	epoch := s.epoch
	run := s.run
	s.mu.Unlock()

	if !s.sink.HasPage(page) {
		if raster := s.renderer.Render(page); raster != nil {
			// The result of a step that began before the document was
			// replaced must never reach the new document's slots.
			s.mu.Lock()
			stale := s.epoch != epoch
			s.mu.Unlock()
			if !stale {
				s.sink.SetPage(page, raster)
			}
		}
	}

	if last {
		// A tick left over from an earlier run must not idle a sequence
		// restarted in the meantime.
		s.mu.Lock()
		drained := s.state == Running && s.epoch == epoch && s.run == run
		if drained {
			s.state = Idle
		}
		s.mu.Unlock()
		if drained {
			s.clock.Stop()
			s.logger.Debug().Msg("render-all drained")
		}
	}
}

// StopAll cancels the sequence: no further ticks fire, though a tick already
// executing completes and its result is applied.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	s.cursor = 0
	s.mu.Unlock()

	s.clock.Stop()
	s.logger.Debug().Msg("render-all stopped")
}

// Invalidate stops the sequence and advances the epoch so that any in-flight
// step's result is discarded. Called when the active document is replaced.
func (s *Scheduler) Invalidate() {
	s.mu.Lock()
	s.epoch++
	s.state = Idle
	s.cursor = 0
	s.mu.Unlock()

	s.clock.Stop()
}

// SetInterval changes the tick interval (clamped). While running it takes
// effect on the next tick without restarting the sequence.
func (s *Scheduler) SetInterval(ms int) {
	interval := time.Duration(ClampInterval(ms)) * time.Millisecond
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
	s.clock.SetInterval(interval)
}

// RenderVisible synchronously renders up to count not-yet-rendered pages
// within the sink's visible range, stopping once count pages have been
// attempted or the range is exhausted. Returns the number attempted.
func (s *Scheduler) RenderVisible(count int) int {
	first, last := s.sink.VisibleRange()
	attempted := 0
	for page := first; page <= last && attempted < count; page++ {
		if page < 0 || page >= s.renderer.PageCount() {
			continue
		}
		if s.sink.HasPage(page) {
			continue
		}
		if raster := s.renderer.Render(page); raster != nil {
			s.sink.SetPage(page, raster)
		}
		attempted++
	}
	return attempted
}
