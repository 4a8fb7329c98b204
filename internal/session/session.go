// Package session reifies the reader's mutable state (open document,
// extraction output, pixel cache, renderer, scheduler) as one explicit
// object, so multiple documents or test harnesses can coexist.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/config"
	"github.com/pagelight/pagelight/internal/decode"
	"github.com/pagelight/pagelight/internal/domain"
	"github.com/pagelight/pagelight/internal/extract"
	"github.com/pagelight/pagelight/internal/render"
	"github.com/pagelight/pagelight/internal/schedule"
)

// Resettable is implemented by sinks that track per-page rendered flags;
// Reset drops them all before a new document is presented.
type Resettable interface {
	Reset(pageCount int)
}

// Session owns an open document exclusively: it is closed exactly once, and
// every operation after Close fails with domain.ErrDocumentClosed. All
// mutation of the cache and renderer is serialized on the session, including
// render steps driven by the scheduler's clock.
type Session struct {
	id     uuid.UUID
	sink   schedule.Sink
	clock  schedule.Clock
	sched  *schedule.Scheduler
	logger zerolog.Logger

	// open decodes a document path; Replace goes through it so tests can
	// swap in a fake decoder.
	open func(path string, logger zerolog.Logger) (decode.Document, error)

	mu       sync.Mutex
	cfg      config.Config
	path     string
	doc      decode.Document
	result   *extract.Result
	cache    *render.PixelCache
	renderer *render.Renderer
	closed   bool
}

// Open decodes the document at path and runs the configured extraction pass.
// On failure the error identifies the path and the underlying cause and no
// partial state is retained.
func Open(path string, cfg config.Config, sink schedule.Sink, clock schedule.Clock, logger zerolog.Logger) (*Session, error) {
	doc, err := decode.Open(path, logger)
	if err != nil {
		return nil, err
	}
	s, err := New(doc, path, cfg, sink, clock, logger)
	if err != nil {
		doc.Close()
		return nil, err
	}
	return s, nil
}

// New builds a session over an already-decoded document. The session takes
// ownership of doc.
func New(doc decode.Document, path string, cfg config.Config, sink schedule.Sink, clock schedule.Clock, logger zerolog.Logger) (*Session, error) {
	cfg.Clamp()
	id := uuid.New()

	s := &Session{
		id:     id,
		sink:   sink,
		clock:  clock,
		logger: logger.With().Str("component", "session").Str("session_id", id.String()).Logger(),
		open: func(path string, logger zerolog.Logger) (decode.Document, error) {
			return decode.Open(path, logger)
		},
		cfg:  cfg,
		path: path,
		doc:  doc,
	}

	result, err := s.extractLocked()
	if err != nil {
		return nil, err
	}
	s.result = result
	s.cache = render.NewPixelCache(cfg.Render.CacheCapacity)
	s.renderer = render.NewRenderer(doc, s.cache, cfg.Render.ResolutionDPI, cfg.Render.SafeDecode(), s.logger)
	s.sched = schedule.New(lockedRenderer{s}, sink, clock, cfg.Render.DelayMS, s.logger)

	s.logger.Info().
		Str("path", path).
		Int("pages", doc.PageCount()).
		Int("figures", len(result.Figures)).
		Msg("document loaded")
	return s, nil
}

func (s *Session) extractLocked() (*extract.Result, error) {
	ex := extract.New(extract.Mode(s.cfg.Extraction.Mode), s.cfg.Extraction.StripHeaders, s.logger)
	return ex.Run(s.doc)
}

// ID returns the session's identity.
func (s *Session) ID() uuid.UUID { return s.id }

// Path returns the source path of the active document.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// PageCount returns the active document's page count.
func (s *Session) PageCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrDocumentClosed
	}
	return s.doc.PageCount(), nil
}

// Result returns the current extraction output.
func (s *Session) Result() (*extract.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrDocumentClosed
	}
	return s.result, nil
}

// Render rasterizes one page through the session's renderer and cache. A nil
// raster means "cannot render now" (out of range), not corruption.
func (s *Session) Render(page int) (*render.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrDocumentClosed
	}
	return s.renderer.Render(page), nil
}

// CacheLen reports the number of cached rasters.
func (s *Session) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// StartAll begins progressive rendering of the whole document.
func (s *Session) StartAll() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrDocumentClosed
	}
	sched := s.sched
	s.mu.Unlock()

	sched.StartAll()
	return nil
}

// StopAll cancels progressive rendering.
func (s *Session) StopAll() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrDocumentClosed
	}
	sched := s.sched
	s.mu.Unlock()

	sched.StopAll()
	return nil
}

// Scheduler exposes the progressive scheduler for drivers that tick it.
func (s *Session) Scheduler() *schedule.Scheduler { return s.sched }

// RenderVisible synchronously renders up to count unrendered visible pages.
func (s *Session) RenderVisible(count int) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, domain.ErrDocumentClosed
	}
	sched := s.sched
	s.mu.Unlock()

	return sched.RenderVisible(count), nil
}

// Apply reconfigures the session. Changing the resolution or the extraction
// surface rebuilds extraction output and discards the cache; changing the
// decode path discards the cache only; changing the delay adjusts the tick
// interval in place.
func (s *Session) Apply(cfg config.Config) error {
	cfg.Clamp()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrDocumentClosed
	}

	old := s.cfg
	s.cfg = cfg

	reExtract := cfg.Extraction != old.Extraction ||
		cfg.Render.ResolutionDPI != old.Render.ResolutionDPI
	purge := reExtract || cfg.Render.DecodePath != old.Render.DecodePath

	if purge {
		s.sched.Invalidate()
		s.cache.Purge()
		s.renderer.SetResolution(cfg.Render.ResolutionDPI)
		s.renderer.SetSafeDecode(cfg.Render.SafeDecode())
		s.resetSinkLocked()
	}

	var err error
	if reExtract {
		s.result, err = s.extractLocked()
	}
	s.mu.Unlock()

	s.sched.SetInterval(cfg.Render.DelayMS)
	return err
}

// Replace atomically swaps in the document at path: the scheduler is
// invalidated so no in-flight result reaches the new document, the cache is
// purged, rendered flags are dropped, and only then is the new document
// presented. On open failure the current document stays active.
func (s *Session) Replace(path string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrDocumentClosed
	}
	s.mu.Unlock()

	doc, err := s.open(path, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		doc.Close()
		return domain.ErrDocumentClosed
	}

	s.sched.Invalidate()
	s.cache.Purge()

	old := s.doc
	oldPath := s.path
	s.doc = doc
	s.path = path

	result, err := s.extractLocked()
	if err != nil {
		// Extraction failure rolls the swap back; no partial state.
		s.doc = old
		s.path = oldPath
		doc.Close()
		return err
	}
	s.result = result
	s.renderer = render.NewRenderer(doc, s.cache, s.cfg.Render.ResolutionDPI, s.cfg.Render.SafeDecode(), s.logger)
	s.resetSinkLocked()
	old.Close()

	s.logger.Info().Str("path", path).Int("pages", doc.PageCount()).Msg("document replaced")
	return nil
}

func (s *Session) resetSinkLocked() {
	if r, ok := s.sink.(Resettable); ok {
		r.Reset(s.doc.PageCount())
	}
}

// Close releases the document exactly once. Any later operation, including a
// second Close, fails with domain.ErrDocumentClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrDocumentClosed
	}
	s.closed = true
	doc := s.doc
	s.doc = nil
	s.result = nil
	s.cache.Purge()
	s.mu.Unlock()

	s.sched.Invalidate()
	err := doc.Close()
	s.logger.Debug().Msg("session closed")
	return err
}

// lockedRenderer routes the scheduler's render steps through the session
// mutex, keeping the single-accessor guarantee for the cache even when the
// clock fires on its own goroutine.
type lockedRenderer struct {
	s *Session
}

func (lr lockedRenderer) Render(page int) *render.Raster {
	lr.s.mu.Lock()
	defer lr.s.mu.Unlock()
	if lr.s.closed {
		return nil
	}
	return lr.s.renderer.Render(page)
}

func (lr lockedRenderer) PageCount() int {
	lr.s.mu.Lock()
	defer lr.s.mu.Unlock()
	if lr.s.closed || lr.s.doc == nil {
		return 0
	}
	return lr.s.doc.PageCount()
}
