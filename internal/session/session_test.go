package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelight/pagelight/internal/config"
	"github.com/pagelight/pagelight/internal/decode"
	"github.com/pagelight/pagelight/internal/decode/decodetest"
	"github.com/pagelight/pagelight/internal/domain"
)

// manualClock lets tests fire scheduler ticks by hand.
type manualClock struct {
	tick func()
}

func (c *manualClock) Start(interval time.Duration, tick func()) { c.tick = tick }
func (c *manualClock) SetInterval(interval time.Duration)       {}
func (c *manualClock) Stop()                                    {}

func (c *manualClock) fire() {
	if c.tick != nil {
		c.tick()
	}
}

func newTestSession(t *testing.T, texts ...string) (*Session, *decodetest.FakeDocument, *PageStore, *manualClock) {
	t.Helper()
	doc := decodetest.NewFakeDocument(texts...)
	store := NewPageStore()
	clock := &manualClock{}
	s, err := New(doc, "test.pdf", config.Default(), store, clock, zerolog.Nop())
	require.NoError(t, err)
	return s, doc, store, clock
}

func TestSession_ExposesExtractionAndPages(t *testing.T) {
	s, _, _, _ := newTestSession(t, "alpha", "beta")
	defer s.Close()

	pages, err := s.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	res, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, "alpha\n\nbeta", res.Text)
	assert.NotEqual(t, s.ID().String(), "")
	assert.Equal(t, "test.pdf", s.Path())
}

func TestSession_RenderCachesGenuineContent(t *testing.T) {
	s, _, _, _ := newTestSession(t, "alpha")
	defer s.Close()

	first, err := s.Render(0)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.Render(0)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, s.CacheLen())

	out, err := s.Render(5)
	require.NoError(t, err)
	assert.Nil(t, out, "out-of-range is not an error")
}

func TestSession_CloseExactlyOnce(t *testing.T) {
	s, doc, _, _ := newTestSession(t, "alpha")

	require.NoError(t, s.Close())
	assert.True(t, doc.Closed)

	assert.ErrorIs(t, s.Close(), domain.ErrDocumentClosed)

	_, err := s.PageCount()
	assert.ErrorIs(t, err, domain.ErrDocumentClosed)
	_, err = s.Result()
	assert.ErrorIs(t, err, domain.ErrDocumentClosed)
	_, err = s.Render(0)
	assert.ErrorIs(t, err, domain.ErrDocumentClosed)
	assert.ErrorIs(t, s.StartAll(), domain.ErrDocumentClosed)
	assert.ErrorIs(t, s.StopAll(), domain.ErrDocumentClosed)
	assert.ErrorIs(t, s.Apply(config.Default()), domain.ErrDocumentClosed)
	assert.ErrorIs(t, s.Replace("other.pdf"), domain.ErrDocumentClosed)
}

func TestSession_ProgressiveRenderingFillsStore(t *testing.T) {
	s, _, store, clock := newTestSession(t, "a", "b", "c")
	defer s.Close()

	require.NoError(t, s.StartAll())
	for i := 0; i < 4; i++ {
		clock.fire()
	}

	assert.Equal(t, 3, store.Len())
	assert.NotNil(t, store.Page(0))
	assert.NotNil(t, store.Page(2))
}

func TestSession_RenderVisible(t *testing.T) {
	s, _, store, _ := newTestSession(t, "a", "b", "c", "d")
	defer s.Close()

	store.SetVisibleRange(1, 3)
	attempted, err := s.RenderVisible(2)
	require.NoError(t, err)

	assert.Equal(t, 2, attempted)
	assert.True(t, store.HasPage(1))
	assert.True(t, store.HasPage(2))
	assert.False(t, store.HasPage(3))
}

func TestSession_ApplyDelayOnlyKeepsCache(t *testing.T) {
	s, _, _, _ := newTestSession(t, "alpha")
	defer s.Close()

	_, err := s.Render(0)
	require.NoError(t, err)
	require.Equal(t, 1, s.CacheLen())

	cfg := config.Default()
	cfg.Render.DelayMS = 500
	require.NoError(t, s.Apply(cfg))

	assert.Equal(t, 1, s.CacheLen(), "delay change must not discard rasters")
}

func TestSession_ApplyResolutionChangePurgesAndReExtracts(t *testing.T) {
	s, _, store, _ := newTestSession(t, "alpha")
	defer s.Close()

	before, err := s.Result()
	require.NoError(t, err)
	_, err = s.Render(0)
	require.NoError(t, err)
	store.SetPage(0, nil)

	cfg := config.Default()
	cfg.Render.ResolutionDPI = 180
	require.NoError(t, s.Apply(cfg))

	assert.Equal(t, 0, s.CacheLen())
	assert.Equal(t, 0, store.Len(), "rendered flags must be dropped")

	after, err := s.Result()
	require.NoError(t, err)
	assert.NotSame(t, before, after, "extraction output is rebuilt")
	assert.Equal(t, before.Text, after.Text)
}

func TestSession_ApplyModeChangeReExtracts(t *testing.T) {
	s, _, _, _ := newTestSession(t, "alpha")
	defer s.Close()

	cfg := config.Default()
	cfg.Extraction.Mode = "structured"
	require.NoError(t, s.Apply(cfg))

	res, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, "structured", string(res.Mode))
}

func TestSession_ApplyDecodePathChangePurgesOnly(t *testing.T) {
	s, _, _, _ := newTestSession(t, "alpha")
	defer s.Close()

	before, err := s.Result()
	require.NoError(t, err)
	_, err = s.Render(0)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Render.DecodePath = config.DecodeFast
	require.NoError(t, s.Apply(cfg))

	assert.Equal(t, 0, s.CacheLen())
	after, err := s.Result()
	require.NoError(t, err)
	assert.Same(t, before, after, "decode path change keeps extraction output")
}

func TestSession_ReplaceSwapsDocumentAndDiscardsOldState(t *testing.T) {
	s, oldDoc, store, _ := newTestSession(t, "old page")
	defer s.Close()

	_, err := s.Render(0)
	require.NoError(t, err)
	require.Equal(t, 1, s.CacheLen())
	store.SetPage(0, nil)

	newDoc := decodetest.NewFakeDocument("fresh one", "fresh two")
	s.open = func(path string, _ zerolog.Logger) (decode.Document, error) {
		assert.Equal(t, "next.pdf", path)
		return newDoc, nil
	}

	require.NoError(t, s.Replace("next.pdf"))

	assert.True(t, oldDoc.Closed, "previous document handle must be released")
	assert.Equal(t, "next.pdf", s.Path())
	assert.Equal(t, 0, s.CacheLen(), "old rasters must not survive the swap")
	assert.Equal(t, 0, store.Len(), "rendered flags must be dropped")

	pages, err := s.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	res, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, "fresh one\n\nfresh two", res.Text)

	raster, err := s.Render(1)
	require.NoError(t, err)
	assert.NotNil(t, raster, "renderer must be rebound to the new document")
	assert.False(t, newDoc.Closed)
}

func TestSession_ReplaceFailureKeepsCurrentDocument(t *testing.T) {
	s, _, _, _ := newTestSession(t, "alpha")
	defer s.Close()

	err := s.Replace("/nonexistent/never.pdf")
	require.Error(t, err)

	pages, err := s.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.Equal(t, "test.pdf", s.Path())
}

func TestPageStore_Reset(t *testing.T) {
	store := NewPageStore()
	store.SetVisibleRange(0, 4)
	store.SetPage(2, nil)

	store.Reset(10)

	assert.Equal(t, 0, store.Len())
	first, last := store.VisibleRange()
	assert.Greater(t, first, last, "visible range is empty after reset")
}
