// Package reader is the public entry point for the pagelight library: it
// opens a document session and exposes extraction output, page rasters and
// progressive rendering control.
package reader

import (
	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/config"
	"github.com/pagelight/pagelight/internal/extract"
	"github.com/pagelight/pagelight/internal/observability"
	"github.com/pagelight/pagelight/internal/render"
	"github.com/pagelight/pagelight/internal/schedule"
	"github.com/pagelight/pagelight/internal/session"
)

// Re-export extraction types for the public API
type (
	Result = extract.Result
	Span   = extract.Span
	Figure = extract.Figure
	Mode   = extract.Mode
)

// Re-export render and scheduling types
type (
	Raster    = render.Raster
	Config    = config.Config
	Sink      = schedule.Sink
	Clock     = schedule.Clock
	PageStore = session.PageStore
)

// Extraction mode constants
const (
	ModeSimple     = extract.ModeSimple
	ModeStructured = extract.ModeStructured
)

// Client wraps a single document session.
type Client struct {
	session *session.Session
	store   *session.PageStore
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return config.Default() }

// Open opens the document at path with the default configuration, no
// logging, and an in-memory page store as the render sink.
func Open(path string) (*Client, error) {
	return OpenWithConfig(path, config.Default(), zerolog.Nop())
}

// OpenWithConfig opens the document at path with explicit configuration.
func OpenWithConfig(path string, cfg Config, logger zerolog.Logger) (*Client, error) {
	store := session.NewPageStore()
	s, err := session.Open(path, cfg, store, nil, logger)
	if err != nil {
		return nil, err
	}
	return &Client{session: s, store: store}, nil
}

// Text returns the merged extraction text for the whole document.
func (c *Client) Text() (string, error) {
	res, err := c.session.Result()
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Result returns the full extraction output, including per-page spans and
// figure markers.
func (c *Client) Result() (*Result, error) {
	return c.session.Result()
}

// PageCount returns the number of pages in the document.
func (c *Client) PageCount() (int, error) {
	return c.session.PageCount()
}

// Render rasterizes a single zero-based page.
func (c *Client) Render(page int) (*Raster, error) {
	return c.session.Render(page)
}

// Store returns the sink holding pages finished by progressive rendering.
func (c *Client) Store() *PageStore { return c.store }

// StartAll begins progressive rendering from the first page.
func (c *Client) StartAll() error { return c.session.StartAll() }

// StopAll cancels progressive rendering; finished pages are kept.
func (c *Client) StopAll() error { return c.session.StopAll() }

// RenderVisible renders up to count unrendered pages in the store's visible
// range and reports how many it attempted.
func (c *Client) RenderVisible(count int) (int, error) {
	return c.session.RenderVisible(count)
}

// Apply reconfigures the open session, rebuilding extraction output or
// discarding the cache as the change requires.
func (c *Client) Apply(cfg Config) error { return c.session.Apply(cfg) }

// Replace swaps the active document for the one at path.
func (c *Client) Replace(path string) error { return c.session.Replace(path) }

// Close releases the document. The client is unusable afterwards.
func (c *Client) Close() error { return c.session.Close() }

// NewLogger builds a zerolog logger the way the CLI does, for callers that
// want session logging.
func NewLogger(level, format string) zerolog.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      format,
		ServiceName: "pagelight",
	})
}
