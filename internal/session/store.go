package session

import (
	"sync"

	"github.com/pagelight/pagelight/internal/render"
)

// PageStore is an in-memory sink: it keeps finished rasters per page and a
// caller-set visible range. The GUI slot/flag pair maps onto it directly.
type PageStore struct {
	mu      sync.Mutex
	pages   map[int]*render.Raster
	first   int
	last    int
	visible bool
}

// NewPageStore returns an empty store with no visible range.
func NewPageStore() *PageStore {
	return &PageStore{pages: make(map[int]*render.Raster)}
}

// SetVisibleRange marks pages first..last inclusive as currently visible.
func (p *PageStore) SetVisibleRange(first, last int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.first, p.last, p.visible = first, last, true
}

// VisibleRange reports the current visible range; an empty range is returned
// as (0, -1) so iteration over it does nothing.
func (p *PageStore) VisibleRange() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible {
		return 0, -1
	}
	return p.first, p.last
}

// HasPage reports whether a finished raster is already held for page.
func (p *PageStore) HasPage(page int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pages[page]
	return ok
}

// SetPage stores a finished raster for page.
func (p *PageStore) SetPage(page int, r *render.Raster) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[page] = r
}

// Page returns the stored raster for page, or nil.
func (p *PageStore) Page(page int) *render.Raster {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages[page]
}

// Len reports how many pages hold a finished raster.
func (p *PageStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// Reset drops every stored raster ahead of a new document.
func (p *PageStore) Reset(pageCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = make(map[int]*render.Raster, pageCount)
	p.visible = false
}
