// Package render rasterizes document pages at a configured resolution with a
// bounded LRU cache, oversize shrinking, and multi-stage failure degradation.
package render

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/decode"
)

const (
	// MinDPI and MaxDPI bound the supported rendering resolution.
	MinDPI = 72
	MaxDPI = 220

	baseDPI  = 72.0
	minScale = 0.5
	maxScale = 3.0

	// A raster above either limit is re-rendered once at a reduced scale
	// computed against the target caps.
	maxRasterWidth  = 6000
	maxRasterHeight = 8000
	capRasterWidth  = 3000.0
	capRasterHeight = 4000.0
)

// ClampDPI forces dpi into the supported range.
func ClampDPI(dpi int) int {
	if dpi < MinDPI {
		return MinDPI
	}
	if dpi > MaxDPI {
		return MaxDPI
	}
	return dpi
}

// Raster is a decoded page bitmap. Immutable once produced; shared read-only
// between the cache and any number of consumers.
type Raster struct {
	Image image.Image
	// Placeholder marks a failure stand-in rather than genuine content.
	Placeholder bool
}

// Renderer produces page rasters, memoized in a PixelCache. It never fails
// for an in-range page: decoder faults degrade to an uncached placeholder.
type Renderer struct {
	doc    decode.Document
	cache  *PixelCache
	dpi    int
	safe   bool
	logger zerolog.Logger
}

// NewRenderer creates a renderer over an open document. dpi is clamped to
// the supported range; safe selects the PNG round-trip decode path.
func NewRenderer(doc decode.Document, cache *PixelCache, dpi int, safe bool, logger zerolog.Logger) *Renderer {
	return &Renderer{
		doc:    doc,
		cache:  cache,
		dpi:    ClampDPI(dpi),
		safe:   safe,
		logger: logger.With().Str("component", "render").Logger(),
	}
}

// Resolution returns the effective (clamped) DPI.
func (r *Renderer) Resolution() int { return r.dpi }

// SafeDecode reports whether the PNG round-trip path is active.
func (r *Renderer) SafeDecode() bool { return r.safe }

// SetResolution changes the target DPI (clamped). The caller is responsible
// for purging the cache.
func (r *Renderer) SetResolution(dpi int) { r.dpi = ClampDPI(dpi) }

// SetSafeDecode switches the decode path. The caller is responsible for
// purging the cache.
func (r *Renderer) SetSafeDecode(safe bool) { r.safe = safe }

// PageCount returns the page count of the underlying document.
func (r *Renderer) PageCount() int {
	if r.doc == nil {
		return 0
	}
	return r.doc.PageCount()
}

// Key returns the cache key a render of page would use right now.
func (r *Renderer) Key(page int) Key {
	return Key{Page: page, DPI: r.dpi, Safe: r.safe}
}

// Render rasterizes a page. It returns nil when there is no document or the
// index is out of range ("cannot render now"), a placeholder raster on any
// decoder failure, and a cached or fresh raster otherwise. Only genuine
// content is cached, so transient failures are retried on the next request.
func (r *Renderer) Render(page int) *Raster {
	if r.doc == nil || page < 0 || page >= r.doc.PageCount() {
		return nil
	}

	key := r.Key(page)
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	img, err := r.renderScaled(page)
	if err != nil {
		r.logger.Warn().Err(err).Int("page", page).Msg("page render failed, serving placeholder")
		return &Raster{Image: placeholderTile(page), Placeholder: true}
	}

	raster := &Raster{Image: img}
	r.cache.Put(key, raster)
	return raster
}

// renderScaled rasterizes at the clamped scale and applies the single
// oversize re-render.
func (r *Renderer) renderScaled(page int) (image.Image, error) {
	scale := clampScale(float64(r.dpi) / baseDPI)

	img, err := r.renderAt(page, scale)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxRasterWidth || bounds.Dy() > maxRasterHeight {
		shrink := math.Max(float64(bounds.Dx())/capRasterWidth, float64(bounds.Dy())/capRasterHeight)
		r.logger.Debug().Int("page", page).Float64("shrink", shrink).Msg("raster over safety bound, re-rendering")
		img, err = r.renderAt(page, scale/shrink)
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}

// renderAt runs one rasterization through the active decode path. A raw
// pixmap with an unsupported channel count falls back to the safe path for
// that call only.
func (r *Renderer) renderAt(page int, scale float64) (image.Image, error) {
	if r.safe {
		return r.renderSafe(page, scale)
	}

	pix, err := r.doc.RenderRaw(page, scale)
	if err != nil {
		return nil, err
	}
	img, ok := imageFromPixmap(pix)
	if !ok {
		r.logger.Debug().Int("page", page).Int("channels", pix.Channels).Msg("unsupported channel count, using safe path")
		return r.renderSafe(page, scale)
	}
	return img, nil
}

// renderSafe encodes through the decoder's PNG writer and decodes back with
// the standard library's independent PNG reader, isolating the renderer from
// raw-buffer layout mismatches.
func (r *Renderer) renderSafe(page int, scale float64) (image.Image, error) {
	data, err := r.doc.RenderPNG(page, scale)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}

func clampScale(scale float64) float64 {
	if scale < minScale {
		return minScale
	}
	if scale > maxScale {
		return maxScale
	}
	return scale
}

// imageFromPixmap maps the decoder's channel count to a pixel format,
// copying samples so the cached image never aliases the decoder's buffer.
// Returns ok=false for channel counts other than 1, 3, or 4.
func imageFromPixmap(pix *decode.Pixmap) (image.Image, bool) {
	switch pix.Channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, pix.Width, pix.Height))
		copyRows(img.Pix, img.Stride, pix, 1)
		return img, true
	case 3:
		img := image.NewRGBA(image.Rect(0, 0, pix.Width, pix.Height))
		for y := 0; y < pix.Height; y++ {
			src := pix.Samples[y*pix.Stride:]
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < pix.Width; x++ {
				dst[x*4+0] = src[x*3+0]
				dst[x*4+1] = src[x*3+1]
				dst[x*4+2] = src[x*3+2]
				dst[x*4+3] = 0xff
			}
		}
		return img, true
	case 4:
		img := image.NewRGBA(image.Rect(0, 0, pix.Width, pix.Height))
		copyRows(img.Pix, img.Stride, pix, 4)
		return img, true
	default:
		return nil, false
	}
}

func copyRows(dst []byte, dstStride int, pix *decode.Pixmap, channels int) {
	rowBytes := pix.Width * channels
	for y := 0; y < pix.Height; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], pix.Samples[y*pix.Stride:y*pix.Stride+rowBytes])
	}
}
