// Package decodetest provides an in-memory decode.Document for unit tests.
package decodetest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/pagelight/pagelight/internal/decode"
)

// FakePage is one page of canned decoder output.
type FakePage struct {
	Text      string
	Layout    *decode.Layout
	Images    []decode.ImageRef
	TextErr   error
	LayoutErr error
}

// FakeDocument implements decode.Document from canned pages. Rendering is
// overridable per test; the defaults produce a scale-proportional gray
// pixmap and its PNG encoding.
type FakeDocument struct {
	Pages []FakePage

	// RawFunc and PNGFunc override rasterization when set.
	RawFunc func(page int, scale float64) (*decode.Pixmap, error)
	PNGFunc func(page int, scale float64) ([]byte, error)

	// RawScales and PNGScales record the scales requested, in order.
	RawScales []float64
	PNGScales []float64

	Closed bool
}

// NewFakeDocument builds a fake with the given page texts and no figures.
func NewFakeDocument(texts ...string) *FakeDocument {
	doc := &FakeDocument{}
	for _, t := range texts {
		doc.Pages = append(doc.Pages, FakePage{Text: t})
	}
	return doc
}

func (d *FakeDocument) PageCount() int { return len(d.Pages) }

func (d *FakeDocument) PageText(page int) (string, error) {
	if err := d.check(page); err != nil {
		return "", err
	}
	p := d.Pages[page]
	if p.TextErr != nil {
		return "", p.TextErr
	}
	return p.Text, nil
}

func (d *FakeDocument) PageLayout(page int) (*decode.Layout, error) {
	if err := d.check(page); err != nil {
		return nil, err
	}
	p := d.Pages[page]
	if p.LayoutErr != nil {
		return nil, p.LayoutErr
	}
	if p.Layout == nil {
		return &decode.Layout{Width: 612, Height: 792}, nil
	}
	return p.Layout, nil
}

func (d *FakeDocument) PageImages(page int) ([]decode.ImageRef, error) {
	if err := d.check(page); err != nil {
		return nil, err
	}
	return d.Pages[page].Images, nil
}

func (d *FakeDocument) RenderRaw(page int, scale float64) (*decode.Pixmap, error) {
	d.RawScales = append(d.RawScales, scale)
	if d.RawFunc != nil {
		return d.RawFunc(page, scale)
	}
	if err := d.check(page); err != nil {
		return nil, err
	}
	return GrayPixmap(int(100*scale), int(140*scale)), nil
}

func (d *FakeDocument) RenderPNG(page int, scale float64) ([]byte, error) {
	d.PNGScales = append(d.PNGScales, scale)
	if d.PNGFunc != nil {
		return d.PNGFunc(page, scale)
	}
	if err := d.check(page); err != nil {
		return nil, err
	}
	return EncodePNG(int(100*scale), int(140*scale))
}

func (d *FakeDocument) Close() error {
	d.Closed = true
	return nil
}

func (d *FakeDocument) check(page int) error {
	if d.Closed {
		return fmt.Errorf("fake document closed")
	}
	if page < 0 || page >= len(d.Pages) {
		return fmt.Errorf("page %d out of range", page)
	}
	return nil
}

// GrayPixmap returns a single-channel pixmap of the given size.
func GrayPixmap(w, h int) *decode.Pixmap {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &decode.Pixmap{
		Width:    w,
		Height:   h,
		Stride:   w,
		Channels: 1,
		Samples:  make([]byte, w*h),
	}
}

// RGBAPixmap returns a four-channel pixmap of the given size.
func RGBAPixmap(w, h int) *decode.Pixmap {
	return &decode.Pixmap{
		Width:    w,
		Height:   h,
		Stride:   w * 4,
		Channels: 4,
		Samples:  make([]byte, w*h*4),
	}
}

// EncodePNG returns the PNG encoding of a uniform image of the given size.
func EncodePNG(w, h int) ([]byte, error) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xcc
	}
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
