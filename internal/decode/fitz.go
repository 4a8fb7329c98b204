package decode

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"sort"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/domain"
)

// baseDPI is the layout-unit resolution; a linear scale of 1.0 renders at
// this DPI.
const baseDPI = 72.0

// letterHeight is the fallback page height when no MediaBox is available.
const (
	letterWidth  = 612.0
	letterHeight = 792.0
)

// FileDocument decodes a document from disk. Rasterization and plain text go
// through go-fitz (MuPDF); block structure and embedded-image enumeration go
// through the pure-Go PDF reader. Non-PDF inputs that MuPDF accepts are
// served in degraded mode: no block structure, no image registry.
type FileDocument struct {
	path   string
	fz     *fitz.Document
	file   *os.File
	reader *pdf.Reader
	pages  int
	logger zerolog.Logger
}

// Open decodes the document at path. The returned handle is owned by the
// caller and must be closed exactly once.
func Open(path string, logger zerolog.Logger) (*FileDocument, error) {
	v := NewValidator(logger)
	if err := v.ValidatePath(path); err != nil {
		return nil, err
	}

	fzDoc, err := fitz.New(path)
	if err != nil {
		return nil, domain.OpenError(fmt.Sprintf("failed to open %s", path), err)
	}

	doc := &FileDocument{
		path:   path,
		fz:     fzDoc,
		pages:  fzDoc.NumPage(),
		logger: logger.With().Str("component", "decode").Str("path", path).Logger(),
	}

	// Structure decoding is best-effort: a document MuPDF opens but the
	// PDF reader rejects still works for plain text and rasterization.
	file, reader, err := pdf.Open(path)
	if err != nil {
		doc.logger.Warn().Err(err).Msg("structure decoder unavailable, falling back to plain text")
	} else {
		doc.file = file
		doc.reader = reader
	}

	doc.logger.Debug().Int("pages", doc.pages).Msg("document opened")
	return doc, nil
}

// Path returns the source path the document was opened from.
func (d *FileDocument) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *FileDocument) PageCount() int { return d.pages }

// PageText extracts the plain text of a page via MuPDF.
func (d *FileDocument) PageText(page int) (string, error) {
	text, err := d.fz.Text(page)
	if err != nil {
		return "", domain.ExtractionError(fmt.Sprintf("text extraction failed for page %d", page+1), err)
	}
	return text, nil
}

// PageLayout returns the block-structured content of a page. Without a
// structure decoder it returns an empty layout, which the extractor treats
// as "no text lines" and recovers from per page.
func (d *FileDocument) PageLayout(page int) (*Layout, error) {
	if d.reader == nil {
		return &Layout{Width: letterWidth, Height: letterHeight}, nil
	}

	spans, width, height, err := d.pageSpans(page)
	if err != nil {
		return nil, err
	}
	images, err := d.PageImages(page)
	if err != nil {
		return nil, err
	}
	return buildLayout(width, height, spans, images), nil
}

// pageSpans reads positioned text fragments and page geometry. The content
// parser panics on malformed streams, so the call is fenced with recover.
func (d *FileDocument) pageSpans(page int) (spans []textSpan, width, height float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.ExtractionError(fmt.Sprintf("structured content parse failed for page %d", page+1), fmt.Errorf("%v", r))
		}
	}()

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, letterWidth, letterHeight, nil
	}

	width, height = pageSize(p)
	for _, t := range p.Content().Text {
		spans = append(spans, textSpan{
			x:    t.X,
			y:    height - t.Y, // PDF y grows upward; layout uses top-down
			w:    t.W,
			size: t.FontSize,
			text: t.S,
		})
	}
	return spans, width, height, nil
}

// PageImages enumerates the page's image XObjects in resource-name order.
func (d *FileDocument) PageImages(page int) (refs []ImageRef, err error) {
	if d.reader == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = domain.ExtractionError(fmt.Sprintf("image enumeration failed for page %d", page+1), fmt.Errorf("%v", r))
		}
	}()

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, nil
	}

	resources := p.V.Key("Resources")
	if resources.IsNull() {
		return nil, nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() || xobjects.Kind() != pdf.Dict {
		return nil, nil
	}

	keys := xobjects.Keys()
	sort.Strings(keys)
	for _, name := range keys {
		obj := xobjects.Key(name)
		if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
			continue
		}
		refs = append(refs, ImageRef{
			Page:   page,
			Name:   name,
			Width:  int(obj.Key("Width").Int64()),
			Height: int(obj.Key("Height").Int64()),
		})
	}
	return refs, nil
}

// RenderRaw rasterizes a page and exposes MuPDF's pixel buffer.
func (d *FileDocument) RenderRaw(page int, scale float64) (*Pixmap, error) {
	img, err := d.fz.ImageDPI(page, scale*baseDPI)
	if err != nil {
		return nil, domain.RenderError(fmt.Sprintf("rasterization failed for page %d", page+1), err)
	}
	return pixmapFromImage(img), nil
}

// RenderPNG rasterizes a page and encodes it to PNG inside MuPDF.
func (d *FileDocument) RenderPNG(page int, scale float64) ([]byte, error) {
	data, err := d.fz.ImagePNG(page, scale*baseDPI)
	if err != nil {
		return nil, domain.RenderError(fmt.Sprintf("PNG rasterization failed for page %d", page+1), err)
	}
	return data, nil
}

// Close releases both decoder handles.
func (d *FileDocument) Close() error {
	var firstErr error
	if d.fz != nil {
		if err := d.fz.Close(); err != nil {
			firstErr = err
		}
		d.fz = nil
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.file = nil
		d.reader = nil
	}
	return firstErr
}

// pixmapFromImage adapts the decoder's image to a raw pixmap without copying
// when the pixel layout is already byte-addressable.
func pixmapFromImage(img image.Image) *Pixmap {
	switch typed := img.(type) {
	case *image.RGBA:
		return &Pixmap{
			Width:    typed.Rect.Dx(),
			Height:   typed.Rect.Dy(),
			Stride:   typed.Stride,
			Channels: 4,
			Samples:  typed.Pix,
		}
	case *image.Gray:
		return &Pixmap{
			Width:    typed.Rect.Dx(),
			Height:   typed.Rect.Dy(),
			Stride:   typed.Stride,
			Channels: 1,
			Samples:  typed.Pix,
		}
	default:
		bounds := img.Bounds()
		converted := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(converted, converted.Bounds(), img, bounds.Min, draw.Src)
		return &Pixmap{
			Width:    converted.Rect.Dx(),
			Height:   converted.Rect.Dy(),
			Stride:   converted.Stride,
			Channels: 4,
			Samples:  converted.Pix,
		}
	}
}

// pageSize resolves the page's MediaBox, walking up the page tree for
// inherited boxes, defaulting to US Letter.
func pageSize(p pdf.Page) (width, height float64) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.IsNull() || box.Kind() != pdf.Array || box.Len() != 4 {
			continue
		}
		coords := make([]float64, 4)
		valid := true
		for i := 0; i < 4; i++ {
			val := box.Index(i)
			switch val.Kind() {
			case pdf.Integer:
				coords[i] = float64(val.Int64())
			case pdf.Real:
				coords[i] = val.Float64()
			default:
				valid = false
			}
		}
		if !valid {
			continue
		}
		w := coords[2] - coords[0]
		h := coords[3] - coords[1]
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return letterWidth, letterHeight
}
