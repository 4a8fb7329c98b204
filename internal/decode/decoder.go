// Package decode wraps the external document-decoding libraries behind a
// single Document interface. The core packages (extract, render, schedule)
// never touch a decoding library directly; they consume this surface, which
// keeps them testable against a fake decoder.
package decode

// Rect is an axis-aligned box in page layout units. Coordinates grow
// rightward and downward from the page's top-left corner.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the box.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// ImageRef identifies an embedded image within a document. The reference is
// opaque to the core; it is resolvable by the decoder that produced it.
type ImageRef struct {
	Page   int    // 0-based owning page
	Name   string // resource name within the page
	Width  int    // intrinsic pixel width, 0 if unknown
	Height int    // intrinsic pixel height, 0 if unknown
}

// BlockKind discriminates structured content blocks.
type BlockKind int

const (
	// BlockText is a paragraph-like run of text lines.
	BlockText BlockKind = iota
	// BlockImage is a placed embedded image.
	BlockImage
)

// Block is one structured content block of a page.
type Block struct {
	Kind  BlockKind
	BBox  Rect
	Lines []string // text blocks only
	Image ImageRef // image blocks only
}

// Layout is a page's block-structured content.
type Layout struct {
	Height float64 // page height in layout units
	Width  float64 // page width in layout units
	Blocks []Block
}

// Pixmap is a raw rasterization result in the decoder's native pixel layout.
type Pixmap struct {
	Width    int
	Height   int
	Stride   int    // bytes per row
	Channels int    // samples per pixel: 1 gray, 3 RGB, 4 RGBA
	Samples  []byte // len >= Stride*Height
}

// Document is an opaque handle to decoded paginated content. Implementations
// are not safe for concurrent use; the owning session serializes access.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageText extracts the plain text of a page.
	PageText(page int) (string, error)

	// PageLayout returns block-structured content (text and image blocks)
	// for a page.
	PageLayout(page int) (*Layout, error)

	// PageImages enumerates embedded images of a page without placement
	// detail, in the order the decoder reports them.
	PageImages(page int) ([]ImageRef, error)

	// RenderRaw rasterizes a page at the given linear scale (1.0 equals
	// 72 DPI) and exposes the decoder's raw pixel buffer.
	RenderRaw(page int, scale float64) (*Pixmap, error)

	// RenderPNG rasterizes a page at the given linear scale and encodes
	// the result to PNG, for decoding through an independent routine.
	RenderPNG(page int, scale float64) ([]byte, error)

	// Close releases the underlying handles. The document is unusable
	// afterwards.
	Close() error
}
