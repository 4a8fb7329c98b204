// Package extract builds the merged text representation of a document: one
// offset-indexed character buffer with inline figure markers, a span per
// page, and a registry of figures.
package extract

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/pagelight/pagelight/internal/decode"
	"github.com/pagelight/pagelight/internal/domain"
)

// Mode selects the extraction strategy.
type Mode string

const (
	// ModeSimple uses per-page plain text plus trailing image markers.
	ModeSimple Mode = "simple"
	// ModeStructured walks block-structured content, interleaving figure
	// markers and optionally stripping headers and footers.
	ModeStructured Mode = "structured"
)

// stripMargin is the header/footer band, in layout units, measured from the
// page top and bottom. Text blocks entirely inside a band are dropped when
// stripping is enabled.
const stripMargin = 60.0

// separator is the blank-line separator between page contributions.
const separator = "\n\n"

// Span is a [Start, End) byte range over the merged text buffer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Figure is one embedded image discovered during extraction. Ids are 1-based
// and strictly increasing in text order within a single pass; they carry no
// identity across passes.
type Figure struct {
	ID   int
	Page int // 0-based owning page
	Ref  decode.ImageRef
	BBox *decode.Rect // nil when the strategy cannot report one
}

// Result is the complete output of one extraction pass.
type Result struct {
	Text    string
	Spans   []Span // one [start,end) per page, in page order
	Figures map[int]Figure
	Mode    Mode
}

// PageText returns page i's contribution to the merged buffer.
func (r *Result) PageText(i int) string {
	if i < 0 || i >= len(r.Spans) {
		return ""
	}
	s := r.Spans[i]
	return r.Text[s.Start:s.End]
}

// FigurePage resolves a figure id to its owning page index.
func (r *Result) FigurePage(id int) (int, bool) {
	f, ok := r.Figures[id]
	if !ok {
		return 0, false
	}
	return f.Page, true
}

// Extractor runs one strategy over an open document. Re-running discards all
// prior output; identical input yields identical output.
type Extractor struct {
	mode         Mode
	stripHeaders bool
	logger       zerolog.Logger
}

// New creates an extractor. stripHeaders only applies to structured mode.
func New(mode Mode, stripHeaders bool, logger zerolog.Logger) *Extractor {
	return &Extractor{
		mode:         mode,
		stripHeaders: stripHeaders,
		logger:       logger.With().Str("component", "extract").Str("mode", string(mode)).Logger(),
	}
}

// Run extracts the merged text, page spans, and figure registry.
func (e *Extractor) Run(doc decode.Document) (*Result, error) {
	if doc == nil {
		return nil, domain.ExtractionError("no open document", nil)
	}

	b := &builder{figures: make(map[int]Figure)}
	switch e.mode {
	case ModeStructured:
		e.buildStructured(doc, b)
	default:
		e.buildSimple(doc, b)
	}

	text := strings.TrimRight(b.buf.String(), " \t\r\n\v\f")
	// Spans were recorded against the untrimmed buffer; the final trim can
	// only shorten the last page's contribution, so its end is clamped.
	for i := range b.spans {
		if b.spans[i].End > len(text) {
			b.spans[i].End = len(text)
		}
		if b.spans[i].Start > len(text) {
			b.spans[i].Start = len(text)
		}
	}

	e.logger.Debug().
		Int("pages", len(b.spans)).
		Int("figures", len(b.figures)).
		Int("bytes", len(text)).
		Msg("extraction pass complete")

	return &Result{
		Text:    text,
		Spans:   b.spans,
		Figures: b.figures,
		Mode:    e.mode,
	}, nil
}

// builder accumulates one pass's output.
type builder struct {
	buf     strings.Builder
	spans   []Span
	figures map[int]Figure
	figID   int
}

func (b *builder) endPage(start int) {
	b.spans = append(b.spans, Span{Start: start, End: b.buf.Len()})
}

// buildSimple appends, per page, the trimmed plain text and one marker per
// embedded image, each section followed by a blank-line separator.
func (e *Extractor) buildSimple(doc decode.Document, b *builder) {
	for page := 0; page < doc.PageCount(); page++ {
		start := b.buf.Len()

		text, err := doc.PageText(page)
		if err != nil {
			e.logger.Warn().Err(err).Int("page", page).Msg("plain text extraction failed")
			text = ""
		}
		if text = strings.TrimSpace(text); text != "" {
			b.buf.WriteString(text)
			b.buf.WriteString(separator)
		}

		images, err := doc.PageImages(page)
		if err != nil {
			e.logger.Warn().Err(err).Int("page", page).Msg("image enumeration failed")
			images = nil
		}
		if len(images) > 0 {
			marks := make([]string, 0, len(images))
			for _, ref := range images {
				b.figID++
				marks = append(marks, Marker(b.figID, page+1))
				b.figures[b.figID] = Figure{ID: b.figID, Page: page, Ref: ref}
			}
			b.buf.WriteString(strings.Join(marks, " "))
			b.buf.WriteString(separator)
		}

		b.endPage(start)
	}
}

// buildStructured walks block-structured content. Text blocks emit their
// non-empty lines each followed by a newline plus one closing newline per
// block; image blocks emit a marker and register the figure with its
// reported bounding box. A page that produced no text lines falls back to
// plain text so it is never silently empty.
func (e *Extractor) buildStructured(doc decode.Document, b *builder) {
	for page := 0; page < doc.PageCount(); page++ {
		start := b.buf.Len()

		layout, err := doc.PageLayout(page)
		if err != nil {
			e.logger.Warn().Err(err).Int("page", page).Msg("structured extraction failed")
			layout = &decode.Layout{}
		}

		wrote := false
		for _, blk := range layout.Blocks {
			switch blk.Kind {
			case decode.BlockText:
				if e.stripHeaders && e.inMargin(blk.BBox, layout.Height) {
					continue
				}
				for _, line := range blk.Lines {
					if strings.TrimSpace(line) == "" {
						continue
					}
					b.buf.WriteString(line)
					b.buf.WriteString("\n")
					wrote = true
				}
				b.buf.WriteString("\n")

			case decode.BlockImage:
				b.figID++
				b.buf.WriteString(Marker(b.figID, page+1))
				b.buf.WriteString(separator)
				bbox := blk.BBox
				b.figures[b.figID] = Figure{ID: b.figID, Page: page, Ref: blk.Image, BBox: &bbox}
			}
		}

		if !wrote {
			text, err := doc.PageText(page)
			if err != nil {
				e.logger.Warn().Err(err).Int("page", page).Msg("plain text fallback failed")
				text = ""
			}
			if text = strings.TrimSpace(text); text != "" {
				b.buf.WriteString(text)
				b.buf.WriteString(separator)
			}
		}

		b.endPage(start)
	}
}

// inMargin reports whether a block lies entirely above the top margin or
// entirely below the bottom margin. Image blocks are never stripped; only
// text blocks are tested.
func (e *Extractor) inMargin(box decode.Rect, pageHeight float64) bool {
	return box.Y1 <= stripMargin || box.Y0 >= pageHeight-stripMargin
}
