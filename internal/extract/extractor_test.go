package extract

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelight/pagelight/internal/decode"
	"github.com/pagelight/pagelight/internal/decode/decodetest"
)

func runExtraction(t *testing.T, mode Mode, strip bool, doc decode.Document) *Result {
	t.Helper()
	res, err := New(mode, strip, zerolog.Nop()).Run(doc)
	require.NoError(t, err)
	return res
}

func textLayout(height float64, blocks ...decode.Block) *decode.Layout {
	return &decode.Layout{Width: 612, Height: height, Blocks: blocks}
}

func textBlock(y0, y1 float64, lines ...string) decode.Block {
	return decode.Block{
		Kind:  decode.BlockText,
		BBox:  decode.Rect{X0: 50, Y0: y0, X1: 550, Y1: y1},
		Lines: lines,
	}
}

func imageBlock(name string, w, h int) decode.Block {
	return decode.Block{
		Kind:  decode.BlockImage,
		BBox:  decode.Rect{X0: 0, Y0: 0, X1: float64(w), Y1: float64(h)},
		Image: decode.ImageRef{Name: name, Width: w, Height: h},
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	m := Marker(3, 7)
	assert.Equal(t, "[FIGURE 3 (p7)]", m)

	id, page, ok := ParseMarker(m)
	require.True(t, ok)
	assert.Equal(t, 3, id)
	assert.Equal(t, 7, page)

	_, _, ok = ParseMarker("[FIGURE x (p7)]")
	assert.False(t, ok)
}

func TestSimple_SpansAreMonotoneAndContiguous(t *testing.T) {
	doc := decodetest.NewFakeDocument("alpha", "beta", "", "gamma")
	res := runExtraction(t, ModeSimple, false, doc)

	require.Len(t, res.Spans, doc.PageCount())
	prevEnd := 0
	for i, s := range res.Spans {
		assert.Equal(t, prevEnd, s.Start, "page %d must start where page %d ended", i, i-1)
		assert.LessOrEqual(t, s.Start, s.End)
		prevEnd = s.End
	}
	assert.LessOrEqual(t, prevEnd, len(res.Text))
}

func TestSimple_PageTextReconstruction(t *testing.T) {
	doc := decodetest.NewFakeDocument("  alpha  ", "beta")
	res := runExtraction(t, ModeSimple, false, doc)

	assert.Equal(t, "alpha\n\n", res.PageText(0))
	// The final trim shortens only the last page's contribution.
	assert.Equal(t, "beta", res.PageText(1))
	assert.Equal(t, "alpha\n\nbeta", res.Text)
}

func TestSimple_EmptyPageContributesEmptySpan(t *testing.T) {
	doc := decodetest.NewFakeDocument("alpha", "   ", "beta")
	res := runExtraction(t, ModeSimple, false, doc)

	span := res.Spans[1]
	assert.Equal(t, span.Start, span.End, "blank page span must be empty")
	assert.Equal(t, "", res.PageText(1))
	assert.Equal(t, "alpha\n\nbeta", res.Text)
}

func TestSimple_FigureMarkersAndRegistry(t *testing.T) {
	doc := decodetest.NewFakeDocument("first", "second")
	doc.Pages[0].Images = []decode.ImageRef{
		{Name: "Im1", Width: 100, Height: 80},
		{Name: "Im2", Width: 50, Height: 40},
	}
	doc.Pages[1].Images = []decode.ImageRef{{Name: "Im3", Width: 10, Height: 10}}

	res := runExtraction(t, ModeSimple, false, doc)

	assert.Contains(t, res.PageText(0), "[FIGURE 1 (p1)] [FIGURE 2 (p1)]")
	assert.Contains(t, res.PageText(1), "[FIGURE 3 (p2)]")

	require.Len(t, res.Figures, 3)
	page, ok := res.FigurePage(3)
	require.True(t, ok)
	assert.Equal(t, 1, page)
	assert.Nil(t, res.Figures[1].BBox, "simple mode reports no placement")
	assert.Equal(t, "Im2", res.Figures[2].Ref.Name)

	_, ok = res.FigurePage(99)
	assert.False(t, ok)
}

func TestSimple_PageErrorDegradesToEmptyPage(t *testing.T) {
	doc := decodetest.NewFakeDocument("alpha", "broken", "gamma")
	doc.Pages[1].TextErr = assert.AnError

	res := runExtraction(t, ModeSimple, false, doc)

	require.Len(t, res.Spans, 3)
	assert.Equal(t, "", res.PageText(1))
	assert.Contains(t, res.Text, "alpha")
	assert.Contains(t, res.Text, "gamma")
}

func TestExtraction_IsDeterministic(t *testing.T) {
	doc := decodetest.NewFakeDocument("alpha", "beta")
	doc.Pages[0].Images = []decode.ImageRef{{Name: "Im1"}, {Name: "Im2"}}

	first := runExtraction(t, ModeSimple, false, doc)
	second := runExtraction(t, ModeSimple, false, doc)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Spans, second.Spans)
	assert.Equal(t, first.Figures, second.Figures)
}

func TestStructured_BlocksAndLines(t *testing.T) {
	doc := decodetest.NewFakeDocument("fallback")
	doc.Pages[0].Layout = textLayout(792,
		textBlock(100, 130, "first line", "second line"),
		textBlock(200, 215, "third line"),
	)

	res := runExtraction(t, ModeStructured, false, doc)

	assert.Equal(t, ModeStructured, res.Mode)
	assert.Equal(t, "first line\nsecond line\n\nthird line", res.Text)
}

func TestStructured_SpansReconstructPages(t *testing.T) {
	doc := decodetest.NewFakeDocument("f0", "f1")
	doc.Pages[0].Layout = textLayout(792, textBlock(100, 112, "page one"))
	doc.Pages[1].Layout = textLayout(792,
		textBlock(100, 112, "page two"),
		imageBlock("Im1", 30, 30),
	)

	res := runExtraction(t, ModeStructured, false, doc)

	assert.Equal(t, "page one\n\n", res.PageText(0))
	assert.Equal(t, "page two\n\n[FIGURE 1 (p2)]", res.PageText(1))
	assert.Equal(t, res.Text, res.PageText(0)+res.PageText(1))
}

func TestStructured_HeaderFooterStripping(t *testing.T) {
	layout := textLayout(792,
		textBlock(10, 30, "Running Header"),
		textBlock(300, 330, "body text"),
		textBlock(770, 788, "Page 7 of 12"),
	)
	doc := decodetest.NewFakeDocument("fallback")
	doc.Pages[0].Layout = layout

	kept := runExtraction(t, ModeStructured, false, doc)
	assert.Contains(t, kept.Text, "Running Header")
	assert.Contains(t, kept.Text, "Page 7 of 12")

	stripped := runExtraction(t, ModeStructured, true, doc)
	assert.NotContains(t, stripped.Text, "Running Header")
	assert.NotContains(t, stripped.Text, "Page 7 of 12")
	assert.Contains(t, stripped.Text, "body text")
}

func TestStructured_BandBoundaries(t *testing.T) {
	layout := textLayout(792,
		// Ends exactly on the top margin boundary: stripped.
		textBlock(40, 60, "at boundary"),
		// Crosses out of the band: kept.
		textBlock(50, 61, "crosses band"),
		textBlock(300, 320, "body"),
	)
	doc := decodetest.NewFakeDocument("fallback")
	doc.Pages[0].Layout = layout

	res := runExtraction(t, ModeStructured, true, doc)
	assert.NotContains(t, res.Text, "at boundary")
	assert.Contains(t, res.Text, "crosses band")
}

func TestStructured_ImagesAreNeverStripped(t *testing.T) {
	doc := decodetest.NewFakeDocument("fallback")
	doc.Pages[0].Layout = textLayout(792,
		imageBlock("Logo", 80, 40), // sits inside the header band
		textBlock(300, 320, "body"),
	)

	res := runExtraction(t, ModeStructured, true, doc)
	assert.Contains(t, res.Text, "[FIGURE 1 (p1)]")
	require.Len(t, res.Figures, 1)
	require.NotNil(t, res.Figures[1].BBox)
	assert.Equal(t, 80.0, res.Figures[1].BBox.X1)
}

func TestStructured_EmptyLayoutFallsBackToPlainText(t *testing.T) {
	doc := decodetest.NewFakeDocument("  plain fallback text  ")
	doc.Pages[0].Layout = textLayout(792) // no blocks at all

	res := runExtraction(t, ModeStructured, false, doc)
	assert.Equal(t, "plain fallback text", res.Text)
}

func TestStructured_AllStrippedFallsBackToPlainText(t *testing.T) {
	doc := decodetest.NewFakeDocument("whole page text")
	doc.Pages[0].Layout = textLayout(792,
		textBlock(10, 30, "Header Only"),
	)

	res := runExtraction(t, ModeStructured, true, doc)
	assert.NotContains(t, res.Text, "Header Only")
	assert.Contains(t, res.Text, "whole page text")
}

func TestStructured_LayoutErrorFallsBackToPlainText(t *testing.T) {
	doc := decodetest.NewFakeDocument("recovered text")
	doc.Pages[0].LayoutErr = assert.AnError

	res := runExtraction(t, ModeStructured, false, doc)
	assert.Contains(t, res.Text, "recovered text")
}

func TestFigureIDsIncreaseInTextOrder(t *testing.T) {
	doc := decodetest.NewFakeDocument("a", "b", "c")
	doc.Pages[0].Images = []decode.ImageRef{{Name: "A"}}
	doc.Pages[1].Images = []decode.ImageRef{{Name: "B"}, {Name: "C"}}
	doc.Pages[2].Images = []decode.ImageRef{{Name: "D"}}

	res := runExtraction(t, ModeSimple, false, doc)

	prev := -1
	for id := 1; id <= 4; id++ {
		fig, ok := res.Figures[id]
		require.True(t, ok)
		pos := strings.Index(res.Text, Marker(id, fig.Page+1))
		require.GreaterOrEqual(t, pos, 0)
		assert.Greater(t, pos, prev, "figure %d must appear after figure %d", id, id-1)
		prev = pos
	}
}

func TestRun_TrailingWhitespaceTrimClampsLastSpan(t *testing.T) {
	doc := decodetest.NewFakeDocument("alpha", "omega")
	res := runExtraction(t, ModeSimple, false, doc)

	last := res.Spans[len(res.Spans)-1]
	assert.Equal(t, len(res.Text), last.End)
	assert.False(t, strings.HasSuffix(res.Text, "\n"))
}

func TestRun_NilDocumentFails(t *testing.T) {
	_, err := New(ModeSimple, false, zerolog.Nop()).Run(nil)
	assert.Error(t, err)
}

func TestResult_PageTextOutOfRange(t *testing.T) {
	res := runExtraction(t, ModeSimple, false, decodetest.NewFakeDocument("only"))
	assert.Equal(t, "", res.PageText(-1))
	assert.Equal(t, "", res.PageText(5))
}
