package decode

import (
	"sort"
	"strings"
)

const (
	// lineTolerance is the vertical slack, in layout units, within which
	// positioned text fragments are considered part of the same line.
	lineTolerance = 2.0

	// blockGapFactor times the font size is the vertical gap that splits
	// consecutive lines into separate blocks.
	blockGapFactor = 1.6

	// defaultFontSize stands in when the decoder reports no size.
	defaultFontSize = 12.0
)

// textSpan is a positioned text fragment as reported by the structure
// decoder, with y already converted to top-down layout coordinates.
type textSpan struct {
	x    float64
	y    float64 // baseline, measured from the page top
	w    float64
	size float64
	text string
}

type textLine struct {
	x0, x1 float64
	y      float64
	size   float64
	text   string
}

// buildLayout groups positioned text spans into lines and lines into blocks,
// then appends one image block per embedded image. Text blocks come first in
// reading order; image placement is not reported by the structure decoder,
// so image blocks carry their intrinsic extent and follow the text.
func buildLayout(width, height float64, spans []textSpan, images []ImageRef) *Layout {
	layout := &Layout{Width: width, Height: height}

	lines := groupLines(spans)
	for _, blk := range groupBlocks(lines) {
		layout.Blocks = append(layout.Blocks, blk)
	}

	for _, img := range images {
		layout.Blocks = append(layout.Blocks, Block{
			Kind:  BlockImage,
			BBox:  Rect{X0: 0, Y0: 0, X1: float64(img.Width), Y1: float64(img.Height)},
			Image: img,
		})
	}

	return layout
}

// groupLines merges spans that share a baseline into single lines, sorted
// top to bottom and left to right.
func groupLines(spans []textSpan) []textLine {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]textSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if abs(sorted[i].y-sorted[j].y) > lineTolerance {
			return sorted[i].y < sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})

	var lines []textLine
	cur := lineFromSpan(sorted[0])
	for _, sp := range sorted[1:] {
		if abs(sp.y-cur.y) <= lineTolerance {
			cur.text += sp.text
			cur.x1 = max(cur.x1, sp.x+sp.w)
			cur.size = max(cur.size, spanSize(sp))
			continue
		}
		lines = append(lines, cur)
		cur = lineFromSpan(sp)
	}
	lines = append(lines, cur)
	return lines
}

func lineFromSpan(sp textSpan) textLine {
	return textLine{
		x0:   sp.x,
		x1:   sp.x + sp.w,
		y:    sp.y,
		size: spanSize(sp),
		text: sp.text,
	}
}

func spanSize(sp textSpan) float64 {
	if sp.size > 0 {
		return sp.size
	}
	return defaultFontSize
}

// groupBlocks splits lines into blocks wherever the vertical gap exceeds the
// block threshold. Each block's bbox is the union of its line extents.
func groupBlocks(lines []textLine) []Block {
	var blocks []Block
	var cur *Block
	var prev textLine

	for _, ln := range lines {
		if strings.TrimSpace(ln.text) == "" {
			continue
		}
		if cur != nil && ln.y-prev.y <= blockGapFactor*prev.size {
			cur.Lines = append(cur.Lines, ln.text)
			cur.BBox.X0 = min(cur.BBox.X0, ln.x0)
			cur.BBox.X1 = max(cur.BBox.X1, ln.x1)
			cur.BBox.Y1 = max(cur.BBox.Y1, ln.y)
			prev = ln
			continue
		}
		if cur != nil {
			blocks = append(blocks, *cur)
		}
		cur = &Block{
			Kind:  BlockText,
			BBox:  Rect{X0: ln.x0, Y0: ln.y - ln.size, X1: ln.x1, Y1: ln.y},
			Lines: []string{ln.text},
		}
		prev = ln
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
