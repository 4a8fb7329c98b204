package extract

import (
	"fmt"
	"regexp"
	"strconv"
)

// MarkerPattern matches an inline figure marker and captures the figure id
// and the 1-based page number. The presentation layer recognizes markers in
// the merged text with this pattern.
var MarkerPattern = regexp.MustCompile(`\[FIGURE\s+(\d+)\s+\(p(\d+)\)\]`)

// Marker renders the inline token for a figure on a page (1-based).
func Marker(figureID, pageNumber int) string {
	return fmt.Sprintf("[FIGURE %d (p%d)]", figureID, pageNumber)
}

// ParseMarker extracts the figure id and 1-based page number from a marker
// token. Returns false if the token does not match.
func ParseMarker(token string) (figureID, pageNumber int, ok bool) {
	m := MarkerPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	figureID, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	pageNumber, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return figureID, pageNumber, true
}
