package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Text metrics used when sizing text elements. The engine has no access to
// real font metrics, so sizes are estimates.
const (
	DefaultFontSize   = 20
	DefaultFontFamily = 1
	DefaultLineHeight = 1.25

	// charWidthRatio approximates the advance of a narrow glyph relative to
	// the font size.
	charWidthRatio = 0.6
)

// NormalizeText NFC-normalizes s and converts CRLF/CR line endings to LF.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

// MeasureText estimates the bounding box of s rendered at fontSize.
// East-Asian wide and fullwidth runes count as two narrow glyphs.
func MeasureText(s string, fontSize float64) (w, h float64) {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	lines := strings.Split(s, "\n")
	widest := 0
	for _, line := range lines {
		cells := 0
		for _, r := range line {
			switch width.LookupRune(r).Kind() {
			case width.EastAsianWide, width.EastAsianFullwidth:
				cells += 2
			default:
				cells++
			}
		}
		if cells > widest {
			widest = cells
		}
	}
	w = float64(widest) * fontSize * charWidthRatio
	h = float64(len(lines)) * fontSize * DefaultLineHeight
	return w, h
}
