// 8x16 bitmap font
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package font provides the built-in 8x16 bitmap text font used by the
// VESA text renderer (spec.md §4.7 "text uses a built-in 8x16 bitmap font
// with CP-866 and ASCII variants"). No font asset ships in the retrieval
// pack this kernel was built from, so glyphs are hand-authored here as a
// compact 5x7 dot pattern, vertically centered and left-aligned within
// the 8x16 cell that the spec's font contract requires.
package font

// Width and Height are the fixed glyph cell dimensions.
const (
	Width  = 8
	Height = 16
)

// Glyph is one character's bitmap: 16 rows, one byte per row, bit 7 is
// the leftmost column.
type Glyph [Height]byte

// patternRows is the row count of the hand-authored 5x7 source patterns,
// and patternTop is the row within the 16-row cell where they start
// (vertically centered with room for descenders below).
const (
	patternCols = 5
	patternRows = 7
	patternTop  = 4
)

var glyphs = map[rune]Glyph{}

func init() {
	for r, rows := range patterns {
		glyphs[r] = compile(rows)
	}
}

// compile converts a 7-row, 5-column '#'/'.' pattern into a Glyph, placing
// the pattern at rows [patternTop, patternTop+patternRows) and columns
// [bit 7, bit 3] (a 3-bit blank right margin reserves inter-glyph
// spacing).
func compile(rows [patternRows]string) Glyph {
	var g Glyph
	for i, row := range rows {
		var b byte
		for col := 0; col < patternCols && col < len(row); col++ {
			if row[col] == '#' {
				b |= 1 << uint(7-col)
			}
		}
		g[patternTop+i] = b
	}
	return g
}

// Lookup returns the glyph for r, falling back to a hollow box for any
// rune without a defined pattern (spec.md's font contract never leaves a
// character entirely unrendered). Lowercase ASCII letters alias their
// uppercase glyph (see patterns.go doc).
func Lookup(r rune) Glyph {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	if g, ok := glyphs[r]; ok {
		return g
	}
	return fallback
}

var fallback = compile([patternRows]string{
	"#####",
	"#...#",
	"#...#",
	"#...#",
	"#...#",
	"#...#",
	"#####",
})
