// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package vesa

import "github.com/kestrel-kernel/kestrel/soc/intel/vesa/font"

// DrawChar renders a single glyph at (x,y) with fg painted for set bits
// and bg for clear bits, clipped per-pixel, and marks the glyph cell
// dirty.
func (d *Display) DrawChar(x, y int32, c rune, fg, bg uint32) {
	g := font.Lookup(c)
	for row := 0; row < font.Height; row++ {
		bits := g[row]
		for col := 0; col < font.Width; col++ {
			px := x + int32(col)
			py := y + int32(row)
			if bits&(1<<uint(font.Width-1-col)) != 0 {
				d.PutPixel(px, py, fg)
			} else {
				d.PutPixel(px, py, bg)
			}
		}
	}
	d.MarkDirty(x, y, uint32(font.Width), uint32(font.Height))
}

// DrawString renders s left-to-right starting at (x,y), advancing one
// glyph cell per rune and wrapping to a new line on '\n'.
func (d *Display) DrawString(x, y int32, s string, fg, bg uint32) {
	cx, cy := x, y
	for _, r := range s {
		if r == '\n' {
			cx = x
			cy += font.Height
			continue
		}
		d.DrawChar(cx, cy, r, fg, bg)
		cx += font.Width
	}
}
