// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package vesa

// cursorSize is the cursor bitmap's bounding box (spec.md §4.7 "16x16
// pixel block").
const cursorSize = 16

// cursorBitmap is a classic arrow-pointer glyph, one bit per pixel column
// (bit 15 is the leftmost column), mirroring the shape carried by
// `original_source/pozitron_os/src/drivers/cursor.c`'s `cursor_bitmap`.
var cursorBitmap = [cursorSize]uint16{
	0b1000000000000000,
	0b1100000000000000,
	0b1110000000000000,
	0b1111000000000000,
	0b1111100000000000,
	0b1111110000000000,
	0b1111111000000000,
	0b1111111100000000,
	0b1111111110000000,
	0b1111111000000000,
	0b1110110000000000,
	0b1100111000000000,
	0b1000111000000000,
	0b0000011100000000,
	0b0000011100000000,
	0b0000001100000000,
}

const (
	cursorOutline = 0x000000
	cursorFill    = 0xffffff
)

// cursorState tracks the software cursor overlay (spec.md §3
// "Ownership": "the VESA driver owns framebuffer memory and cursor-save
// buffer").
type cursorState struct {
	x, y           int32
	lastX, lastY   int32
	visible        bool
	enabled        bool
	drawn          bool
	backup         [cursorSize * cursorSize]uint32
}

// SetCursorPos moves the cursor; the move takes effect on the next Tick.
// It does not itself mark anything dirty: Tick's swap stage copies only
// dirty rects, so the old and new 16x16 cursor footprints reach the
// screen only where they fall inside a rect some caller marked dirty.
func (d *Display) SetCursorPos(x, y int32) {
	d.cursor.x, d.cursor.y = x, y
}

// CursorPos reports the current cursor position.
func (d *Display) CursorPos() (x, y int32) { return d.cursor.x, d.cursor.y }

// ShowCursor/HideCursor/CursorVisible toggle cursor visibility.
func (d *Display) ShowCursor()          { d.cursor.visible = true }
func (d *Display) HideCursor()          { d.cursor.visible = false }
func (d *Display) CursorVisible() bool  { return d.cursor.visible && d.cursor.drawn }
func (d *Display) SetCursorEnabled(v bool) { d.cursor.enabled = v }
func (d *Display) CursorEnabled() bool  { return d.cursor.enabled }

// hideCursor restores the 16x16 block saved under the cursor into the
// back buffer (spec.md §4.7 step 1). The saved-background buffer under
// the cursor is always exactly the pixels that would be there if the
// cursor were not visible (spec.md §4.7 "Cursor discipline").
func (d *Display) hideCursor() {
	c := &d.cursor
	if !c.enabled || !c.drawn {
		return
	}
	for dy := int32(0); dy < cursorSize; dy++ {
		py := c.lastY + dy
		if py < 0 || uint32(py) >= d.fb.Height {
			continue
		}
		for dx := int32(0); dx < cursorSize; dx++ {
			px := c.lastX + dx
			if px < 0 || uint32(px) >= d.fb.Width {
				continue
			}
			d.back[int(py)*int(d.fb.Width)+int(px)] = c.backup[dy*cursorSize+dx]
		}
	}
	c.drawn = false
}

// drawCursor saves the block under the new cursor position, then stamps
// the cursor bitmap with a black outline and white interior, clipped to
// the screen and to the saved 16x16 block (spec.md §4.7 step 4).
func (d *Display) drawCursor() {
	c := &d.cursor
	if !c.enabled || !c.visible {
		return
	}
	if c.x < 0 || c.y < 0 || uint32(c.x) >= d.fb.Width || uint32(c.y) >= d.fb.Height {
		return
	}

	for dy := int32(0); dy < cursorSize; dy++ {
		py := c.y + dy
		for dx := int32(0); dx < cursorSize; dx++ {
			px := c.x + dx
			if px >= 0 && py >= 0 && uint32(px) < d.fb.Width && uint32(py) < d.fb.Height {
				c.backup[dy*cursorSize+dx] = d.back[int(py)*int(d.fb.Width)+int(px)]
			} else {
				c.backup[dy*cursorSize+dx] = 0
			}
		}
	}

	outline := func(px, py int32) {
		if px >= c.x && px < c.x+cursorSize && py >= c.y && py < c.y+cursorSize {
			d.PutPixel(px, py, cursorOutline)
		}
	}
	for dy := int32(0); dy < cursorSize; dy++ {
		row := cursorBitmap[dy]
		py := c.y + dy
		for dx := int32(0); dx < cursorSize; dx++ {
			if row&(1<<uint(cursorSize-1-dx)) == 0 {
				continue
			}
			px := c.x + dx
			outline(px+1, py)
			outline(px-1, py)
			outline(px, py+1)
			outline(px, py-1)
		}
	}
	for dy := int32(0); dy < cursorSize; dy++ {
		row := cursorBitmap[dy]
		py := c.y + dy
		for dx := int32(0); dx < cursorSize; dx++ {
			if row&(1<<uint(cursorSize-1-dx)) != 0 {
				d.PutPixel(c.x+dx, py, cursorFill)
			}
		}
	}

	c.lastX, c.lastY = c.x, c.y
	c.drawn = true
}
