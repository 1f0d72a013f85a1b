// VESA linear framebuffer driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package vesa drives the Multiboot-reported linear framebuffer: a back
// buffer, bounded dirty-rectangle tracking, a cached desktop background,
// a software cursor overlay, and an 8x16 bitmap text renderer, composited
// once per main-loop tick (spec.md §4.7).
package vesa

import "unsafe"

// Framebuffer describes the linear graphics mode reported by the boot
// loader (spec.md §3 "Framebuffer info").
type Framebuffer struct {
	Base   uintptr
	Width  uint32
	Height uint32
	BPP    uint32
	Pitch  uint32
}

// Display owns the framebuffer, its back buffer, background cache, and
// dirty-rect set. It is the sole owner of framebuffer memory and the
// cursor-save buffer (spec.md §3 "Ownership").
type Display struct {
	fb Framebuffer

	back       []uint32
	background []uint32
	haveBG     bool

	dirty    []Rect
	allDirty bool

	cursor cursorState
}

// maxDirtyRects bounds the dirty-rect set before it coalesces to a
// full-screen repaint (spec.md §4.7 "bounded list (≤32)").
const maxDirtyRects = 32

// New constructs a Display over fb, allocating a back buffer sized to the
// framebuffer's pixel count. The background cache starts empty; callers
// fill it with SetBackground once a desktop fill is composed.
func New(fb Framebuffer) *Display {
	n := int(fb.Width) * int(fb.Height)
	d := &Display{
		fb:   fb,
		back: make([]uint32, n),
	}
	d.cursor.x, d.cursor.y = int32(fb.Width/2), int32(fb.Height/2)
	d.cursor.visible = true
	d.cursor.enabled = true
	return d
}

// Rect is an axis-aligned pixel rectangle (spec.md §3 "Dirty rectangle").
type Rect struct {
	X, Y, W, H uint32
}

func (r Rect) empty() bool { return r.W == 0 || r.H == 0 }

// Width/Height report the framebuffer dimensions in pixels.
func (d *Display) Width() uint32  { return d.fb.Width }
func (d *Display) Height() uint32 { return d.fb.Height }

// SetBackground caches px (row-major, Width*Height) as the pre-composed
// desktop, used to restore dirty regions before rendering (spec.md §4.7
// step 2).
func (d *Display) SetBackground(px []uint32) {
	if len(px) != len(d.back) {
		return
	}
	if d.background == nil {
		d.background = make([]uint32, len(px))
	}
	copy(d.background, px)
	d.haveBG = true
}

// PutPixel clips silently to the framebuffer bounds (spec.md §4.7
// "Geometry contracts").
func (d *Display) PutPixel(x, y int32, c uint32) {
	if x < 0 || y < 0 || uint32(x) >= d.fb.Width || uint32(y) >= d.fb.Height {
		return
	}
	d.back[int(y)*int(d.fb.Width)+int(x)] = c
}

func (d *Display) getPixel(x, y int32) uint32 {
	if x < 0 || y < 0 || uint32(x) >= d.fb.Width || uint32(y) >= d.fb.Height {
		return 0
	}
	return d.back[int(y)*int(d.fb.Width)+int(x)]
}

// DrawRect draws an unfilled rectangle outline, clipped per-pixel, and
// marks the drawn area dirty.
func (d *Display) DrawRect(x, y int32, w, h uint32, c uint32) {
	d.DrawHLine(x, y, w, c)
	d.DrawHLine(x, y+int32(h)-1, w, c)
	d.DrawVLine(x, y, h, c)
	d.DrawVLine(x+int32(w)-1, y, h, c)
	d.MarkDirty(x, y, w, h)
}

// FillRect draws a filled rectangle, clipped per-pixel, and marks the
// drawn area dirty.
func (d *Display) FillRect(x, y int32, w, h uint32, c uint32) {
	for dy := uint32(0); dy < h; dy++ {
		for dx := uint32(0); dx < w; dx++ {
			d.PutPixel(x+int32(dx), y+int32(dy), c)
		}
	}
	d.MarkDirty(x, y, w, h)
}

// DrawHLine draws a horizontal line of length w starting at (x,y).
func (d *Display) DrawHLine(x, y int32, w uint32, c uint32) {
	for dx := uint32(0); dx < w; dx++ {
		d.PutPixel(x+int32(dx), y, c)
	}
}

// DrawVLine draws a vertical line of length h starting at (x,y).
func (d *Display) DrawVLine(x, y int32, h uint32, c uint32) {
	for dy := uint32(0); dy < h; dy++ {
		d.PutPixel(x, y+int32(dy), c)
	}
}

// MarkDirty coalesces (x,y,w,h) into the bounded dirty-rect set, or
// raises the all-dirty flag once the set overflows (spec.md §4.7).
func (d *Display) MarkDirty(x, y int32, w, h uint32) {
	if d.allDirty || w == 0 || h == 0 {
		return
	}

	// Clip to framebuffer bounds before storing.
	if x < 0 {
		w -= uint32(-x)
		x = 0
	}
	if y < 0 {
		h -= uint32(-y)
		y = 0
	}
	if x < 0 || y < 0 || w == 0 || h == 0 || uint32(x) >= d.fb.Width || uint32(y) >= d.fb.Height {
		return
	}
	if uint32(x)+w > d.fb.Width {
		w = d.fb.Width - uint32(x)
	}
	if uint32(y)+h > d.fb.Height {
		h = d.fb.Height - uint32(y)
	}

	r := Rect{X: uint32(x), Y: uint32(y), W: w, H: h}
	if r.empty() {
		return
	}

	if len(d.dirty) >= maxDirtyRects {
		d.allDirty = true
		d.dirty = d.dirty[:0]
		return
	}
	d.dirty = append(d.dirty, r)
}

// DirtyRects reports the current bounded dirty-rect set (for inspection
// and testing); AllDirty reports whether the set overflowed to a
// full-screen repaint.
func (d *Display) DirtyRects() []Rect { return d.dirty }
func (d *Display) AllDirty() bool     { return d.allDirty }

// restoreDirtyBackground copies the cached background into the back
// buffer for each dirty rect (spec.md §4.7 step 2), or clears to black if
// no background has been cached yet.
func (d *Display) restoreDirtyBackground() {
	if d.allDirty {
		d.restoreFull()
		return
	}
	for _, r := range d.dirty {
		d.restoreRect(r)
	}
}

func (d *Display) restoreFull() {
	if d.haveBG {
		copy(d.back, d.background)
		return
	}
	for i := range d.back {
		d.back[i] = 0
	}
}

func (d *Display) restoreRect(r Rect) {
	stride := int(d.fb.Width)
	for dy := uint32(0); dy < r.H; dy++ {
		row := int(r.Y+dy) * stride
		for dx := uint32(0); dx < r.W; dx++ {
			idx := row + int(r.X+dx)
			if d.haveBG {
				d.back[idx] = d.background[idx]
			} else {
				d.back[idx] = 0
			}
		}
	}
}

// Swap copies dirty regions of the back buffer to the linear framebuffer
// (spec.md §4.7 step 5), then clears the dirty set.
func (d *Display) Swap() {
	fb := unsafe.Slice((*uint32)(unsafe.Pointer(d.fb.Base)), int(d.fb.Width)*int(d.fb.Height))

	if d.allDirty {
		copy(fb, d.back)
	} else {
		stride := int(d.fb.Width)
		for _, r := range d.dirty {
			for dy := uint32(0); dy < r.H; dy++ {
				row := int(r.Y+dy) * stride
				start := row + int(r.X)
				copy(fb[start:start+int(r.W)], d.back[start:start+int(r.W)])
			}
		}
	}

	d.dirty = d.dirty[:0]
	d.allDirty = false
}

// Back exposes the back buffer for callers (such as gui) that need to
// inspect composited pixels in tests without going through the linear
// framebuffer.
func (d *Display) Back() []uint32 { return d.back }
