// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package vesa

import (
	"testing"
	"unsafe"
)

// newTestDisplay backs the framebuffer with a real Go-owned slice so
// Swap's unsafe pointer arithmetic stays within safely-owned memory.
func newTestDisplay(w, h uint32) (*Display, []uint32) {
	fbMem := make([]uint32, int(w)*int(h))
	fb := Framebuffer{
		Base:   uintptr(unsafe.Pointer(&fbMem[0])),
		Width:  w,
		Height: h,
		BPP:    32,
		Pitch:  w * 4,
	}
	return New(fb), fbMem
}

func TestPutPixelClipsSilently(t *testing.T) {
	d, _ := newTestDisplay(10, 10)
	d.PutPixel(-1, -1, 0xff0000)
	d.PutPixel(100, 100, 0xff0000)
	// no panic, no effect — nothing further to assert.
}

func TestMarkDirtyCoalescesUntilOverflow(t *testing.T) {
	d, _ := newTestDisplay(100, 100)
	for i := 0; i < maxDirtyRects; i++ {
		d.MarkDirty(int32(i), 0, 1, 1)
	}
	if d.AllDirty() {
		t.Fatalf("should not overflow at exactly the bound")
	}
	d.MarkDirty(0, 1, 1, 1)
	if !d.AllDirty() {
		t.Fatalf("expected overflow to all-dirty past the bound")
	}
	if len(d.DirtyRects()) != 0 {
		t.Fatalf("dirty set should be cleared on overflow")
	}
}

func TestSwapCopiesOnlyDirtyRegion(t *testing.T) {
	d, fbMem := newTestDisplay(4, 4)

	for i := range d.Back() {
		d.Back()[i] = 0xaaaaaa
	}
	d.MarkDirty(1, 1, 2, 2)
	d.Swap()

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			idx := y*4 + x
			inDirty := x >= 1 && x < 3 && y >= 1 && y < 3
			if inDirty && fbMem[idx] != 0xaaaaaa {
				t.Fatalf("pixel (%d,%d) not swapped", x, y)
			}
			if !inDirty && fbMem[idx] != 0 {
				t.Fatalf("pixel (%d,%d) swapped outside dirty rect", x, y)
			}
		}
	}
	if len(d.DirtyRects()) != 0 {
		t.Fatalf("dirty set should be cleared after swap")
	}
}

func TestSwapCopiesFullScreenWhenAllDirty(t *testing.T) {
	d, fbMem := newTestDisplay(2, 2)
	for i := range d.Back() {
		d.Back()[i] = 0x123456
	}
	d.allDirty = true
	d.Swap()

	for _, px := range fbMem {
		if px != 0x123456 {
			t.Fatalf("expected full-screen copy, got %#x", px)
		}
	}
}

func TestCursorHideRestoresExactBackground(t *testing.T) {
	d, _ := newTestDisplay(64, 64)
	for i := range d.Back() {
		d.Back()[i] = 0x112233
	}

	d.SetCursorPos(10, 10)
	d.drawCursor()
	if !d.cursor.drawn {
		t.Fatalf("expected cursor to be drawn")
	}

	d.hideCursor()
	for _, px := range d.Back() {
		if px != 0x112233 {
			t.Fatalf("background not exactly restored under cursor, got %#x", px)
		}
	}
}

func TestDrawStringMarksDirtyPerGlyph(t *testing.T) {
	d, _ := newTestDisplay(200, 50)
	d.DrawString(0, 0, "AB", 0xffffff, 0x000000)
	if len(d.DirtyRects()) != 2 {
		t.Fatalf("expected 2 dirty rects (one per glyph), got %d", len(d.DirtyRects()))
	}
}

func TestTickRunsFiveStagesWithoutPanicking(t *testing.T) {
	d, _ := newTestDisplay(32, 32)
	d.SetBackground(make([]uint32, 32*32))
	d.Tick(func(disp *Display) {
		disp.FillRect(5, 5, 4, 4, 0xff0000)
	})
	if len(d.DirtyRects()) != 0 || d.AllDirty() {
		t.Fatalf("Tick should leave the dirty set cleared after swap")
	}
}
