// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package amd64

import "testing"

func TestInstallHandlerReturnsPrevious(t *testing.T) {
	defer func() {
		exceptionHandlers[13] = nil
	}()

	var calls int
	first := func(*RegisterFrame) { calls++ }
	second := func(*RegisterFrame) { calls += 10 }

	if prev := InstallHandler(13, first); prev != nil {
		t.Fatalf("expected nil previous handler, got non-nil")
	}

	prev := InstallHandler(13, second)
	if prev == nil {
		t.Fatalf("expected previous handler to be returned")
	}

	prev(nil)
	if calls != 1 {
		t.Fatalf("previous handler did not run, calls=%d", calls)
	}
}

func TestInstallHandlerRejectsOutOfRange(t *testing.T) {
	if prev := InstallHandler(300, func(*RegisterFrame) {}); prev != nil {
		t.Fatalf("expected nil for out-of-range vector")
	}
}

func TestDispatchRoutesIRQToIndexedHandlerAndSendsEOI(t *testing.T) {
	defer func() {
		irqHandlers[1] = nil
		irqHandlers[0] = nil
		eoi = portEOI
	}()

	var got uint32
	var eoiIRQs []int
	eoi = func(irq int) { eoiIRQs = append(eoiIRQs, irq) }

	InstallHandler(33, func(f *RegisterFrame) { got = f.IntNo })

	Dispatch(&RegisterFrame{IntNo: 33})

	if got != 33 {
		t.Fatalf("handler did not receive frame, got=%d", got)
	}
	if len(eoiIRQs) != 1 || eoiIRQs[0] != 1 {
		t.Fatalf("expected exactly one EOI for irq 1, got %v", eoiIRQs)
	}
}

func TestDispatchSendsEOIEvenWithoutHandler(t *testing.T) {
	defer func() { eoi = portEOI }()

	var eoiIRQs []int
	eoi = func(irq int) { eoiIRQs = append(eoiIRQs, irq) }

	Dispatch(&RegisterFrame{IntNo: 40}) // irq 8, unregistered

	if len(eoiIRQs) != 1 || eoiIRQs[0] != 8 {
		t.Fatalf("expected EOI for irq 8 regardless of handler, got %v", eoiIRQs)
	}
}

func TestGDTEntryEncoding(t *testing.T) {
	var e GDTEntry
	e.Set(0, 0xffffffff, AccessPresent|AccessRing0|AccessDescType|AccessExec|AccessRW, Gran4KB|Gran32Bit)

	if e.LimitLow != 0xffff {
		t.Fatalf("limit low = %#x", e.LimitLow)
	}
	if e.Granularity&0x0f != 0x0f {
		t.Fatalf("limit high nibble = %#x", e.Granularity&0x0f)
	}
	if e.Granularity&0xf0 != Gran4KB|Gran32Bit {
		t.Fatalf("granularity flags = %#x", e.Granularity&0xf0)
	}
	if e.Access&AccessPresent == 0 {
		t.Fatalf("present bit not set")
	}
}

func TestIDTEntryEncoding(t *testing.T) {
	var e IDTEntry
	e.Set(0x0010203040, CodeSegment<<3, GatePresent|GateRing0|GateInterrupt)

	if e.Selector != CodeSegment<<3 {
		t.Fatalf("selector = %#x", e.Selector)
	}
	if e.Flags != GatePresent|GateRing0|GateInterrupt {
		t.Fatalf("flags = %#x", e.Flags)
	}
}
