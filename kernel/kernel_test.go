// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kernel

import (
	"testing"

	"github.com/kestrel-kernel/kestrel/bootinfo"
	"github.com/kestrel-kernel/kestrel/config"
	"github.com/kestrel-kernel/kestrel/event"
	"github.com/kestrel-kernel/kestrel/soc/intel/vesa"
	"github.com/kestrel-kernel/kestrel/usb/device"
	"github.com/kestrel-kernel/kestrel/usb/hid"
	"github.com/kestrel-kernel/kestrel/usb/host"
)

func TestChooseFramebufferUsesLoaderMode(t *testing.T) {
	k := &Kernel{}
	info := bootinfo.Info{
		HaveFramebuffer: true,
		Framebuffer:     vesa.Framebuffer{Base: 0xe0000000, Width: 1024, Height: 768, BPP: 32, Pitch: 4096},
	}

	fb, ok := k.chooseFramebuffer(info)
	if !ok {
		t.Fatalf("expected loader framebuffer to be reported present")
	}
	if fb != info.Framebuffer {
		t.Fatalf("expected loader mode unchanged, got %+v", fb)
	}
}

func TestChooseFramebufferFallsBackWithoutLoaderMode(t *testing.T) {
	k := &Kernel{}

	fb, ok := k.chooseFramebuffer(bootinfo.Info{})
	if ok {
		t.Fatalf("expected fallback to report no real framebuffer")
	}
	if fb != fallbackFramebuffer {
		t.Fatalf("expected fallbackFramebuffer, got %+v", fb)
	}
}

func TestChooseFramebufferAppliesOverrideOnlyWithLoaderMode(t *testing.T) {
	override := config.VESAMode{Width: 800, Height: 600, BPP: 24}
	k := &Kernel{Options: config.BootOptions{VESAOverride: &override}}

	info := bootinfo.Info{
		HaveFramebuffer: true,
		Framebuffer:     vesa.Framebuffer{Base: 0xfd000000, Width: 1024, Height: 768, BPP: 32, Pitch: 4096},
	}
	fb, ok := k.chooseFramebuffer(info)
	if !ok {
		t.Fatalf("expected framebuffer present")
	}
	if fb.Width != 800 || fb.Height != 600 || fb.BPP != 24 {
		t.Fatalf("expected override dimensions applied, got %+v", fb)
	}
	if fb.Base != info.Framebuffer.Base {
		t.Fatalf("expected base address preserved from loader, got %#x", fb.Base)
	}

	// Without a loader-reported mode, an override has nothing to apply
	// to and is ignored in favor of the hard fallback.
	fb, ok = k.chooseFramebuffer(bootinfo.Info{})
	if ok || fb != fallbackFramebuffer {
		t.Fatalf("expected override ignored without a loader framebuffer, got %+v ok=%v", fb, ok)
	}
}

func TestSolidFill(t *testing.T) {
	buf := solidFill(4, 0x00112233)
	if len(buf) != 4 {
		t.Fatalf("expected length 4, got %d", len(buf))
	}
	for i, v := range buf {
		if v != 0x00112233 {
			t.Fatalf("buf[%d] = %#x, want 0x00112233", i, v)
		}
	}
}

func TestHIDProtocol(t *testing.T) {
	dev := &device.Device{
		HID: &device.HID{InterfaceNumber: 1},
		Interfaces: []device.Interface{
			{Number: 0, Class: 0x03, Protocol: 2},
			{Number: 1, Class: 0x03, Protocol: hidBootKeyboard},
		},
	}
	if got := hidProtocol(dev); got != hidBootKeyboard {
		t.Fatalf("expected keyboard protocol, got %d", got)
	}
}

func TestHIDProtocolUnknownInterfaceNumber(t *testing.T) {
	dev := &device.Device{HID: &device.HID{InterfaceNumber: 9}}
	if got := hidProtocol(dev); got != 0 {
		t.Fatalf("expected 0 for unmatched interface, got %d", got)
	}
}

// stubController implements host.Controller, returning one canned boot
// keyboard report (the HID 1.11 "1" key held) the first time
// InterruptTransfer is called, then host.ErrTimeout.
type stubController struct {
	report []byte
	polled bool
}

func (s *stubController) Kind() host.Kind                   { return host.UHCI }
func (s *stubController) Enabled() bool                     { return true }
func (s *stubController) Ports() int                        { return 1 }
func (s *stubController) PortConnected(port int) bool        { return true }
func (s *stubController) ResetPort(port int) (host.Speed, error) { return host.FullSpeed, nil }
func (s *stubController) Shutdown()                          {}

func (s *stubController) ControlTransfer(addr uint8, maxPacket uint16, bmRequestType, bRequest uint8, wValue, wIndex uint16, buf []byte, ep *host.Endpoint) (int, error) {
	return 0, nil
}

func (s *stubController) InterruptTransfer(addr uint8, ep *host.Endpoint, buf []byte, timeoutMs int) (int, error) {
	if s.polled {
		return 0, host.ErrTimeout
	}
	s.polled = true
	n := copy(buf, s.report)
	return n, nil
}

func TestPollHIDDecodesKeyboardReport(t *testing.T) {
	ctrl := &stubController{report: []byte{0, 0, 0x1e, 0, 0, 0, 0, 0}}

	dev := &device.Device{
		Present: true,
		Address: 1,
		HID:     &device.HID{InterfaceNumber: 0, InEndpoint: 0x81, ReportSize: 8},
		Interfaces: []device.Interface{
			{Number: 0, Class: 0x03, Protocol: hidBootKeyboard},
		},
	}

	k := &Kernel{
		Events:     event.NewQueue(event.DefaultCapacity),
		Devices:    []*device.Device{dev},
		kbdState:   make(map[*device.Device]*hid.KeyboardState),
		mouseState: make(map[*device.Device]*hid.MouseState),
		hidEP:      make(map[*device.Device]*host.Endpoint),
		deviceCtrl: map[*device.Device]host.Controller{dev: ctrl},
	}

	k.pollHID(func(d *device.Device) host.Controller { return k.deviceCtrl[d] })

	var e event.Event
	if !k.Events.Poll(&e) {
		t.Fatalf("expected a decoded key event on the queue")
	}
}
