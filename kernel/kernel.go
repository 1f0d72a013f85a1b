// Boot orchestration and main loop
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package kernel wires every subsystem together: it decodes the Multiboot
// info structure, builds the heap, brings up the CPU descriptor tables and
// legacy PC hardware, enumerates whatever USB and storage devices are
// attached, and runs the cooperative main loop (spec.md §4.12, §5).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=amd64` as
// supported by the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package kernel

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/kestrel-kernel/kestrel/amd64"
	"github.com/kestrel-kernel/kestrel/bootinfo"
	"github.com/kestrel-kernel/kestrel/config"
	"github.com/kestrel-kernel/kestrel/event"
	"github.com/kestrel-kernel/kestrel/fs/fat32"
	"github.com/kestrel-kernel/kestrel/gui"
	"github.com/kestrel-kernel/kestrel/hwscan"
	"github.com/kestrel-kernel/kestrel/klog"
	"github.com/kestrel-kernel/kestrel/mem/heap"
	"github.com/kestrel-kernel/kestrel/mem/memmap"
	"github.com/kestrel-kernel/kestrel/soc/intel/ata"
	"github.com/kestrel-kernel/kestrel/soc/intel/pci"
	"github.com/kestrel-kernel/kestrel/soc/intel/pic"
	"github.com/kestrel-kernel/kestrel/soc/intel/pit"
	"github.com/kestrel-kernel/kestrel/soc/intel/ps2"
	"github.com/kestrel-kernel/kestrel/soc/intel/rtc"
	"github.com/kestrel-kernel/kestrel/soc/intel/uart"
	"github.com/kestrel-kernel/kestrel/soc/intel/vesa"
	"github.com/kestrel-kernel/kestrel/usb/device"
	"github.com/kestrel-kernel/kestrel/usb/hid"
	"github.com/kestrel-kernel/kestrel/usb/host"
	"github.com/kestrel-kernel/kestrel/usb/host/ehci"
	"github.com/kestrel-kernel/kestrel/usb/host/ohci"
	"github.com/kestrel-kernel/kestrel/usb/host/uhci"
)

// IRQ vectors, remapped by pic.Remap to 32+irq.
const (
	irqTimer    = 0
	irqKeyboard = 1
	irqMouse    = 12
)

// desktopBackground is the flat fill color composed behind every window
// (spec.md §4.7 "background cache").
const desktopBackground = 0x00285078

// fallbackFramebuffer is used when the loader did not report one, so the
// kernel still has somewhere to draw the shutdown/safe-mode message
// (spec.md §6 "any absent flag triggers a conservative default").
var fallbackFramebuffer = vesa.Framebuffer{
	Base:   0xa0000,
	Width:  320,
	Height: 200,
	BPP:    8,
	Pitch:  320,
}

// Kernel owns every subsystem constructed during Boot and driven by the
// main loop.
type Kernel struct {
	Log *slog.Logger

	Options config.BootOptions

	Heap *heap.Heap

	Events *event.Queue

	Keyboard *ps2.Keyboard
	Mouse    *ps2.Mouse
	Clock    rtc.RTC

	Display *vesa.Display

	Desktop *gui.Manager
	Router  *gui.Router

	Hardware hwscan.Inventory

	Controllers []host.Controller
	Devices     []*device.Device

	FS *fat32.FS

	cpu     amd64.CPU
	running bool

	kbdState   map[*device.Device]*hid.KeyboardState
	mouseState map[*device.Device]*hid.MouseState
	hidEP      map[*device.Device]*host.Endpoint
	deviceCtrl map[*device.Device]host.Controller
}

// hidBootProtocol values (HID 1.11 §4.3 "Protocol").
const (
	hidBootKeyboard = 1
	hidBootMouse    = 2
)

// hidPollTimeoutMs bounds each per-device interrupt poll to 1 ms so one
// silent device can never stall the main loop.
const hidPollTimeoutMs = 1

// Boot takes the processor from Multiboot entry to a running desktop: it
// validates the magic value, decodes boot info, constructs the heap,
// installs descriptor tables and legacy PC drivers, brings up storage and
// USB input, and builds the initial desktop. kernelStart/kernelEnd bound
// the loaded kernel image so the heap never selects a region overlapping
// it (spec.md §4.5).
func Boot(magic uint32, infoAddr uintptr, kernelStart, kernelEnd uintptr) (*Kernel, error) {
	k := &Kernel{
		kbdState:   make(map[*device.Device]*hid.KeyboardState),
		mouseState: make(map[*device.Device]*hid.MouseState),
		hidEP:      make(map[*device.Device]*host.Endpoint),
		deviceCtrl: make(map[*device.Device]host.Controller),
	}

	info, err := bootinfo.Decode(magic, infoAddr, kernelEnd)
	if err != nil {
		return nil, err
	}

	k.Options = config.Parse(info.CommandLine)

	com1 := &uart.UART{Index: 1, Base: 0x3f8}
	com1.Init()
	k.Log = klog.New(com1, k.Options.LogLevel)

	k.Log.Info("boot", "magic", magic, "cmdline", info.CommandLine)

	k.cpu.Init()

	reserved := memmap.Reserved(info.Regions,
		memmap.IVTAndBIOSData,
		memmap.VGAMemory,
		memmap.KernelImage(kernelStart, kernelEnd),
	)

	region, ok := heap.SelectRegion(info.Regions, reserved, uint64(kernelEnd))
	if !ok {
		k.Log.Error("heap: no usable memory region")
		region = memmap.Region{Base: uint64(kernelEnd) + 4<<20, Size: 16 << 20}
	}

	h, err := heap.New(viewMemory(uintptr(region.Base), int(region.Size)))
	if err != nil {
		k.Log.Error("heap: init failed", "err", err)
		return nil, err
	}
	k.Heap = h
	k.Log.Info("heap", "base", region.Base, "size", region.Size)

	pic.Remap()

	k.Events = event.NewQueue(event.DefaultCapacity)
	k.Events.Now = pit.Ticks

	pit.Init(pit.DefaultFrequency)
	pit.TickFunc = func(tick uint64) {
		k.Events.Post(event.Event{Kind: event.TimerTick, Data1: uint32(tick)})
	}
	amd64.InstallHandler(32+irqTimer, func(*amd64.RegisterFrame) { pit.Handle() })

	k.Keyboard = &ps2.Keyboard{}
	amd64.InstallHandler(32+irqKeyboard, func(*amd64.RegisterFrame) {
		k.Keyboard.Handle(k.Events)
	})

	fb, haveFB := k.chooseFramebuffer(info)
	k.Display = vesa.New(fb)
	k.Display.SetBackground(solidFill(int(fb.Width)*int(fb.Height), desktopBackground))
	if !haveFB {
		k.Log.Warn("no framebuffer reported, using fallback mode")
	}

	k.Mouse = ps2.NewMouse(int32(fb.Width), int32(fb.Height))
	amd64.InstallHandler(32+irqMouse, func(*amd64.RegisterFrame) {
		k.Mouse.Handle(k.Events)
	})

	k.Desktop = gui.NewManager(int32(fb.Width), int32(fb.Height))
	k.Router = gui.NewRouter(k.Desktop)
	k.Router.OnFunctionKey = k.handleFunctionKey
	k.Desktop.Shutdown.OnConfirm = k.shutdown

	k.Desktop.Taskbar.ReadClock = k.readClock

	k.Hardware = hwscan.Scan()
	k.Log.Info("hardware scan complete",
		"pci", len(k.Hardware.PCI), "isa", len(k.Hardware.ISA), "cpu", k.Hardware.CPU.VendorID)

	k.bringUpUSB()
	k.mountStorage()

	k.cpu.EnableInterrupts()
	k.running = true

	return k, nil
}

// chooseFramebuffer returns the loader-reported mode, with the
// command-line VESA override's geometry applied if one is set, else the
// fixed 320x200x8 VGA fallback (spec.md §6, §4.13). The override is
// ignored when the loader reported no framebuffer.
func (k *Kernel) chooseFramebuffer(info bootinfo.Info) (vesa.Framebuffer, bool) {
	if k.Options.VESAOverride != nil && info.HaveFramebuffer {
		fb := info.Framebuffer
		fb.Width = k.Options.VESAOverride.Width
		fb.Height = k.Options.VESAOverride.Height
		fb.BPP = k.Options.VESAOverride.BPP
		return fb, true
	}
	if info.HaveFramebuffer {
		return info.Framebuffer, true
	}
	return fallbackFramebuffer, false
}

func solidFill(n int, color uint32) []uint32 {
	buf := make([]uint32, n)
	for i := range buf {
		buf[i] = color
	}
	return buf
}

// bringUpUSB discovers every recognized PCI USB host controller, brings
// it up, and enumerates every connected root-port device (spec.md §4.6).
// Safe-mode skips this entirely, the same way a PC BIOS safe-mode boot
// option disables non-essential buses.
func (k *Kernel) bringUpUSB() {
	if k.Options.SafeMode {
		k.Log.Info("safe mode: skipping USB bring-up")
		return
	}

	for _, pciDev := range host.Discover() {
		kind, ok := host.KindFromPCI(pciDev)
		if !ok {
			continue
		}

		ctrl, err := newController(kind, pciDev)
		if err != nil || ctrl == nil {
			k.Log.Warn("usb controller init failed", "kind", kind, "err", err)
			continue
		}

		k.Controllers = append(k.Controllers, ctrl)
		k.Log.Info("usb controller up", "kind", ctrl.Kind(), "ports", ctrl.Ports())

		for port := 0; port < ctrl.Ports(); port++ {
			if !ctrl.PortConnected(port) {
				continue
			}

			dev := device.Enumerate(ctrl, port)
			if dev == nil || !dev.Present {
				continue
			}

			k.Devices = append(k.Devices, dev)
			k.deviceCtrl[dev] = ctrl
			k.Log.Info("usb device enumerated", "port", port, "vid", dev.VID, "pid", dev.PID, "class", dev.Class)
		}
	}
}

func newController(kind host.Kind, pciDev *pci.Device) (host.Controller, error) {
	switch kind {
	case host.UHCI:
		return uhci.New(uint16(pciDev.BaseAddress(4)))
	case host.OHCI:
		return ohci.New(uint32(pciDev.BaseAddress(0)))
	case host.EHCI:
		return ehci.New(uint32(pciDev.BaseAddress(0)))
	default:
		return nil, nil
	}
}

// mountStorage brings up the primary ATA channel and mounts FAT32 on it,
// if a filesystem is present (spec.md §4.10). A failure here is not
// fatal: a kernel with no disk still boots to the desktop.
func (k *Kernel) mountStorage() {
	dev := ata.Primary()
	fs, err := fat32.Mount(dev)
	if err != nil {
		k.Log.Info("no fat32 filesystem mounted", "err", err)
		return
	}
	k.FS = fs
	k.Log.Info("fat32 mounted")
}

// handleFunctionKey reacts to the one function key the router does not
// handle itself (spec.md §6): F2 dumps the current WM state to the serial
// log. F1 (debug overlay) and the Windows key (start menu) are toggled
// directly by Router; F11 (maximize) and Esc (close/cancel) are resolved
// entirely inside Router/Manager.
func (k *Kernel) handleFunctionKey(scancode uint32) {
	const scancodeF2 = 0x3c
	if scancode == scancodeF2 {
		k.Log.Info("wm state dump", "state", k.Desktop.DumpState())
	}
}

// readClock formats the current CMOS time for the taskbar clock (spec.md
// §4.8 "taskbar clock"). A read that fails (e.g. caught mid update) keeps
// showing the last good text rather than blanking the taskbar.
func (k *Kernel) readClock() string {
	now, err := k.Clock.Now()
	if err != nil {
		return k.Desktop.Taskbar.ClockText
	}
	return now.Format("15:04:05")
}

// shutdown is invoked once, by the shutdown state machine, after the
// confirm darken animation completes (spec.md §4.8).
func (k *Kernel) shutdown() {
	k.Log.Info("shutdown confirmed")
	k.running = false
}

// Run drains the event queue into the router and composites one frame
// per iteration, halting between iterations until the next interrupt
// (spec.md §5 "hlt -> drain events -> compositor stages"). It returns
// once the shutdown sequence invokes Kernel.shutdown.
func (k *Kernel) Run() {
	for k.running {
		k.cpu.Halt()

		k.pollHID(func(d *device.Device) host.Controller { return k.deviceCtrl[d] })

		var e event.Event
		for k.Events.Poll(&e) {
			if e.Kind == event.TimerTick {
				k.Desktop.Taskbar.Tick()
				k.Desktop.Shutdown.Tick()
			}
			k.Router.Dispatch(e)
		}

		k.Display.Tick(k.render)
	}
}

// render draws the desktop, every window (back to front), and the
// taskbar into the back buffer (spec.md §4.7 compositor stage 2-3,
// §4.8).
func (k *Kernel) render(d *vesa.Display) {
	const titleBarHeight = 20
	const titleBarColor = 0x00404040
	const windowColor = 0x00d4d0c8
	const taskbarColor = 0x00606060

	for _, w := range k.Desktop.Windows() {
		if !w.Visible {
			continue
		}
		d.FillRect(w.X, w.Y, uint32(w.W), titleBarHeight, titleBarColor)
		d.DrawString(w.X+4, w.Y+4, w.Title, 0x00ffffff, titleBarColor)
		d.FillRect(w.X, w.Y+titleBarHeight, uint32(w.W), uint32(w.H)-titleBarHeight, windowColor)
		d.MarkDirty(w.X, w.Y, uint32(w.W), uint32(w.H))
	}

	d.FillRect(0, int32(d.Height())-gui.TaskbarHeight, d.Width(), gui.TaskbarHeight, taskbarColor)
	d.DrawString(4, int32(d.Height())-gui.TaskbarHeight+8, k.Desktop.Taskbar.ClockText, 0x00ffffff, taskbarColor)
	d.MarkDirty(0, int32(d.Height())-gui.TaskbarHeight, d.Width(), gui.TaskbarHeight)

	if darken := k.Desktop.Shutdown.DarkenLevel; darken > 0 {
		d.FillRect(0, 0, d.Width(), d.Height(), uint32(darken)<<16|uint32(darken)<<8|uint32(darken))
		d.MarkDirty(0, 0, d.Width(), d.Height())
	}

	if k.Desktop.DebugOverlay {
		k.renderDebugOverlay(d)
	}
}

// renderDebugOverlay draws the F1 debug overlay: a one-line window/focus
// summary in the top-left corner (spec.md §6 "F1 toggles debug overlay").
func (k *Kernel) renderDebugOverlay(d *vesa.Display) {
	const overlayColor = 0x00000000
	windows := k.Desktop.Windows()
	text := fmt.Sprintf("windows=%d", len(windows))
	d.FillRect(0, 0, uint32(len(text)*8+8), 16, overlayColor)
	d.DrawString(4, 2, text, 0x0000ff00, overlayColor)
	d.MarkDirty(0, 0, uint32(len(text)*8+8), 16)
}

// viewMemory maps a physical address range onto a Go byte slice without
// copying, exactly as bootinfo.viewBytes and the dma package do for other
// fixed physical ranges.
func viewMemory(addr uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}

// pollHID polls every enumerated device's boot-protocol HID interrupt
// endpoint once and feeds the report through usb/hid, which posts the
// decoded key/mouse events on the shared queue (spec.md §4.6 DOMAIN
// additions). A stalled or disconnected device is simply skipped; it
// will either recover or stay silent, neither of which blocks the rest
// of the desktop.
func (k *Kernel) pollHID(ctrlByDevice func(*device.Device) host.Controller) {
	for _, dev := range k.Devices {
		if dev == nil || !dev.Present || dev.HID == nil {
			continue
		}

		ctrl := ctrlByDevice(dev)
		if ctrl == nil {
			continue
		}

		ep, ok := k.hidEP[dev]
		if !ok {
			ep = &host.Endpoint{Number: dev.HID.InEndpoint & 0x0f, Direction: host.In, MaxPacket: uint16(dev.HID.ReportSize)}
			k.hidEP[dev] = ep
		}

		report := make([]byte, dev.HID.ReportSize)
		n, err := ctrl.InterruptTransfer(dev.Address, ep, report, hidPollTimeoutMs)
		if err != nil || n == 0 {
			continue
		}

		switch hidProtocol(dev) {
		case hidBootKeyboard:
			st, ok := k.kbdState[dev]
			if !ok {
				st = &hid.KeyboardState{}
				k.kbdState[dev] = st
			}
			hid.DecodeKeyboardReport(st, report[:n], k.Events)
		case hidBootMouse:
			st, ok := k.mouseState[dev]
			if !ok {
				st = &hid.MouseState{}
				k.mouseState[dev] = st
			}
			hid.DecodeMouseReport(st, report[:n], int32(k.Display.Width()), int32(k.Display.Height()), k.Events)
		}
	}
}

// hidProtocol looks up the boot-protocol value (HID 1.11 §4.3) of a
// device's HID interface from its parsed interface descriptors.
func hidProtocol(dev *device.Device) uint8 {
	for _, iface := range dev.Interfaces {
		if iface.Number == dev.HID.InterfaceNumber {
			return iface.Protocol
		}
	}
	return 0
}
