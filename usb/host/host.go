// USB host controller abstraction
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package host defines the controller-agnostic surface the device
// enumeration layer drives: every UHCI, OHCI and EHCI controller exposes
// the same two operations regardless of its private TD/QH memory layout
// (spec.md §4.6, §9 "Controller polymorphism").
package host

import "errors"

// Kind identifies a discovered controller's variant, read from PCI
// prog-if for class 0x0C / subclass 0x03 (spec.md §4.6).
type Kind int

const (
	UHCI Kind = iota
	OHCI
	EHCI
	XHCI
)

func (k Kind) String() string {
	switch k {
	case UHCI:
		return "UHCI"
	case OHCI:
		return "OHCI"
	case EHCI:
		return "EHCI"
	case XHCI:
		return "XHCI"
	default:
		return "unknown"
	}
}

// Speed is the negotiated link speed of a downstream device.
type Speed int

const (
	LowSpeed Speed = iota
	FullSpeed
	HighSpeed
)

var (
	ErrTimeout  = errors.New("usb: transfer timed out")
	ErrStall    = errors.New("usb: endpoint stalled")
	ErrDisabled = errors.New("usb: controller disabled")
)

// Endpoint carries the per-endpoint data toggle state the control- and
// interrupt-transfer protocol needs (spec.md §4.6 "data toggle starts at 0
// ... and flips after every successful data-phase transfer").
type Endpoint struct {
	Number    uint8
	Direction Direction
	MaxPacket uint16
	Toggle    bool
}

type Direction int

const (
	Out Direction = iota
	In
)

// Controller is the interface every host controller variant
// implements (spec.md §4.6, §9). The device enumeration state machine in
// usb/device is written entirely against this interface and never
// references a concrete variant.
type Controller interface {
	Kind() Kind
	Enabled() bool

	// ControlTransfer executes the three-stage (SETUP/DATA/STATUS)
	// control protocol at the named device address and returns the
	// number of data-stage bytes actually transferred. ep carries EP0's
	// data toggle, which is flipped on a successful data stage (spec.md
	// §4.6 step 5); callers enumerating at address 0 with no endpoint
	// state yet may pass nil.
	ControlTransfer(addr uint8, maxPacket uint16, bmRequestType uint8, bRequest uint8, wValue uint16, wIndex uint16, buf []byte, ep *Endpoint) (int, error)

	// InterruptTransfer polls a single interrupt endpoint once, copying
	// up to len(buf) bytes of the report into buf on success.
	InterruptTransfer(addr uint8, ep *Endpoint, buf []byte, timeoutMs int) (int, error)

	// Ports returns the number of root hub ports.
	Ports() int

	// PortConnected reports whether a device is currently attached to
	// root port (0-indexed).
	PortConnected(port int) bool

	// ResetPort issues a port reset and returns the negotiated speed.
	ResetPort(port int) (Speed, error)

	// Shutdown halts the controller and releases its descriptor memory.
	Shutdown()
}

// Standard control request fields (USB 2.0 §9.3).
const (
	RequestTypeIn  = 0x80
	RequestTypeOut = 0x00

	GetDescriptor    = 0x06
	SetAddress       = 0x05
	SetConfiguration = 0x09
	SetProtocol      = 0x0b

	DescriptorDevice        = 0x01
	DescriptorConfiguration = 0x02

	BootProtocol = 0x00
)

// controlTimeoutMs is the per-stage poll timeout (spec.md §4.6 step 5:
// "Poll each descriptor's status word with a 100 ms timeout").
const controlTimeoutMs = 100
