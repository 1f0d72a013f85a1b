// USB device enumeration
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package device implements the device-enumeration state machine that
// runs once per newly connected root port, driving any host.Controller
// through GET_DESCRIPTOR/SET_ADDRESS/SET_CONFIGURATION to reach a usable
// device (spec.md §4.6, §8 scenario 5).
package device

import (
	"errors"

	"github.com/kestrel-kernel/kestrel/usb/host"
)

// State is a step of the enumeration state machine (spec.md §4.6).
type State int

const (
	Connected State = iota
	Describe0
	Addressed
	Described
	Configured
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Connected:
		return "CONNECTED"
	case Describe0:
		return "DESCRIBE0"
	case Addressed:
		return "ADDRESSED"
	case Described:
		return "DESCRIBED"
	case Configured:
		return "CONFIGURED"
	case Ready:
		return "READY"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Endpoint is a parsed interface endpoint (spec.md §3).
type Endpoint struct {
	Number    uint8
	Direction host.Direction
	MaxPacket uint16
	Toggle    bool
}

// Interface is a parsed USB interface with up to 16 endpoints
// (spec.md §3).
type Interface struct {
	Number      uint8
	Class       uint8
	Subclass    uint8
	Protocol    uint8
	Endpoints   []Endpoint
}

const (
	maxInterfaces = 4
	maxEndpoints  = 16
	maxAddress    = 127
)

// HID flags recorded for a device's first interface of class 0x03 (HID) so
// the interrupt-poll routine knows where to read boot-protocol reports
// from (spec.md §4.6).
type HID struct {
	InterfaceNumber uint8
	InEndpoint      uint8
	ReportSize      int
}

// Device is a single enumerated USB device (spec.md §3).
type Device struct {
	Present    bool
	Address    uint8
	Speed      host.Speed
	VID, PID   uint16
	Class      uint8
	Subclass   uint8
	Protocol   uint8
	MaxPacket0 uint16

	Interfaces []Interface
	HID        *HID

	State State

	// ep0 carries EP0's data toggle across the control transfers
	// Enumerate issues (spec.md §4.6 step 5, §8 "data toggle flips
	// exactly once per successful control transfer with wLength > 0").
	ep0 host.Endpoint

	ctrl host.Controller
	port int
}

var (
	ErrNoDescriptor = errors.New("usb: malformed descriptor")
	ErrEnumFailed   = errors.New("usb: enumeration failed")
)

// nextAddress hands out device addresses 1..127, wrapping (spec.md §4.6
// "Address allocation wraps at 127").
var nextAddress uint8 = 1

func allocAddress() uint8 {
	addr := nextAddress
	nextAddress++
	if nextAddress > maxAddress {
		nextAddress = 1
	}
	return addr
}

// ResetAddressAllocator resets the global address counter; used by tests
// and by a full device-tree teardown.
func ResetAddressAllocator() {
	nextAddress = 1
}

// Enumerate drives the state machine for a newly connected port on ctrl,
// in the exact order spec.md §4.6 and §8 scenario 5 name: GET_DESCRIPTOR
// (DEVICE, 8) at address 0, SET_ADDRESS, GET_DESCRIPTOR (DEVICE, full),
// GET_DESCRIPTOR (CONFIG, buffer), SET_CONFIGURATION, and — for HID
// interfaces — SET_PROTOCOL(boot).
func Enumerate(ctrl host.Controller, port int) *Device {
	d := &Device{ctrl: ctrl, port: port, State: Connected, MaxPacket0: 8}

	speed, err := ctrl.ResetPort(port)
	if err != nil {
		d.fail()
		return d
	}
	d.Speed = speed

	d.State = Describe0
	hdr := make([]byte, 8)
	if _, err := ctrl.ControlTransfer(0, d.MaxPacket0, host.RequestTypeIn, host.GetDescriptor, uint16(host.DescriptorDevice)<<8, 0, hdr, &d.ep0); err != nil {
		d.fail()
		return d
	}
	d.MaxPacket0 = uint16(hdr[7])
	if d.MaxPacket0 == 0 {
		d.MaxPacket0 = 8
	}

	d.State = Addressed
	addr := allocAddress()
	if _, err := ctrl.ControlTransfer(0, d.MaxPacket0, host.RequestTypeOut, host.SetAddress, uint16(addr), 0, nil, &d.ep0); err != nil {
		d.fail()
		return d
	}
	d.Address = addr

	d.State = Described
	full := make([]byte, 18)
	if _, err := ctrl.ControlTransfer(d.Address, d.MaxPacket0, host.RequestTypeIn, host.GetDescriptor, uint16(host.DescriptorDevice)<<8, 0, full, &d.ep0); err != nil {
		d.fail()
		return d
	}
	if err := parseDeviceDescriptor(d, full); err != nil {
		d.fail()
		return d
	}

	cfg := make([]byte, 256)
	if _, err := ctrl.ControlTransfer(d.Address, d.MaxPacket0, host.RequestTypeIn, host.GetDescriptor, uint16(host.DescriptorConfiguration)<<8, 0, cfg, &d.ep0); err != nil {
		d.fail()
		return d
	}
	if err := parseConfigDescriptor(d, cfg); err != nil {
		d.fail()
		return d
	}

	d.State = Configured
	if _, err := ctrl.ControlTransfer(d.Address, d.MaxPacket0, host.RequestTypeOut, host.SetConfiguration, 1, 0, nil, &d.ep0); err != nil {
		d.fail()
		return d
	}

	if d.HID != nil {
		if _, err := ctrl.ControlTransfer(d.Address, d.MaxPacket0, host.RequestTypeOut, host.SetProtocol, host.BootProtocol, uint16(d.HID.InterfaceNumber), nil, &d.ep0); err != nil {
			d.fail()
			return d
		}
	}

	d.State = Ready
	d.Present = true
	return d
}

func (d *Device) fail() {
	d.State = Failed
	d.Present = false
}

// parseDeviceDescriptor reads VID/PID/class from an 18-byte USB device
// descriptor (USB 2.0 §9.6.1).
func parseDeviceDescriptor(d *Device, buf []byte) error {
	if len(buf) < 18 {
		return ErrNoDescriptor
	}

	d.Class = buf[4]
	d.Subclass = buf[5]
	d.Protocol = buf[6]
	d.VID = uint16(buf[8]) | uint16(buf[9])<<8
	d.PID = uint16(buf[10]) | uint16(buf[11])<<8

	return nil
}

// parseConfigDescriptor walks the concatenated configuration + interface +
// endpoint descriptors (USB 2.0 §9.6.3/9.6.5/9.6.6), stopping at
// bNumInterfaces or maxInterfaces, whichever comes first.
func parseConfigDescriptor(d *Device, buf []byte) error {
	if len(buf) < 9 || buf[1] != 0x02 {
		return ErrNoDescriptor
	}

	totalLength := int(buf[2]) | int(buf[3])<<8
	if totalLength > len(buf) {
		totalLength = len(buf)
	}

	off := 9
	var cur *Interface

	for off+2 <= totalLength && len(d.Interfaces) < maxInterfaces {
		length := int(buf[off])
		descType := buf[off+1]
		if length == 0 || off+length > totalLength {
			break
		}

		switch descType {
		case 0x04: // INTERFACE
			if len(buf[off:]) < 9 {
				break
			}
			d.Interfaces = append(d.Interfaces, Interface{
				Number:   buf[off+2],
				Class:    buf[off+5],
				Subclass: buf[off+6],
				Protocol: buf[off+7],
			})
			cur = &d.Interfaces[len(d.Interfaces)-1]

			if cur.Class == 0x03 && d.HID == nil { // HID class
				d.HID = &HID{InterfaceNumber: cur.Number, ReportSize: 8}
			}

		case 0x05: // ENDPOINT
			if cur == nil || len(cur.Endpoints) >= maxEndpoints || len(buf[off:]) < 7 {
				break
			}
			addr := buf[off+2]
			dir := host.Out
			if addr&0x80 != 0 {
				dir = host.In
			}
			maxPacket := uint16(buf[off+4]) | uint16(buf[off+5])<<8

			cur.Endpoints = append(cur.Endpoints, Endpoint{
				Number:    addr & 0x0f,
				Direction: dir,
				MaxPacket: maxPacket,
			})

			if d.HID != nil && d.HID.InterfaceNumber == cur.Number && dir == host.In && d.HID.InEndpoint == 0 {
				d.HID.InEndpoint = addr & 0x0f
				d.HID.ReportSize = int(maxPacket)
			}
		}

		off += length
	}

	if len(d.Interfaces) == 0 {
		return ErrNoDescriptor
	}

	return nil
}
