// Universal Host Controller Interface (UHCI) driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package uhci implements the UHCI (prog-if 0x00) USB host controller
// variant: an I/O-port register file plus a 16-byte-aligned transfer
// descriptor and queue head pair, adopting the following reference
// specification:
//   - Universal Host Controller Interface (UHCI) Design Guide, revision 1.1, Intel
package uhci

import (
	"encoding/binary"

	"github.com/kestrel-kernel/kestrel/dma"
	"github.com/kestrel-kernel/kestrel/internal/reg"
	"github.com/kestrel-kernel/kestrel/usb/host"
)

// Register offsets from the controller's I/O base (PCI BAR4, spec.md §9).
const (
	regCommand      = 0x00
	regStatus       = 0x02
	regInterrupt    = 0x04
	regFrameNumber  = 0x06
	regFrameListAdr = 0x08
	regSOFModify    = 0x0c
	regPort1        = 0x10
	regPort2        = 0x12
)

const (
	cmdRun       = 0x0001
	cmdHCReset   = 0x0002
	cmdGlobReset = 0x0004
	cmdMaxPacket = 0x0080
)

const (
	statusUSBInt  = 0x0001
	statusError   = 0x0002
	statusHCHalt  = 0x0020
)

const (
	portConnect      = 0x0001
	portConnectChg   = 0x0002
	portEnable       = 0x0004
	portLowSpeed     = 0x0100
	portReset        = 0x0200
)

const (
	tdActive  = 1 << 23
	tdIOC     = 1 << 24
	tdLowSpd  = 1 << 26
	tdStalled = 1 << 22
	tdTimeout = 1 << 18

	tdTerminate = 0x1

	pidSetup = 0x2d
	pidIn    = 0x69
	pidOut   = 0xe1
)

const alignment = 16
const tdSize = 16
const qhSize = 8

// Controller implements host.Controller for a UHCI root hub.
type Controller struct {
	base  uint16
	ports int

	qhAddr uint
	tdPool uint
	enable bool
}

// New probes and initializes a UHCI controller at the given I/O base
// (spec.md §4.6 "Controller init sequence").
func New(ioBase uint16) (*Controller, error) {
	c := &Controller{base: ioBase, ports: 2}

	reg.Out16(c.base+regCommand, 0)
	reg.Out16(c.base+regCommand, cmdHCReset)

	if !waitClear(func() uint16 { return reg.In16(c.base + regCommand) }, cmdHCReset, 50) {
		return nil, host.ErrTimeout
	}

	qhAddr, _ := dma.Reserve(qhSize, alignment)
	tdAddr, _ := dma.Reserve(tdSize*4, alignment)
	c.qhAddr = qhAddr
	c.tdPool = tdAddr

	putQH(qhAddr, tdTerminate, tdTerminate)

	reg.Out32(uint16(c.base+regFrameListAdr), 0)
	reg.Out16(c.base+regSOFModify, 0x40)
	reg.Out16(c.base+regInterrupt, 0x0f)

	reg.Out16(c.base+regCommand, cmdRun|cmdMaxPacket)

	if reg.In16(c.base+regStatus)&statusHCHalt != 0 {
		dma.Release(c.qhAddr)
		dma.Release(c.tdPool)
		return nil, host.ErrTimeout
	}

	c.enable = true
	return c, nil
}

func (c *Controller) Kind() host.Kind { return host.UHCI }
func (c *Controller) Enabled() bool   { return c.enable }
func (c *Controller) Ports() int      { return c.ports }

func (c *Controller) portReg(port int) uint16 {
	if port == 1 {
		return c.base + regPort2
	}
	return c.base + regPort1
}

func (c *Controller) PortConnected(port int) bool {
	return reg.In16(c.portReg(port))&portConnect != 0
}

func (c *Controller) ResetPort(port int) (host.Speed, error) {
	p := c.portReg(port)

	v := reg.In16(p)
	reg.Out16(p, v|portReset)
	delay(50)
	reg.Out16(p, v&^portReset)
	delay(10)

	v = reg.In16(p)
	reg.Out16(p, v|portEnable|portConnectChg)

	if v&portLowSpeed != 0 {
		return host.LowSpeed, nil
	}
	return host.FullSpeed, nil
}

func (c *Controller) Shutdown() {
	reg.Out16(c.base+regCommand, 0)
	if c.qhAddr != 0 {
		dma.Release(c.qhAddr)
	}
	if c.tdPool != 0 {
		dma.Release(c.tdPool)
	}
	c.enable = false
}

// ControlTransfer implements the SETUP/DATA/STATUS control protocol
// (spec.md §4.6 steps 1-6) over three TDs linked through tdPool and handed
// to the controller via the frame list's single queue head.
func (c *Controller) ControlTransfer(addr uint8, maxPacket uint16, bmRequestType uint8, bRequest uint8, wValue uint16, wIndex uint16, buf []byte, ep *host.Endpoint) (int, error) {
	if !c.enable {
		return 0, host.ErrDisabled
	}

	setupAddr, setupBuf := dma.Reserve(8, 4)
	encodeSetup(setupBuf, bmRequestType, bRequest, wValue, wIndex, uint16(len(buf)))
	defer dma.Release(setupAddr)

	dataDir := pidIn
	if bmRequestType&host.RequestTypeIn == 0 {
		dataDir = pidOut
	}

	var dataAddr uint
	var dataBuf []byte
	if len(buf) > 0 {
		dataAddr, dataBuf = dma.Reserve(len(buf), 4)
		defer dma.Release(dataAddr)
		if dataDir == pidOut {
			copy(dataBuf, buf)
		}
	}

	statusDir := pidIn
	if dataDir == pidIn {
		statusDir = pidOut
	}

	td0 := c.tdPool
	td1 := c.tdPool + tdSize
	td2 := c.tdPool + 2*tdSize

	next := td1
	if len(buf) == 0 {
		next = td2
	}
	putTD(td0, next, pidSetup, addr, 0, 8, uint32(setupAddr))

	if len(buf) > 0 {
		putTD(td1, td2, dataDir, addr, 0, len(dataBuf), uint32(dataAddr))
	}

	putTD(td2, tdTerminate, statusDir, addr, 1, 0, 0)

	putQH(c.qhAddr, tdTerminate, uint32(td0))

	if !c.pollTransferChain(td0) {
		return 0, host.ErrTimeout
	}

	if len(buf) > 0 && dataDir == pidIn {
		copy(buf, dataBuf)
	}

	if len(buf) > 0 && ep != nil {
		ep.Toggle = !ep.Toggle
	}

	return len(buf), nil
}

const controlTimeoutMs = 100

func (c *Controller) pollTransferChain(firstTD uint) bool {
	for ms := 0; ms < controlTimeoutMs; ms++ {
		off := firstTD
		done := true

		for off != 0 {
			status := tdStatus(off)
			if status&tdActive != 0 {
				done = false
				break
			}
			if status&(tdStalled|tdTimeout) != 0 {
				return false
			}

			link := tdLink(off)
			if link&tdTerminate != 0 {
				break
			}
			off = uint(link &^ 0xf)
		}

		if done {
			return true
		}

		delay(1000)
	}

	return false
}

// InterruptTransfer polls a single low-speed/full-speed interrupt endpoint
// once via a single IN TD (spec.md §4.6 "interrupt_transfer").
func (c *Controller) InterruptTransfer(addr uint8, ep *host.Endpoint, buf []byte, timeoutMs int) (int, error) {
	if !c.enable {
		return 0, host.ErrDisabled
	}

	dataAddr, dataBuf := dma.Reserve(len(buf), 4)
	defer dma.Release(dataAddr)

	tdAddr := c.tdPool
	putTD(tdAddr, tdTerminate, pidIn, addr, ep.Number, len(buf), uint32(dataAddr))

	putQH(c.qhAddr, tdTerminate, uint32(tdAddr))

	for ms := 0; ms < timeoutMs; ms++ {
		status := tdStatus(tdAddr)
		if status&tdActive == 0 {
			if status&(tdStalled|tdTimeout) != 0 {
				return 0, host.ErrStall
			}
			n := copy(buf, dataBuf)
			ep.Toggle = !ep.Toggle
			return n, nil
		}
		delay(1000)
	}

	return 0, host.ErrTimeout
}

func encodeSetup(buf []byte, bmRequestType, bRequest uint8, wValue, wIndex, wLength uint16) {
	buf[0] = bmRequestType
	buf[1] = bRequest
	binary.LittleEndian.PutUint16(buf[2:4], wValue)
	binary.LittleEndian.PutUint16(buf[4:6], wIndex)
	binary.LittleEndian.PutUint16(buf[6:8], wLength)
}

// putTD writes a 4-dword UHCI TD: link pointer, status/control, token,
// buffer pointer (spec.md §9, grounded on uhci_td_t in original_source).
func putTD(off uint, link uint, pid int, addr uint8, endpoint uint8, length int, bufAddr uint32) {
	buf := make([]byte, tdSize)

	linkVal := uint32(link)
	if link != tdTerminate {
		linkVal |= 0x4 // depth-first
	} else {
		linkVal = tdTerminate
	}
	binary.LittleEndian.PutUint32(buf[0:4], linkVal)

	status := uint32(tdActive | tdIOC)
	binary.LittleEndian.PutUint32(buf[4:8], status)

	maxLen := uint32(0x7ff)
	if length > 0 {
		maxLen = uint32(length-1) & 0x7ff
	}
	token := uint32(pid) | uint32(addr)<<8 | uint32(endpoint&0xf)<<15 | maxLen<<21
	binary.LittleEndian.PutUint32(buf[8:12], token)

	binary.LittleEndian.PutUint32(buf[12:16], bufAddr)

	dma.Write(off, 0, buf)
}

func tdStatus(off uint) uint32 {
	buf := make([]byte, 4)
	dma.Read(off, 4, buf)
	return binary.LittleEndian.Uint32(buf)
}

func tdLink(off uint) uint32 {
	buf := make([]byte, 4)
	dma.Read(off, 0, buf)
	return binary.LittleEndian.Uint32(buf)
}

func putQH(off uint, link uint32, element uint32) {
	buf := make([]byte, qhSize)
	binary.LittleEndian.PutUint32(buf[0:4], link|0x2) // QH pointer bit
	binary.LittleEndian.PutUint32(buf[4:8], element)
	dma.Write(off, 0, buf)
}

func waitClear(read func() uint16, bit uint16, iterations int) bool {
	for i := 0; i < iterations; i++ {
		if read()&bit == 0 {
			return true
		}
		delay(1000)
	}
	return false
}

var delay = func(microseconds int) {
	for i := 0; i < microseconds*10; i++ {
		reg.In8(0x80) // port 0x80 dummy-write delay, as BIOS does
	}
}
