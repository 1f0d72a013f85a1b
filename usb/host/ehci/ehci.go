// Enhanced Host Controller Interface (EHCI) driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ehci implements the EHCI (prog-if 0x20) USB host controller
// variant: a split capability + operational MMIO register region plus
// 32-byte-aligned queue heads and queue transfer descriptors, adopting the
// following reference specification:
//   - Enhanced Host Controller Interface Specification for USB, revision 1.0
package ehci

import (
	"encoding/binary"

	"github.com/kestrel-kernel/kestrel/dma"
	"github.com/kestrel-kernel/kestrel/internal/reg"
	"github.com/kestrel-kernel/kestrel/usb/host"
)

// Capability register offsets, relative to capBase (spec.md §9).
const (
	capLength   = 0x00
	capHCSParam = 0x04
)

// Operational register offsets, relative to opBase = capBase + CAPLENGTH.
const (
	opUSBCmd    = 0x00
	opUSBSts    = 0x04
	opFrIndex   = 0x0c
	opASyncAddr = 0x18
	opConfigFlg = 0x40
	opPortSC    = 0x44
)

const (
	cmdRun       = 1 << 0
	cmdReset     = 1 << 1
	cmdAsyncEn   = 1 << 5
	cmdPeriodicEn = 1 << 4
)

const (
	stsHalted = 1 << 12
)

const (
	portConnect    = 1 << 0
	portEnable     = 1 << 2
	portReset      = 1 << 8
	portPower      = 1 << 12
)

const (
	qtdActive  = 1 << 7
	qtdHalted  = 1 << 6
	qtdTimeout = 1 << 3

	pidOut   = 0
	pidIn    = 1
	pidSetup = 2

	qtdTerminate = 0x1
)

const alignment = 32
const qhSize = 48
const qtdSize = 32

type mmio struct{ base uint32 }

func (m mmio) read(off uint32) uint32     { return reg.Read(m.base + off) }
func (m mmio) write(off uint32, v uint32) { reg.Write(m.base+off, v) }

// Controller implements host.Controller for an EHCI root hub running in
// pure-32-bit-high-speed mode (no 64-bit data structure segments).
type Controller struct {
	cap mmio
	op  mmio

	ports int

	qhAddr  uint
	qtdPool uint
	enable  bool
}

// New probes and initializes an EHCI controller whose capability registers
// are memory-mapped at capBase (spec.md §4.6).
func New(capBase uint32) (*Controller, error) {
	c := &Controller{cap: mmio{base: capBase}}

	capLen := c.cap.read(capLength) & 0xff
	c.op = mmio{base: capBase + capLen}

	hcsParams := c.cap.read(capHCSParam)
	c.ports = int(hcsParams & 0xf)
	if c.ports == 0 {
		c.ports = 1
	}

	c.op.write(opUSBCmd, cmdReset)
	if !waitClear(func() uint32 { return c.op.read(opUSBCmd) }, cmdReset, 100) {
		return nil, host.ErrTimeout
	}

	qhAddr, _ := dma.Reserve(qhSize, alignment)
	qtdAddr, _ := dma.Reserve(qtdSize*4, alignment)
	c.qhAddr = qhAddr
	c.qtdPool = qtdAddr

	putQH(qhAddr, qhAddr, 0, 0, qtdTerminate)

	c.op.write(opASyncAddr, uint32(qhAddr))
	c.op.write(opConfigFlg, 1)
	c.op.write(opUSBCmd, cmdRun|cmdAsyncEn)

	for i := 0; i < 100; i++ {
		if c.op.read(opUSBSts)&stsHalted == 0 {
			break
		}
		delay(1000)
	}

	c.enable = true
	return c, nil
}

func (c *Controller) Kind() host.Kind { return host.EHCI }
func (c *Controller) Enabled() bool   { return c.enable }
func (c *Controller) Ports() int      { return c.ports }

func (c *Controller) portOffset(port int) uint32 {
	return uint32(opPortSC + port*4)
}

func (c *Controller) PortConnected(port int) bool {
	return c.op.read(c.portOffset(port))&portConnect != 0
}

func (c *Controller) ResetPort(port int) (host.Speed, error) {
	off := c.portOffset(port)

	c.op.write(off, c.op.read(off)|portPower)
	delay(20000)

	c.op.write(off, c.op.read(off)|portReset)
	delay(50000)
	c.op.write(off, c.op.read(off)&^portReset)

	for i := 0; i < 100; i++ {
		if c.op.read(off)&portReset == 0 {
			break
		}
		delay(1000)
	}

	// EHCI root ports only carry high-speed devices once enabled; a
	// device that never sets the enable bit has been released to a
	// companion UHCI/OHCI controller (not modeled here).
	return host.HighSpeed, nil
}

func (c *Controller) Shutdown() {
	c.op.write(opUSBCmd, 0)
	if c.qhAddr != 0 {
		dma.Release(c.qhAddr)
	}
	if c.qtdPool != 0 {
		dma.Release(c.qtdPool)
	}
	c.enable = false
}

const controlTimeoutMs = 100

// ControlTransfer runs the SETUP/DATA/STATUS protocol over the controller's
// single asynchronous queue head (spec.md §4.6 steps 1-6).
func (c *Controller) ControlTransfer(addr uint8, maxPacket uint16, bmRequestType uint8, bRequest uint8, wValue uint16, wIndex uint16, buf []byte, ep *host.Endpoint) (int, error) {
	if !c.enable {
		return 0, host.ErrDisabled
	}

	setupAddr, setupBuf := dma.Reserve(8, 4)
	encodeSetup(setupBuf, bmRequestType, bRequest, wValue, wIndex, uint16(len(buf)))
	defer dma.Release(setupAddr)

	dataPid := pidIn
	if bmRequestType&host.RequestTypeIn == 0 {
		dataPid = pidOut
	}

	var dataAddr uint
	var dataBuf []byte
	if len(buf) > 0 {
		dataAddr, dataBuf = dma.Reserve(len(buf), 4)
		defer dma.Release(dataAddr)
		if dataPid == pidOut {
			copy(dataBuf, buf)
		}
	}

	statusPid := pidIn
	if dataPid == pidIn {
		statusPid = pidOut
	}

	qtd0, qtd1, qtd2 := c.qtdPool, c.qtdPool+qtdSize, c.qtdPool+2*qtdSize

	next := qtd1
	if len(buf) == 0 {
		next = qtd2
	}
	putQTD(qtd0, next, pidSetup, setupAddr, 8)
	if len(buf) > 0 {
		putQTD(qtd1, qtd2, dataPid, dataAddr, len(dataBuf))
	}
	putQTD(qtd2, 0, statusPid, 0, 0)

	putQH(c.qhAddr, c.qhAddr, addr, int(maxPacket), uint32(qtd0))

	if !c.pollQTD(qtd2) {
		return 0, host.ErrTimeout
	}

	if len(buf) > 0 && dataPid == pidIn {
		copy(buf, dataBuf)
	}

	if len(buf) > 0 && ep != nil {
		ep.Toggle = !ep.Toggle
	}

	return len(buf), nil
}

func (c *Controller) pollQTD(last uint) bool {
	for ms := 0; ms < controlTimeoutMs; ms++ {
		token := qtdToken(last)
		if token&qtdActive == 0 {
			if token&(qtdHalted|qtdTimeout) != 0 {
				return false
			}
			return true
		}
		delay(1000)
	}
	return false
}

// InterruptTransfer polls one interrupt endpoint once via a single IN qTD
// queued on the same asynchronous schedule (a production EHCI driver would
// use the periodic schedule; this keeps both classes of endpoint on the
// one queue head this controller owns).
func (c *Controller) InterruptTransfer(addr uint8, ep *host.Endpoint, buf []byte, timeoutMs int) (int, error) {
	if !c.enable {
		return 0, host.ErrDisabled
	}

	dataAddr, dataBuf := dma.Reserve(len(buf), 4)
	defer dma.Release(dataAddr)

	qtdAddr := c.qtdPool
	putQTD(qtdAddr, 0, pidIn, dataAddr, len(buf))
	putQH(c.qhAddr, c.qhAddr, addr, int(ep.MaxPacket), uint32(qtdAddr))

	for ms := 0; ms < timeoutMs; ms++ {
		token := qtdToken(qtdAddr)
		if token&qtdActive == 0 {
			if token&(qtdHalted|qtdTimeout) != 0 {
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

// putQH writes the horizontal link pointer and the first two of three
// static-endpoint-state dwords of an EHCI queue head (spec.md §9); the
// overlay area (qTD pointer) is what actually schedules qtdAddr.
func putQH(off uint, horiz uint, addr uint8, maxPacket int, qtdAddr uint32) {
	buf := make([]byte, qhSize)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(horiz)|0x2) // QH type
	binary.LittleEndian.PutUint32(buf[4:8], uint32(addr&0x7f)|uint32(maxPacket&0x7ff)<<16|1<<14)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], qtdTerminate) // current qTD
	binary.LittleEndian.PutUint32(buf[16:20], qtdAddr)       // next qTD (overlay)

	dma.Write(off, 0, buf)
}

// putQTD writes a 32-byte EHCI queue transfer descriptor (spec.md §9).
func putQTD(off uint, next uint, pid int, bufAddr uint, length int) {
	buf := make([]byte, qtdSize)

	nextVal := uint32(qtdTerminate)
	if next != 0 {
		nextVal = uint32(next)
	}
	binary.LittleEndian.PutUint32(buf[0:4], nextVal)
	binary.LittleEndian.PutUint32(buf[4:8], qtdTerminate)

	token := qtdActive | uint32(pid)<<8 | uint32(length&0x7fff)<<16 | 3<<10 // Cerr=3
	binary.LittleEndian.PutUint32(buf[8:12], token)

	binary.LittleEndian.PutUint32(buf[12:16], uint32(bufAddr))

	dma.Write(off, 0, buf)
}

func qtdToken(off uint) uint32 {
	buf := make([]byte, 4)
	dma.Read(off, 8, buf)
	return binary.LittleEndian.Uint32(buf)
}

func waitClear(read func() uint32, bit uint32, iterations int) bool {
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
	}
}
