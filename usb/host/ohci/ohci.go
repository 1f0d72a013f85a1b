// Open Host Controller Interface (OHCI) driver
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ohci implements the OHCI (prog-if 0x10) USB host controller
// variant: a memory-mapped register file plus 16-byte-aligned endpoint
// descriptors and general transfer descriptors, adopting the following
// reference specification:
//   - Open Host Controller Interface Specification for USB, revision 1.0a
package ohci

import (
	"encoding/binary"

	"github.com/kestrel-kernel/kestrel/dma"
	"github.com/kestrel-kernel/kestrel/internal/reg"
	"github.com/kestrel-kernel/kestrel/usb/host"
)

// Register offsets from the controller's MMIO base (spec.md §9).
const (
	regRevision        = 0x00
	regControl         = 0x04
	regCommandStatus   = 0x08
	regInterruptStatus = 0x0c
	regInterruptEnable = 0x10
	regHCCA            = 0x18
	regControlHeadED   = 0x20
	regFmInterval      = 0x34
	regRHDescriptorA   = 0x48
	regRHStatus        = 0x50
	regRHPortStatus1   = 0x54
)

const (
	controlPeriodicEnable = 1 << 2
	controlControlEnable  = 1 << 4
	controlBulkEnable     = 1 << 5
	controlUSBOperational = 2 << 6
	controlHCReset        = 0
)

const (
	cmdHostControllerReset = 1 << 0
)

const (
	portConnectStatus = 1 << 0
	portEnableStatus  = 1 << 1
	portResetStatus   = 1 << 4
	portLowSpeed      = 1 << 9
	portResetStatusCh = 1 << 20
)

const (
	tdConditionNotAccessed = 0xe
	tdRoundingBit          = 1 << 18
	tdPidSetup             = 0 << 19
	tdPidOut               = 1 << 19
	tdPidIn                = 2 << 19
)

const alignment = 16
const edSize = 16
const tdSize = 16
const hccaSize = 256

type mmio struct{ base uint32 }

func (m mmio) read(off uint32) uint32     { return reg.Read(m.base + off) }
func (m mmio) write(off uint32, v uint32) { reg.Write(m.base+off, v) }

// Controller implements host.Controller for an OHCI root hub.
type Controller struct {
	mmio mmio
	ports int

	hccaAddr uint
	edAddr   uint
	tdPool   uint
	enable   bool
}

// New probes and initializes an OHCI controller whose registers are
// memory-mapped at mmioBase (spec.md §4.6 "Controller init sequence").
func New(mmioBase uint32) (*Controller, error) {
	c := &Controller{mmio: mmio{base: mmioBase}}

	c.mmio.write(regCommandStatus, cmdHostControllerReset)
	if !waitClearU32(func() uint32 { return c.mmio.read(regCommandStatus) }, cmdHostControllerReset, 50) {
		return nil, host.ErrTimeout
	}

	hccaAddr, _ := dma.Reserve(hccaSize, 256)
	edAddr, _ := dma.Reserve(edSize, alignment)
	tdAddr, _ := dma.Reserve(tdSize*4, alignment)

	c.hccaAddr = hccaAddr
	c.edAddr = edAddr
	c.tdPool = tdAddr

	putED(edAddr, 0, 0, 0, tdTerminateBit)

	c.mmio.write(regHCCA, uint32(hccaAddr))
	c.mmio.write(regControlHeadED, uint32(edAddr))
	c.mmio.write(regFmInterval, 0x2edf|((0x2edf-210)<<16))

	rhDescA := c.mmio.read(regRHDescriptorA)
	c.ports = int(rhDescA & 0xff)
	if c.ports == 0 || c.ports > 15 {
		c.ports = 2
	}

	c.mmio.write(regControl, controlUSBOperational|controlControlEnable|controlPeriodicEnable|controlBulkEnable)

	c.enable = true
	return c, nil
}

const tdTerminateBit = 1

func (c *Controller) Kind() host.Kind { return host.OHCI }
func (c *Controller) Enabled() bool   { return c.enable }
func (c *Controller) Ports() int      { return c.ports }

func (c *Controller) portOffset(port int) uint32 {
	return uint32(regRHPortStatus1 + port*4)
}

func (c *Controller) PortConnected(port int) bool {
	return c.mmio.read(c.portOffset(port))&portConnectStatus != 0
}

func (c *Controller) ResetPort(port int) (host.Speed, error) {
	off := c.portOffset(port)

	c.mmio.write(off, portResetStatus)
	for i := 0; i < 100; i++ {
		if c.mmio.read(off)&portResetStatusCh != 0 {
			break
		}
		delay(1000)
	}
	c.mmio.write(off, portResetStatusCh)

	if c.mmio.read(off)&portLowSpeed != 0 {
		return host.LowSpeed, nil
	}
	return host.FullSpeed, nil
}

func (c *Controller) Shutdown() {
	c.mmio.write(regControl, controlHCReset)
	if c.hccaAddr != 0 {
		dma.Release(c.hccaAddr)
	}
	if c.edAddr != 0 {
		dma.Release(c.edAddr)
	}
	if c.tdPool != 0 {
		dma.Release(c.tdPool)
	}
	c.enable = false
}

// ControlTransfer runs the SETUP/DATA/STATUS protocol over a single
// endpoint descriptor whose TD list is rebuilt for each call (spec.md
// §4.6 steps 1-6).
func (c *Controller) ControlTransfer(addr uint8, maxPacket uint16, bmRequestType uint8, bRequest uint8, wValue uint16, wIndex uint16, buf []byte, ep *host.Endpoint) (int, error) {
	if !c.enable {
		return 0, host.ErrDisabled
	}

	setupAddr, setupBuf := dma.Reserve(8, 4)
	encodeSetup(setupBuf, bmRequestType, bRequest, wValue, wIndex, uint16(len(buf)))
	defer dma.Release(setupAddr)

	dataPid := tdPidIn
	if bmRequestType&host.RequestTypeIn == 0 {
		dataPid = tdPidOut
	}

	var dataAddr uint
	var dataBuf []byte
	if len(buf) > 0 {
		dataAddr, dataBuf = dma.Reserve(len(buf), 4)
		defer dma.Release(dataAddr)
		if dataPid == tdPidOut {
			copy(dataBuf, buf)
		}
	}

	statusPid := tdPidIn
	if dataPid == tdPidIn {
		statusPid = tdPidOut
	}

	td0, td1, td2 := c.tdPool, c.tdPool+tdSize, c.tdPool+2*tdSize

	next := td1
	if len(buf) == 0 {
		next = td2
	}
	putTD(td0, next, tdPidSetup, setupAddr, 8)

	if len(buf) > 0 {
		putTD(td1, td2, dataPid, dataAddr, len(dataBuf))
	}

	putTD(td2, 0, statusPid, 0, 0)

	putED(c.edAddr, addr, 0, int(maxPacket), uint32(td0))

	if !c.pollTD(td2) {
		return 0, host.ErrTimeout
	}

	if len(buf) > 0 && dataPid == tdPidIn {
		copy(buf, dataBuf)
	}

	if len(buf) > 0 && ep != nil {
		ep.Toggle = !ep.Toggle
	}

	return len(buf), nil
}

func (c *Controller) pollTD(lastTD uint) bool {
	for ms := 0; ms < controlTimeoutMs; ms++ {
		status := tdCondition(lastTD)
		if status == 0 {
			return true
		}
		if status != tdConditionNotAccessed {
			return false
		}
		delay(1000)
	}
	return false
}

const controlTimeoutMs = 100

// InterruptTransfer polls one interrupt endpoint once via a single IN TD.
func (c *Controller) InterruptTransfer(addr uint8, ep *host.Endpoint, buf []byte, timeoutMs int) (int, error) {
	if !c.enable {
		return 0, host.ErrDisabled
	}

	dataAddr, dataBuf := dma.Reserve(len(buf), 4)
	defer dma.Release(dataAddr)

	tdAddr := c.tdPool
	putTD(tdAddr, 0, tdPidIn, dataAddr, len(buf))
	putED(c.edAddr, addr, int(ep.Number), int(ep.MaxPacket), uint32(tdAddr))

	for ms := 0; ms < timeoutMs; ms++ {
		status := tdCondition(tdAddr)
		if status == 0 {
			n := copy(buf, dataBuf)
			ep.Toggle = !ep.Toggle
			return n, nil
		}
		if status != tdConditionNotAccessed {
			return 0, host.ErrStall
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

// putED writes a 4-dword OHCI endpoint descriptor (spec.md §9).
func putED(off uint, addr uint8, endpoint int, maxPacket int, headTD uint32) {
	buf := make([]byte, edSize)

	word0 := uint32(addr&0x7f) | uint32(endpoint&0xf)<<7 | uint32(maxPacket&0x7ff)<<16
	binary.LittleEndian.PutUint32(buf[0:4], word0)
	binary.LittleEndian.PutUint32(buf[4:8], 0) // tail TD pointer, unused (single TD)
	binary.LittleEndian.PutUint32(buf[8:12], headTD)
	binary.LittleEndian.PutUint32(buf[12:16], 0) // next ED, terminated

	dma.Write(off, 0, buf)
}

// putTD writes a 4-dword OHCI general transfer descriptor (spec.md §9).
func putTD(off uint, next uint, pid int, bufAddr uint, length int) {
	buf := make([]byte, tdSize)

	control := uint32(pid) | tdRoundingBit | uint32(tdConditionNotAccessed)<<28
	binary.LittleEndian.PutUint32(buf[0:4], control)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(bufAddr))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(next))
	if length > 0 {
		binary.LittleEndian.PutUint32(buf[12:16], uint32(bufAddr)+uint32(length)-1)
	}

	dma.Write(off, 0, buf)
}

func tdCondition(off uint) uint32 {
	buf := make([]byte, 4)
	dma.Read(off, 0, buf)
	control := binary.LittleEndian.Uint32(buf)
	return control >> 28
}

func waitClearU32(read func() uint32, bit uint32, iterations int) bool {
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
