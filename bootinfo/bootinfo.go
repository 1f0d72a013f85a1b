// Multiboot entry information decode
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bootinfo decodes the structure a Multiboot-compliant loader
// leaves behind at kernel entry: the magic value in EAX, and the info
// structure pointed to by EBX (spec.md §6, §9 "Multiboot info"). Only the
// fields the kernel actually consumes are decoded; any flag the loader
// left unset triggers the conservative default spec.md §6 calls for.
package bootinfo

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/kestrel-kernel/kestrel/mem/memmap"
	"github.com/kestrel-kernel/kestrel/soc/intel/vesa"
)

// Accepted Multiboot magic values (spec.md §6).
const (
	MagicV1 = 0x2BADB002
	MagicV2 = 0x36D76289
)

var ErrBadMagic = errors.New("bootinfo: unrecognized multiboot magic")

// Flags bits of the Multiboot v1 info structure that the kernel reads
// (Multiboot Specification 0.6.96, offset 0).
const (
	flagMem       = 1 << 0
	flagCmdline   = 1 << 2
	flagMmap      = 1 << 6
	flagBootLoader = 1 << 9
	flagFramebuffer = 1 << 12
)

// rawHeader mirrors the fixed-offset prefix of the Multiboot v1 info
// structure (spec.md §6): flags, then mem_lower/mem_upper, then (after
// fields the kernel does not use) the mmap and framebuffer blocks.
//
// This package only decodes v1 layout; a v2 (Multiboot2) loader magic is
// still accepted per spec.md §6 "Accepted magic values are 0x2BADB002 (v1)
// and 0x36D76289 (v2)" but its tag-stream parsing is not implemented —
// Decode falls back to the conservative defaults for every field in that
// case, matching "any absent flag triggers a conservative default".
type rawHeader struct {
	Flags    uint32
	MemLower uint32
	MemUpper uint32
}

const headerSize = 12

// Info is the decoded subset of the Multiboot info structure the kernel
// consumes (spec.md §3, §6).
type Info struct {
	MemLowerKB uint32
	MemUpperKB uint32

	Regions []memmap.Region

	Framebuffer vesa.Framebuffer
	HaveFramebuffer bool

	CommandLine    string
	BootLoaderName string
}

// Decode validates magic and reads Info from the structure at infoAddr.
// On a v2 (Multiboot2) magic, or on any v1 structure missing flags this
// package does not understand, Decode returns zero-value fields for the
// missing pieces rather than an error — only an unrecognized magic is
// fatal (spec.md §6, §7 "invalid multiboot info - conservative default,
// not a fatal error, except for magic").
func Decode(magic uint32, infoAddr uintptr, kernelEnd uintptr) (Info, error) {
	if magic != MagicV1 && magic != MagicV2 {
		return Info{}, ErrBadMagic
	}

	var info Info

	if magic != MagicV1 || infoAddr == 0 {
		return info, nil
	}

	raw := viewBytes(infoAddr, headerSize)
	hdr := rawHeader{
		Flags:    binary.LittleEndian.Uint32(raw[0:4]),
		MemLower: binary.LittleEndian.Uint32(raw[4:8]),
		MemUpper: binary.LittleEndian.Uint32(raw[8:12]),
	}

	if hdr.Flags&flagMem != 0 {
		info.MemLowerKB = hdr.MemLower
		info.MemUpperKB = hdr.MemUpper
	}

	if hdr.Flags&flagMmap != 0 {
		mmapLen, mmapAddr := readU32Pair(infoAddr, 44, 48)
		info.Regions = memmap.Sorted(decodeMmap(mmapAddr, mmapLen))
	}

	if hdr.Flags&flagCmdline != 0 {
		cmdlineAddr := readU32(infoAddr, 16)
		info.CommandLine = readCString(uintptr(cmdlineAddr))
	}

	if hdr.Flags&flagBootLoader != 0 {
		nameAddr := readU32(infoAddr, 64)
		info.BootLoaderName = readCString(uintptr(nameAddr))
	}

	if hdr.Flags&flagFramebuffer != 0 {
		info.Framebuffer, info.HaveFramebuffer = decodeFramebuffer(infoAddr)
	}

	return info, nil
}

// decodeMmap walks the variable-length Multiboot v1 memory map: each
// entry is prefixed by a 4-byte size field not itself counted in that
// size, so successive entries are found by skipping size+4 bytes
// (spec.md §6).
func decodeMmap(addr uint32, length uint32) []memmap.Region {
	var entries []memmap.RawEntryV1

	off := uint32(0)
	for off < length {
		entrySize := readU32(uintptr(addr), off)
		base := readU32(uintptr(addr), off+4)
		baseHi := readU32(uintptr(addr), off+8)
		lengthLo := readU32(uintptr(addr), off+12)
		lengthHi := readU32(uintptr(addr), off+16)
		typ := readU32(uintptr(addr), off+20)

		entries = append(entries, memmap.RawEntryV1{
			Size:   entrySize,
			Base:   uint64(baseHi)<<32 | uint64(base),
			Length: uint64(lengthHi)<<32 | uint64(lengthLo),
			Type:   typ,
		})

		off += entrySize + 4
	}

	return memmap.FromRawV1(entries)
}

// decodeFramebuffer reads the Multiboot v1 framebuffer block (offset 88
// in the info structure) into a vesa.Framebuffer. Only the direct-RGB
// (type 1) and indexed/text fallback are distinguished by bpp: a bpp of
// 0 (never reported by a real loader with the flag set) yields
// HaveFramebuffer=false so the kernel falls back to its fixed 320x200x8
// VGA mode rather than trusting a zeroed struct.
func decodeFramebuffer(infoAddr uintptr) (vesa.Framebuffer, bool) {
	addrLo := readU32(infoAddr, 88)
	addrHi := readU32(infoAddr, 92)
	pitch := readU32(infoAddr, 96)
	width := readU32(infoAddr, 100)
	height := readU32(infoAddr, 104)
	bpp := readByte(infoAddr, 108)

	if bpp == 0 || width == 0 || height == 0 {
		return vesa.Framebuffer{}, false
	}

	return vesa.Framebuffer{
		Base:   uintptr(uint64(addrHi)<<32 | uint64(addrLo)),
		Width:  width,
		Height: height,
		BPP:    uint32(bpp),
		Pitch:  pitch,
	}, true
}

func readU32(base uintptr, off uint32) uint32 {
	return binary.LittleEndian.Uint32(viewBytes(base+uintptr(off), 4))
}

func readU32Pair(base uintptr, off1, off2 uint32) (a, b uint32) {
	return readU32(base, off1), readU32(base, off2)
}

func readByte(base uintptr, off uint32) uint8 {
	return viewBytes(base+uintptr(off), 1)[0]
}

// readCString reads a NUL-terminated string starting at addr, up to a
// defensive cap so a corrupt pointer cannot hang the boot walking memory
// forever (spec.md §7 "bounded retry/scan on untrusted input").
func readCString(addr uintptr) string {
	const maxLen = 4096

	if addr == 0 {
		return ""
	}

	buf := viewBytes(addr, maxLen)
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}

	return string(buf)
}

// viewBytes maps a physical address range onto a Go byte slice without
// copying, the same technique the heap and dma packages use to treat a
// fixed address range as owned memory (see mem/heap's doc comment, and
// dma.Region).
func viewBytes(addr uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}
