// Kestrel kernel entry point
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command kestrel is the Go-side entry point invoked once the Multiboot
// trampoline and the tamago runtime's hwinit hook have run. The trampoline
// itself, and the loader that places the kernel in memory, are outside this
// repository's scope (spec.md §1 "Non-goals: ASM trampolines, the Multiboot
// loader") — this package only consumes what they leave behind: the magic
// value and info pointer the Multiboot spec puts in EAX/EBX, stashed by the
// runtime fork into the linknamed variables below before normal Go init
// runs, the same way board packages such as sifive_u receive their boot
// parameters (see board/qemu/sifive_u's runtime.ramSize linkname).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=amd64` as
// supported by the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package main

import (
	_ "unsafe"

	"github.com/kestrel-kernel/kestrel/amd64"
	"github.com/kestrel-kernel/kestrel/kernel"
)

// Populated by the runtime fork before runtime.hwinit runs, from the
// Multiboot magic (EAX) and info pointer (EBX) the trampoline captured at
// entry, and from the linker-computed bounds of the loaded kernel image.

//go:linkname multibootMagic runtime.multibootMagic
var multibootMagic uint32

//go:linkname multibootInfo runtime.multibootInfo
var multibootInfo uintptr

//go:linkname kernelImageStart runtime.kernelImageStart
var kernelImageStart uintptr

//go:linkname kernelImageEnd runtime.kernelImageEnd
var kernelImageEnd uintptr

var k *kernel.Kernel

// Init runs during the runtime's early hardware-initialization hook, before
// package-level variable initializers and init() funcs elsewhere in the
// program — the same hook board packages use (e.g. sifive_u.Init, linked as
// runtime.hwinit). Boot failures here have no console yet to report to, so
// a failed Boot resets the machine through amd64.Fault (a triple fault)
// rather than panicking into an unspecified runtime state.
//
//go:linkname Init runtime.hwinit
func Init() {
	booted, err := kernel.Boot(multibootMagic, multibootInfo, kernelImageStart, kernelImageEnd)
	if err != nil {
		amd64.Fault()
	}
	k = booted
}

func main() {
	k.Run()
}
