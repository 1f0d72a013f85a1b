// Package goos describes the runtime-integration contract the tamago-patched
// Go runtime expects a GOOS=tamago program to satisfy, and which
// [cmd/kestrel] implements for this kernel.
//
// This package is a documentation stub: every function below is defined
// without a body here and is instead provided by cmd/kestrel, either
// directly or via go:linkname against the runtime (the same pattern
// board/qemu/sifive_u uses for runtime.ramSize and runtime.hwinit). Nothing
// in this module imports goos; it exists purely so the contract has one
// place to be read, rather than being reconstructed from cmd/kestrel's
// linkname directives alone.
//
// [cmd/kestrel]: https://github.com/kestrel-kernel/kestrel/tree/main/cmd/kestrel
package goos

// Required variables.
var (
	// RamStart defines the start address of the physical or virtual memory
	// available to the runtime for allocation (including the code segment
	// which must be mapped within).
	RamStart uint

	// RamSize defines the total size of the physical or virtual memory
	// available to the runtime for allocation (including the code segment
	// which must be mapped within).
	RamSize uint

	// RamStackOffset, defines the negative offset from the end of the
	// available memory for stack allocation.
	RamStackOffset uint
)

// CPUinit handles immediate startup CPU initialization as it represents the
// first instruction set executed.
func CPUinit()

// Hwinit0 takes care of the lower level initialization triggered before
// runtime setup (pre World start). This kernel has nothing to do before
// World start beyond what the Multiboot trampoline itself performs, so
// cmd/kestrel leaves this hook absent rather than defining an empty stub.
//
// It must be defined using Go's Assembler to retain Go's commitment to
// backward compatibility, otherwise extreme care must be taken as the lack of
// World start does not allow memory allocation.
func Hwinit0()

// InitRNG initializes random number generation.
func InitRNG()

// GetRandomData generates len(b) random bytes and writes them into b.
func GetRandomData(b []byte)

// Nanotime returns the system time in nanoseconds.
//
// Before [Hwinit1] it must be defined using Go's Assembler to retain Go's
// commitment to backward compatibility, otherwise extreme care must be taken
// as the lack of World start does not allow memory allocation.
func Nanotime() int64

// Printk handles character printing to standard output.
//
// Before [Hwinit1] it must be defined using Go's Assembler to retain Go's
// commitment to backward compatibility, otherwise extreme care must be taken
// as the lack of World start does not allow memory allocation.
func Printk(c byte)

// Hwinit1 takes care of the lower level initialization triggered early in
// runtime setup (post World start). cmd/kestrel's Init function is
// go:linkname'd to this hook; it is where kernel.Boot runs, decoding the
// Multiboot info the trampoline left behind and bringing up every
// subsystem before main() starts the event loop.
func Hwinit1()

// Optional variables/functions.
var (
	// Bloc is an optional variable which can be set to redefine the heap
	// memory start address, this is typically only required on OS
	// supported environments. Unused here: mem/heap.SelectRegion picks the
	// heap's backing region from the Multiboot memory map instead.
	Bloc uintptr

	// Exit is an optional function which can be set to override default
	// runtime termination. amd64.CPU.Init sets this to the amd64
	// package's exit routine, since there is no host OS to return
	// control to.
	Exit func(code int32)

	// Idle is an optional function which can be set to implement CPU idle
	// time management. amd64.CPU.Init sets this to a HLT; kernel.Run also
	// calls amd64.CPU.Halt directly between main loop iterations.
	Idle func(until int64)

	// ProcID is an optional function which can be set to provide the
	// processor identifier for tracing purposes. Unused: this kernel is
	// single-core (spec.md Non-goals exclude SMP).
	ProcID func() uint64
)
