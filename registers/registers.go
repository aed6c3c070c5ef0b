// Package registers implements C2 of the debugging engine: per-architecture
// general-purpose register holders and floating-point/vector register
// views over the blobs PTRACE_GETREGSET/SETREGSET transfers.
//
// There is no Go equivalent of the Python original's dynamic attribute
// injection (spec.md §9); each architecture gets a fixed, generated-looking
// method set instead (Rax()/SetRax(), Ymm(i)/SetYmm(i, v), ...).
package registers

import (
	"encoding/binary"

	"golang.org/x/arch/x86/x86asm"

	"godbg/errors"
)

var hostEndian = binary.NativeEndian

// Architecture identifies the target's instruction set.
type Architecture string

const (
	Amd64Arch   Architecture = "amd64"
	I386Arch    Architecture = "i386"
	Aarch64Arch Architecture = "aarch64"
)

// Platform identifies the host kernel's native word size, which determines
// which wire layout a given architecture's register blob arrives in.
type Platform string

const (
	PlatformX86_64  Platform = "x86_64"
	PlatformI686    Platform = "i686"
	PlatformAarch64 Platform = "aarch64"
)

// File is the generic contract every architecture's GPR holder implements,
// used by `breakpoint` and `status` without an architecture switch.
type File interface {
	InstructionPointer() uint64
	SetInstructionPointer(uint64)
	StackPointer() uint64
	SetStackPointer(uint64)
	SyscallNumber() int64
	SetSyscallNumber(int64)
	SyscallReturn() int64
	SetSyscallReturn(int64)
	SyscallArg(i int) uint64
	SetSyscallArg(i int, v uint64)
	Size() int
	Store() []byte
}

// Provide returns a fresh, zeroed GPR holder for the (architecture, platform)
// pair, mirroring `register_helper.register_holder_provider`'s match
// statement (spec.md §6 "Valid pairs"). Unsupported pairs return
// errors.ErrNoRegisterHolder.
func Provide(arch Architecture, platform Platform) (File, error) {
	switch {
	case arch == Amd64Arch && platform == PlatformX86_64:
		return &Amd64{}, nil
	case arch == I386Arch && platform == PlatformX86_64:
		return &I386OverAmd64{}, nil
	case arch == I386Arch && platform == PlatformI686:
		return &I386{}, nil
	case arch == Aarch64Arch && platform == PlatformAarch64:
		return &Aarch64{}, nil
	default:
		return nil, errors.WrapWithDetail(errors.ErrNoRegisterHolder, errors.ErrUnsupportedPlatform, "registers.Provide",
			string(arch)+" on "+string(platform))
	}
}

// DecodeAt decodes the first x86 instruction in code, with mode the CPU
// mode in bits (16, 32 or 64) as x86asm.Decode takes it, for step-over trace
// diagnostics in the breakpoint engine. Decoding is advisory only — actual
// step-over always executes exactly one instruction via PTRACE_SINGLESTEP,
// which needs no instruction-length knowledge; this exists only to produce a
// human-readable line (spec.md §4.3's trace logging, not its correctness).
func DecodeAt(code []byte, mode int) (x86asm.Inst, error) {
	return x86asm.Decode(code, mode)
}
