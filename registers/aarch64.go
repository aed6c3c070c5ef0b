package registers

import "godbg/errors"

// aarch64Regs mirrors struct user_pt_regs from <asm/ptrace.h>: 31
// general-purpose registers, sp, pc, pstate.
type aarch64Regs struct {
	X       [31]uint64
	Sp      uint64
	Pc      uint64
	Pstate  uint64
}

const aarch64RegsSize = (31 + 3) * 8

// Aarch64 is the GPR holder for an aarch64 thread (spec.md §6 pair
// `(aarch64, aarch64)`).
type Aarch64 struct {
	regs aarch64Regs
	// syscallNumber and syscallArgs hold the x8 and x0-x5 values snapshotted
	// by CaptureSyscallEntry, since aarch64 has no orig_x0-style shadow
	// register the way x86 has orig_rax: x0 is clobbered with the return
	// value by the time of syscall-exit, so status.Dispatch must snapshot the
	// original x0-x5 on entry.
	syscallNumber int64
	syscallArgs   [6]uint64
}

// Size returns the wire size of the underlying register blob.
func (h *Aarch64) Size() int { return aarch64RegsSize }

// Load decodes buf into the holder.
func (h *Aarch64) Load(buf []byte) error {
	if len(buf) < aarch64RegsSize {
		return errors.New(errors.ErrUnsupportedFPLayout, "registers.aarch64.load", "short register buffer")
	}
	for i := 0; i < 31; i++ {
		h.regs.X[i] = hostEndian.Uint64(buf[i*8 : i*8+8])
	}
	h.regs.Sp = hostEndian.Uint64(buf[31*8 : 32*8])
	h.regs.Pc = hostEndian.Uint64(buf[32*8 : 33*8])
	h.regs.Pstate = hostEndian.Uint64(buf[33*8 : 34*8])
	return nil
}

// Store encodes the holder back into wire format.
func (h *Aarch64) Store() []byte {
	buf := make([]byte, aarch64RegsSize)
	for i := 0; i < 31; i++ {
		hostEndian.PutUint64(buf[i*8:i*8+8], h.regs.X[i])
	}
	hostEndian.PutUint64(buf[31*8:32*8], h.regs.Sp)
	hostEndian.PutUint64(buf[32*8:33*8], h.regs.Pc)
	hostEndian.PutUint64(buf[33*8:34*8], h.regs.Pstate)
	return buf
}

// X returns general-purpose register xN (0 <= n <= 30).
func (h *Aarch64) X(n int) uint64 { return h.regs.X[n] }

// SetX sets general-purpose register xN.
func (h *Aarch64) SetX(n int, v uint64) { h.regs.X[n] = v }

// Sp returns the stack pointer.
func (h *Aarch64) Sp() uint64 { return h.regs.Sp }

// SetSp sets the stack pointer.
func (h *Aarch64) SetSp(v uint64) { h.regs.Sp = v }

// Pstate returns the processor state register.
func (h *Aarch64) Pstate() uint64 { return h.regs.Pstate }

// InstructionPointer implements the generic RegisterFile contract.
func (h *Aarch64) InstructionPointer() uint64 { return h.regs.Pc }

// SetInstructionPointer implements the generic RegisterFile contract.
func (h *Aarch64) SetInstructionPointer(v uint64) { h.regs.Pc = v }

// StackPointer implements the generic RegisterFile contract.
func (h *Aarch64) StackPointer() uint64 { return h.regs.Sp }

// SetStackPointer implements the generic RegisterFile contract.
func (h *Aarch64) SetStackPointer(v uint64) { h.regs.Sp = v }

// CaptureSyscallEntry snapshots x8 (syscall number) and x0-x5 (arguments) as
// seen at a syscall-entry stop, since aarch64 has no orig_x0 to recover them
// from after x0 is overwritten with the return value at syscall-exit.
func (h *Aarch64) CaptureSyscallEntry() {
	h.syscallNumber = int64(h.regs.X[8])
	copy(h.syscallArgs[:], h.regs.X[0:6])
}

// SyscallNumber returns x8, which the kernel leaves unchanged across the
// syscall, so it is valid at both entry and exit stops.
func (h *Aarch64) SyscallNumber() int64 { return int64(h.regs.X[8]) }

// SetSyscallNumber overwrites x8, the register the kernel reads the syscall
// number from at the SVC instruction.
func (h *Aarch64) SetSyscallNumber(nr int64) {
	h.syscallNumber = nr
	h.regs.X[8] = uint64(nr)
}

// SyscallReturn returns x0, valid at syscall-exit stops.
func (h *Aarch64) SyscallReturn() int64 { return int64(h.regs.X[0]) }

// SetSyscallReturn overwrites x0.
func (h *Aarch64) SetSyscallReturn(v int64) { h.regs.X[0] = uint64(v) }

// SyscallArg returns the i'th syscall argument as captured at entry
// (x0-x5), not the live register, since x0 may already have been
// overwritten by the time this is called at exit.
func (h *Aarch64) SyscallArg(i int) uint64 {
	if i < 0 || i > 5 {
		return 0
	}
	return h.syscallArgs[i]
}

// SetSyscallArg overwrites both the cached entry snapshot and the live
// register, used by syscall hooks to redirect arguments before the kernel
// executes the syscall.
func (h *Aarch64) SetSyscallArg(i int, v uint64) {
	if i < 0 || i > 5 {
		return
	}
	h.syscallArgs[i] = v
	h.regs.X[i] = v
}
