package tracee

import (
	"godbg/breakpoint"
	"godbg/errors"
	"godbg/logging"
	"godbg/ptrace"
	"godbg/registers"
)

// loader is satisfied by every concrete registers.File implementation; it
// is not part of the registers.File interface itself because breakpoint
// and status never need to refresh a holder from a fresh ptrace transfer,
// only tracee's control loop does.
type loader interface {
	Load(buf []byte) error
}

// Thread is one traced thread of execution: its register holder, hardware
// breakpoint manager, and the bookkeeping status.Dispatch needs to tell
// its stops apart (spec.md §3 `Thread`).
type Thread struct {
	tid     int
	regs    registers.File
	fpregs  *registers.FPRegisterFile
	signum  int32
	pending int32

	hwManager breakpoint.HardwareManager
	hwByAddr  map[uint64]*breakpoint.Hardware
	hwBySlot  map[int]*breakpoint.Hardware
}

func newThread(tid int, arch registers.Architecture, platform registers.Platform) (*Thread, error) {
	regs, err := registers.Provide(arch, platform)
	if err != nil {
		return nil, err
	}
	hw, err := breakpoint.ProvideHardwareManager(hardwarePlatform(platform), tid)
	if err != nil {
		return nil, err
	}
	t := &Thread{
		tid:       tid,
		regs:      regs,
		hwManager: hw,
		hwByAddr:  make(map[uint64]*breakpoint.Hardware),
		hwBySlot:  make(map[int]*breakpoint.Hardware),
	}
	if err := t.Refresh(); err != nil {
		return nil, err
	}
	if arch != registers.Aarch64Arch {
		fp, err := newFPRegisterFile(tid)
		if err != nil {
			logging.Default().Debug("fp register file unavailable", "tid", tid, "err", err)
		} else {
			t.fpregs = fp
		}
	}
	return t, nil
}

// Tid returns the kernel thread ID this holder tracks.
func (t *Thread) Tid() int { return t.tid }

// Registers returns the thread's general-purpose register holder,
// satisfying hooks.Thread and status.Thread.
func (t *Thread) Registers() registers.File { return t.regs }

// SignalNumber returns the signal number this thread most recently
// stopped with, satisfying hooks.Thread and status.Thread.
func (t *Thread) SignalNumber() int32 { return t.signum }

// SetSignalNumber records the stop signal, satisfying hooks.Thread and
// status.Thread.
func (t *Thread) SetSignalNumber(s int32) { t.signum = s }

// Refresh pulls a fresh NT_PRSTATUS register set from the kernel via
// PTRACE_GETREGSET and loads it into the holder.
func (t *Thread) Refresh() error {
	buf := make([]byte, t.regs.Size())
	n, err := ptrace.GetRegSet(t.tid, ptrace.NTPRStatus, buf)
	if err != nil {
		return err
	}
	l, ok := t.regs.(loader)
	if !ok {
		return errors.New(errors.ErrInternal, "tracee.Thread.Refresh", "register holder does not support Load")
	}
	return l.Load(buf[:n])
}

// Flush writes the holder's current register values back to the kernel
// via PTRACE_SETREGSET.
func (t *Thread) Flush() error {
	return ptrace.SetRegSet(t.tid, ptrace.NTPRStatus, t.regs.Store())
}

// FPRegisters returns the thread's AVX/AVX-512 vector register view, or nil
// if none is available (aarch64 threads, or an x86 thread whose XSAVE probe
// failed at construction time).
func (t *Thread) FPRegisters() *registers.FPRegisterFile { return t.fpregs }

// HardwareManager returns this thread's debug-register provisioner.
func (t *Thread) HardwareManager() breakpoint.HardwareManager { return t.hwManager }

// QueueSignal marks a signal to be redelivered to the tracee on its next
// resume instead of being swallowed, mirroring `deliver_signal` in the
// Python original's ptrace interface.
func (t *Thread) QueueSignal(sig int32) { t.pending = sig }

// TakePendingSignal returns and clears the signal queued by QueueSignal,
// for the resume step to pass to PTRACE_CONT/PTRACE_SINGLESTEP.
func (t *Thread) TakePendingSignal() int32 {
	sig := t.pending
	t.pending = 0
	return sig
}
