package breakpoint

import (
	"encoding/binary"

	"godbg/errors"
	"godbg/logging"
	"godbg/ptrace"
	"godbg/registers"
)

// StepOver executes spec.md §4.3's step-over discipline for a thread that
// just hit bp: restore the original word, single-step one instruction,
// re-patch, and leave the thread ready to resume. The caller must already
// have rewound the thread's instruction pointer to bp.Address and flushed it
// to the kernel (status.handleBreakpoint does this when it first observes
// the trap) before calling StepOver — StepOver itself only restores/
// re-patches memory and single-steps, it does not touch the instruction
// pointer.
func StepOver(tid int, bp *Software) error {
	if err := bp.Disable(tid); err != nil {
		return err
	}
	bp.MarkHit(tid)

	logStepOver(tid, bp)

	if err := ptrace.SingleStep(tid, 0); err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.StepOver", tid)
	}
	_, ws, err := ptrace.Wait(tid, 0)
	if err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.StepOver", tid)
	}
	if !ws.Stopped() {
		// The thread exited or was killed mid-step; nothing left to rearm.
		bp.ClearHit(tid)
		return nil
	}

	if err := bp.Enable(tid); err != nil {
		return err
	}
	bp.ClearHit(tid)
	return nil
}

// logStepOver decodes the instruction StepOver is about to execute past the
// restored breakpoint and logs it, purely as a diagnostic trace line
// (decoding is advisory only, per registers.DecodeAt's doc comment — the
// actual step-over needs no instruction-length knowledge). aarch64 has no
// x86 encoding to decode, so this is a no-op there.
func logStepOver(tid int, bp *Software) {
	if bp.arch == ArchAarch64 {
		return
	}
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], uint64(bp.OriginalWord))
	inst, err := registers.DecodeAt(buf[:], 64)
	if err != nil {
		logging.Default().Debug("step-over decode failed", "tid", tid, "addr", bp.Address, "err", err)
		return
	}
	logging.Default().Debug("step-over", "tid", tid, "addr", bp.Address, "inst", inst.String())
}
