package status

import "godbg/logging"

// handleBreakpoint implements spec.md §4.4b (`_handle_breakpoints`). It
// returns nil even when no breakpoint was responsible — a plain SIGTRAP can
// also be a single-step completion or a startup trap, both handled by the
// caller.
func handleBreakpoint(ctx Context, rc *ResumeContext, tid int) error {
	thread, ok := ctx.Thread(tid)
	if !ok {
		// Startup trap before the thread's register holder has been
		// installed: don't resume until the user decides to.
		rc.Resume = ResumeNo
		return nil
	}

	regs := thread.Registers()
	ip := regs.InstructionPointer()
	size := uint64(ctx.BreakpointSize())

	if bp, ok := ctx.HardwareExecuteAt(tid, ip); ok {
		bp.HitCount++
		resumeFromCallback(rc, bp.Callback != nil, func() {
			if bp.Callback != nil {
				bp.Callback(bp)
			}
		})
		logging.Default().Debug("hardware breakpoint hit", "tid", tid, "addr", ip)
		return nil
	}

	if bp, ok := ctx.Breakpoints().Get(ip - size); ok && bp.Enabled {
		regs.SetInstructionPointer(ip - size)
		bp.MarkHit(tid)
		bp.HitCount++
		logging.Default().Debug("software breakpoint hit", "tid", tid, "addr", ip-size)
		resumeFromCallback(rc, bp.Callback != nil, func() {
			if bp.Callback != nil {
				bp.Callback(bp)
			}
		})
		return nil
	}

	if wp, hit, err := ctx.WatchpointHit(tid); err == nil && hit {
		wp.HitCount++
		logging.Default().Debug("watchpoint hit", "tid", tid, "addr", wp.Address)
		resumeFromCallback(rc, wp.Callback != nil, func() {
			if wp.Callback != nil {
				wp.Callback(wp)
			}
		})
	}
	return nil
}

// resumeFromCallback applies spec.md §4.4b's "if bp.callback set, invoke it
// and resume ← RESUME; else resume ← NOT_RESUME".
func resumeFromCallback(rc *ResumeContext, hasCallback bool, invoke func()) {
	if hasCallback {
		invoke()
		rc.Resume = ResumeYes
	} else {
		rc.Resume = ResumeNo
	}
}
