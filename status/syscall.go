package status

import "godbg/hooks"

// handleSyscall implements spec.md §4.4a's entry point (`_handle_syscall`):
// route the trap to the hook chain executor, then resume. If the thread
// record doesn't exist yet, this is a trap the engine has no context for
// and rc is left untouched, matching the Python original's silent return
// for "another spurious trap, we don't know what to do with it".
func handleSyscall(ctx Context, rc *ResumeContext, tid int) error {
	thread, ok := ctx.Thread(tid)
	if !ok {
		return nil
	}

	nr := int(thread.Registers().SyscallNumber())
	if _, had := ctx.SyscallHooks().Get(nr); !had {
		rc.Resume = ResumeYes
		return nil
	}

	if err := hooks.DispatchSyscall(ctx.SyscallHooks(), thread, nr); err != nil {
		return err
	}
	rc.Resume = ResumeYes
	return nil
}
