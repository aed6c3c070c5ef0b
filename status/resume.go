// Package status implements C4 of the debugging engine: the wait-status
// demultiplexer that turns a batch of (tid, status) pairs from
// `wait_all_and_update_regs` into breakpoint/syscall/signal/clone/exit
// dispatch, the race-SIGSTOP workaround, and the single owned
// ResumeContext the control loop consults afterward. Grounded directly on
// `original_source/libdebug/ptrace/ptrace_status_handler.py`, which is
// effectively this package's specification: the Go port tracks its control
// flow function-for-function (`_handle_change`→handleChange,
// `_internal_signal_handler`→classifyStop, `_handle_breakpoints`→
// handleBreakpoint, `_handle_clone`→handleClone, `manage_change`→Dispatch).
package status

// Resume is the control loop's decision after a batch of stops has been
// processed (spec.md §3 `ResumeContext.resume`).
type Resume int

const (
	// ResumeYes means the control loop should re-arm breakpoints and
	// continue every thread.
	ResumeYes Resume = iota
	// ResumeNo means the control loop should leave the tracee stopped and
	// return control to the user.
	ResumeNo
)

// ResumeContext is the single struct the control loop owns and Dispatch
// mutates (spec.md §3, §9 design note: "avoid global singletons").
type ResumeContext struct {
	Resume         Resume
	IsAStep        bool
	ForceInterrupt bool
}
