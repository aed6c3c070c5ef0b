package status

import (
	"godbg/breakpoint"
	"godbg/hooks"
	"godbg/ptrace"
)

// Thread is the subset of thread state Dispatch reads and mutates. A
// tracee.Thread satisfies it.
type Thread interface {
	hooks.Thread
}

// TidStatus is one element of the batch `wait_all_and_update_regs` returns
// (spec.md §4.1/§4.4: "a list of (tid, status) pairs").
type TidStatus struct {
	Tid    int
	Status ptrace.WaitStatus
}

// Context is everything Dispatch needs from the owning tracee: thread
// lookup/registration, the breakpoint and hook tables, and the hardware
// breakpoint/watchpoint helpers. Keeping this as a narrow interface (rather
// than importing the tracee package directly) avoids a status↔tracee
// import cycle, since tracee is the package that calls Dispatch.
type Context interface {
	// Thread returns the thread record for tid, or ok=false if the thread
	// has not been registered yet (spec.md §4.4b's "no instruction_pointer
	// view exists" startup-trap case).
	Thread(tid int) (Thread, bool)
	// RegisterThread allocates and installs a new thread record for tid
	// (spec.md §4.4c).
	RegisterThread(tid int) error
	// UnregisterThread removes tid's thread record (spec.md §4.4, exit
	// handling). It must tolerate tid already being absent.
	UnregisterThread(tid int) error

	// Breakpoints returns the software breakpoint table.
	Breakpoints() *breakpoint.Table
	// BreakpointSize returns BREAKPOINT_SIZE for the tracee's architecture
	// (1 on x86/x86-64, 4 on aarch64).
	BreakpointSize() int
	// HardwareExecuteAt returns the execute-condition hardware breakpoint
	// installed at ip for tid, if any (spec.md §4.4b "ip is in the enabled
	// set → hardware breakpoint hit").
	HardwareExecuteAt(tid int, ip uint64) (*breakpoint.Hardware, bool)
	// WatchpointHit asks tid's hardware breakpoint manager whether a
	// read/write watchpoint just fired (spec.md §4.3 `is_watchpoint_hit`).
	WatchpointHit(tid int) (*breakpoint.Hardware, bool, error)

	// SyscallHooks returns the syscall hook table.
	SyscallHooks() *hooks.SyscallTable
	// SignalHooks returns the signal hook table.
	SignalHooks() *hooks.SignalTable

	// GetEventMsg relays PTRACE_GETEVENTMSG for tid (new TID on clone,
	// exit status on PTRACE_EVENT_EXIT).
	GetEventMsg(tid int) (uint64, error)
	// ConsumeSigstop performs `waitpid(newTid, 0)` to collect the new
	// thread's initial SIGSTOP notification when it wasn't already present
	// in the current batch (spec.md §4.4c).
	ConsumeSigstop(newTid int) error

	// DeliverSignals queues each tid's stop signal for delivery when that
	// thread is next resumed; it does not resume anything itself. Cf. spec.md §4.4's closing
	// "cont_all_and_set_bps [...] carries per-thread signal numbers".
	DeliverSignals(tids []int) error
}
