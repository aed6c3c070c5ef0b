package tracee

import (
	"sync"

	"godbg/breakpoint"
	"godbg/errors"
	"godbg/hooks"
	"godbg/linux"
	"godbg/status"
)

// Tracee is one traced process: its threads, its process-wide software
// breakpoint table (patches live in shared address space, so one table
// serves every thread), and its syscall/signal hook tables (spec.md §3
// `Tracee`). Mutex-protected the way the teacher's Container guards
// State/InitProcess (container/container.go).
type Tracee struct {
	mu sync.RWMutex

	pid     int
	opts    Options
	threads map[int]*Thread

	breakpoints  *breakpoint.Table
	syscallHooks *hooks.SyscallTable
	signalHooks  *hooks.SignalTable

	resume status.ResumeContext
}

func newTracee(opts []Option) *Tracee {
	return &Tracee{
		opts:         resolveOptions(opts),
		threads:      make(map[int]*Thread),
		breakpoints:  breakpoint.NewTable(),
		syscallHooks: hooks.NewSyscallTable(),
		signalHooks:  hooks.NewSignalTable(),
	}
}

// Pid returns the thread group leader's tid.
func (tr *Tracee) Pid() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.pid
}

// ResumeContext returns the engine's single owned ResumeContext (spec.md
// §9 design note: one struct field owned by the Tracee, passed by pointer
// to status.Dispatch — never a package-level singleton).
func (tr *Tracee) ResumeContext() *status.ResumeContext {
	return &tr.resume
}

// Breakpoints satisfies status.Context: the process-wide software
// breakpoint table.
func (tr *Tracee) Breakpoints() *breakpoint.Table { return tr.breakpoints }

// BreakpointSize satisfies status.Context: the patch width for the
// tracee's architecture (1 on x86/x86-64, 4 on aarch64).
func (tr *Tracee) BreakpointSize() int {
	if tr.opts.Architecture == linux.ArchAArch64 {
		return breakpoint.BreakpointSizeAarch64
	}
	return breakpoint.BreakpointSizeX86
}

// SyscallHooks satisfies status.Context.
func (tr *Tracee) SyscallHooks() *hooks.SyscallTable { return tr.syscallHooks }

// SignalHooks satisfies status.Context.
func (tr *Tracee) SignalHooks() *hooks.SignalTable { return tr.signalHooks }

// Thread satisfies status.Context: looks up a previously registered
// thread by tid. The returned status.Thread is a *Thread under the hood.
func (tr *Tracee) Thread(tid int) (status.Thread, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	t, ok := tr.threads[tid]
	if !ok {
		return nil, false
	}
	return t, true
}

// ThreadByTid returns the concrete *Thread for tid, for callers that need
// hardware-breakpoint or register access beyond the narrow status.Thread
// interface.
func (tr *Tracee) ThreadByTid(tid int) (*Thread, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	t, ok := tr.threads[tid]
	return t, ok
}

// Threads returns every currently registered tid, for ReconcileThreads and
// for resuming the whole group.
func (tr *Tracee) Threads() []int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]int, 0, len(tr.threads))
	for tid := range tr.threads {
		out = append(out, tid)
	}
	return out
}

// RegisterThread satisfies status.Context: install bookkeeping for a newly
// observed tid — a clone child or the initial leader. It does not set
// PTRACE_SETOPTIONS flags: Spawn and Attach set them on the leader, and
// clone children traced via PTRACE_O_TRACECLONE inherit them.
func (tr *Tracee) RegisterThread(tid int) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.threads[tid]; exists {
		return nil
	}
	arch := registersArch(tr.opts.Architecture)
	t, err := newThread(tid, arch, tr.opts.Platform)
	if err != nil {
		return err
	}
	tr.threads[tid] = t
	return nil
}

// UnregisterThread satisfies status.Context: forget tid once it has
// exited or been killed.
func (tr *Tracee) UnregisterThread(tid int) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.threads, tid)
	return nil
}

// HardwareExecuteAt satisfies status.Context: look up an installed
// hardware execute breakpoint bound to tid at the exact faulting address.
func (tr *Tracee) HardwareExecuteAt(tid int, ip uint64) (*breakpoint.Hardware, bool) {
	t, ok := tr.ThreadByTid(tid)
	if !ok {
		return nil, false
	}
	hw, ok := t.hwByAddr[ip]
	if !ok || hw.Condition != breakpoint.ConditionExecute {
		return nil, false
	}
	return hw, true
}

// WatchpointHit satisfies status.Context: ask the thread's hardware
// manager which debug register slot (if any) fired, and resolve it back
// to the installed Hardware record (spec.md §4.3 `is_watchpoint_hit`).
func (tr *Tracee) WatchpointHit(tid int) (*breakpoint.Hardware, bool, error) {
	t, ok := tr.ThreadByTid(tid)
	if !ok {
		return nil, false, errors.ErrThreadNotFound
	}
	slot, err := t.hwManager.HitSlot()
	if err != nil {
		return nil, false, err
	}
	if slot < 0 {
		return nil, false, nil
	}
	hw, ok := t.hwBySlot[slot]
	if !ok {
		return nil, false, nil
	}
	return hw, true, nil
}

// InstallHardwareBreakpoint provisions a debug-register-backed breakpoint
// or watchpoint on tid and records it for later HardwareExecuteAt /
// WatchpointHit lookups.
func (tr *Tracee) InstallHardwareBreakpoint(tid int, addr uint64, cond breakpoint.Condition, length int) (*breakpoint.Hardware, error) {
	t, ok := tr.ThreadByTid(tid)
	if !ok {
		return nil, errors.ErrThreadNotFound
	}
	hw, err := t.hwManager.Install(addr, cond, length)
	if err != nil {
		return nil, err
	}
	if tr.opts.Architecture == linux.ArchX86_64 || tr.opts.Architecture == linux.ArchX86 {
		hw.ReportsPostFault = cond == breakpoint.ConditionExecute
	}
	tr.mu.Lock()
	t.hwByAddr[addr] = hw
	t.hwBySlot[hw.SlotIndex] = hw
	tr.mu.Unlock()
	return hw, nil
}

// RemoveHardwareBreakpoint undoes InstallHardwareBreakpoint.
func (tr *Tracee) RemoveHardwareBreakpoint(tid int, hw *breakpoint.Hardware) error {
	t, ok := tr.ThreadByTid(tid)
	if !ok {
		return errors.ErrThreadNotFound
	}
	if err := t.hwManager.Remove(hw); err != nil {
		return err
	}
	tr.mu.Lock()
	delete(t.hwByAddr, hw.Address)
	delete(t.hwBySlot, hw.SlotIndex)
	tr.mu.Unlock()
	return nil
}
