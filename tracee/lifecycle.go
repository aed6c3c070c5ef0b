package tracee

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"godbg/breakpoint"
	"godbg/errors"
	"godbg/logging"
	"godbg/ptrace"
	"godbg/status"
)

// Spawn starts argv[0] with PTRACE_TRACEME in its child, mirroring
// `other_examples`' `rawClient.LaunchProcess` (exec.Command +
// syscall.SysProcAttr{Ptrace: true}), waits for the post-execve SIGTRAP,
// installs the engine's PTRACE_SETOPTIONS flags, and registers the leader
// thread.
func Spawn(argv []string, opts ...Option) (*Tracee, error) {
	if len(argv) == 0 {
		return nil, errors.ErrEmptyArgv
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "tracee.Spawn")
	}

	pid := cmd.Process.Pid
	if _, _, err := ptrace.Wait(pid, 0); err != nil {
		return nil, err
	}

	tr := newTracee(opts)
	tr.pid = pid
	if err := ptrace.SetOptions(pid, tr.opts.PtraceOpts); err != nil {
		return nil, err
	}
	if err := tr.RegisterThread(pid); err != nil {
		return nil, err
	}
	logging.Default().Debug("spawned tracee", "pid", pid, "argv", argv)
	return tr, nil
}

// Attach seizes an already-running process via PTRACE_SEIZE, which applies
// the ptrace options atomically and does not stop the tracee the way
// PTRACE_ATTACH's synthetic SIGSTOP would (spec.md §4.1).
func Attach(pid int, opts ...Option) (*Tracee, error) {
	tr := newTracee(opts)
	tr.pid = pid
	if err := ptrace.Seize(pid, tr.opts.PtraceOpts); err != nil {
		return nil, err
	}
	if err := tr.RegisterThread(pid); err != nil {
		return nil, err
	}
	logging.Default().Debug("attached to tracee", "pid", pid)
	return tr, nil
}

// Detach releases every traced thread, optionally delivering sig to the
// leader as it resumes independently.
func (tr *Tracee) Detach(sig int) error {
	var firstErr error
	leader := tr.Pid()
	for _, tid := range tr.Threads() {
		s := 0
		if tid == leader {
			s = sig
		}
		if err := ptrace.Detach(tid, s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	tr.mu.Lock()
	tr.threads = make(map[int]*Thread)
	tr.mu.Unlock()
	return firstErr
}

// ConsumeSigstop satisfies status.Context: explicitly reap the SIGSTOP a
// freshly cloned thread receives, for the case where the current wait
// batch didn't already carry its notification (spec.md §4.4c).
func (tr *Tracee) ConsumeSigstop(newTid int) error {
	_, ws, err := ptrace.Wait(newTid, 0)
	if err != nil {
		return err
	}
	if !ws.Stopped() {
		logging.Default().Debug("new thread not stopped on sigstop consume", "tid", newTid)
	}
	return nil
}

// DeliverSignals satisfies status.Context: queue every pending thread's
// most recent stop signal for redelivery on its next resume, rather than
// swallowing signals the engine didn't specifically intercept (mirrors
// `ptrace_interface.deliver_signal`).
func (tr *Tracee) DeliverSignals(tids []int) error {
	for _, tid := range tids {
		t, ok := tr.ThreadByTid(tid)
		if !ok {
			continue
		}
		switch t.SignalNumber() {
		case 0, int32(unix.SIGTRAP), int32(unix.SIGSTOP), int32(ptrace.SyscallSigtrap):
			// Stops the engine itself handles are not passed on.
			continue
		}
		t.QueueSignal(t.SignalNumber())
	}
	return nil
}

// GetEventMsg satisfies status.Context.
func (tr *Tracee) GetEventMsg(tid int) (uint64, error) {
	return ptrace.GetEventMsg(tid)
}

// ContinueAll resumes every registered thread via PTRACE_CONT, delivering
// each thread's queued pending signal (if any) instead of swallowing it,
// and rearms every software breakpoint not currently linked to the thread
// resuming past it (spec.md §4.3 `cont_all_and_set_bps`). A thread sitting
// exactly on a breakpoint it is linked to is first stepped past the
// restored original instruction via StepOver, since PTRACE_CONT alone would
// immediately re-trap on the still-patched byte and hang (spec.md §4.3,
// testable property 1).
func (tr *Tracee) ContinueAll() error {
	for _, tid := range tr.Threads() {
		t, ok := tr.ThreadByTid(tid)
		if !ok {
			continue
		}
		ip := t.Registers().InstructionPointer()
		if bp, ok := tr.breakpoints.Get(ip); ok && bp.IsLinkedTo(tid) {
			if err := t.Flush(); err != nil {
				return err
			}
			if err := breakpoint.StepOver(tid, bp); err != nil {
				return err
			}
			if err := t.Refresh(); err != nil {
				return err
			}
			ip = t.Registers().InstructionPointer()
		}
		if err := tr.breakpoints.ArmAllExcept(tid, ip); err != nil {
			return err
		}
		if err := t.Flush(); err != nil {
			return err
		}
		sig := int(t.TakePendingSignal())
		if err := ptrace.Cont(tid, sig); err != nil {
			return err
		}
	}
	return nil
}

// WaitBatch blocks for at least one state change in any traced thread
// (WALL so non-leader threads created via clone without SIGCHLD are
// reaped too), then drains every additional change already available via
// WNOHANG without blocking again, returning them together as one batch for
// status.Dispatch — mirroring the Python original's pattern of handling a
// whole round of simultaneous stops in one `manage_change` call.
func (tr *Tracee) WaitBatch() ([]status.TidStatus, error) {
	tid, ws, err := ptrace.Wait(-1, unix.WALL)
	if err != nil {
		return nil, err
	}
	batch := []status.TidStatus{{Tid: tid, Status: ws}}
	tr.refreshIfStopped(tid, ws)

	for {
		tid, ws, err := ptrace.Wait(-1, unix.WALL|unix.WNOHANG)
		if err != nil || tid <= 0 {
			break
		}
		batch = append(batch, status.TidStatus{Tid: tid, Status: ws})
		tr.refreshIfStopped(tid, ws)
	}
	return batch, nil
}

// refreshIfStopped pulls a fresh NT_PRSTATUS snapshot for tid if it is
// already a registered thread and ws reports a stop (not an exit), so that
// status.Dispatch always sees the post-stop register state rather than
// whatever was last flushed before the previous resume (spec.md §4.3
// `wait_all_and_update_regs`: "refreshing the GPR snapshot for every stopped
// tracee"). New threads not yet registered are refreshed once RegisterThread
// constructs their Thread.
func (tr *Tracee) refreshIfStopped(tid int, ws ptrace.WaitStatus) {
	if !ws.Stopped() {
		return
	}
	t, ok := tr.ThreadByTid(tid)
	if !ok {
		return
	}
	if err := t.Refresh(); err != nil {
		logging.Default().Debug("register refresh failed", "tid", tid, "err", err)
	}
}

// Step runs one iteration of the control loop: wait for a batch of state
// changes, dispatch it, and resume every thread unless the dispatch
// decided to leave the tracee stopped (e.g. a breakpoint with no
// callback, or a completed single-step).
func (tr *Tracee) Step() error {
	batch, err := tr.WaitBatch()
	if err != nil {
		return err
	}
	tr.resume = status.ResumeContext{}
	if err := status.Dispatch(tr, &tr.resume, batch); err != nil {
		return err
	}
	if tr.resume.Resume == status.ResumeYes {
		return tr.ContinueAll()
	}
	return nil
}

// StepUntil single-steps tid repeatedly via PTRACE_SINGLESTEP, refreshing
// its registers after each step, until its instruction pointer reaches addr
// or maxSteps steps have been taken without arriving (spec.md C1
// `step_until(tid, addr, max_steps)`). It reports whether addr was reached.
func (tr *Tracee) StepUntil(tid int, addr uint64, maxSteps int) (bool, error) {
	t, ok := tr.ThreadByTid(tid)
	if !ok {
		return false, errors.ErrThreadNotFound
	}
	for i := 0; i < maxSteps; i++ {
		if t.Registers().InstructionPointer() == addr {
			return true, nil
		}
		sig := int(t.TakePendingSignal())
		if err := ptrace.SingleStep(tid, sig); err != nil {
			return false, err
		}
		_, ws, err := ptrace.Wait(tid, 0)
		if err != nil {
			return false, err
		}
		if !ws.Stopped() {
			return false, errors.ErrThreadAlreadyGone
		}
		t.SetSignalNumber(int32(ws.StopSignal()))
		if err := t.Refresh(); err != nil {
			return false, err
		}
	}
	return t.Registers().InstructionPointer() == addr, nil
}

// Run drives the control loop until every thread has exited or been
// unregistered, or dispatch returns an error.
func (tr *Tracee) Run() error {
	for len(tr.Threads()) > 0 {
		if err := tr.Step(); err != nil {
			return err
		}
	}
	return nil
}
