package status

import (
	"golang.org/x/sys/unix"

	"godbg/hooks"
	"godbg/logging"
	"godbg/ptrace"
)

// Dispatch processes one wait batch, mirroring `manage_change`: it resets
// the race-SIGSTOP assumption, runs handleChange over every (tid, status)
// pair, and either short-circuits to RESUME (spurious SIGSTOP storm) or
// delivers the pending signals collected along the way.
func Dispatch(ctx Context, rc *ResumeContext, batch []TidStatus) error {
	assumeRaceSigstop := true
	var pending []int

	for _, ts := range batch {
		if ts.Tid == -1 {
			// Spurious trap (no tid reported); ignore.
			rc.Resume = ResumeYes
			continue
		}
		changed, err := handleChange(ctx, rc, ts.Tid, ts.Status, batch, &pending)
		if err != nil {
			return err
		}
		if changed {
			assumeRaceSigstop = false
		}
	}

	if assumeRaceSigstop {
		rc.Resume = ResumeYes
		return nil
	}

	if len(pending) == 0 {
		return nil
	}
	err := ctx.DeliverSignals(pending)
	return err
}

// handleChange implements `_handle_change`: demultiplex one (tid, status)
// pair. It returns nonRaceStop=true whenever the stop reason rules out the
// race-SIGSTOP assumption (any stop that isn't a plain SIGSTOP).
func handleChange(ctx Context, rc *ResumeContext, tid int, ws ptrace.WaitStatus, batch []TidStatus, pending *[]int) (nonRaceStop bool, err error) {
	if ws.Stopped() {
		signum := ws.StopSignal()
		if signum != unix.SIGSTOP {
			nonRaceStop = true
		}

		if err := classifyStop(ctx, rc, tid, signum, ws, batch); err != nil {
			return nonRaceStop, err
		}

		if thread, ok := ctx.Thread(tid); ok {
			thread.SetSignalNumber(int32(signum))

			if hook, had := ctx.SignalHooks().Get(int32(signum)); had && hook.Enabled {
				if err := hooks.DispatchSignal(ctx.SignalHooks(), thread, int32(signum)); err != nil {
					return nonRaceStop, err
				}
				rc.Resume = ResumeYes
			}

			*pending = append(*pending, tid)
		}
		return nonRaceStop, nil
	}

	if ws.Exited() {
		logging.Default().Debug("tracee exited", "tid", tid, "status", ws.ExitStatus())
		if err := ctx.UnregisterThread(tid); err != nil {
			return nonRaceStop, err
		}
		rc.Resume = ResumeYes
		return nonRaceStop, nil
	}

	if ws.Signaled() {
		logging.Default().Debug("tracee killed by signal", "tid", tid, "signal", ws.Signal())
		if err := ctx.UnregisterThread(tid); err != nil {
			return nonRaceStop, err
		}
		rc.Resume = ResumeYes
		return nonRaceStop, nil
	}

	return nonRaceStop, nil
}

// classifyStop implements `_internal_signal_handler`: decide what a SIGTRAP
// family stop means and mutate rc accordingly.
func classifyStop(ctx Context, rc *ResumeContext, tid int, signum unix.Signal, ws ptrace.WaitStatus, batch []TidStatus) error {
	switch {
	case signum == ptrace.SyscallSigtrap:
		logging.Default().Debug("syscall stop", "tid", tid)
		return handleSyscall(ctx, rc, tid)

	case signum == unix.SIGSTOP && rc.ForceInterrupt:
		logging.Default().Debug("interrupt delivered", "tid", tid)
		rc.Resume = ResumeNo
		rc.ForceInterrupt = false
		return nil

	case signum == unix.SIGTRAP:
		if err := handleBreakpoint(ctx, rc, tid); err != nil {
			return err
		}
		if rc.IsAStep {
			rc.Resume = ResumeNo
			rc.IsAStep = false
		}

		switch ws.TrapCause() {
		case ptrace.EventClone:
			msg, err := ctx.GetEventMsg(tid)
			if err != nil {
				return err
			}
			logging.Default().Debug("thread cloned", "tid", tid, "new_tid", msg)
			if err := handleClone(ctx, int(msg), batch); err != nil {
				return err
			}
			rc.Resume = ResumeYes
		case ptrace.EventSeccomp:
			logging.Default().Debug("seccomp install observed", "tid", tid)
			rc.Resume = ResumeYes
		case ptrace.EventExit:
			// The tracee is still alive; PTRACE_EVENT_EXIT defers the
			// actual unregister to the next wait batch (spec.md §9 open
			// question resolution: "hopefully" arrives, and every other
			// lookup tolerates ThreadGone in the meantime).
			msg, err := ctx.GetEventMsg(tid)
			if err != nil {
				return err
			}
			logging.Default().Debug("thread exiting", "tid", tid, "exit_status", msg)
			rc.Resume = ResumeYes
		}
		return nil
	}
	return nil
}
