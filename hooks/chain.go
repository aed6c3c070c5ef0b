package hooks

import "godbg/errors"

// HandleSyscallEnter implements §4.4a's entering branch: it records the
// pre-hook arguments, invokes the user hook if present, and if the syscall
// number changed afterward and the post-hook number has its own hijack-
// enabled hook, recurses into it. hijacked starts as {nr} per the Python
// original's `{syscall_number}` seed.
func HandleSyscallEnter(table *SyscallTable, hook *SyscallHook, t Thread, nr int, hijacked map[int]bool) error {
	if hijacked == nil {
		hijacked = map[int]bool{nr: true}
	}

	if hook.OnEnterUser != nil && hook.Enabled {
		var oldArgs [6]uint64
		regs := t.Registers()
		for i := range oldArgs {
			oldArgs[i] = regs.SyscallArg(i)
		}

		hook.OnEnterUser(t, nr)

		after := int(t.Registers().SyscallNumber())
		if after != nr {
			if hook.OnEnterPprint != nil {
				hook.OnEnterPprint(t, nr, &EnterInfo{Hijacked: true, OldArgs: oldArgs})
			}

			if nextHook, ok := table.Get(after); ok {
				if hook.HookHijack {
					if hijacked[after] {
						return errors.ErrSyscallHijackLoop
					}
					hijacked[after] = true
					return HandleSyscallEnter(table, nextHook, t, after, hijacked)
				}
				if nextHook.OnEnterPprint != nil {
					nextHook.OnEnterPprint(t, after, nil)
				}
				nextHook.hasEntered = true
				nextHook.skipExit = true
				return nil
			}
			// The post-hijack syscall number has no hook of its own: nothing
			// will route a matching exit back to hook, so leave its
			// has_entered untouched rather than wrongly marking it entered.
			return nil
		} else if hook.OnEnterPprint != nil {
			hook.OnEnterPprint(t, nr, &EnterInfo{UserHooked: true})
			hook.hasEntered = true
			return nil
		} else {
			hook.hasEntered = true
			return nil
		}
	} else if hook.OnEnterPprint != nil {
		hook.OnEnterPprint(t, nr, nil)
		hook.hasEntered = true
		return nil
	} else if hook.OnExitPprint != nil || hook.OnExitUser != nil {
		hook.hasEntered = true
		return nil
	}

	hook.hasEntered = true
	return nil
}

// HandleSyscallExit implements §4.4a's exiting branch.
func HandleSyscallExit(hook *SyscallHook, t Thread, nr int) {
	if hook.Enabled && !hook.skipExit {
		hook.HitCount++
	}

	if hook.OnExitUser != nil && hook.Enabled && !hook.skipExit {
		var before int64
		hasBefore := hook.OnExitPprint != nil
		if hasBefore {
			before = t.Registers().SyscallReturn()
		}
		hook.OnExitUser(t, nr)
		if hook.OnExitPprint != nil {
			after := t.Registers().SyscallReturn()
			if hasBefore && after != before {
				hook.OnExitPprint(ExitResult{Before: before, After: after, HasBefore: true})
			} else {
				hook.OnExitPprint(ExitResult{After: after})
			}
		}
	} else if hook.OnExitPprint != nil {
		hook.OnExitPprint(ExitResult{After: t.Registers().SyscallReturn()})
	}

	hook.hasEntered = false
	hook.skipExit = false
}

// HasEntered reports whether hook is currently between an entering and
// exiting trap for its thread (exported read-only view of the unexported
// transient flag, used by tests verifying property 3's "no dangling
// _has_entered=true" guarantee).
func (h *SyscallHook) HasEntered() bool { return h.hasEntered }

// DispatchSyscall is the entry point status.handleSyscall calls: it decides
// whether the trap is an enter or an exit and routes accordingly.
func DispatchSyscall(table *SyscallTable, t Thread, nr int) error {
	hook, ok := table.Get(nr)
	if !ok {
		return nil
	}
	if !hook.hasEntered {
		return HandleSyscallEnter(table, hook, t, nr, nil)
	}
	HandleSyscallExit(hook, t, nr)
	return nil
}

// HandleSignalCallback implements §4.4d's hijack recursion for signal
// hooks: invoke the callback, and if it changed the thread's pending signal
// number, recurse into the new number's hook when hijacking is enabled.
func HandleSignalCallback(table *SignalTable, hook *SignalHook, t Thread, signum int32, hijacked map[int32]bool) error {
	if !hook.Enabled {
		return nil
	}
	hook.HitCount++
	if hijacked == nil {
		hijacked = map[int32]bool{signum: true}
	}

	if hook.Callback != nil {
		hook.Callback(t, signum)

		after := t.SignalNumber()
		if after != signum && hook.HookHijack {
			if nextHook, ok := table.Get(after); ok {
				if hijacked[after] {
					return errors.ErrSignalHijackLoop
				}
				hijacked[after] = true
				return HandleSignalCallback(table, nextHook, t, after, hijacked)
			}
		}
	}
	return nil
}

// DispatchSignal is the entry point status.handleSignal calls.
func DispatchSignal(table *SignalTable, t Thread, signum int32) error {
	hook, ok := table.Get(signum)
	if !ok {
		return nil
	}
	return HandleSignalCallback(table, hook, t, signum, nil)
}
