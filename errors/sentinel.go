// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Thread and tracee lifecycle errors.
var (
	// ErrThreadNotFound indicates the thread does not exist in the tracee.
	ErrThreadNotFound = &DebugError{
		Kind:   ErrNotFound,
		Detail: "thread not found",
	}

	// ErrThreadAlreadyGone indicates the thread already exited.
	ErrThreadAlreadyGone = &DebugError{
		Kind:   ErrThreadGone,
		Detail: "thread already exited",
	}

	// ErrTraceeNotRunning indicates the tracee is not in a running state.
	ErrTraceeNotRunning = &DebugError{
		Kind:   ErrInvalidState,
		Detail: "tracee is not running",
	}

	// ErrTraceeAlreadyAttached indicates the tracee is already attached.
	ErrTraceeAlreadyAttached = &DebugError{
		Kind:   ErrAlreadyExists,
		Detail: "tracee already attached",
	}

	// ErrNoInferior indicates there is no inferior process to operate on.
	ErrNoInferior = &DebugError{
		Kind:   ErrInvalidState,
		Detail: "no inferior process",
	}
)

// Ptrace/wait4 errors.
var (
	// ErrAttachFailed indicates PTRACE_ATTACH or PTRACE_SEIZE failed.
	ErrAttachFailed = &DebugError{
		Kind:   ErrPtraceSyscall,
		Detail: "failed to attach to process",
	}

	// ErrDetachFailed indicates PTRACE_DETACH failed.
	ErrDetachFailed = &DebugError{
		Kind:   ErrPtraceSyscall,
		Detail: "failed to detach from process",
	}

	// ErrWaitFailed indicates waitpid failed.
	ErrWaitFailed = &DebugError{
		Kind:   ErrPtraceSyscall,
		Detail: "waitpid failed",
	}

	// ErrRegsetFailed indicates PTRACE_GETREGSET/SETREGSET failed.
	ErrRegsetFailed = &DebugError{
		Kind:   ErrPtraceSyscall,
		Detail: "register set transfer failed",
	}

	// ErrPeekPokeFailed indicates PTRACE_PEEKDATA/POKEDATA failed.
	ErrPeekPokeFailed = &DebugError{
		Kind:   ErrPtraceSyscall,
		Detail: "memory peek/poke failed",
	}

	// ErrSetOptionsFailed indicates PTRACE_SETOPTIONS failed.
	ErrSetOptionsFailed = &DebugError{
		Kind:   ErrPtraceSyscall,
		Detail: "failed to set ptrace options",
	}
)

// Platform and architecture errors.
var (
	// ErrUnknownArchitecture indicates the architecture string does not
	// match any architecture this engine knows.
	ErrUnknownArchitecture = &DebugError{
		Kind:   ErrUnsupportedArchitecture,
		Detail: "unknown architecture",
	}

	// ErrNoRegisterHolder indicates no register holder exists for the
	// (architecture, platform) pair.
	ErrNoRegisterHolder = &DebugError{
		Kind:   ErrUnsupportedPlatform,
		Detail: "no register holder for this architecture/platform pair",
	}

	// ErrNoHardwareBreakpointProvider indicates no hardware breakpoint
	// manager exists for the current architecture.
	ErrNoHardwareBreakpointProvider = &DebugError{
		Kind:   ErrUnsupportedPlatform,
		Detail: "no hardware breakpoint provider for this architecture",
	}

	// ErrUnknownFPComponentSize indicates an XSAVE component_size that is
	// neither 896 (AVX) nor 2560 (AVX-512).
	ErrUnknownFPComponentSize = &DebugError{
		Kind:   ErrUnsupportedFPLayout,
		Detail: "unrecognized xsave component size",
	}
)

// Breakpoint and watchpoint errors.
var (
	// ErrBreakpointExists indicates a breakpoint is already set at the address.
	ErrBreakpointExists = &DebugError{
		Kind:   ErrAlreadyExists,
		Detail: "breakpoint already set at this address",
	}

	// ErrBreakpointNotFound indicates no breakpoint exists at the address.
	ErrBreakpointNotFound = &DebugError{
		Kind:   ErrNotFound,
		Detail: "no breakpoint at this address",
	}

	// ErrNoFreeDebugRegisterSlot indicates all hardware debug register
	// slots for a thread are occupied.
	ErrNoFreeDebugRegisterSlot = &DebugError{
		Kind:   ErrNoFreeDebugRegister,
		Detail: "no free debug register slot",
	}

	// ErrInvalidWatchpointLength indicates a watchpoint length that is not
	// a power-of-two in {1, 2, 4, 8}.
	ErrInvalidWatchpointLength = &DebugError{
		Kind:   ErrInvalidConfig,
		Detail: "invalid watchpoint length",
	}
)

// Hook errors.
var (
	// ErrSyscallHijackLoop indicates a syscall hook hijack chain revisited a
	// syscall number already seen earlier in the same chain.
	ErrSyscallHijackLoop = &DebugError{
		Kind:   ErrHijackLoop,
		Detail: "syscall hijack chain revisited an already-hijacked syscall",
	}

	// ErrSignalHijackLoop indicates a signal hook hijack chain revisited a
	// signal number already seen earlier in the same chain.
	ErrSignalHijackLoop = &DebugError{
		Kind:   ErrHijackLoop,
		Detail: "signal hijack chain revisited an already-hijacked signal",
	}

	// ErrHookEnableWhileRunning indicates a hook was enabled while the
	// owning tracee was running.
	ErrHookEnableWhileRunning = &DebugError{
		Kind:   ErrHookStateWhileRunning,
		Detail: "cannot enable hook while tracee is running",
	}

	// ErrHookDisableWhileRunning indicates a hook was disabled while the
	// owning tracee was running.
	ErrHookDisableWhileRunning = &DebugError{
		Kind:   ErrHookStateWhileRunning,
		Detail: "cannot disable hook while tracee is running",
	}
)

// Configuration and validation errors.
var (
	// ErrInvalidTid indicates a tid value that is not a positive integer.
	ErrInvalidTid = &DebugError{
		Kind:   ErrInvalidConfig,
		Detail: "invalid thread id",
	}

	// ErrInvalidAddress indicates an address value that is not valid for
	// the target's pointer width.
	ErrInvalidAddress = &DebugError{
		Kind:   ErrInvalidConfig,
		Detail: "invalid address",
	}

	// ErrEmptyArgv indicates Spawn was called with no program arguments.
	ErrEmptyArgv = &DebugError{
		Kind:   ErrInvalidConfig,
		Detail: "argv must contain at least a program path",
	}
)
