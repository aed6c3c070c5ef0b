// Package ptrace provides a typed wrapper over the Linux ptrace(2) and
// wait4(2) syscalls used by the debugging engine's execution control layer.
//
// Every exported function here corresponds to exactly one ptrace request
// (or, for Wait, to the kernel's wait family); no behavior beyond argument
// marshalling and errno translation is added. Higher-level semantics
// (resume policy, event dispatch, register layout) live in the `status`,
// `registers` and `tracee` packages.
package ptrace

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"

	"godbg/errors"
)

// hostEndian is the byte order ptrace's word-sized peek/poke operations use:
// the tracer and tracee always share native endianness on Linux.
var hostEndian = binary.NativeEndian

// SETOPTIONS flags (subset of PTRACE_O_* actually used by this engine).
const (
	OptExitKill    = unix.PTRACE_O_EXITKILL
	OptTraceClone  = unix.PTRACE_O_TRACECLONE
	OptTraceExit   = unix.PTRACE_O_TRACEEXIT
	OptTraceSysgood = unix.PTRACE_O_TRACESYSGOOD
	OptTraceSeccomp = unix.PTRACE_O_TRACESECCOMP
)

// NT_* note types for PTRACE_GETREGSET/SETREGSET, as seen by a 64-bit
// tracer. golang.org/x/sys/unix exposes GETREGSET/SETREGSET only for a
// handful of fixed note types; NT_PRFPREG, NT_X86_XSTATE and the aarch64
// hardware breakpoint/watchpoint notes are not wrapped, so GetRegSet and
// SetRegSet below issue the raw syscall themselves.
const (
	NTPRStatus    = unix.NT_PRSTATUS
	NTPRFPReg     = 2
	NTX86XState   = 0x202
	NTArmHWBreak  = 0x402
	NTArmHWWatch  = 0x403
)

// PTRACE_EVENT_* codes, decoded from the high bits of a SIGTRAP stop status
// (spec.md §6: "`status >> 8`"). WaitStatus.TrapCause does this shift for
// callers that already hold a WaitStatus.
const (
	EventFork      = unix.PTRACE_EVENT_FORK
	EventVfork     = unix.PTRACE_EVENT_VFORK
	EventClone     = unix.PTRACE_EVENT_CLONE
	EventExec      = unix.PTRACE_EVENT_EXEC
	EventVforkDone = unix.PTRACE_EVENT_VFORK_DONE
	EventExit      = unix.PTRACE_EVENT_EXIT
	EventSeccomp   = unix.PTRACE_EVENT_SECCOMP
)

// SyscallSigtrap is the stop signal the kernel reports for a PTRACE_SYSCALL
// stop once PTRACE_O_TRACESYSGOOD is set: ordinary SIGTRAP with the high bit
// set, distinguishing it from a breakpoint SIGTRAP (spec.md §4.4:
// `SYSCALL_SIGTRAP`).
const SyscallSigtrap = unix.SIGTRAP | 0x80

// RaceSigstopStatus is the literal wait-status value for a plain
// WIFSTOPPED-with-WSTOPSIG(SIGSTOP) stop on Linux (spec.md §4.4c/§6: the
// literal 4991 == `(SIGSTOP << 8) | 0x7f`), used to detect whether a clone
// event's SIGSTOP notification already arrived in the current wait batch.
const RaceSigstopStatus = int(unix.SIGSTOP)<<8 | 0x7f

// TraceMe requests that the current thread become a tracee of its parent.
// Must be called from the thread that will exec the target program, before
// execve, and only ever from that thread for the lifetime of the trace
// relationship (PTRACE_TRACEME followed by an execve-induced SIGTRAP stop
// is how Spawn starts a new tracee).
func TraceMe() error {
	return unix.PtraceTraceme()
}

// Attach requests tracing of an already-running thread via PTRACE_ATTACH.
// The kernel delivers a group-stop signal to the tracee; callers must Wait
// for it before issuing further requests.
func Attach(tid int) error {
	if err := unix.PtraceAttach(tid); err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "attach", tid)
	}
	return nil
}

// Seize attaches via PTRACE_SEIZE, which does not stop the tracee and does
// not generate the synthetic SIGSTOP that PTRACE_ATTACH does. options is a
// bitwise-OR of PTRACE_O_* flags applied atomically at seize time.
func Seize(tid int, options int) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SEIZE, uintptr(tid), 0, uintptr(options), 0, 0)
	if errno != 0 {
		return errors.WrapWithTid(errno, errors.ErrPtraceSyscall, "seize", tid)
	}
	return nil
}

// Detach detaches from the thread, optionally delivering sig as the thread
// resumes.
func Detach(tid int, sig int) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_DETACH, uintptr(tid), 0, uintptr(sig), 0, 0)
	if errno != 0 {
		return errors.WrapWithTid(errno, errors.ErrPtraceSyscall, "detach", tid)
	}
	return nil
}

// SetOptions installs PTRACE_O_* flags for subsequent stops of the thread.
func SetOptions(tid int, options int) error {
	if err := unix.PtraceSetOptions(tid, options); err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "setoptions", tid)
	}
	return nil
}

// Cont resumes the thread, delivering sig (0 for no signal).
func Cont(tid int, sig int) error {
	if err := unix.PtraceCont(tid, sig); err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "cont", tid)
	}
	return nil
}

// SingleStep resumes the thread for exactly one machine instruction,
// delivering sig (0 for no signal).
func SingleStep(tid int, sig int) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SINGLESTEP, uintptr(tid), 0, uintptr(sig), 0, 0)
	if errno != 0 {
		return errors.WrapWithTid(errno, errors.ErrPtraceSyscall, "singlestep", tid)
	}
	return nil
}

// ContSyscall resumes the thread until the next syscall entry or exit
// (PTRACE_SYSCALL), delivering sig (0 for no signal).
func ContSyscall(tid int, sig int) error {
	if err := unix.PtraceSyscall(tid, sig); err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "syscall", tid)
	}
	return nil
}

// GetEventMsg retrieves the event message associated with the most recent
// PTRACE_EVENT_* stop (new child tid for clone events, exit status for
// PTRACE_EVENT_EXIT).
func GetEventMsg(tid int) (uint64, error) {
	msg, err := unix.PtraceGetEventMsg(tid)
	if err != nil {
		return 0, errors.WrapWithTid(err, errors.ErrPtraceSyscall, "geteventmsg", tid)
	}
	return uint64(msg), nil
}

// PeekData reads one machine word from the tracee's address space at addr.
func PeekData(tid int, addr uintptr) (uintptr, error) {
	var word [8]byte
	n, err := unix.PtracePeekData(tid, addr, word[:])
	if err != nil || n != len(word) {
		return 0, errors.WrapWithTid(err, errors.ErrPeekPokeFailed.Kind, "peekdata", tid)
	}
	return uintptr(hostEndian.Uint64(word[:])), nil
}

// PokeData writes one machine word into the tracee's address space at addr.
func PokeData(tid int, addr uintptr, word uintptr) error {
	var buf [8]byte
	hostEndian.PutUint64(buf[:], uint64(word))
	if _, err := unix.PtracePokeData(tid, addr, buf[:]); err != nil {
		return errors.WrapWithTid(err, errors.ErrPeekPokeFailed.Kind, "pokedata", tid)
	}
	return nil
}

// PeekUser reads one machine word from the tracee's struct user at the
// given byte offset (used for x86 debug register access).
func PeekUser(tid int, offset uintptr) (uintptr, error) {
	word, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_PEEKUSR, uintptr(tid), offset, 0, 0, 0)
	if errno != 0 {
		return 0, errors.WrapWithTid(errno, errors.ErrPtraceSyscall, "peekuser", tid)
	}
	return word, nil
}

// PokeUser writes one machine word into the tracee's struct user at the
// given byte offset.
func PokeUser(tid int, offset uintptr, word uintptr) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_POKEUSR, uintptr(tid), offset, word, 0, 0)
	if errno != 0 {
		return errors.WrapWithTid(errno, errors.ErrPtraceSyscall, "pokeuser", tid)
	}
	return nil
}

// iovec mirrors struct iovec for PTRACE_GETREGSET/SETREGSET, which take a
// pointer to one as their data argument.
type iovec struct {
	base unsafe.Pointer
	len  uint64
}

// GetRegSet fills buf via PTRACE_GETREGSET for the given NT_* note type,
// returning the number of bytes the kernel actually wrote.
func GetRegSet(tid int, nt int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	iov := iovec{base: unsafe.Pointer(&buf[0]), len: uint64(len(buf))}
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_GETREGSET, uintptr(tid), uintptr(nt), uintptr(unsafe.Pointer(&iov)), 0, 0)
	if errno != 0 {
		return 0, errors.WrapWithTid(errno, errors.ErrRegsetFailed.Kind, "getregset", tid)
	}
	return int(iov.len), nil
}

// SetRegSet writes buf via PTRACE_SETREGSET for the given NT_* note type.
func SetRegSet(tid int, nt int, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	iov := iovec{base: unsafe.Pointer(&buf[0]), len: uint64(len(buf))}
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SETREGSET, uintptr(tid), uintptr(nt), uintptr(unsafe.Pointer(&iov)), 0, 0)
	if errno != 0 {
		return errors.WrapWithTid(errno, errors.ErrRegsetFailed.Kind, "setregset", tid)
	}
	return nil
}

// FPRegsetSize is the buffer size used for PTRACE_GETREGSET/SETREGSET(NT_X86_
// XSTATE) transfers: large enough for the AVX-512 XSAVE area with room to
// spare, matching the size FPRegisterFile's own buffer is allocated with.
const FPRegsetSize = 4096

// GetFPRegisters fills buf with the tracee's XSAVE-format extended FP/vector
// state via PTRACE_GETREGSET(NT_X86_XSTATE) (spec.md C1 `get_fp_registers`).
func GetFPRegisters(tid int, buf []byte) (int, error) {
	return GetRegSet(tid, NTX86XState, buf)
}

// SetFPRegisters writes buf back as the tracee's XSAVE-format extended
// FP/vector state via PTRACE_SETREGSET(NT_X86_XSTATE) (spec.md C1
// `set_fp_registers`).
func SetFPRegisters(tid int, buf []byte) error {
	return SetRegSet(tid, NTX86XState, buf)
}

// WaitStatus is the engine's alias for the kernel wait status, carrying the
// same stop/exit/signal decoding methods as the standard library's.
type WaitStatus = unix.WaitStatus

// Wait blocks for a state change in pid (-1 for any child of the calling
// thread) and reports it via status. options is typically unix.WALL so
// that threads created via clone(CLONE_THREAD) without SIGCHLD are
// reaped too.
func Wait(pid int, options int) (stoppedPid int, status WaitStatus, err error) {
	var ws unix.WaitStatus
	got, err := unix.Wait4(pid, &ws, options, nil)
	if err != nil {
		return 0, ws, errors.Wrap(err, errors.ErrPtraceSyscall, "wait4")
	}
	return got, ws, nil
}
