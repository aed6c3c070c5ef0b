// Package hooks implements the syscall/signal hook chain executor (C5):
// table lookups keyed by syscall/signal number, hijack-chain recursion with
// cycle detection, and the enable/disable-while-running guard. Grounded on
// `original_source/libdebug/data/syscall_hook.py` (dataclass shape,
// enable/disable guard) and spec.md §4.4a/§4.4d (hijack recursion); the
// table/dispatch idiom is the teacher's `hooks/hooks.go` (HookType-keyed
// table + Run-style dispatch), repurposed with syscall/signal numbers in
// place of OCI hook-type strings as table keys.
package hooks

import "godbg/registers"

// Thread is the subset of thread state the hook chain reads and mutates. A
// tracee.Thread satisfies it.
type Thread interface {
	Registers() registers.File
	SignalNumber() int32
	SetSignalNumber(int32)
}

// EnterInfo carries the extra context a pretty-print-on-enter callback needs
// beyond (thread, syscall number), mirroring the keyword arguments
// `_manage_syscall_on_enter` passes to `on_enter_pprint` in the Python
// original (`hijacked=True, old_args=...` / `user_hooked=True`).
type EnterInfo struct {
	Hijacked   bool
	UserHooked bool
	OldArgs    [6]uint64
}

// ExitResult carries the syscall return value(s) a pretty-print-on-exit
// callback renders: a single value, or a before/after pair when the
// user's on_exit_user hook changed the return value.
type ExitResult struct {
	Before    int64
	After     int64
	HasBefore bool
}
