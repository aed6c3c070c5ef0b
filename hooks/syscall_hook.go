package hooks

import (
	"sort"
	"sync"

	"godbg/errors"
	"godbg/linux"
)

// SyscallHook is a hook bound to one syscall number (spec.md §3). The
// _has_entered/_skip_exit transient fields from the Python dataclass are
// kept unexported since nothing outside the chain executor needs them.
type SyscallHook struct {
	SyscallNumber int
	OnEnterUser   func(t Thread, nr int)
	OnExitUser    func(t Thread, nr int)
	OnEnterPprint func(t Thread, nr int, info *EnterInfo)
	OnExitPprint  func(r ExitResult)
	HookHijack    bool
	Enabled       bool
	HitCount      uint64

	hasEntered bool
	skipExit   bool
}

// Enable turns the hook on. It refuses to do so while running is true,
// mirroring `SyscallHook.enable`'s guard against the owning tracee running.
func (h *SyscallHook) Enable(running bool) error {
	if running {
		return errors.ErrHookEnableWhileRunning
	}
	h.Enabled = true
	h.hasEntered = false
	return nil
}

// Disable turns the hook off, subject to the same running guard.
func (h *SyscallHook) Disable(running bool) error {
	if running {
		return errors.ErrHookDisableWhileRunning
	}
	h.Enabled = false
	h.hasEntered = false
	return nil
}

// SyscallTable is the per-tracee table of syscall hooks, keyed by syscall
// number (spec.md invariant: at most one hook entry per syscall_number).
type SyscallTable struct {
	mu       sync.RWMutex
	byNumber map[int]*SyscallHook
}

// NewSyscallTable returns an empty table.
func NewSyscallTable() *SyscallTable {
	return &SyscallTable{byNumber: make(map[int]*SyscallHook)}
}

// Register installs hook under its SyscallNumber, replacing any existing
// entry for that number (hijacking "replaces the active entry", spec.md §3).
func (t *SyscallTable) Register(hook *SyscallHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byNumber[hook.SyscallNumber] = hook
}

// RegisterByName resolves name to a syscall number on arch and registers
// the hook under it, wiring `linux.SyscallNumber` into the hook table per
// SPEC_FULL.md §4.5's domain-stack addition.
func (t *SyscallTable) RegisterByName(arch linux.Architecture, name string, hook *SyscallHook) error {
	nr, ok := linux.SyscallNumber(arch, name)
	if !ok {
		return errors.New(errors.ErrNotFound, "hooks.SyscallTable.RegisterByName", "no syscall named "+name+" on "+string(arch))
	}
	hook.SyscallNumber = nr
	t.Register(hook)
	return nil
}

// Get returns the hook registered for nr, if any.
func (t *SyscallTable) Get(nr int) (*SyscallHook, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.byNumber[nr]
	return h, ok
}

// Unregister removes the hook for nr.
func (t *SyscallTable) Unregister(nr int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byNumber, nr)
}

// All returns every registered hook, sorted by syscall number, for
// deterministic iteration (e.g. ReconcileThreads-style sweeps, tests).
func (t *SyscallTable) All() []*SyscallHook {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*SyscallHook, 0, len(t.byNumber))
	for _, h := range t.byNumber {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SyscallNumber < out[j].SyscallNumber })
	return out
}
