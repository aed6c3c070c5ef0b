package hooks

import (
	"sync"

	"godbg/errors"
)

// SignalHook is a hook bound to one signal number (spec.md §3).
type SignalHook struct {
	SignalNumber int32
	Callback     func(t Thread, signum int32)
	HookHijack   bool
	Enabled      bool
	HitCount     uint64
}

// Enable turns the hook on, refusing while the tracee is running.
func (h *SignalHook) Enable(running bool) error {
	if running {
		return errors.ErrHookEnableWhileRunning
	}
	h.Enabled = true
	return nil
}

// Disable turns the hook off, refusing while the tracee is running.
func (h *SignalHook) Disable(running bool) error {
	if running {
		return errors.ErrHookDisableWhileRunning
	}
	h.Enabled = false
	return nil
}

// SignalTable is the per-tracee table of signal hooks, keyed by signal
// number.
type SignalTable struct {
	mu    sync.RWMutex
	byNum map[int32]*SignalHook
}

// NewSignalTable returns an empty table.
func NewSignalTable() *SignalTable {
	return &SignalTable{byNum: make(map[int32]*SignalHook)}
}

// Register installs hook under its SignalNumber, replacing any existing
// entry.
func (t *SignalTable) Register(hook *SignalHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byNum[hook.SignalNumber] = hook
}

// Get returns the hook registered for signum, if any.
func (t *SignalTable) Get(signum int32) (*SignalHook, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.byNum[signum]
	return h, ok
}

// Unregister removes the hook for signum.
func (t *SignalTable) Unregister(signum int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byNum, signum)
}
