package hooks

import (
	"testing"

	"godbg/errors"
	"godbg/registers"
)

// fakeThread is a minimal Thread for chain-executor tests; it backs
// Registers() with a real amd64 register file so SyscallNumber/SyscallArg
// round-trip through actual accessor logic rather than a hand-rolled stub.
type fakeThread struct {
	regs   *registers.Amd64
	signum int32
}

func newFakeThread() *fakeThread {
	r, _ := registers.NewAmd64(make([]byte, 27*8))
	return &fakeThread{regs: r}
}

func (f *fakeThread) Registers() registers.File { return f.regs }
func (f *fakeThread) SignalNumber() int32       { return f.signum }
func (f *fakeThread) SetSignalNumber(s int32)   { f.signum = s }

func TestSyscallTable_RegisterGetUnregister(t *testing.T) {
	tbl := NewSyscallTable()
	h := &SyscallHook{SyscallNumber: 1, Enabled: true}
	tbl.Register(h)

	got, ok := tbl.Get(1)
	if !ok || got != h {
		t.Fatal("Get(1) did not return the registered hook")
	}

	tbl.Unregister(1)
	if _, ok := tbl.Get(1); ok {
		t.Error("hook still present after Unregister")
	}
}

func TestSyscallHook_EnableDisableWhileRunning(t *testing.T) {
	h := &SyscallHook{SyscallNumber: 1}
	if err := h.Enable(true); err == nil {
		t.Fatal("expected error enabling hook while running")
	}
	if err := h.Disable(true); err == nil {
		t.Fatal("expected error disabling hook while running")
	}
	if err := h.Enable(false); err != nil {
		t.Fatalf("Enable(false): %v", err)
	}
	if !h.Enabled {
		t.Error("hook not enabled")
	}
}

func TestDispatchSyscall_EnterExitAlternate(t *testing.T) {
	tbl := NewSyscallTable()
	thread := newFakeThread()

	h := &SyscallHook{SyscallNumber: 1, Enabled: true}
	tbl.Register(h)

	if h.HasEntered() {
		t.Fatal("fresh hook should not have entered")
	}
	if err := DispatchSyscall(tbl, thread, 1); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if !h.HasEntered() {
		t.Fatal("hook should have entered")
	}
	if err := DispatchSyscall(tbl, thread, 1); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if h.HasEntered() {
		t.Fatal("hook should have exited")
	}
	if h.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", h.HitCount)
	}
}

func TestDispatchSyscall_UnregisteredIsNoop(t *testing.T) {
	tbl := NewSyscallTable()
	thread := newFakeThread()
	if err := DispatchSyscall(tbl, thread, 999); err != nil {
		t.Fatalf("unregistered syscall should be a no-op: %v", err)
	}
}

// TestSyscallHijackChain_DetectsLoop reproduces spec.md §8 scenario S4:
// hooks on A, B, A with hook_hijack=true everywhere; entering A must
// terminate with ErrSyscallHijackLoop and leave no hook's hasEntered set.
func TestSyscallHijackChain_DetectsLoop(t *testing.T) {
	tbl := NewSyscallTable()
	thread := newFakeThread()

	const a, b = 1, 2
	hookA := &SyscallHook{
		SyscallNumber: a,
		Enabled:       true,
		HookHijack:    true,
		OnEnterUser: func(th Thread, nr int) {
			th.Registers().SetSyscallNumber(b)
		},
	}
	hookB := &SyscallHook{
		SyscallNumber: b,
		Enabled:       true,
		HookHijack:    true,
		OnEnterUser: func(th Thread, nr int) {
			th.Registers().SetSyscallNumber(a)
		},
	}
	tbl.Register(hookA)
	tbl.Register(hookB)

	thread.regs.SetSyscallNumber(int64(a))
	err := DispatchSyscall(tbl, thread, a)
	if err == nil {
		t.Fatal("expected hijack loop error")
	}
	if !errorsIsHijackLoop(err) {
		t.Fatalf("expected a hijack-loop error, got %v", err)
	}
	if hookA.HasEntered() {
		t.Error("hookA.hasEntered should remain false after the loop is detected")
	}
	if hookB.HasEntered() {
		t.Error("hookB.hasEntered should remain false after the loop is detected")
	}
}

func TestSyscallHijack_NonHijackingTargetSkipsExit(t *testing.T) {
	tbl := NewSyscallTable()
	thread := newFakeThread()

	const a, b = 1, 2
	hookA := &SyscallHook{
		SyscallNumber: a,
		Enabled:       true,
		HookHijack:    false,
		OnEnterUser: func(th Thread, nr int) {
			th.Registers().SetSyscallNumber(b)
		},
	}
	hookB := &SyscallHook{SyscallNumber: b, Enabled: true}
	tbl.Register(hookA)
	tbl.Register(hookB)

	if err := DispatchSyscall(tbl, thread, a); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if !hookB.hasEntered || !hookB.skipExit {
		t.Error("hijacked-but-not-chained target should be marked entered with exit skipped")
	}
}

// TestSyscallHijack_TargetWithNoHookLeavesHasEnteredFalse reproduces the case
// where a hook rewrites the syscall number to one nothing is registered for:
// the paired exit stop will resolve by the new number too, so nothing would
// ever clear hasEntered if this left it set.
func TestSyscallHijack_TargetWithNoHookLeavesHasEnteredFalse(t *testing.T) {
	tbl := NewSyscallTable()
	thread := newFakeThread()

	const a, unregistered = 1, 999
	hookA := &SyscallHook{
		SyscallNumber: a,
		Enabled:       true,
		OnEnterUser: func(th Thread, nr int) {
			th.Registers().SetSyscallNumber(int64(unregistered))
		},
	}
	tbl.Register(hookA)

	if err := DispatchSyscall(tbl, thread, a); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if hookA.HasEntered() {
		t.Error("hookA.hasEntered should remain false: the hijacked-to number has no hook to pair an exit with")
	}
}

func TestSignalTable_RegisterGetUnregister(t *testing.T) {
	tbl := NewSignalTable()
	h := &SignalHook{SignalNumber: 11, Enabled: true}
	tbl.Register(h)

	got, ok := tbl.Get(11)
	if !ok || got != h {
		t.Fatal("Get(11) did not return the registered hook")
	}
	tbl.Unregister(11)
	if _, ok := tbl.Get(11); ok {
		t.Error("hook still present after Unregister")
	}
}

func TestSignalHijackChain_DetectsLoop(t *testing.T) {
	tbl := NewSignalTable()
	thread := newFakeThread()

	const sigA, sigB int32 = 10, 12
	hookA := &SignalHook{
		SignalNumber: sigA,
		Enabled:      true,
		HookHijack:   true,
		Callback: func(th Thread, signum int32) {
			th.SetSignalNumber(sigB)
		},
	}
	hookB := &SignalHook{
		SignalNumber: sigB,
		Enabled:      true,
		HookHijack:   true,
		Callback: func(th Thread, signum int32) {
			th.SetSignalNumber(sigA)
		},
	}
	tbl.Register(hookA)
	tbl.Register(hookB)

	thread.signum = sigA
	err := DispatchSignal(tbl, thread, sigA)
	if err == nil {
		t.Fatal("expected signal hijack loop error")
	}
}

func errorsIsHijackLoop(err error) bool {
	return errors.IsKind(err, errors.ErrHijackLoop)
}
