package tracee

import (
	"runtime"
	"testing"

	"godbg/breakpoint"
	"godbg/linux"
	"godbg/registers"
)

func TestDefaultOptions(t *testing.T) {
	o := resolveOptions(nil)
	if o.Architecture != linux.ArchX86_64 {
		t.Errorf("Architecture = %v, want ArchX86_64", o.Architecture)
	}
	if o.Platform != registers.PlatformX86_64 {
		t.Errorf("Platform = %v, want PlatformX86_64", o.Platform)
	}
}

func TestWithArchitectureOverride(t *testing.T) {
	o := resolveOptions([]Option{WithArchitecture(linux.ArchAArch64), WithPlatform(registers.PlatformAarch64)})
	if o.Architecture != linux.ArchAArch64 {
		t.Errorf("Architecture = %v, want ArchAArch64", o.Architecture)
	}
	if o.Platform != registers.PlatformAarch64 {
		t.Errorf("Platform = %v, want PlatformAarch64", o.Platform)
	}
}

func TestRegistersArchMapping(t *testing.T) {
	cases := map[linux.Architecture]registers.Architecture{
		linux.ArchX86_64:  registers.Amd64Arch,
		linux.ArchX86:     registers.I386Arch,
		linux.ArchAArch64: registers.Aarch64Arch,
	}
	for in, want := range cases {
		if got := registersArch(in); got != want {
			t.Errorf("registersArch(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestBreakpointSizePerArchitecture(t *testing.T) {
	tr := newTracee([]Option{WithArchitecture(linux.ArchX86_64)})
	if got := tr.BreakpointSize(); got != breakpoint.BreakpointSizeX86 {
		t.Errorf("BreakpointSize (x86-64) = %d, want %d", got, breakpoint.BreakpointSizeX86)
	}

	tr = newTracee([]Option{WithArchitecture(linux.ArchAArch64)})
	if got := tr.BreakpointSize(); got != breakpoint.BreakpointSizeAarch64 {
		t.Errorf("BreakpointSize (aarch64) = %d, want %d", got, breakpoint.BreakpointSizeAarch64)
	}
}

func TestThreadLookupMissing(t *testing.T) {
	tr := newTracee(nil)
	if _, ok := tr.Thread(12345); ok {
		t.Error("Thread should report false for an unregistered tid")
	}
	if _, ok := tr.ThreadByTid(12345); ok {
		t.Error("ThreadByTid should report false for an unregistered tid")
	}
}

func TestUnregisterThreadIsIdempotent(t *testing.T) {
	tr := newTracee(nil)
	if err := tr.UnregisterThread(999); err != nil {
		t.Fatalf("UnregisterThread on an unknown tid: %v", err)
	}
}

// spawnAndAttach starts /bin/sleep under ptrace and wraps it as a Tracee,
// matching the teacher's live-kernel test idiom (spawn a real child, lock
// the OS thread, skip rather than fail when the sandbox disallows ptrace).
func spawnAndAttach(t *testing.T) (tr *Tracee, cleanup func()) {
	t.Helper()
	runtime.LockOSThread()

	tr, err := Spawn([]string{"/bin/sleep", "30"})
	if err != nil {
		runtime.UnlockOSThread()
		t.Skipf("ptrace unavailable in this environment: %v", err)
	}
	return tr, func() {
		tr.Detach(0)
		runtime.UnlockOSThread()
	}
}

func TestSpawnRegistersLeaderThread(t *testing.T) {
	tr, cleanup := spawnAndAttach(t)
	defer cleanup()

	threads := tr.Threads()
	if len(threads) != 1 || threads[0] != tr.Pid() {
		t.Fatalf("Threads() = %v, want [%d]", threads, tr.Pid())
	}
}

func TestReconcileThreadsFindsLeader(t *testing.T) {
	tr, cleanup := spawnAndAttach(t)
	defer cleanup()

	// Forget the leader, then let the /proc sweep find it again.
	if err := tr.UnregisterThread(tr.Pid()); err != nil {
		t.Fatalf("UnregisterThread: %v", err)
	}
	if err := tr.ReconcileThreads(); err != nil {
		t.Fatalf("ReconcileThreads: %v", err)
	}
	if _, ok := tr.ThreadByTid(tr.Pid()); !ok {
		t.Error("ReconcileThreads did not re-register the leader thread")
	}
}
