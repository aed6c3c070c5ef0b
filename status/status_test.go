package status

import (
	"testing"

	"golang.org/x/sys/unix"

	"godbg/breakpoint"
	"godbg/hooks"
	"godbg/ptrace"
	"godbg/registers"
)

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

type fakeContext struct {
	threads       map[int]*fakeThread
	registered    []int
	unregistered  []int
	swBreakpoints *breakpoint.Table
	hwExecute     map[uint64]*breakpoint.Hardware
	watchpoint    *breakpoint.Hardware
	syscallHooks  *hooks.SyscallTable
	signalHooks   *hooks.SignalTable
	eventMsgs     map[int]uint64
	consumed      []int
	delivered     [][]int
	bpSize        int
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		threads:       make(map[int]*fakeThread),
		swBreakpoints: breakpoint.NewTable(),
		hwExecute:     make(map[uint64]*breakpoint.Hardware),
		syscallHooks:  hooks.NewSyscallTable(),
		signalHooks:   hooks.NewSignalTable(),
		eventMsgs:     make(map[int]uint64),
		bpSize:        1,
	}
}

func (c *fakeContext) Thread(tid int) (Thread, bool) {
	t, ok := c.threads[tid]
	if !ok {
		return nil, false
	}
	return t, true
}
func (c *fakeContext) RegisterThread(tid int) error {
	c.registered = append(c.registered, tid)
	c.threads[tid] = newFakeThread()
	return nil
}
func (c *fakeContext) UnregisterThread(tid int) error {
	c.unregistered = append(c.unregistered, tid)
	delete(c.threads, tid)
	return nil
}
func (c *fakeContext) Breakpoints() *breakpoint.Table { return c.swBreakpoints }
func (c *fakeContext) BreakpointSize() int            { return c.bpSize }
func (c *fakeContext) HardwareExecuteAt(tid int, ip uint64) (*breakpoint.Hardware, bool) {
	hw, ok := c.hwExecute[ip]
	return hw, ok
}
func (c *fakeContext) WatchpointHit(tid int) (*breakpoint.Hardware, bool, error) {
	if c.watchpoint != nil {
		return c.watchpoint, true, nil
	}
	return nil, false, nil
}
func (c *fakeContext) SyscallHooks() *hooks.SyscallTable { return c.syscallHooks }
func (c *fakeContext) SignalHooks() *hooks.SignalTable   { return c.signalHooks }
func (c *fakeContext) GetEventMsg(tid int) (uint64, error) {
	return c.eventMsgs[tid], nil
}
func (c *fakeContext) ConsumeSigstop(newTid int) error {
	c.consumed = append(c.consumed, newTid)
	return nil
}
func (c *fakeContext) DeliverSignals(tids []int) error {
	c.delivered = append(c.delivered, tids)
	return nil
}

func stoppedStatus(sig unix.Signal) ptrace.WaitStatus {
	return ptrace.WaitStatus(uint32(sig)<<8 | 0x7f)
}

// TestDispatch_RaceSigstopFilter verifies spec.md §8 property 8: a batch
// whose every event is WIFSTOPPED&&WSTOPSIG==SIGSTOP with no interrupt
// requested yields RESUME with zero pending signal deliveries.
func TestDispatch_RaceSigstopFilter(t *testing.T) {
	ctx := newFakeContext()
	ctx.threads[1] = newFakeThread()
	ctx.threads[2] = newFakeThread()
	rc := &ResumeContext{}

	batch := []TidStatus{
		{Tid: 1, Status: stoppedStatus(unix.SIGSTOP)},
		{Tid: 2, Status: stoppedStatus(unix.SIGSTOP)},
	}
	if err := Dispatch(ctx, rc, batch); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if rc.Resume != ResumeYes {
		t.Errorf("Resume = %v, want ResumeYes", rc.Resume)
	}
	if len(ctx.delivered) != 0 {
		t.Errorf("DeliverSignals called %d times, want 0", len(ctx.delivered))
	}
}

// TestDispatch_NonSigstopDeliversSignal checks that a non-SIGSTOP stop
// clears the race assumption and reaches DeliverSignals.
func TestDispatch_NonSigstopDeliversSignal(t *testing.T) {
	ctx := newFakeContext()
	ctx.threads[1] = newFakeThread()
	rc := &ResumeContext{}

	batch := []TidStatus{
		{Tid: 1, Status: stoppedStatus(unix.SIGUSR1)},
	}
	if err := Dispatch(ctx, rc, batch); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(ctx.delivered) != 1 || len(ctx.delivered[0]) != 1 || ctx.delivered[0][0] != 1 {
		t.Errorf("delivered = %v, want [[1]]", ctx.delivered)
	}
}

func TestHandleClone_ConsumesMissingSigstop(t *testing.T) {
	ctx := newFakeContext()
	batch := []TidStatus{{Tid: 1, Status: stoppedStatus(unix.SIGTRAP)}}

	if err := handleClone(ctx, 42, batch); err != nil {
		t.Fatalf("handleClone: %v", err)
	}
	if len(ctx.consumed) != 1 || ctx.consumed[0] != 42 {
		t.Errorf("consumed = %v, want [42]", ctx.consumed)
	}
	if len(ctx.registered) != 1 || ctx.registered[0] != 42 {
		t.Errorf("registered = %v, want [42]", ctx.registered)
	}
}

func TestHandleClone_SkipsConsumeWhenSigstopAlreadyInBatch(t *testing.T) {
	ctx := newFakeContext()
	batch := []TidStatus{
		{Tid: 1, Status: stoppedStatus(unix.SIGTRAP)},
		{Tid: 42, Status: ptrace.WaitStatus(ptrace.RaceSigstopStatus)},
	}

	if err := handleClone(ctx, 42, batch); err != nil {
		t.Fatalf("handleClone: %v", err)
	}
	if len(ctx.consumed) != 0 {
		t.Errorf("consumed = %v, want empty (SIGSTOP already in batch)", ctx.consumed)
	}
	if len(ctx.registered) != 1 || ctx.registered[0] != 42 {
		t.Errorf("registered = %v, want [42]", ctx.registered)
	}
}

func TestHandleBreakpoint_NoThreadSetsResumeNo(t *testing.T) {
	ctx := newFakeContext()
	rc := &ResumeContext{Resume: ResumeYes}

	if err := handleBreakpoint(ctx, rc, 99); err != nil {
		t.Fatalf("handleBreakpoint: %v", err)
	}
	if rc.Resume != ResumeNo {
		t.Errorf("Resume = %v, want ResumeNo for unregistered thread", rc.Resume)
	}
}

func TestHandleBreakpoint_SoftwareHitRewindsIPAndLinks(t *testing.T) {
	ctx := newFakeContext()
	thread := newFakeThread()
	thread.regs.SetInstructionPointer(0x401112) // one past the 0xCC trap byte
	ctx.threads[7] = thread

	bp := &breakpoint.Software{Address: 0x401111, Enabled: true, LinkedThreadIDs: make(map[int]bool)}
	ctx.swBreakpoints.Add(bp)

	rc := &ResumeContext{}
	if err := handleBreakpoint(ctx, rc, 7); err != nil {
		t.Fatalf("handleBreakpoint: %v", err)
	}
	if thread.regs.InstructionPointer() != 0x401111 {
		t.Errorf("instruction pointer = %#x, want 0x401111", thread.regs.InstructionPointer())
	}
	if !bp.IsLinkedTo(7) {
		t.Error("breakpoint should be linked to thread 7 after a hit")
	}
	if bp.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", bp.HitCount)
	}
	if rc.Resume != ResumeNo {
		t.Errorf("Resume = %v, want ResumeNo (no callback)", rc.Resume)
	}
}

func TestHandleBreakpoint_CallbackResumes(t *testing.T) {
	ctx := newFakeContext()
	thread := newFakeThread()
	thread.regs.SetInstructionPointer(0x2000)
	ctx.threads[3] = thread

	called := false
	hw := &breakpoint.Hardware{Address: 0x2000, Condition: breakpoint.ConditionExecute, Callback: func(*breakpoint.Hardware) { called = true }}
	ctx.hwExecute[0x2000] = hw

	rc := &ResumeContext{}
	if err := handleBreakpoint(ctx, rc, 3); err != nil {
		t.Fatalf("handleBreakpoint: %v", err)
	}
	if !called {
		t.Error("hardware breakpoint callback not invoked")
	}
	if rc.Resume != ResumeYes {
		t.Errorf("Resume = %v, want ResumeYes (callback present)", rc.Resume)
	}
	if hw.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", hw.HitCount)
	}
}

func TestHandleSyscall_NoHookResumes(t *testing.T) {
	ctx := newFakeContext()
	ctx.threads[5] = newFakeThread()
	rc := &ResumeContext{}

	if err := handleSyscall(ctx, rc, 5); err != nil {
		t.Fatalf("handleSyscall: %v", err)
	}
	if rc.Resume != ResumeYes {
		t.Errorf("Resume = %v, want ResumeYes", rc.Resume)
	}
}

func TestClassifyStop_ForceInterruptStopsOnSigstop(t *testing.T) {
	ctx := newFakeContext()
	ctx.threads[1] = newFakeThread()
	rc := &ResumeContext{ForceInterrupt: true}

	ws := stoppedStatus(unix.SIGSTOP)
	if err := classifyStop(ctx, rc, 1, unix.SIGSTOP, ws, nil); err != nil {
		t.Fatalf("classifyStop: %v", err)
	}
	if rc.Resume != ResumeNo {
		t.Errorf("Resume = %v, want ResumeNo", rc.Resume)
	}
	if rc.ForceInterrupt {
		t.Error("ForceInterrupt should be cleared after consumption")
	}
}
