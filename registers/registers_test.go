package registers

import "testing"

func TestAmd64_LoadStoreRoundTrip(t *testing.T) {
	buf := make([]byte, amd64RegsSize)
	for i := range buf {
		buf[i] = byte(i)
	}
	h, err := NewAmd64(buf)
	if err != nil {
		t.Fatalf("NewAmd64: %v", err)
	}
	out := h.Store()
	if len(out) != len(buf) {
		t.Fatalf("Store length = %d, want %d", len(out), len(buf))
	}
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("byte %d mismatch: got %#x want %#x", i, out[i], buf[i])
		}
	}
}

func TestAmd64_Load_ShortBuffer(t *testing.T) {
	if _, err := NewAmd64(make([]byte, 4)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestAmd64_InstructionPointerAccessor(t *testing.T) {
	h := &Amd64{}
	h.SetInstructionPointer(0x401000)
	if h.InstructionPointer() != 0x401000 {
		t.Errorf("InstructionPointer() = %#x, want %#x", h.InstructionPointer(), 0x401000)
	}
}

func TestAmd64_SyscallArgOrder(t *testing.T) {
	h := &Amd64{}
	h.SetRdi(1)
	h.SetRsi(2)
	h.SetRdx(3)
	h.SetR10(4)
	h.SetR8(5)
	h.SetR9(6)
	for i, want := range []uint64{1, 2, 3, 4, 5, 6} {
		if got := h.SyscallArg(i); got != want {
			t.Errorf("SyscallArg(%d) = %d, want %d", i, got, want)
		}
	}
}

// TestAmd64_GPROverlayRoundTrip is spec.md testable property 4: writing v
// to the 64-bit view and reading the 32/16/8-low/8-high views must yield
// v&0xFFFFFFFF, v&0xFFFF, v&0xFF, (v>>8)&0xFF respectively.
func TestAmd64_GPROverlayRoundTrip(t *testing.T) {
	h := &Amd64{}
	const v = 0x1122334455667788
	h.SetRax(v)

	if got := h.Eax(); got != uint32(v&0xffffffff) {
		t.Errorf("Eax() = %#x, want %#x", got, uint32(v&0xffffffff))
	}
	if got := h.Ax(); got != uint16(v&0xffff) {
		t.Errorf("Ax() = %#x, want %#x", got, uint16(v&0xffff))
	}
	if got := h.Al(); got != uint8(v&0xff) {
		t.Errorf("Al() = %#x, want %#x", got, uint8(v&0xff))
	}
	if got := h.Ah(); got != uint8((v>>8)&0xff) {
		t.Errorf("Ah() = %#x, want %#x", got, uint8((v>>8)&0xff))
	}
}

// TestAmd64_SetEaxZeroExtends verifies the x86-64 documented behavior that
// writing a 32-bit GPR name zero-extends the upper 32 bits.
func TestAmd64_SetEaxZeroExtends(t *testing.T) {
	h := &Amd64{}
	h.SetRax(0xffffffffffffffff)
	h.SetEax(0x1)
	if h.Rax() != 0x1 {
		t.Errorf("Rax() = %#x after SetEax, want 0x1 (zero-extended)", h.Rax())
	}
}

// TestAmd64_SetAxPreservesUpperBits verifies 16/8-bit writes preserve the
// untouched bits of the backing 64-bit slot.
func TestAmd64_SetAxPreservesUpperBits(t *testing.T) {
	h := &Amd64{}
	h.SetRax(0x1122334455667788)
	h.SetAx(0xaabb)
	if want := uint64(0x112233445566aabb); h.Rax() != want {
		t.Errorf("Rax() = %#x after SetAx, want %#x", h.Rax(), want)
	}

	h.SetRax(0x1122334455667788)
	h.SetAl(0xff)
	if want := uint64(0x11223344556677ff); h.Rax() != want {
		t.Errorf("Rax() = %#x after SetAl, want %#x", h.Rax(), want)
	}

	h.SetRax(0x1122334455667788)
	h.SetAh(0xff)
	if want := uint64(0x1122334455660000 | 0x7788&0xff | 0xff00); h.Rax() != want {
		t.Errorf("Rax() = %#x after SetAh, want %#x", h.Rax(), want)
	}
}

// TestAmd64_ExtendedGPROverlays spot-checks an R8-R15 register, which has
// no 8-high form.
func TestAmd64_ExtendedGPROverlays(t *testing.T) {
	h := &Amd64{}
	h.SetR12(0x8877665544332211)
	if got, want := h.R12d(), uint32(0x44332211); got != want {
		t.Errorf("R12d() = %#x, want %#x", got, want)
	}
	if got, want := h.R12w(), uint16(0x2211); got != want {
		t.Errorf("R12w() = %#x, want %#x", got, want)
	}
	if got, want := h.R12b(), uint8(0x11); got != want {
		t.Errorf("R12b() = %#x, want %#x", got, want)
	}
}

func TestI386_GPROverlayRoundTrip(t *testing.T) {
	h := &I386{}
	h.SetEax(0x11223344)
	if got, want := h.Ax(), uint16(0x3344); got != want {
		t.Errorf("Ax() = %#x, want %#x", got, want)
	}
	if got, want := h.Al(), uint8(0x44); got != want {
		t.Errorf("Al() = %#x, want %#x", got, want)
	}
	if got, want := h.Ah(), uint8(0x33); got != want {
		t.Errorf("Ah() = %#x, want %#x", got, want)
	}
}

func TestI386OverAmd64_GPROverlayRoundTrip(t *testing.T) {
	h := &I386OverAmd64{}
	h.SetEbx(0x11223344)
	if got, want := h.Bx(), uint16(0x3344); got != want {
		t.Errorf("Bx() = %#x, want %#x", got, want)
	}
	if got, want := h.Bl(), uint8(0x44); got != want {
		t.Errorf("Bl() = %#x, want %#x", got, want)
	}
	if got, want := h.Bh(), uint8(0x33); got != want {
		t.Errorf("Bh() = %#x, want %#x", got, want)
	}
}

func TestI386_LoadStoreRoundTrip(t *testing.T) {
	buf := make([]byte, i386RegsSize)
	for i := range buf {
		buf[i] = byte(i * 3)
	}
	h := &I386{}
	if err := h.Load(buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := h.Store()
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("byte %d mismatch: got %#x want %#x", i, out[i], buf[i])
		}
	}
}

func TestI386_SyscallArgOrder(t *testing.T) {
	h := &I386{}
	h.SetEbx(10)
	h.SetEcx(20)
	h.SetEdx(30)
	h.SetEsi(40)
	h.SetEdi(50)
	h.SetEbp(60)
	for i, want := range []uint64{10, 20, 30, 40, 50, 60} {
		if got := h.SyscallArg(i); got != want {
			t.Errorf("SyscallArg(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestI386OverAmd64_TruncatesTo32Bits(t *testing.T) {
	h := &I386OverAmd64{}
	h.SetInstructionPointer(0x1_0000_0001)
	if h.InstructionPointer() != 1 {
		t.Errorf("InstructionPointer() = %#x, want 1 (truncated)", h.InstructionPointer())
	}
}

func TestI386OverAmd64_SyscallArgOrderDiffersFromAmd64(t *testing.T) {
	// i386-over-amd64 reads arguments from the i386 int-0x80 ABI registers
	// (ebx/rbx, ecx/rcx, ...), not the amd64 SysV ABI registers (rdi, rsi, ...).
	h := &I386OverAmd64{}
	h.SetEbx(7)
	if got := h.SyscallArg(0); got != 7 {
		t.Errorf("SyscallArg(0) = %d, want 7 (from ebx)", got)
	}
}

func TestAarch64_LoadStoreRoundTrip(t *testing.T) {
	buf := make([]byte, aarch64RegsSize)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	h := &Aarch64{}
	if err := h.Load(buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := h.Store()
	for i := range buf {
		if out[i] != buf[i] {
			t.Fatalf("byte %d mismatch: got %#x want %#x", i, out[i], buf[i])
		}
	}
}

func TestAarch64_CaptureSyscallEntrySurvivesX0Clobber(t *testing.T) {
	h := &Aarch64{}
	h.SetX(8, 64) // write syscall number
	h.SetX(0, 100)
	h.SetX(1, 200)
	h.CaptureSyscallEntry()

	if h.SyscallNumber() != 64 {
		t.Fatalf("SyscallNumber() = %d, want 64", h.SyscallNumber())
	}
	if h.SyscallArg(0) != 100 || h.SyscallArg(1) != 200 {
		t.Fatalf("SyscallArg mismatch: arg0=%d arg1=%d", h.SyscallArg(0), h.SyscallArg(1))
	}

	// Simulate the kernel clobbering x0 with the return value at exit.
	h.SetX(0, 999)
	if h.SyscallReturn() != 999 {
		t.Errorf("SyscallReturn() = %d, want 999", h.SyscallReturn())
	}
	// The cached entry snapshot must be unaffected by the clobber.
	if h.SyscallArg(0) != 100 {
		t.Errorf("SyscallArg(0) after clobber = %d, want 100 (cached)", h.SyscallArg(0))
	}
}

func TestProvide_ValidPairs(t *testing.T) {
	pairs := []struct {
		arch     Architecture
		platform Platform
	}{
		{Amd64Arch, PlatformX86_64},
		{I386Arch, PlatformX86_64},
		{I386Arch, PlatformI686},
		{Aarch64Arch, PlatformAarch64},
	}
	for _, p := range pairs {
		if _, err := Provide(p.arch, p.platform); err != nil {
			t.Errorf("Provide(%s, %s) returned error: %v", p.arch, p.platform, err)
		}
	}
}

func TestProvide_InvalidPair(t *testing.T) {
	if _, err := Provide(Aarch64Arch, PlatformX86_64); err == nil {
		t.Error("expected error for unsupported (aarch64, x86_64) pair")
	}
}

func TestFPRegisterFile_RejectsUnknownComponentSize(t *testing.T) {
	if _, err := NewFPRegisterFile(1234, 416, nil, nil); err == nil {
		t.Fatal("expected error for unrecognized component size")
	}
}

func TestFPRegisterFile_YmmRoundTrip(t *testing.T) {
	f, err := NewFPRegisterFile(ComponentSizeAVX, 416, nil, nil)
	if err != nil {
		t.Fatalf("NewFPRegisterFile: %v", err)
	}
	f.SetYmm(3, 0x1111111111111111, 0x2222222222222222)
	lo, hi := f.Ymm(3)
	if lo != 0x1111111111111111 || hi != 0x2222222222222222 {
		t.Errorf("Ymm(3) = (%#x, %#x), want (0x1111111111111111, 0x2222222222222222)", lo, hi)
	}
}

func TestFPRegisterFile_ZmmRoundTrip_AVX512(t *testing.T) {
	f, err := NewFPRegisterFile(ComponentSizeAVX512, 416, nil, nil)
	if err != nil {
		t.Fatalf("NewFPRegisterFile: %v", err)
	}
	if !f.SupportsAVX512() {
		t.Fatal("SupportsAVX512() = false for component size 2560")
	}
	var v [8]uint64
	for i := range v {
		v[i] = uint64(i + 1)
	}
	f.SetZmm(20, v)
	got := f.Zmm(20)
	if got != v {
		t.Errorf("Zmm(20) = %v, want %v", got, v)
	}
}

func TestFPRegisterFile_FetchFlushCallbacksInvoked(t *testing.T) {
	fetchCalls, flushCalls := 0, 0
	f, err := NewFPRegisterFile(ComponentSizeAVX, 416,
		func(buf []byte) error { fetchCalls++; return nil },
		func(buf []byte) error { flushCalls++; return nil },
	)
	if err != nil {
		t.Fatalf("NewFPRegisterFile: %v", err)
	}
	f.FetchFP()
	f.FlushFP()
	f.FetchFP()
	if fetchCalls != 2 {
		t.Errorf("fetchCalls = %d, want 2", fetchCalls)
	}
	if flushCalls != 1 {
		t.Errorf("flushCalls = %d, want 1", flushCalls)
	}
}
