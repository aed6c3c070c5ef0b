package breakpoint

import "testing"

func TestPatch_X86ReplacesLowByte(t *testing.T) {
	original := uintptr(0x1122334455667788)
	patched := patch(original, ArchX86)
	if patched&0xff != x86TrapByte {
		t.Errorf("low byte = %#x, want %#x", patched&0xff, x86TrapByte)
	}
	if patched&^uintptr(0xff) != original&^uintptr(0xff) {
		t.Errorf("non-low bytes changed: got %#x, want %#x", patched&^uintptr(0xff), original&^uintptr(0xff))
	}
}

func TestPatch_Aarch64ReplacesLow32Bits(t *testing.T) {
	original := uintptr(0x1122334455667788)
	patched := patch(original, ArchAarch64)
	if patched&0xffffffff != aarch64BrkWord {
		t.Errorf("low 32 bits = %#x, want %#x", patched&0xffffffff, uintptr(aarch64BrkWord))
	}
	if patched>>32 != original>>32 {
		t.Errorf("high bits changed: got %#x, want %#x", patched>>32, original>>32)
	}
}

func TestSoftware_Size(t *testing.T) {
	x86 := &Software{arch: ArchX86}
	if x86.Size() != BreakpointSizeX86 {
		t.Errorf("x86 Size() = %d, want %d", x86.Size(), BreakpointSizeX86)
	}
	a64 := &Software{arch: ArchAarch64}
	if a64.Size() != BreakpointSizeAarch64 {
		t.Errorf("aarch64 Size() = %d, want %d", a64.Size(), BreakpointSizeAarch64)
	}
}

func TestSoftware_MarkClearHit(t *testing.T) {
	s := &Software{LinkedThreadIDs: make(map[int]bool)}
	if s.IsLinkedTo(42) {
		t.Fatal("fresh breakpoint should not be linked to any thread")
	}
	s.MarkHit(42)
	if !s.IsLinkedTo(42) {
		t.Error("MarkHit(42) did not link thread 42")
	}
	s.ClearHit(42)
	if s.IsLinkedTo(42) {
		t.Error("ClearHit(42) did not unlink thread 42")
	}
}

func TestTable_AddDuplicateRejected(t *testing.T) {
	tbl := NewTable()
	bp1 := &Software{Address: 0x1000, LinkedThreadIDs: make(map[int]bool)}
	bp2 := &Software{Address: 0x1000, LinkedThreadIDs: make(map[int]bool)}

	if err := tbl.Add(bp1); err != nil {
		t.Fatalf("Add(bp1): %v", err)
	}
	if err := tbl.Add(bp2); err == nil {
		t.Fatal("expected error adding a second breakpoint at the same address")
	}
}

func TestTable_GetRemove(t *testing.T) {
	tbl := NewTable()
	bp := &Software{Address: 0x2000, LinkedThreadIDs: make(map[int]bool)}
	tbl.Add(bp)

	got, ok := tbl.Get(0x2000)
	if !ok || got != bp {
		t.Fatal("Get(0x2000) did not return the installed breakpoint")
	}

	if err := tbl.Remove(0x2000); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := tbl.Get(0x2000); ok {
		t.Error("breakpoint still present after Remove")
	}
	if err := tbl.Remove(0x2000); err == nil {
		t.Error("expected error removing an already-removed breakpoint")
	}
}

func TestTable_AllSortedByAddress(t *testing.T) {
	tbl := NewTable()
	addrs := []uint64{0x3000, 0x1000, 0x2000}
	for _, a := range addrs {
		tbl.Add(&Software{Address: a, LinkedThreadIDs: make(map[int]bool)})
	}
	all := tbl.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d breakpoints, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Address > all[i].Address {
			t.Errorf("All() not sorted: %#x before %#x", all[i-1].Address, all[i].Address)
		}
	}
}

func TestRwLenBits_EncodingRanges(t *testing.T) {
	for _, cond := range []Condition{ConditionExecute, ConditionWrite, ConditionReadWrite} {
		if bits := rwBits(cond); bits > 0b11 {
			t.Errorf("rwBits(%v) = %#x, out of 2-bit range", cond, bits)
		}
	}
	for _, length := range []int{1, 2, 4, 8} {
		if bits := lenBits(length); bits > 0b11 {
			t.Errorf("lenBits(%d) = %#x, out of 2-bit range", length, bits)
		}
	}
}

func TestAmd64HardwareManager_SlotExhaustion(t *testing.T) {
	m := &Amd64HardwareManager{tid: 0}
	for i := 0; i < maxAmd64Slots; i++ {
		m.slots[i] = &Hardware{SlotIndex: i}
	}
	if _, err := m.Install(0x1000, ConditionExecute, 1); err == nil {
		t.Fatal("expected error when all debug register slots are occupied")
	}
}

func TestAmd64HardwareManager_InvalidLength(t *testing.T) {
	m := NewAmd64HardwareManager(0)
	if _, err := m.Install(0x1000, ConditionExecute, 3); err == nil {
		t.Fatal("expected error for invalid watchpoint length 3")
	}
}

func TestProvideHardwareManager_UnknownPlatform(t *testing.T) {
	if _, err := ProvideHardwareManager("riscv", 0); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestProvideHardwareManager_KnownPlatforms(t *testing.T) {
	for _, p := range []string{"x86_64", "i686", "aarch64"} {
		if _, err := ProvideHardwareManager(p, 0); err != nil {
			t.Errorf("ProvideHardwareManager(%q) returned error: %v", p, err)
		}
	}
}

func TestAarch64HardwareManager_SlotExhaustion(t *testing.T) {
	m := NewAarch64HardwareManager(0)
	for i := 0; i < maxAarch64Slots; i++ {
		m.bpSlots[i] = &Hardware{SlotIndex: i}
	}
	if _, err := m.Install(0x1000, ConditionExecute, 4); err == nil {
		t.Fatal("expected error when all breakpoint slots are occupied")
	}
}

func TestByteAddressMask_Aarch64(t *testing.T) {
	tests := map[int]uint32{1: 0b0001, 2: 0b0011, 4: 0b1111, 8: 0b1111_1111}
	for length, want := range tests {
		if got := byteAddressMask(length) >> 5; got != want {
			t.Errorf("byteAddressMask(%d) bits = %#b, want %#b", length, got, want)
		}
	}
}
