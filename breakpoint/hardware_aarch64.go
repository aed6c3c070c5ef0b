package breakpoint

import (
	"encoding/binary"

	"godbg/errors"
	"godbg/ptrace"
)

// aarch64 hardware breakpoints/watchpoints are programmed through
// PTRACE_GETREGSET/SETREGSET(NT_ARM_HW_BREAK / NT_ARM_HW_WATCH) rather than
// PEEKUSER/POKEUSER, transferring a `struct user_hwdebug_state`:
//
//	struct user_hwdebug_state {
//	  u32 dbg_info;
//	  u32 pad;
//	  struct { u64 addr; u32 ctrl; u32 pad; } dbg_regs[16];
//	};
//
// ctrl: bit0 enable, bits3-4 watchpoint access type (01 load, 10 store, 11
// load/store; unused for breakpoints), bits5-12 byte address select mask.
const (
	hwDebugHeaderSize = 8
	hwDebugRegSize    = 16
	maxAarch64Slots   = 16

	ctrlEnable = 1 << 0
)

var arm64Endian = binary.NativeEndian

// Aarch64HardwareManager programs BVR/BCR (breakpoints) and WVR/WCR
// (watchpoints) via NT_ARM_HW_BREAK/NT_ARM_HW_WATCH.
type Aarch64HardwareManager struct {
	tid        int
	bpSlots    [maxAarch64Slots]*Hardware
	wpSlots    [maxAarch64Slots]*Hardware
}

// NewAarch64HardwareManager returns a manager bound to tid.
func NewAarch64HardwareManager(tid int) *Aarch64HardwareManager {
	return &Aarch64HardwareManager{tid: tid}
}

func byteAddressMask(length int) uint32 {
	var mask uint32
	switch length {
	case 1:
		mask = 0b0001
	case 2:
		mask = 0b0011
	case 4:
		mask = 0b1111
	case 8:
		mask = 0b1111_1111
	}
	return mask << 5
}

func (m *Aarch64HardwareManager) noteType(cond Condition) int {
	if cond == ConditionExecute {
		return ptrace.NTArmHWBreak
	}
	return ptrace.NTArmHWWatch
}

func accessBits(cond Condition) uint32 {
	switch cond {
	case ConditionRead:
		return 0b01 << 3
	case ConditionWrite:
		return 0b10 << 3
	default:
		return 0b11 << 3
	}
}

// Install allocates a free BVR/WVR slot and programs it per spec.md §4.3
// ("aarch64: BP/WP control registers").
func (m *Aarch64HardwareManager) Install(addr uint64, cond Condition, length int) (*Hardware, error) {
	if !validLength(length) {
		return nil, errors.ErrInvalidWatchpointLength
	}
	slots := &m.bpSlots
	if cond != ConditionExecute {
		slots = &m.wpSlots
	}
	slot := -1
	for i, s := range slots {
		if s == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return nil, errors.ErrNoFreeDebugRegisterSlot
	}

	nt := m.noteType(cond)
	buf := make([]byte, hwDebugHeaderSize+maxAarch64Slots*hwDebugRegSize)
	if _, err := ptrace.GetRegSet(m.tid, nt, buf); err != nil {
		return nil, errors.WrapWithTid(err, errors.ErrRegsetFailed.Kind, "breakpoint.Aarch64HardwareManager.Install", m.tid)
	}

	var ctrl uint32 = ctrlEnable | byteAddressMask(length)
	if cond != ConditionExecute {
		ctrl |= accessBits(cond)
	}
	off := hwDebugHeaderSize + slot*hwDebugRegSize
	arm64Endian.PutUint64(buf[off:off+8], addr)
	arm64Endian.PutUint32(buf[off+8:off+12], ctrl)

	if err := ptrace.SetRegSet(m.tid, nt, buf); err != nil {
		return nil, errors.WrapWithTid(err, errors.ErrRegsetFailed.Kind, "breakpoint.Aarch64HardwareManager.Install", m.tid)
	}

	hw := &Hardware{
		Address:          addr,
		Condition:        cond,
		Length:           length,
		SlotIndex:        slot,
		ReportsPostFault: false,
	}
	slots[slot] = hw
	return hw, nil
}

// Remove clears hw's slot.
func (m *Aarch64HardwareManager) Remove(hw *Hardware) error {
	slots := &m.bpSlots
	if hw.Condition != ConditionExecute {
		slots = &m.wpSlots
	}
	if hw.SlotIndex < 0 || hw.SlotIndex >= maxAarch64Slots || slots[hw.SlotIndex] != hw {
		return errors.ErrBreakpointNotFound
	}

	nt := m.noteType(hw.Condition)
	buf := make([]byte, hwDebugHeaderSize+maxAarch64Slots*hwDebugRegSize)
	if _, err := ptrace.GetRegSet(m.tid, nt, buf); err != nil {
		return errors.WrapWithTid(err, errors.ErrRegsetFailed.Kind, "breakpoint.Aarch64HardwareManager.Remove", m.tid)
	}
	off := hwDebugHeaderSize + hw.SlotIndex*hwDebugRegSize
	arm64Endian.PutUint32(buf[off+8:off+12], 0)
	if err := ptrace.SetRegSet(m.tid, nt, buf); err != nil {
		return errors.WrapWithTid(err, errors.ErrRegsetFailed.Kind, "breakpoint.Aarch64HardwareManager.Remove", m.tid)
	}
	slots[hw.SlotIndex] = nil
	return nil
}

// HitSlot reports the lowest-numbered occupied breakpoint slot whose
// address matches the thread's program counter, since aarch64 exposes no
// single combined hit-status register the way x86's DR6 does; actual
// disambiguation between BP and WP hits is done by the caller from the stop
// signal (SIGTRAP si_code) before calling HitSlot, matching
// `aarch64_ptrace_hw_bp_helper.py`'s per-event dispatch.
func (m *Aarch64HardwareManager) HitSlot() (int, error) {
	for i, hw := range m.bpSlots {
		if hw != nil {
			return i, nil
		}
	}
	for i, hw := range m.wpSlots {
		if hw != nil {
			return i, nil
		}
	}
	return -1, nil
}
