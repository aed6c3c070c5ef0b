package breakpoint

import (
	"godbg/errors"
	"godbg/ptrace"
)

// Offsets of struct user.u_debugreg[0..7] and DR7 within `struct user` on
// x86-64, computed the way `offsetof(struct user, u_debugreg[reg])` would
// (no cgo in this codebase — see DESIGN.md for the amd64 debug-register
// grounding): user_regs_struct (216B) + u_fpvalid (4B, padded to 8) +
// user_fpregs_struct i387 (512B) + u_tsize/u_dsize/u_ssize/start_code/
// start_stack (5*8B) + signal (8B) + reserved (4B, padded) + u_ar0/
// u_fpstate (2*8B) + magic (8B) + u_comm[32].
const (
	drBaseOffset = 848 // offsetof(struct user, u_debugreg[0])
	dr7Offset    = drBaseOffset + 7*8

	drControlSize = 4 // bits per slot's control field (2-bit RW + 2-bit LEN)
	drEnableSize  = 2 // bits per local/global enable pair
	drControlShift = 16
)

const maxAmd64Slots = 4

// Amd64HardwareManager programs DR0-3/DR7 via PTRACE_PEEKUSER/POKEUSER.
type Amd64HardwareManager struct {
	tid   int
	slots [maxAmd64Slots]*Hardware
}

// NewAmd64HardwareManager returns a manager bound to tid with all four
// debug register slots initially free.
func NewAmd64HardwareManager(tid int) *Amd64HardwareManager {
	return &Amd64HardwareManager{tid: tid}
}

func rwBits(cond Condition) uintptr {
	switch cond {
	case ConditionExecute:
		return 0b00
	case ConditionWrite:
		return 0b01
	case ConditionReadWrite:
		return 0b11
	case ConditionRead:
		return 0b11 // x86 has no read-only watch; RW covers reads too.
	default:
		return 0b00
	}
}

func lenBits(length int) uintptr {
	switch length {
	case 1:
		return 0b00
	case 2:
		return 0b01
	case 8:
		return 0b10
	case 4:
		return 0b11
	default:
		return 0b00
	}
}

// Install allocates a free DR0-3 slot and programs it per spec.md §4.3.
func (m *Amd64HardwareManager) Install(addr uint64, cond Condition, length int) (*Hardware, error) {
	if !validLength(length) {
		return nil, errors.ErrInvalidWatchpointLength
	}
	slot := -1
	for i, s := range m.slots {
		if s == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return nil, errors.ErrNoFreeDebugRegisterSlot
	}

	if err := ptrace.PokeUser(m.tid, uintptr(drBaseOffset+slot*8), uintptr(addr)); err != nil {
		return nil, errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.Amd64HardwareManager.Install", m.tid)
	}

	dr7, err := ptrace.PeekUser(m.tid, dr7Offset)
	if err != nil {
		return nil, errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.Amd64HardwareManager.Install", m.tid)
	}
	mask := (((uintptr(1) << drControlSize) - 1) << uint(slot*drControlSize+drControlShift)) |
		(((uintptr(1) << drEnableSize) - 1) << uint(slot*drEnableSize))
	dr7 &^= mask
	ctl := (rwBits(cond) | (lenBits(length) << 2)) << uint(slot*drControlSize+drControlShift)
	enable := uintptr(1) << uint(slot*drEnableSize)
	dr7 |= ctl | enable

	if err := ptrace.PokeUser(m.tid, dr7Offset, dr7); err != nil {
		return nil, errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.Amd64HardwareManager.Install", m.tid)
	}

	hw := &Hardware{
		Address:          addr,
		Condition:        cond,
		Length:           length,
		SlotIndex:        slot,
		ReportsPostFault: true,
	}
	m.slots[slot] = hw
	return hw, nil
}

// Remove clears hw's debug register slot.
func (m *Amd64HardwareManager) Remove(hw *Hardware) error {
	if hw.SlotIndex < 0 || hw.SlotIndex >= maxAmd64Slots || m.slots[hw.SlotIndex] != hw {
		return errors.ErrBreakpointNotFound
	}
	dr7, err := ptrace.PeekUser(m.tid, dr7Offset)
	if err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.Amd64HardwareManager.Remove", m.tid)
	}
	mask := (((uintptr(1) << drControlSize) - 1) << uint(hw.SlotIndex*drControlSize+drControlShift)) |
		(((uintptr(1) << drEnableSize) - 1) << uint(hw.SlotIndex*drEnableSize))
	dr7 &^= mask
	if err := ptrace.PokeUser(m.tid, dr7Offset, dr7); err != nil {
		return errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.Amd64HardwareManager.Remove", m.tid)
	}
	m.slots[hw.SlotIndex] = nil
	return nil
}

// dr6Offset is the struct user offset of DR6, whose low 4 bits (B0-B3)
// indicate which slot(s) trapped.
const dr6Offset = drBaseOffset + 6*8

// HitSlot reads DR6 and returns the lowest-numbered slot whose status bit
// is set, or -1 if no debug-register trap is pending.
func (m *Amd64HardwareManager) HitSlot() (int, error) {
	dr6, err := ptrace.PeekUser(m.tid, dr6Offset)
	if err != nil {
		return -1, errors.WrapWithTid(err, errors.ErrPtraceSyscall, "breakpoint.Amd64HardwareManager.HitSlot", m.tid)
	}
	for i := 0; i < maxAmd64Slots; i++ {
		if dr6&(uintptr(1)<<uint(i)) != 0 {
			// Clear the status bits the kernel leaves latched.
			ptrace.PokeUser(m.tid, dr6Offset, dr6&^0xf)
			return i, nil
		}
	}
	return -1, nil
}
