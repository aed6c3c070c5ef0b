package breakpoint

import "godbg/errors"

// Condition is the trigger condition for a hardware breakpoint/watchpoint
// (spec.md §3: `condition ∈ {x, r, w, rw}`).
type Condition int

const (
	ConditionExecute Condition = iota
	ConditionRead
	ConditionWrite
	ConditionReadWrite
)

// Hardware is a debug-register-backed breakpoint or watchpoint bound to a
// single thread (spec.md §3).
type Hardware struct {
	Address   uint64
	Condition Condition
	Length    int // 1, 2, 4, or 8
	SlotIndex int
	HitCount  uint64
	Callback  func(*Hardware)

	// ReportsPostFault is true for architectures whose hardware reports the
	// faulting instruction's successor (x86) rather than the faulting
	// instruction itself (aarch64) — see DESIGN.md's Open Question decision
	// for spec.md §8 scenario S3.
	ReportsPostFault bool
}

// HardwareManager provisions and queries hardware breakpoints/watchpoints
// for one thread, grounded on `ptrace_hardware_breakpoint_provider.py`'s
// per-platform dispatch (amd64/i686/aarch64).
type HardwareManager interface {
	// Install allocates a free slot and programs the debug registers for
	// addr/condition/length, returning the bound Hardware record.
	Install(addr uint64, cond Condition, length int) (*Hardware, error)
	// Remove clears the slot previously returned by Install.
	Remove(hw *Hardware) error
	// HitSlot inspects the status debug register after a stop and returns
	// the slot index that triggered, or -1 if none did (spec.md §4.3
	// `is_watchpoint_hit`).
	HitSlot() (int, error)
}

func validLength(length int) bool {
	switch length {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// ProvideHardwareManager returns the hardware breakpoint manager for the
// given platform, mirroring `ptrace_hardware_breakpoint_manager_provider`'s
// match over `libcontext.platform`.
func ProvideHardwareManager(platform string, tid int) (HardwareManager, error) {
	switch platform {
	case "x86_64", "i686":
		return NewAmd64HardwareManager(tid), nil
	case "aarch64":
		return NewAarch64HardwareManager(tid), nil
	default:
		return nil, errors.WrapWithDetail(errors.ErrNoHardwareBreakpointProvider, errors.ErrUnsupportedPlatform,
			"breakpoint.ProvideHardwareManager", platform)
	}
}
