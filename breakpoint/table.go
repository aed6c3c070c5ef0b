package breakpoint

import (
	"sort"

	"godbg/errors"
)

// Table is the per-tracee software breakpoint set, keyed by address
// (spec.md §3: "Tracee ... Owns ... a Software-Breakpoint list").
type Table struct {
	byAddress map[uint64]*Software
}

// NewTable returns an empty breakpoint table.
func NewTable() *Table {
	return &Table{byAddress: make(map[uint64]*Software)}
}

// Add registers a newly-installed breakpoint. Installing a second
// breakpoint at an address that already has one is rejected.
func (t *Table) Add(bp *Software) error {
	if _, exists := t.byAddress[bp.Address]; exists {
		return errors.ErrBreakpointExists
	}
	t.byAddress[bp.Address] = bp
	return nil
}

// Get returns the breakpoint at addr, if any.
func (t *Table) Get(addr uint64) (*Software, bool) {
	bp, ok := t.byAddress[addr]
	return bp, ok
}

// Remove forgets the breakpoint at addr. Callers must Disable it first;
// Remove does not poke the tracee itself.
func (t *Table) Remove(addr uint64) error {
	if _, ok := t.byAddress[addr]; !ok {
		return errors.ErrBreakpointNotFound
	}
	delete(t.byAddress, addr)
	return nil
}

// All returns every breakpoint in the table, ordered by address for
// deterministic iteration (arming order must not depend on map order).
func (t *Table) All() []*Software {
	out := make([]*Software, 0, len(t.byAddress))
	for _, bp := range t.byAddress {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// ArmAllExcept re-patches (Enable) every breakpoint that is not currently
// patched, except one that is linked to tid and sits exactly at ip, per spec.md §4.3's
// `cont_all_and_set_bps`: "any breakpoint whose IP does coincide is left
// unpatched and single-stepped through on the next resume for the owning
// thread". That one breakpoint is skipped here; the step-over
// discipline (see stepover.go) is responsible for rearming them afterward.
func (t *Table) ArmAllExcept(tid int, ip uint64) error {
	for _, bp := range t.All() {
		if bp.IsLinkedTo(tid) && bp.Address == ip {
			continue
		}
		if !bp.Enabled {
			if err := bp.Enable(tid); err != nil {
				return err
			}
		}
	}
	return nil
}
