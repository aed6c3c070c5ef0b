package registers

import "godbg/errors"

// amd64Regs mirrors the kernel's struct user_regs_struct layout returned by
// PTRACE_GETREGSET/NT_PRSTATUS on x86-64, in wire order.
type amd64Regs struct {
	R15, R14, R13, R12           uint64
	Rbp, Rbx                     uint64
	R11, R10, R9, R8             uint64
	Rax, Rcx, Rdx, Rsi, Rdi      uint64
	OrigRax                      uint64
	Rip                          uint64
	Cs                           uint64
	Eflags                       uint64
	Rsp                          uint64
	Ss                           uint64
	FsBase, GsBase               uint64
	Ds, Es, Fs, Gs               uint64
}

const amd64RegsSize = 27 * 8

// Amd64 is the GPR holder for a 64-bit x86-64 thread.
type Amd64 struct {
	regs amd64Regs
}

// NewAmd64 builds an Amd64 register holder from a raw NT_PRSTATUS buffer.
func NewAmd64(buf []byte) (*Amd64, error) {
	h := &Amd64{}
	if err := h.Load(buf); err != nil {
		return nil, err
	}
	return h, nil
}

// Size returns the wire size of the underlying register blob.
func (h *Amd64) Size() int { return amd64RegsSize }

// Load decodes buf (as returned by PTRACE_GETREGSET/NT_PRSTATUS) into the holder.
func (h *Amd64) Load(buf []byte) error {
	if len(buf) < amd64RegsSize {
		return errors.New(errors.ErrUnsupportedFPLayout, "registers.amd64.load", "short register buffer")
	}
	fields := []*uint64{
		&h.regs.R15, &h.regs.R14, &h.regs.R13, &h.regs.R12,
		&h.regs.Rbp, &h.regs.Rbx,
		&h.regs.R11, &h.regs.R10, &h.regs.R9, &h.regs.R8,
		&h.regs.Rax, &h.regs.Rcx, &h.regs.Rdx, &h.regs.Rsi, &h.regs.Rdi,
		&h.regs.OrigRax, &h.regs.Rip, &h.regs.Cs, &h.regs.Eflags,
		&h.regs.Rsp, &h.regs.Ss, &h.regs.FsBase, &h.regs.GsBase,
		&h.regs.Ds, &h.regs.Es, &h.regs.Fs, &h.regs.Gs,
	}
	for i, f := range fields {
		*f = hostEndian.Uint64(buf[i*8 : i*8+8])
	}
	return nil
}

// Store encodes the holder back into wire format, for PTRACE_SETREGSET.
func (h *Amd64) Store() []byte {
	fields := []uint64{
		h.regs.R15, h.regs.R14, h.regs.R13, h.regs.R12,
		h.regs.Rbp, h.regs.Rbx,
		h.regs.R11, h.regs.R10, h.regs.R9, h.regs.R8,
		h.regs.Rax, h.regs.Rcx, h.regs.Rdx, h.regs.Rsi, h.regs.Rdi,
		h.regs.OrigRax, h.regs.Rip, h.regs.Cs, h.regs.Eflags,
		h.regs.Rsp, h.regs.Ss, h.regs.FsBase, h.regs.GsBase,
		h.regs.Ds, h.regs.Es, h.regs.Fs, h.regs.Gs,
	}
	buf := make([]byte, amd64RegsSize)
	for i, v := range fields {
		hostEndian.PutUint64(buf[i*8:i*8+8], v)
	}
	return buf
}

// 64-bit accessors, one pair per general-purpose register (spec.md §4.2's
// "dynamic attribute injection" realized as a fixed method set, per
// SPEC_FULL.md §9).
func (h *Amd64) Rax() uint64 { return h.regs.Rax }
func (h *Amd64) SetRax(v uint64) { h.regs.Rax = v }
func (h *Amd64) Rbx() uint64 { return h.regs.Rbx }
func (h *Amd64) SetRbx(v uint64) { h.regs.Rbx = v }
func (h *Amd64) Rcx() uint64 { return h.regs.Rcx }
func (h *Amd64) SetRcx(v uint64) { h.regs.Rcx = v }
func (h *Amd64) Rdx() uint64 { return h.regs.Rdx }
func (h *Amd64) SetRdx(v uint64) { h.regs.Rdx = v }
func (h *Amd64) Rsi() uint64 { return h.regs.Rsi }
func (h *Amd64) SetRsi(v uint64) { h.regs.Rsi = v }
func (h *Amd64) Rdi() uint64 { return h.regs.Rdi }
func (h *Amd64) SetRdi(v uint64) { h.regs.Rdi = v }
func (h *Amd64) Rbp() uint64 { return h.regs.Rbp }
func (h *Amd64) SetRbp(v uint64) { h.regs.Rbp = v }
func (h *Amd64) Rsp() uint64 { return h.regs.Rsp }
func (h *Amd64) SetRsp(v uint64) { h.regs.Rsp = v }
func (h *Amd64) R8() uint64 { return h.regs.R8 }
func (h *Amd64) SetR8(v uint64) { h.regs.R8 = v }
func (h *Amd64) R9() uint64 { return h.regs.R9 }
func (h *Amd64) SetR9(v uint64) { h.regs.R9 = v }
func (h *Amd64) R10() uint64 { return h.regs.R10 }
func (h *Amd64) SetR10(v uint64) { h.regs.R10 = v }
func (h *Amd64) R11() uint64 { return h.regs.R11 }
func (h *Amd64) SetR11(v uint64) { h.regs.R11 = v }
func (h *Amd64) R12() uint64 { return h.regs.R12 }
func (h *Amd64) SetR12(v uint64) { h.regs.R12 = v }
func (h *Amd64) R13() uint64 { return h.regs.R13 }
func (h *Amd64) SetR13(v uint64) { h.regs.R13 = v }
func (h *Amd64) R14() uint64 { return h.regs.R14 }
func (h *Amd64) SetR14(v uint64) { h.regs.R14 = v }
func (h *Amd64) R15() uint64 { return h.regs.R15 }
func (h *Amd64) SetR15(v uint64) { h.regs.R15 = v }
func (h *Amd64) Eflags() uint64 { return h.regs.Eflags }
func (h *Amd64) SetEflags(v uint64) { h.regs.Eflags = v }

// sub32 reads the low 32 bits of a 64-bit backing slot.
func sub32(full uint64) uint32 { return uint32(full) }

// setSub32 zero-extends v into the 64-bit backing slot, per x86-64's
// documented behavior for writes to a 32-bit GPR name (spec.md §4.2).
func setSub32(full *uint64, v uint32) { *full = uint64(v) }

// sub16 reads the low 16 bits of a 64-bit backing slot.
func sub16(full uint64) uint16 { return uint16(full) }

// setSub16 writes the low 16 bits of the backing slot, preserving the
// untouched upper bits (spec.md §4.2).
func setSub16(full *uint64, v uint16) { *full = (*full &^ 0xffff) | uint64(v) }

// sub8Low reads the low 8 bits of a 64-bit backing slot.
func sub8Low(full uint64) uint8 { return uint8(full) }

// setSub8Low writes the low 8 bits of the backing slot, preserving the rest.
func setSub8Low(full *uint64, v uint8) { *full = (*full &^ 0xff) | uint64(v) }

// sub8High reads bits [15:8] of a 64-bit backing slot (the legacy `{a,b,c,d}h`
// views, which only exist for rax/rbx/rcx/rdx).
func sub8High(full uint64) uint8 { return uint8(full >> 8) }

// setSub8High writes bits [15:8] of the backing slot, preserving the rest.
func setSub8High(full *uint64, v uint8) { *full = (*full &^ 0xff00) | (uint64(v) << 8) }

// 32/16/8-bit overlay accessors (spec.md §4.2, testable property 4): each
// overlay reads/writes the corresponding low bits of the 64-bit backing
// slot; 32-bit writes zero-extend, 16/8-bit writes preserve the untouched
// bits.
func (h *Amd64) Eax() uint32     { return sub32(h.regs.Rax) }
func (h *Amd64) SetEax(v uint32) { setSub32(&h.regs.Rax, v) }
func (h *Amd64) Ax() uint16      { return sub16(h.regs.Rax) }
func (h *Amd64) SetAx(v uint16)  { setSub16(&h.regs.Rax, v) }
func (h *Amd64) Al() uint8       { return sub8Low(h.regs.Rax) }
func (h *Amd64) SetAl(v uint8)   { setSub8Low(&h.regs.Rax, v) }
func (h *Amd64) Ah() uint8       { return sub8High(h.regs.Rax) }
func (h *Amd64) SetAh(v uint8)   { setSub8High(&h.regs.Rax, v) }

func (h *Amd64) Ebx() uint32     { return sub32(h.regs.Rbx) }
func (h *Amd64) SetEbx(v uint32) { setSub32(&h.regs.Rbx, v) }
func (h *Amd64) Bx() uint16      { return sub16(h.regs.Rbx) }
func (h *Amd64) SetBx(v uint16)  { setSub16(&h.regs.Rbx, v) }
func (h *Amd64) Bl() uint8       { return sub8Low(h.regs.Rbx) }
func (h *Amd64) SetBl(v uint8)   { setSub8Low(&h.regs.Rbx, v) }
func (h *Amd64) Bh() uint8       { return sub8High(h.regs.Rbx) }
func (h *Amd64) SetBh(v uint8)   { setSub8High(&h.regs.Rbx, v) }

func (h *Amd64) Ecx() uint32     { return sub32(h.regs.Rcx) }
func (h *Amd64) SetEcx(v uint32) { setSub32(&h.regs.Rcx, v) }
func (h *Amd64) Cx() uint16      { return sub16(h.regs.Rcx) }
func (h *Amd64) SetCx(v uint16)  { setSub16(&h.regs.Rcx, v) }
func (h *Amd64) Cl() uint8       { return sub8Low(h.regs.Rcx) }
func (h *Amd64) SetCl(v uint8)   { setSub8Low(&h.regs.Rcx, v) }
func (h *Amd64) Ch() uint8       { return sub8High(h.regs.Rcx) }
func (h *Amd64) SetCh(v uint8)   { setSub8High(&h.regs.Rcx, v) }

func (h *Amd64) Edx() uint32     { return sub32(h.regs.Rdx) }
func (h *Amd64) SetEdx(v uint32) { setSub32(&h.regs.Rdx, v) }
func (h *Amd64) Dx() uint16      { return sub16(h.regs.Rdx) }
func (h *Amd64) SetDx(v uint16)  { setSub16(&h.regs.Rdx, v) }
func (h *Amd64) Dl() uint8       { return sub8Low(h.regs.Rdx) }
func (h *Amd64) SetDl(v uint8)   { setSub8Low(&h.regs.Rdx, v) }
func (h *Amd64) Dh() uint8       { return sub8High(h.regs.Rdx) }
func (h *Amd64) SetDh(v uint8)   { setSub8High(&h.regs.Rdx, v) }

// rsi/rdi/rbp/rsp and r8-r15 have 32/16/8-low overlays but no legacy 8-high
// form (that encoding is reserved for rax/rbx/rcx/rdx).
func (h *Amd64) Esi() uint32     { return sub32(h.regs.Rsi) }
func (h *Amd64) SetEsi(v uint32) { setSub32(&h.regs.Rsi, v) }
func (h *Amd64) Si() uint16      { return sub16(h.regs.Rsi) }
func (h *Amd64) SetSi(v uint16)  { setSub16(&h.regs.Rsi, v) }
func (h *Amd64) Sil() uint8      { return sub8Low(h.regs.Rsi) }
func (h *Amd64) SetSil(v uint8)  { setSub8Low(&h.regs.Rsi, v) }

func (h *Amd64) Edi() uint32     { return sub32(h.regs.Rdi) }
func (h *Amd64) SetEdi(v uint32) { setSub32(&h.regs.Rdi, v) }
func (h *Amd64) Di() uint16      { return sub16(h.regs.Rdi) }
func (h *Amd64) SetDi(v uint16)  { setSub16(&h.regs.Rdi, v) }
func (h *Amd64) Dil() uint8      { return sub8Low(h.regs.Rdi) }
func (h *Amd64) SetDil(v uint8)  { setSub8Low(&h.regs.Rdi, v) }

func (h *Amd64) Ebp() uint32     { return sub32(h.regs.Rbp) }
func (h *Amd64) SetEbp(v uint32) { setSub32(&h.regs.Rbp, v) }
func (h *Amd64) Bp() uint16      { return sub16(h.regs.Rbp) }
func (h *Amd64) SetBp(v uint16)  { setSub16(&h.regs.Rbp, v) }
func (h *Amd64) Bpl() uint8      { return sub8Low(h.regs.Rbp) }
func (h *Amd64) SetBpl(v uint8)  { setSub8Low(&h.regs.Rbp, v) }

func (h *Amd64) Esp() uint32     { return sub32(h.regs.Rsp) }
func (h *Amd64) SetEsp(v uint32) { setSub32(&h.regs.Rsp, v) }
func (h *Amd64) Sp() uint16      { return sub16(h.regs.Rsp) }
func (h *Amd64) SetSp(v uint16)  { setSub16(&h.regs.Rsp, v) }
func (h *Amd64) Spl() uint8      { return sub8Low(h.regs.Rsp) }
func (h *Amd64) SetSpl(v uint8)  { setSub8Low(&h.regs.Rsp, v) }

func (h *Amd64) R8d() uint32     { return sub32(h.regs.R8) }
func (h *Amd64) SetR8d(v uint32) { setSub32(&h.regs.R8, v) }
func (h *Amd64) R8w() uint16     { return sub16(h.regs.R8) }
func (h *Amd64) SetR8w(v uint16) { setSub16(&h.regs.R8, v) }
func (h *Amd64) R8b() uint8      { return sub8Low(h.regs.R8) }
func (h *Amd64) SetR8b(v uint8)  { setSub8Low(&h.regs.R8, v) }

func (h *Amd64) R9d() uint32     { return sub32(h.regs.R9) }
func (h *Amd64) SetR9d(v uint32) { setSub32(&h.regs.R9, v) }
func (h *Amd64) R9w() uint16     { return sub16(h.regs.R9) }
func (h *Amd64) SetR9w(v uint16) { setSub16(&h.regs.R9, v) }
func (h *Amd64) R9b() uint8      { return sub8Low(h.regs.R9) }
func (h *Amd64) SetR9b(v uint8)  { setSub8Low(&h.regs.R9, v) }

func (h *Amd64) R10d() uint32     { return sub32(h.regs.R10) }
func (h *Amd64) SetR10d(v uint32) { setSub32(&h.regs.R10, v) }
func (h *Amd64) R10w() uint16     { return sub16(h.regs.R10) }
func (h *Amd64) SetR10w(v uint16) { setSub16(&h.regs.R10, v) }
func (h *Amd64) R10b() uint8      { return sub8Low(h.regs.R10) }
func (h *Amd64) SetR10b(v uint8)  { setSub8Low(&h.regs.R10, v) }

func (h *Amd64) R11d() uint32     { return sub32(h.regs.R11) }
func (h *Amd64) SetR11d(v uint32) { setSub32(&h.regs.R11, v) }
func (h *Amd64) R11w() uint16     { return sub16(h.regs.R11) }
func (h *Amd64) SetR11w(v uint16) { setSub16(&h.regs.R11, v) }
func (h *Amd64) R11b() uint8      { return sub8Low(h.regs.R11) }
func (h *Amd64) SetR11b(v uint8)  { setSub8Low(&h.regs.R11, v) }

func (h *Amd64) R12d() uint32     { return sub32(h.regs.R12) }
func (h *Amd64) SetR12d(v uint32) { setSub32(&h.regs.R12, v) }
func (h *Amd64) R12w() uint16     { return sub16(h.regs.R12) }
func (h *Amd64) SetR12w(v uint16) { setSub16(&h.regs.R12, v) }
func (h *Amd64) R12b() uint8      { return sub8Low(h.regs.R12) }
func (h *Amd64) SetR12b(v uint8)  { setSub8Low(&h.regs.R12, v) }

func (h *Amd64) R13d() uint32     { return sub32(h.regs.R13) }
func (h *Amd64) SetR13d(v uint32) { setSub32(&h.regs.R13, v) }
func (h *Amd64) R13w() uint16     { return sub16(h.regs.R13) }
func (h *Amd64) SetR13w(v uint16) { setSub16(&h.regs.R13, v) }
func (h *Amd64) R13b() uint8      { return sub8Low(h.regs.R13) }
func (h *Amd64) SetR13b(v uint8)  { setSub8Low(&h.regs.R13, v) }

func (h *Amd64) R14d() uint32     { return sub32(h.regs.R14) }
func (h *Amd64) SetR14d(v uint32) { setSub32(&h.regs.R14, v) }
func (h *Amd64) R14w() uint16     { return sub16(h.regs.R14) }
func (h *Amd64) SetR14w(v uint16) { setSub16(&h.regs.R14, v) }
func (h *Amd64) R14b() uint8      { return sub8Low(h.regs.R14) }
func (h *Amd64) SetR14b(v uint8)  { setSub8Low(&h.regs.R14, v) }

func (h *Amd64) R15d() uint32     { return sub32(h.regs.R15) }
func (h *Amd64) SetR15d(v uint32) { setSub32(&h.regs.R15, v) }
func (h *Amd64) R15w() uint16     { return sub16(h.regs.R15) }
func (h *Amd64) SetR15w(v uint16) { setSub16(&h.regs.R15, v) }
func (h *Amd64) R15b() uint8      { return sub8Low(h.regs.R15) }
func (h *Amd64) SetR15b(v uint8)  { setSub8Low(&h.regs.R15, v) }

// InstructionPointer implements the generic RegisterFile contract.
func (h *Amd64) InstructionPointer() uint64 { return h.regs.Rip }

// SetInstructionPointer implements the generic RegisterFile contract.
func (h *Amd64) SetInstructionPointer(v uint64) { h.regs.Rip = v }

// StackPointer implements the generic RegisterFile contract.
func (h *Amd64) StackPointer() uint64 { return h.regs.Rsp }

// SetStackPointer implements the generic RegisterFile contract.
func (h *Amd64) SetStackPointer(v uint64) { h.regs.Rsp = v }

// SyscallNumber returns the syscall number captured at entry (orig_rax),
// which survives rax being clobbered with the return value on exit.
func (h *Amd64) SyscallNumber() int64 { return int64(h.regs.OrigRax) }

// SetSyscallNumber overwrites orig_rax, used by syscall hooks to redirect
// the syscall the kernel will actually execute.
func (h *Amd64) SetSyscallNumber(nr int64) { h.regs.OrigRax = uint64(nr) }

// SyscallReturn returns rax, the syscall return value (valid at syscall-exit stops).
func (h *Amd64) SyscallReturn() int64 { return int64(h.regs.Rax) }

// SetSyscallReturn overwrites rax, used by syscall hooks to fake a return value.
func (h *Amd64) SetSyscallReturn(v int64) { h.regs.Rax = uint64(v) }

// SyscallArg returns the i'th syscall argument per the x86-64 SysV ABI
// register order (rdi, rsi, rdx, r10, r8, r9).
func (h *Amd64) SyscallArg(i int) uint64 {
	switch i {
	case 0:
		return h.regs.Rdi
	case 1:
		return h.regs.Rsi
	case 2:
		return h.regs.Rdx
	case 3:
		return h.regs.R10
	case 4:
		return h.regs.R8
	case 5:
		return h.regs.R9
	default:
		return 0
	}
}

// SetSyscallArg overwrites the i'th syscall argument register.
func (h *Amd64) SetSyscallArg(i int, v uint64) {
	switch i {
	case 0:
		h.regs.Rdi = v
	case 1:
		h.regs.Rsi = v
	case 2:
		h.regs.Rdx = v
	case 3:
		h.regs.R10 = v
	case 4:
		h.regs.R8 = v
	case 5:
		h.regs.R9 = v
	}
}
