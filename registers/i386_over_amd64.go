package registers

// I386OverAmd64 is the GPR holder for a 32-bit i386 process traced from a
// 64-bit x86-64 kernel (spec.md §6 pair `(i386, x86_64)`). The kernel still
// hands back the native 64-bit NT_PRSTATUS layout in this case; the 32-bit
// values live in the low 32 bits of the corresponding 64-bit slot, and the
// syscall argument registers follow the i386 `int 0x80` ABI order (ebx,
// ecx, edx, esi, edi, ebp) rather than the amd64 SysV order.
type I386OverAmd64 struct {
	inner amd64Regs
}

// Size returns the wire size of the underlying register blob (shared with
// native amd64 — the kernel always reports the 64-bit-shaped struct here).
func (h *I386OverAmd64) Size() int { return amd64RegsSize }

// Load decodes buf into the holder.
func (h *I386OverAmd64) Load(buf []byte) error {
	a := &Amd64{}
	if err := a.Load(buf); err != nil {
		return err
	}
	h.inner = a.regs
	return nil
}

// Store encodes the holder back into wire format.
func (h *I386OverAmd64) Store() []byte {
	a := &Amd64{regs: h.inner}
	return a.Store()
}

func (h *I386OverAmd64) Eax() uint32 { return uint32(h.inner.Rax) }
func (h *I386OverAmd64) SetEax(v uint32) { h.inner.Rax = uint64(v) }
func (h *I386OverAmd64) Ebx() uint32 { return uint32(h.inner.Rbx) }
func (h *I386OverAmd64) SetEbx(v uint32) { h.inner.Rbx = uint64(v) }
func (h *I386OverAmd64) Ecx() uint32 { return uint32(h.inner.Rcx) }
func (h *I386OverAmd64) SetEcx(v uint32) { h.inner.Rcx = uint64(v) }
func (h *I386OverAmd64) Edx() uint32 { return uint32(h.inner.Rdx) }
func (h *I386OverAmd64) SetEdx(v uint32) { h.inner.Rdx = uint64(v) }
func (h *I386OverAmd64) Esi() uint32 { return uint32(h.inner.Rsi) }
func (h *I386OverAmd64) SetEsi(v uint32) { h.inner.Rsi = uint64(v) }
func (h *I386OverAmd64) Edi() uint32 { return uint32(h.inner.Rdi) }
func (h *I386OverAmd64) SetEdi(v uint32) { h.inner.Rdi = uint64(v) }
func (h *I386OverAmd64) Ebp() uint32 { return uint32(h.inner.Rbp) }
func (h *I386OverAmd64) SetEbp(v uint32) { h.inner.Rbp = uint64(v) }
func (h *I386OverAmd64) Esp() uint32 { return uint32(h.inner.Rsp) }
func (h *I386OverAmd64) SetEsp(v uint32) { h.inner.Rsp = uint64(v) }

// 16/8-bit overlay accessors, layered over the same 64-bit backing slots as
// native amd64 (spec.md §6.66): 16-bit and 8-low writes preserve the
// untouched bits.
func (h *I386OverAmd64) Ax() uint16     { return sub16(h.inner.Rax) }
func (h *I386OverAmd64) SetAx(v uint16) { setSub16(&h.inner.Rax, v) }
func (h *I386OverAmd64) Al() uint8      { return sub8Low(h.inner.Rax) }
func (h *I386OverAmd64) SetAl(v uint8)  { setSub8Low(&h.inner.Rax, v) }
func (h *I386OverAmd64) Ah() uint8      { return sub8High(h.inner.Rax) }
func (h *I386OverAmd64) SetAh(v uint8)  { setSub8High(&h.inner.Rax, v) }

func (h *I386OverAmd64) Bx() uint16     { return sub16(h.inner.Rbx) }
func (h *I386OverAmd64) SetBx(v uint16) { setSub16(&h.inner.Rbx, v) }
func (h *I386OverAmd64) Bl() uint8      { return sub8Low(h.inner.Rbx) }
func (h *I386OverAmd64) SetBl(v uint8)  { setSub8Low(&h.inner.Rbx, v) }
func (h *I386OverAmd64) Bh() uint8      { return sub8High(h.inner.Rbx) }
func (h *I386OverAmd64) SetBh(v uint8)  { setSub8High(&h.inner.Rbx, v) }

func (h *I386OverAmd64) Cx() uint16     { return sub16(h.inner.Rcx) }
func (h *I386OverAmd64) SetCx(v uint16) { setSub16(&h.inner.Rcx, v) }
func (h *I386OverAmd64) Cl() uint8      { return sub8Low(h.inner.Rcx) }
func (h *I386OverAmd64) SetCl(v uint8)  { setSub8Low(&h.inner.Rcx, v) }
func (h *I386OverAmd64) Ch() uint8      { return sub8High(h.inner.Rcx) }
func (h *I386OverAmd64) SetCh(v uint8)  { setSub8High(&h.inner.Rcx, v) }

func (h *I386OverAmd64) Dx() uint16     { return sub16(h.inner.Rdx) }
func (h *I386OverAmd64) SetDx(v uint16) { setSub16(&h.inner.Rdx, v) }
func (h *I386OverAmd64) Dl() uint8      { return sub8Low(h.inner.Rdx) }
func (h *I386OverAmd64) SetDl(v uint8)  { setSub8Low(&h.inner.Rdx, v) }
func (h *I386OverAmd64) Dh() uint8      { return sub8High(h.inner.Rdx) }
func (h *I386OverAmd64) SetDh(v uint8)  { setSub8High(&h.inner.Rdx, v) }

func (h *I386OverAmd64) Si() uint16     { return sub16(h.inner.Rsi) }
func (h *I386OverAmd64) SetSi(v uint16) { setSub16(&h.inner.Rsi, v) }
func (h *I386OverAmd64) Sil() uint8     { return sub8Low(h.inner.Rsi) }
func (h *I386OverAmd64) SetSil(v uint8) { setSub8Low(&h.inner.Rsi, v) }

func (h *I386OverAmd64) Di() uint16     { return sub16(h.inner.Rdi) }
func (h *I386OverAmd64) SetDi(v uint16) { setSub16(&h.inner.Rdi, v) }
func (h *I386OverAmd64) Dil() uint8     { return sub8Low(h.inner.Rdi) }
func (h *I386OverAmd64) SetDil(v uint8) { setSub8Low(&h.inner.Rdi, v) }

func (h *I386OverAmd64) Bp() uint16     { return sub16(h.inner.Rbp) }
func (h *I386OverAmd64) SetBp(v uint16) { setSub16(&h.inner.Rbp, v) }
func (h *I386OverAmd64) Bpl() uint8     { return sub8Low(h.inner.Rbp) }
func (h *I386OverAmd64) SetBpl(v uint8) { setSub8Low(&h.inner.Rbp, v) }

func (h *I386OverAmd64) Sp() uint16     { return sub16(h.inner.Rsp) }
func (h *I386OverAmd64) SetSp(v uint16) { setSub16(&h.inner.Rsp, v) }
func (h *I386OverAmd64) Spl() uint8     { return sub8Low(h.inner.Rsp) }
func (h *I386OverAmd64) SetSpl(v uint8) { setSub8Low(&h.inner.Rsp, v) }

// InstructionPointer implements the generic RegisterFile contract.
func (h *I386OverAmd64) InstructionPointer() uint64 { return h.inner.Rip & 0xffffffff }

// SetInstructionPointer implements the generic RegisterFile contract.
func (h *I386OverAmd64) SetInstructionPointer(v uint64) { h.inner.Rip = v & 0xffffffff }

// StackPointer implements the generic RegisterFile contract.
func (h *I386OverAmd64) StackPointer() uint64 { return h.inner.Rsp & 0xffffffff }

// SetStackPointer implements the generic RegisterFile contract.
func (h *I386OverAmd64) SetStackPointer(v uint64) { h.inner.Rsp = v & 0xffffffff }

// SyscallNumber returns orig_eax (the low 32 bits of orig_rax).
func (h *I386OverAmd64) SyscallNumber() int64 { return int64(int32(uint32(h.inner.OrigRax))) }

// SetSyscallNumber overwrites orig_eax.
func (h *I386OverAmd64) SetSyscallNumber(nr int64) { h.inner.OrigRax = uint64(uint32(nr)) }

// SyscallReturn returns eax.
func (h *I386OverAmd64) SyscallReturn() int64 { return int64(int32(uint32(h.inner.Rax))) }

// SetSyscallReturn overwrites eax.
func (h *I386OverAmd64) SetSyscallReturn(v int64) { h.inner.Rax = uint64(uint32(v)) }

// SyscallArg returns the i'th syscall argument following the i386 `int
// 0x80` register order, NOT the amd64 SysV order.
func (h *I386OverAmd64) SyscallArg(i int) uint64 {
	switch i {
	case 0:
		return h.inner.Rbx & 0xffffffff
	case 1:
		return h.inner.Rcx & 0xffffffff
	case 2:
		return h.inner.Rdx & 0xffffffff
	case 3:
		return h.inner.Rsi & 0xffffffff
	case 4:
		return h.inner.Rdi & 0xffffffff
	case 5:
		return h.inner.Rbp & 0xffffffff
	default:
		return 0
	}
}

// SetSyscallArg overwrites the i'th syscall argument register.
func (h *I386OverAmd64) SetSyscallArg(i int, v uint64) {
	v &= 0xffffffff
	switch i {
	case 0:
		h.inner.Rbx = v
	case 1:
		h.inner.Rcx = v
	case 2:
		h.inner.Rdx = v
	case 3:
		h.inner.Rsi = v
	case 4:
		h.inner.Rdi = v
	case 5:
		h.inner.Rbp = v
	}
}
