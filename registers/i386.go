package registers

import "godbg/errors"

// i386Regs mirrors the native 32-bit struct pt_regs layout (as seen when an
// i686 kernel traces an i386 process directly).
type i386Regs struct {
	Ebx, Ecx, Edx, Esi, Edi, Ebp, Eax uint32
	Xds, Xes, Xfs, Xgs                uint32
	OrigEax                           uint32
	Eip                               uint32
	Xcs                               uint32
	Eflags                            uint32
	Esp                               uint32
	Xss                               uint32
}

const i386RegsSize = 17 * 4

// I386 is the GPR holder for a native 32-bit i386 thread traced by an i686
// kernel (spec.md §6 pair `(i386, i686)`).
type I386 struct {
	regs i386Regs
}

// Size returns the wire size of the underlying register blob.
func (h *I386) Size() int { return i386RegsSize }

// Load decodes buf into the holder.
func (h *I386) Load(buf []byte) error {
	if len(buf) < i386RegsSize {
		return errors.New(errors.ErrUnsupportedFPLayout, "registers.i386.load", "short register buffer")
	}
	fields := []*uint32{
		&h.regs.Ebx, &h.regs.Ecx, &h.regs.Edx, &h.regs.Esi, &h.regs.Edi, &h.regs.Ebp, &h.regs.Eax,
		&h.regs.Xds, &h.regs.Xes, &h.regs.Xfs, &h.regs.Xgs,
		&h.regs.OrigEax, &h.regs.Eip, &h.regs.Xcs, &h.regs.Eflags, &h.regs.Esp, &h.regs.Xss,
	}
	for i, f := range fields {
		*f = hostEndian.Uint32(buf[i*4 : i*4+4])
	}
	return nil
}

// Store encodes the holder back into wire format.
func (h *I386) Store() []byte {
	fields := []uint32{
		h.regs.Ebx, h.regs.Ecx, h.regs.Edx, h.regs.Esi, h.regs.Edi, h.regs.Ebp, h.regs.Eax,
		h.regs.Xds, h.regs.Xes, h.regs.Xfs, h.regs.Xgs,
		h.regs.OrigEax, h.regs.Eip, h.regs.Xcs, h.regs.Eflags, h.regs.Esp, h.regs.Xss,
	}
	buf := make([]byte, i386RegsSize)
	for i, v := range fields {
		hostEndian.PutUint32(buf[i*4:i*4+4], v)
	}
	return buf
}

func (h *I386) Eax() uint32 { return h.regs.Eax }
func (h *I386) SetEax(v uint32) { h.regs.Eax = v }
func (h *I386) Ebx() uint32 { return h.regs.Ebx }
func (h *I386) SetEbx(v uint32) { h.regs.Ebx = v }
func (h *I386) Ecx() uint32 { return h.regs.Ecx }
func (h *I386) SetEcx(v uint32) { h.regs.Ecx = v }
func (h *I386) Edx() uint32 { return h.regs.Edx }
func (h *I386) SetEdx(v uint32) { h.regs.Edx = v }
func (h *I386) Esi() uint32 { return h.regs.Esi }
func (h *I386) SetEsi(v uint32) { h.regs.Esi = v }
func (h *I386) Edi() uint32 { return h.regs.Edi }
func (h *I386) SetEdi(v uint32) { h.regs.Edi = v }
func (h *I386) Ebp() uint32 { return h.regs.Ebp }
func (h *I386) SetEbp(v uint32) { h.regs.Ebp = v }
func (h *I386) Esp() uint32 { return h.regs.Esp }
func (h *I386) SetEsp(v uint32) { h.regs.Esp = v }

// 16/8-bit overlay accessors (spec.md §6.66, testable property 4 analog for
// i386): 16-bit and 8-low writes preserve the untouched bits of the backing
// 32-bit slot; ebp/esp/esi/edi have no legacy 8-high form.
func (h *I386) Ax() uint16     { return uint16(h.regs.Eax) }
func (h *I386) SetAx(v uint16) { h.regs.Eax = (h.regs.Eax &^ 0xffff) | uint32(v) }
func (h *I386) Al() uint8      { return uint8(h.regs.Eax) }
func (h *I386) SetAl(v uint8)  { h.regs.Eax = (h.regs.Eax &^ 0xff) | uint32(v) }
func (h *I386) Ah() uint8      { return uint8(h.regs.Eax >> 8) }
func (h *I386) SetAh(v uint8)  { h.regs.Eax = (h.regs.Eax &^ 0xff00) | (uint32(v) << 8) }

func (h *I386) Bx() uint16     { return uint16(h.regs.Ebx) }
func (h *I386) SetBx(v uint16) { h.regs.Ebx = (h.regs.Ebx &^ 0xffff) | uint32(v) }
func (h *I386) Bl() uint8      { return uint8(h.regs.Ebx) }
func (h *I386) SetBl(v uint8)  { h.regs.Ebx = (h.regs.Ebx &^ 0xff) | uint32(v) }
func (h *I386) Bh() uint8      { return uint8(h.regs.Ebx >> 8) }
func (h *I386) SetBh(v uint8)  { h.regs.Ebx = (h.regs.Ebx &^ 0xff00) | (uint32(v) << 8) }

func (h *I386) Cx() uint16     { return uint16(h.regs.Ecx) }
func (h *I386) SetCx(v uint16) { h.regs.Ecx = (h.regs.Ecx &^ 0xffff) | uint32(v) }
func (h *I386) Cl() uint8      { return uint8(h.regs.Ecx) }
func (h *I386) SetCl(v uint8)  { h.regs.Ecx = (h.regs.Ecx &^ 0xff) | uint32(v) }
func (h *I386) Ch() uint8      { return uint8(h.regs.Ecx >> 8) }
func (h *I386) SetCh(v uint8)  { h.regs.Ecx = (h.regs.Ecx &^ 0xff00) | (uint32(v) << 8) }

func (h *I386) Dx() uint16     { return uint16(h.regs.Edx) }
func (h *I386) SetDx(v uint16) { h.regs.Edx = (h.regs.Edx &^ 0xffff) | uint32(v) }
func (h *I386) Dl() uint8      { return uint8(h.regs.Edx) }
func (h *I386) SetDl(v uint8)  { h.regs.Edx = (h.regs.Edx &^ 0xff) | uint32(v) }
func (h *I386) Dh() uint8      { return uint8(h.regs.Edx >> 8) }
func (h *I386) SetDh(v uint8)  { h.regs.Edx = (h.regs.Edx &^ 0xff00) | (uint32(v) << 8) }

func (h *I386) Si() uint16     { return uint16(h.regs.Esi) }
func (h *I386) SetSi(v uint16) { h.regs.Esi = (h.regs.Esi &^ 0xffff) | uint32(v) }
func (h *I386) Sil() uint8     { return uint8(h.regs.Esi) }
func (h *I386) SetSil(v uint8) { h.regs.Esi = (h.regs.Esi &^ 0xff) | uint32(v) }

func (h *I386) Di() uint16     { return uint16(h.regs.Edi) }
func (h *I386) SetDi(v uint16) { h.regs.Edi = (h.regs.Edi &^ 0xffff) | uint32(v) }
func (h *I386) Dil() uint8     { return uint8(h.regs.Edi) }
func (h *I386) SetDil(v uint8) { h.regs.Edi = (h.regs.Edi &^ 0xff) | uint32(v) }

func (h *I386) Bp() uint16     { return uint16(h.regs.Ebp) }
func (h *I386) SetBp(v uint16) { h.regs.Ebp = (h.regs.Ebp &^ 0xffff) | uint32(v) }
func (h *I386) Bpl() uint8     { return uint8(h.regs.Ebp) }
func (h *I386) SetBpl(v uint8) { h.regs.Ebp = (h.regs.Ebp &^ 0xff) | uint32(v) }

func (h *I386) Sp() uint16     { return uint16(h.regs.Esp) }
func (h *I386) SetSp(v uint16) { h.regs.Esp = (h.regs.Esp &^ 0xffff) | uint32(v) }
func (h *I386) Spl() uint8     { return uint8(h.regs.Esp) }
func (h *I386) SetSpl(v uint8) { h.regs.Esp = (h.regs.Esp &^ 0xff) | uint32(v) }

// InstructionPointer implements the generic RegisterFile contract.
func (h *I386) InstructionPointer() uint64 { return uint64(h.regs.Eip) }

// SetInstructionPointer implements the generic RegisterFile contract.
func (h *I386) SetInstructionPointer(v uint64) { h.regs.Eip = uint32(v) }

// StackPointer implements the generic RegisterFile contract.
func (h *I386) StackPointer() uint64 { return uint64(h.regs.Esp) }

// SetStackPointer implements the generic RegisterFile contract.
func (h *I386) SetStackPointer(v uint64) { h.regs.Esp = uint32(v) }

// SyscallNumber returns the syscall number captured at entry (orig_eax).
func (h *I386) SyscallNumber() int64 { return int64(int32(h.regs.OrigEax)) }

// SetSyscallNumber overwrites orig_eax.
func (h *I386) SetSyscallNumber(nr int64) { h.regs.OrigEax = uint32(nr) }

// SyscallReturn returns eax.
func (h *I386) SyscallReturn() int64 { return int64(int32(h.regs.Eax)) }

// SetSyscallReturn overwrites eax.
func (h *I386) SetSyscallReturn(v int64) { h.regs.Eax = uint32(v) }

// SyscallArg returns the i'th syscall argument per the classic i386 int
// 0x80 ABI register order (ebx, ecx, edx, esi, edi, ebp).
func (h *I386) SyscallArg(i int) uint64 {
	switch i {
	case 0:
		return uint64(h.regs.Ebx)
	case 1:
		return uint64(h.regs.Ecx)
	case 2:
		return uint64(h.regs.Edx)
	case 3:
		return uint64(h.regs.Esi)
	case 4:
		return uint64(h.regs.Edi)
	case 5:
		return uint64(h.regs.Ebp)
	default:
		return 0
	}
}

// SetSyscallArg overwrites the i'th syscall argument register.
func (h *I386) SetSyscallArg(i int, v uint64) {
	switch i {
	case 0:
		h.regs.Ebx = uint32(v)
	case 1:
		h.regs.Ecx = uint32(v)
	case 2:
		h.regs.Edx = uint32(v)
	case 3:
		h.regs.Esi = uint32(v)
	case 4:
		h.regs.Edi = uint32(v)
	case 5:
		h.regs.Ebp = uint32(v)
	}
}
