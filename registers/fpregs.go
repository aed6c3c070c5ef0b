package registers

import "godbg/errors"

// ComponentSize is the XSAVE area's reported fpregs_component_size, which
// determines whether the AVX (896) or AVX-512 (2560) layout applies (spec.md
// §4.2, §6). Values outside this set are rejected per §4.2's invariant.
const (
	ComponentSizeAVX    = 896
	ComponentSizeAVX512 = 2560

	xmmOffset     = 160
	ymmHighOffset = 576
	zmm0Offset    = 1024
	zmm16Offset   = 1536

	xsaveHeaderOffset = 8 // fxsave legacy area is 512 bytes, but vector
	// offsets below are expressed relative to the xsave extended area per
	// `amd64_ptrace_register_holder.py`'s `ymm_offset = 8 +
	// fp_register_file.fpregs_avx_offset`.
)

// FPCallback is invoked by a vector accessor to fetch or flush the XSAVE
// buffer via PTRACE_GETREGSET/SETREGSET(NT_X86_XSTATE), matching the Python
// original's `fp_get_callback`/`fp_set_callback` (spec.md §9 "side-effectful
// vector register read/write").
type FPCallback func(buf []byte) error

// FPRegisterFile is the AVX/AVX-512 vector register view shared by amd64 and
// i386 holders. One FetchFP precedes every read; one FlushFP follows every
// write (spec.md §9's one-call-per-access invariant).
type FPRegisterFile struct {
	buf            []byte
	componentSize  int
	avxOffset      int
	fetch          FPCallback
	flush          FPCallback
}

// NewFPRegisterFile builds a vector register view over an XSAVE area of the
// given component size (896 or 2560), wired to fetch/flush callbacks that
// perform the actual PTRACE_GETREGSET/SETREGSET(NT_X86_XSTATE) transfer.
func NewFPRegisterFile(componentSize int, avxOffset int, fetch, flush FPCallback) (*FPRegisterFile, error) {
	if componentSize != ComponentSizeAVX && componentSize != ComponentSizeAVX512 {
		return nil, errors.WrapWithDetail(errors.ErrUnknownFPComponentSize, errors.ErrUnsupportedFPLayout,
			"registers.NewFPRegisterFile", "")
	}
	size := 4096
	return &FPRegisterFile{
		buf:           make([]byte, size),
		componentSize: componentSize,
		avxOffset:     avxOffset,
		fetch:         fetch,
		flush:         flush,
	}, nil
}

// FetchFP re-reads the XSAVE buffer from the tracee via the fetch callback.
func (f *FPRegisterFile) FetchFP() error {
	if f.fetch == nil {
		return nil
	}
	return f.fetch(f.buf)
}

// FlushFP writes the XSAVE buffer back to the tracee via the flush callback.
func (f *FPRegisterFile) FlushFP() error {
	if f.flush == nil {
		return nil
	}
	return f.flush(f.buf)
}

// ymmRaw reads the full 256-bit YMM register i (0-15) directly out of the
// buffer with no Fetch/Flush side effect, so Zmm/SetZmm can reuse it without
// double-fetching.
func (f *FPRegisterFile) ymmRaw(i int) (lo, hi uint64) {
	xmmBase := xsaveHeaderOffset + xmmOffset + i*16
	ymmBase := xsaveHeaderOffset + f.avxOffset + i*16
	lo = hostEndian.Uint64(f.buf[xmmBase : xmmBase+8])
	hi = hostEndian.Uint64(f.buf[ymmBase : ymmBase+8])
	return lo, hi
}

// setYmmRaw writes the full 256-bit YMM register i (0-15) with no
// Fetch/Flush side effect.
func (f *FPRegisterFile) setYmmRaw(i int, lo, hi uint64) {
	xmmBase := xsaveHeaderOffset + xmmOffset + i*16
	ymmBase := xsaveHeaderOffset + f.avxOffset + i*16
	hostEndian.PutUint64(f.buf[xmmBase:xmmBase+8], lo)
	hostEndian.PutUint64(f.buf[ymmBase:ymmBase+8], hi)
}

// Ymm reads the full 256-bit YMM register i (0-15): the low 128 bits come
// from the legacy XMM area, the high 128 bits from the XSAVE AVX component.
// Fetches the XSAVE buffer first (spec.md §9's fetch-before-read invariant).
func (f *FPRegisterFile) Ymm(i int) (lo, hi uint64) {
	f.FetchFP()
	return f.ymmRaw(i)
}

// SetYmm writes the full 256-bit YMM register i (0-15), then flushes the
// XSAVE buffer back to the tracee (spec.md §9's flush-after-write invariant).
func (f *FPRegisterFile) SetYmm(i int, lo, hi uint64) {
	f.setYmmRaw(i, lo, hi)
	f.FlushFP()
}

// Zmm reads the full 512-bit ZMM register i (0-31), available only when the
// component size is 2560 (AVX-512). Registers 0-15 extend the YMM area
// already present for AVX; registers 16-31 live entirely in the extended
// AVX-512 high area.
func (f *FPRegisterFile) Zmm(i int) [8]uint64 {
	f.FetchFP()
	var out [8]uint64
	if i < 16 {
		lo, hi := f.ymmRaw(i)
		out[0], out[1] = lo, hi
		base := xsaveHeaderOffset + zmm0Offset + i*32
		for w := 0; w < 2; w++ {
			out[2+w] = hostEndian.Uint64(f.buf[base+w*8 : base+w*8+8])
		}
	} else {
		base := xsaveHeaderOffset + zmm16Offset + (i-16)*64
		for w := 0; w < 8; w++ {
			out[w] = hostEndian.Uint64(f.buf[base+w*8 : base+w*8+8])
		}
	}
	return out
}

// SetZmm writes the full 512-bit ZMM register i (0-31).
func (f *FPRegisterFile) SetZmm(i int, v [8]uint64) {
	if i < 16 {
		f.setYmmRaw(i, v[0], v[1])
		base := xsaveHeaderOffset + zmm0Offset + i*32
		for w := 0; w < 2; w++ {
			hostEndian.PutUint64(f.buf[base+w*8:base+w*8+8], v[2+w])
		}
	} else {
		base := xsaveHeaderOffset + zmm16Offset + (i-16)*64
		for w := 0; w < 8; w++ {
			hostEndian.PutUint64(f.buf[base+w*8:base+w*8+8], v[w])
		}
	}
	f.FlushFP()
}

// ComponentSize reports the XSAVE layout this file was constructed with.
func (f *FPRegisterFile) ComponentSize() int { return f.componentSize }

// SupportsAVX512 reports whether ZMM16-31 and the high halves of ZMM0-15 are
// available (component size 2560).
func (f *FPRegisterFile) SupportsAVX512() bool { return f.componentSize == ComponentSizeAVX512 }
