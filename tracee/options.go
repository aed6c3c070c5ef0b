// Package tracee implements the Tracee/Thread data model and the control
// loop wiring C1-C5 together: it owns the per-process breakpoint and hook
// tables, the per-thread register holders and hardware breakpoint managers,
// and drives status.Dispatch over each wait batch.
package tracee

import (
	"log/slog"

	"godbg/linux"
	"godbg/ptrace"
	"godbg/registers"
)

// Options configures a Tracee at construction time, built with functional
// options rather than passed as a bare struct literal. resolveOptions applies
// them over the defaults without further validation.
type Options struct {
	Architecture linux.Architecture
	Platform     registers.Platform
	PtraceOpts   int
	Logger       *slog.Logger
}

// Option configures an Options value.
type Option func(*Options)

// WithArchitecture overrides the target instruction set. Defaults to
// linux.ArchX86_64, whatever the host.
func WithArchitecture(arch linux.Architecture) Option {
	return func(o *Options) { o.Architecture = arch }
}

// WithPlatform overrides the host platform used to pick a register wire
// layout, for tests that need to exercise the i386-over-amd64 overlay.
func WithPlatform(platform registers.Platform) Option {
	return func(o *Options) { o.Platform = platform }
}

// WithPtraceOptions overrides the PTRACE_SETOPTIONS flags installed on every
// traced thread. Defaults to exit-kill, clone, exit, sysgood and seccomp
// tracing.
func WithPtraceOptions(flags int) Option {
	return func(o *Options) { o.PtraceOpts = flags }
}

// WithLogger stores logger in Options.Logger (nil by default). The engine's
// own log lines go through logging.Default() and do not consult this field.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func defaultOptions() Options {
	return Options{
		Architecture: linux.ArchX86_64,
		Platform:     registers.PlatformX86_64,
		PtraceOpts: ptrace.OptExitKill | ptrace.OptTraceClone |
			ptrace.OptTraceExit | ptrace.OptTraceSysgood | ptrace.OptTraceSeccomp,
	}
}

func resolveOptions(opts []Option) Options {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// registersArch maps the syscall-table architecture tag onto the register
// holder's architecture tag; the two packages were grounded on different
// sources (`linux/seccomp.go`'s syscall table vs
// `register_helper.register_holder_provider`) and so kept separate string
// enums, but a Tracee only ever needs one (architecture, platform) pair.
func registersArch(arch linux.Architecture) registers.Architecture {
	switch arch {
	case linux.ArchX86_64:
		return registers.Amd64Arch
	case linux.ArchX86:
		return registers.I386Arch
	case linux.ArchAArch64:
		return registers.Aarch64Arch
	default:
		return registers.Amd64Arch
	}
}

func hardwarePlatform(platform registers.Platform) string {
	switch platform {
	case registers.PlatformX86_64:
		return "x86_64"
	case registers.PlatformI686:
		return "i686"
	case registers.PlatformAarch64:
		return "aarch64"
	default:
		return "x86_64"
	}
}
