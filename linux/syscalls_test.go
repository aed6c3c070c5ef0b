package linux

import "testing"

func TestSyscallNumber_CommonSyscalls(t *testing.T) {
	tests := []struct {
		arch     Architecture
		name     string
		expected int
	}{
		{ArchX86_64, "read", 0},
		{ArchX86_64, "write", 1},
		{ArchX86_64, "execve", 59},
		{ArchX86_64, "exit_group", 231},
		{ArchX86_64, "ptrace", 101},
		{ArchX86, "read", 3},
		{ArchX86, "write", 4},
		{ArchX86, "execve", 11},
		{ArchX86, "ptrace", 26},
		{ArchAArch64, "read", 63},
		{ArchAArch64, "write", 64},
		{ArchAArch64, "execve", 221},
		{ArchAArch64, "ptrace", 117},
	}

	for _, tt := range tests {
		t.Run(string(tt.arch)+"/"+tt.name, func(t *testing.T) {
			got, ok := SyscallNumber(tt.arch, tt.name)
			if !ok {
				t.Fatalf("SyscallNumber(%s, %s) not found", tt.arch, tt.name)
			}
			if got != tt.expected {
				t.Errorf("SyscallNumber(%s, %s) = %d, want %d", tt.arch, tt.name, got, tt.expected)
			}
		})
	}
}

func TestSyscallNumber_UnknownArch(t *testing.T) {
	if _, ok := SyscallNumber("riscv", "read"); ok {
		t.Error("SyscallNumber should return false for unknown architecture")
	}
}

func TestSyscallNumber_UnknownName(t *testing.T) {
	if _, ok := SyscallNumber(ArchX86_64, "not_a_real_syscall"); ok {
		t.Error("SyscallNumber should return false for unknown syscall name")
	}
}

func TestSyscallName_RoundTrip(t *testing.T) {
	for _, arch := range []Architecture{ArchX86_64, ArchX86, ArchAArch64} {
		t.Run(string(arch), func(t *testing.T) {
			nr, ok := SyscallNumber(arch, "read")
			if !ok {
				t.Fatalf("read syscall not found for %s", arch)
			}
			name, ok := SyscallName(arch, nr)
			if !ok {
				t.Fatalf("SyscallName(%s, %d) not found", arch, nr)
			}
			if name != "read" {
				t.Errorf("SyscallName(%s, %d) = %q, want %q", arch, nr, name, "read")
			}
		})
	}
}

func TestSyscallName_UnknownArch(t *testing.T) {
	if _, ok := SyscallName("riscv", 0); ok {
		t.Error("SyscallName should return false for unknown architecture")
	}
}

func TestNoNegativeNumbers(t *testing.T) {
	tables := map[Architecture]map[string]int{
		ArchX86_64:  amd64Syscalls,
		ArchX86:     i386Syscalls,
		ArchAArch64: arm64Syscalls,
	}
	for arch, table := range tables {
		for name, nr := range table {
			if nr < 0 {
				t.Errorf("%s: syscall %s has negative number %d", arch, name, nr)
			}
		}
	}
}
