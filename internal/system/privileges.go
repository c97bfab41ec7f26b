package system

import (
	"os"

	"golang.org/x/sys/unix"
)

// IsRoot checks if running as root
func IsRoot() bool {
	return os.Geteuid() == 0
}

// CanRead reports whether the invoking user may read path.
func CanRead(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

// CanWrite reports whether the invoking user may write to path.
func CanWrite(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// SudoArgv wraps an argument vector in non-interactive sudo. Escalation is
// applied per operation, never held for the whole process.
func SudoArgv(argv []string) []string {
	return append([]string{"sudo", "-n"}, argv...)
}
