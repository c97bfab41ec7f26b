package image

import (
	"strconv"

	"github.com/avern/squashdisk/internal/system"
)

// CopySpec describes one rate-limited pv copy of a byte stream. The same
// argument vector serves two call sites: the builder embeds it in the
// mksquashfs pseudo-file directive, the washer runs it against /dev/zero.
type CopySpec struct {
	Tool       string // pv binary, possibly a custom path
	Source     string // file or device to read; "-" or "" reads stdin
	Size       uint64 // upper bound in bytes, 0 = unlimited
	Length     uint64 // display-only length hint when Size is 0
	Buffer     uint64 // buffer/block size in bytes, 0 = pv default
	RateLimit  uint64 // bytes per second, 0 = none
	SkipErrors bool   // skip unreadable regions instead of aborting
	Sudo       bool   // escalate the copy itself
}

// Argv returns the structured argument vector for the copy.
func (s CopySpec) Argv() []string {
	tool := s.Tool
	if tool == "" {
		tool = "pv"
	}

	argv := []string{tool}
	if s.Buffer > 0 {
		argv = append(argv, "-B", strconv.FormatUint(s.Buffer, 10))
	}
	if s.RateLimit > 0 {
		argv = append(argv, "-L", strconv.FormatUint(s.RateLimit, 10))
	}
	if s.SkipErrors {
		argv = append(argv, "-E")
	}
	switch {
	case s.Size > 0:
		// -S makes the size an upper bound: pv stops reading there.
		argv = append(argv, "-S", "-s", strconv.FormatUint(s.Size, 10))
	case s.Length > 0:
		argv = append(argv, "-s", strconv.FormatUint(s.Length, 10))
	}
	if s.Source != "" && s.Source != "-" {
		argv = append(argv, s.Source)
	}

	if s.Sudo {
		argv = system.SudoArgv(argv)
	}
	return argv
}
