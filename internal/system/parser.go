package system

import (
	"fmt"
	"strings"
)

// ParseLoopSetup extracts the loop device from udisksctl loop-setup output.
// Format: "Mapped file /path/to/file.squashdisk as /dev/loop3."
func ParseLoopSetup(output string) (string, error) {
	line := firstLine(output)
	idx := strings.LastIndex(line, " as ")
	if idx < 0 {
		return "", fmt.Errorf("unexpected loop-setup output: %q", line)
	}
	device := strings.TrimSuffix(strings.TrimSpace(line[idx+4:]), ".")
	if !strings.HasPrefix(device, "/dev/") {
		return "", fmt.Errorf("unexpected loop device %q in loop-setup output", device)
	}
	return device, nil
}

// ParseMounted extracts the mount point from udisksctl mount output.
// Format: "Mounted /dev/loop3 at /run/media/user/label"
// (udisks before 2.9 appends a trailing period).
func ParseMounted(output string) (string, error) {
	line := firstLine(output)
	idx := strings.Index(line, " at ")
	if idx < 0 {
		return "", fmt.Errorf("unexpected mount output: %q", line)
	}
	mountPoint := strings.TrimSpace(line[idx+4:])
	mountPoint = strings.TrimSuffix(mountPoint, ".")
	if !strings.HasPrefix(mountPoint, "/") {
		return "", fmt.Errorf("unexpected mount point %q in mount output", mountPoint)
	}
	return mountPoint, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
