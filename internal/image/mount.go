package image

import (
	"fmt"

	"github.com/avern/squashdisk/internal/system"
)

// MountManager handles filesystem mount operations through udisksctl.
// Mount points are chosen by udisks (under /run/media or /media), so there
// is no directory to create or remove here.
type MountManager struct {
	runner system.Runner
}

// NewMountManager creates a new mount manager
func NewMountManager(runner system.Runner) *MountManager {
	return &MountManager{
		runner: runner,
	}
}

// Mount mounts a block device and returns the mount point udisks chose.
func (m *MountManager) Mount(device string, readonly bool) (string, error) {
	args := []string{"mount", "--no-user-interaction", "-b", device}
	if readonly {
		args = append(args, "-o", "ro")
	}

	output, err := m.runner.RunOutput("udisksctl", args...)
	if err != nil {
		return "", fmt.Errorf("failed to mount %s: %w", device, err)
	}

	mountPoint, err := system.ParseMounted(output)
	if err != nil {
		return "", err
	}
	return mountPoint, nil
}

// Unmount unmounts a block device
func (m *MountManager) Unmount(device string) error {
	err := m.runner.Run("udisksctl", "unmount",
		"--no-user-interaction", "-b", device)
	if err != nil {
		return fmt.Errorf("failed to unmount %s: %w", device, err)
	}
	return nil
}
