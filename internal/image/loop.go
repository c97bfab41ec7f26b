package image

import (
	"fmt"

	"github.com/avern/squashdisk/internal/system"
)

// LoopManager handles loop device operations through udisksctl, which sets
// up loop devices for the invoking user without requiring root.
type LoopManager struct {
	runner system.Runner
}

// NewLoopManager creates a new loop manager
func NewLoopManager(runner system.Runner) *LoopManager {
	return &LoopManager{
		runner: runner,
	}
}

// Attach attaches a file as a read-only loop device and returns its path.
func (m *LoopManager) Attach(path string) (string, error) {
	output, err := m.runner.RunOutput("udisksctl", "loop-setup",
		"--no-user-interaction", "-r", "-f", path)
	if err != nil {
		return "", fmt.Errorf("failed to attach loop device for %s: %w", path, err)
	}
	device, err := system.ParseLoopSetup(output)
	if err != nil {
		return "", err
	}
	return device, nil
}

// Detach detaches a loop device
func (m *LoopManager) Detach(device string) error {
	err := m.runner.Run("udisksctl", "loop-delete",
		"--no-user-interaction", "-b", device)
	if err != nil {
		return fmt.Errorf("failed to detach loop device %s: %w", device, err)
	}
	return nil
}

// PartitionDevice returns the device path of the nth partition of a loop
// device. Partition 0 selects the whole device.
func PartitionDevice(loopDevice string, partition int) string {
	if partition == 0 {
		return loopDevice
	}
	return fmt.Sprintf("%sp%d", loopDevice, partition)
}
