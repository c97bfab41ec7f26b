package image

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/avern/squashdisk/internal/system"
)

// BlockDevice is one entry of lsblk's JSON output.
type BlockDevice struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Size       uint64        `json:"size"`
	Type       string        `json:"type"`
	FSType     string        `json:"fstype"`
	Label      string        `json:"label"`
	ReadOnly   bool          `json:"ro"`
	MountPoint string        `json:"mountpoint"`
	Vendor     string        `json:"vendor"`
	Model      string        `json:"model"`
	Serial     string        `json:"serial"`
	Children   []BlockDevice `json:"children"`
}

type lsblkOutput struct {
	BlockDevices []BlockDevice `json:"blockdevices"`
}

// DiskManager introspects block devices through lsblk.
type DiskManager struct {
	runner system.Runner
}

// NewDiskManager creates a new disk manager
func NewDiskManager(runner system.Runner) *DiskManager {
	return &DiskManager{
		runner: runner,
	}
}

const lsblkColumns = "NAME,PATH,SIZE,TYPE,FSTYPE,LABEL,RO,MOUNTPOINT,VENDOR,MODEL,SERIAL"

// Describe returns the lsblk view of a single device, children included.
func (m *DiskManager) Describe(device string) (*BlockDevice, error) {
	output, err := m.runner.RunOutput("lsblk", "-J", "-b",
		"-o", lsblkColumns, device)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", device, err)
	}

	var result lsblkOutput
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return nil, fmt.Errorf("failed to parse lsblk output: %w", err)
	}
	if len(result.BlockDevices) == 0 {
		return nil, fmt.Errorf("lsblk reported no device for %s", device)
	}
	return &result.BlockDevices[0], nil
}

// Partitions returns the partitions of a device, in lsblk order.
func (m *DiskManager) Partitions(device string) ([]BlockDevice, error) {
	dev, err := m.Describe(device)
	if err != nil {
		return nil, err
	}

	var parts []BlockDevice
	for _, child := range dev.Children {
		if child.Type == "part" {
			parts = append(parts, child)
		}
	}
	return parts, nil
}

// MountedPartitions returns the mount points currently held by any
// partition of a device. A non-empty result means the device is in use.
func (m *DiskManager) MountedPartitions(device string) ([]string, error) {
	dev, err := m.Describe(device)
	if err != nil {
		return nil, err
	}

	var mounted []string
	if dev.MountPoint != "" {
		mounted = append(mounted, dev.MountPoint)
	}
	for _, child := range dev.Children {
		if child.MountPoint != "" {
			mounted = append(mounted, child.MountPoint)
		}
	}
	return mounted, nil
}

// DeviceSize returns the size of a block device in bytes.
func (m *DiskManager) DeviceSize(device string) (uint64, error) {
	dev, err := m.Describe(device)
	if err != nil {
		return 0, err
	}
	return dev.Size, nil
}

// WaitForDevice polls for a device node to appear. Partition nodes of a
// fresh loop device show up asynchronously once udev settles.
func WaitForDevice(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("device %s did not appear within %s", path, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// DefaultContainerName derives a container file name from device identity
// (vendor/model/serial), falling back to the source's base name.
func DefaultContainerName(dev *BlockDevice, source string) string {
	var parts []string
	if dev != nil {
		for _, s := range []string{dev.Vendor, dev.Model, dev.Serial} {
			s = strings.TrimSpace(s)
			if s != "" {
				parts = append(parts, s)
			}
		}
	}

	name := strings.Join(parts, "_")
	if name == "" {
		name = filepath.Base(source)
	}
	name = unsafeNameChars.ReplaceAllString(name, "_")
	return name + ContainerSuffix
}
