package image

// InnerImageName is the fixed name of the raw disk image stored at the root
// of every container. The builder writes it and the mounter looks it up;
// changing it breaks every container already built.
const InnerImageName = "disk.img"

// ContainerSuffix is appended to derived container file names.
const ContainerSuffix = ".squashdisk"

// Container tracks the resources a mounted container occupies, in the order
// they were created.
type Container struct {
	Path           string // Absolute path to the container file
	OuterLoop      string // Loop device exposing the squashfs (e.g. /dev/loop0)
	MountPoint     string // Where the squashfs is mounted
	InnerLoop      string // Loop device exposing disk.img's partitions
	PartitionDev   string // Selected partition device (e.g. /dev/loop1p2), if any
	PartitionMount string // Where the selected partition is mounted, if any
}
