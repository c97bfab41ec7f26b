package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avern/squashdisk/internal/image"
	"github.com/avern/squashdisk/internal/system"
	"github.com/avern/squashdisk/internal/ui"
)

// MountCommand exposes a container through a two-level loopback chain and
// holds it open until signalled.
type MountCommand struct {
	ctx *GlobalContext

	// how long to wait for partition device nodes to appear after the
	// inner loop attach
	deviceTimeout time.Duration
}

// NewMountCommand creates the mount command
func NewMountCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &MountCommand{ctx: ctx, deviceTimeout: 5 * time.Second}

	cobraCmd := &cobra.Command{
		Use:   "mount <container> [partition]",
		Short: "Mount a squashdisk container read-only",
		Long: `Attach a container as a loop device, mount the squashfs inside,
attach the embedded disk.img as a second loop device, and optionally
mount one of its partitions. Device and mount paths are printed on
stdout as they appear; the command then blocks until interrupted and
releases everything in reverse order.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: cmd.Run,
	}

	return cobraCmd
}

// Run executes the mount command
func (c *MountCommand) Run(cmd *cobra.Command, args []string) error {
	container, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid container path: %w", err)
	}
	if _, err := os.Stat(container); err != nil {
		return fmt.Errorf("container not accessible: %w", err)
	}

	// -1 means no partition requested; 0 selects the whole inner device.
	partition := -1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return fmt.Errorf("partition must be a non-negative integer, got %q", args[1])
		}
		partition = n
	}

	if err := c.ctx.CheckDependencies("udisksctl", "lsblk"); err != nil {
		return err
	}

	return c.execute(container, partition)
}

func (c *MountCommand) execute(container string, partition int) error {
	// Notify must outlive the cleanup below (defers run newest first):
	// a second signal arriving during the multi-step teardown has to land
	// in the buffered channel, not kill the process mid-unwind.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// The same one-shot stack serves the error paths (via this defer)
	// and the signal path (via the blocking receive below).
	cleanup := system.NewCleanupStack()
	defer func() {
		if err := cleanup.Execute(); err != nil {
			c.ctx.Logger.Warning("Cleanup errors occurred: %v", err)
		}
	}()

	cont := &image.Container{Path: container}
	var err error

	// Step 1: attach the container as a read-only loop device
	c.ctx.Logger.Info("Attaching container...")
	cont.OuterLoop, err = c.ctx.Loops.Attach(cont.Path)
	if err != nil {
		return err
	}
	cleanup.Add(func() error {
		return c.ctx.Loops.Detach(cont.OuterLoop)
	})
	fmt.Println(cont.OuterLoop)

	// Step 2: mount the squashfs
	c.ctx.Logger.Info("Mounting container filesystem...")
	cont.MountPoint, err = c.ctx.Mounts.Mount(cont.OuterLoop, true)
	if err != nil {
		return err
	}
	cleanup.Add(func() error {
		return c.ctx.Mounts.Unmount(cont.OuterLoop)
	})
	fmt.Println(cont.MountPoint)

	// Step 3: attach the inner disk image
	innerPath := filepath.Join(cont.MountPoint, image.InnerImageName)
	if _, err := os.Stat(innerPath); err != nil {
		return fmt.Errorf("not a squashdisk container, %s is missing: %w", image.InnerImageName, err)
	}
	c.ctx.Logger.Info("Attaching inner disk image...")
	cont.InnerLoop, err = c.ctx.Loops.Attach(innerPath)
	if err != nil {
		return err
	}
	cleanup.Add(func() error {
		return c.ctx.Loops.Detach(cont.InnerLoop)
	})
	fmt.Println(cont.InnerLoop)

	if partition >= 0 {
		// Step 4: mount the requested partition
		cont.PartitionDev = image.PartitionDevice(cont.InnerLoop, partition)
		if cont.PartitionDev != cont.InnerLoop {
			if err := image.WaitForDevice(cont.PartitionDev, c.deviceTimeout); err != nil {
				return fmt.Errorf("no partition %d on %s: %w", partition, cont.InnerLoop, err)
			}
		}
		c.ctx.Logger.Info("Mounting partition %d...", partition)
		cont.PartitionMount, err = c.ctx.Mounts.Mount(cont.PartitionDev, true)
		if err != nil {
			return err
		}
		cleanup.Add(func() error {
			return c.ctx.Mounts.Unmount(cont.PartitionDev)
		})
		fmt.Println(cont.PartitionDev)
		fmt.Println(cont.PartitionMount)
	} else {
		parts, err := c.ctx.Disks.Partitions(cont.InnerLoop)
		if err != nil {
			c.ctx.Logger.Warning("Could not list partitions of %s: %v", cont.InnerLoop, err)
		} else if len(parts) > 0 {
			table := ui.NewPartitionTable()
			for _, p := range parts {
				table.AddDevice(p.Path, system.FormatSize(p.Size), p.FSType, p.Label)
			}
			table.Print()
		}
	}

	c.ctx.Logger.Success("Container mounted; press Ctrl-C to release")
	<-sigs

	c.ctx.Logger.Info("Releasing mounts...")
	return nil
}
