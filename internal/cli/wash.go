package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avern/squashdisk/internal/image"
	"github.com/avern/squashdisk/internal/system"
)

// Free space below the margin plus this much is not worth a write pass.
const minWashWrite = 1 << 20 // 1 MiB

// WashCommand zeroes the free space of every writable partition on a
// device so previously deleted data does not survive into an image.
type WashCommand struct {
	ctx *GlobalContext

	margin string
	noSudo bool
	pvTool string

	// injectable for tests
	freeSpace func(string) (uint64, error)
	canWrite  func(string) bool
	sync      func()

	scratchSeq int
}

// NewWashCommand creates the wash command
func NewWashCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &WashCommand{
		ctx:       ctx,
		freeSpace: system.FreeSpace,
		canWrite:  system.CanWrite,
		sync:      system.SyncFS,
	}

	cobraCmd := &cobra.Command{
		Use:   "wash <device>",
		Short: "Zero the free space of a device's filesystems",
		Long: `For every partition with a known filesystem that is not
read-only: mount it if needed, fill the free space (minus a safety
margin) with zeros through a temporary file, sync, delete the file,
and sync again. Failures on one partition are recorded and the rest
are still processed; the exit status reflects any failure.`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.margin, "margin", "128Mi", "Free space to leave untouched")
	cobraCmd.Flags().BoolVarP(&cmd.noSudo, "no-sudo", "n", false, "Never escalate privileges")
	cobraCmd.Flags().StringVar(&cmd.pvTool, "pv", "pv", "Path to the pv tool")

	return cobraCmd
}

// Run executes the wash command
func (c *WashCommand) Run(cmd *cobra.Command, args []string) error {
	device := args[0]
	if _, err := os.Stat(device); err != nil {
		return fmt.Errorf("device not accessible: %w", err)
	}

	marginBytes, err := system.ParseSize(c.margin)
	if err != nil {
		return err
	}

	if err := c.ctx.CheckDependencies("udisksctl", "lsblk", c.pvTool); err != nil {
		return err
	}

	return c.execute(device, marginBytes)
}

func (c *WashCommand) execute(device string, margin uint64) error {
	parts, err := c.ctx.Disks.Partitions(device)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		c.ctx.Logger.Info("No partitions on %s, nothing to wash", device)
		return nil
	}

	failed := 0
	for _, p := range parts {
		if p.FSType == "" {
			c.ctx.Logger.Debug("Skipping %s: no recognizable filesystem", p.Path)
			continue
		}
		if p.ReadOnly {
			c.ctx.Logger.Info("Skipping %s: read-only", p.Path)
			continue
		}
		if err := c.washPartition(p, margin); err != nil {
			c.ctx.Logger.Error("Washing %s failed: %v", p.Path, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("washing failed on %d of %d partitions", failed, len(parts))
	}
	c.ctx.Logger.Success("Washed all partitions on %s", device)
	return nil
}

func (c *WashCommand) washPartition(p image.BlockDevice, margin uint64) error {
	mountPoint := p.MountPoint
	mountedHere := false
	if mountPoint == "" {
		m, err := c.ctx.Mounts.Mount(p.Path, false)
		if err != nil {
			return err
		}
		mountPoint = m
		mountedHere = true
	}
	defer func() {
		// Only unmount what this run mounted.
		if mountedHere {
			if err := c.ctx.Mounts.Unmount(p.Path); err != nil {
				c.ctx.Logger.Warning("Failed to unmount %s: %v", p.Path, err)
			}
		}
	}()

	free, err := c.freeSpace(mountPoint)
	if err != nil {
		return err
	}
	if free <= margin || free-margin < minWashWrite {
		c.ctx.Logger.Info("Skipping %s: only %s free (margin %s)",
			p.Path, system.FormatSize(free), system.FormatSize(margin))
		return nil
	}
	target := free - margin

	c.scratchSeq++
	scratch := filepath.Join(mountPoint,
		fmt.Sprintf(".squashdisk-wash-%d-%d", os.Getpid(), c.scratchSeq))
	sudo := !c.noSudo && !c.canWrite(mountPoint)

	spec := image.CopySpec{
		Tool:   c.pvTool,
		Source: "/dev/zero",
		Size:   target,
	}

	c.ctx.Logger.Info("Zeroing %s of free space on %s...",
		system.FormatSize(target), p.Path)
	if sudo {
		argv := system.SudoArgv(system.ShellRedirect(spec.Argv(), scratch))
		if err := c.ctx.Executor.RunPassthrough(exec.Command(argv[0], argv[1:]...)); err != nil {
			// The redirect already created a root-owned file that may
			// hold all the free space; best effort to take it back.
			if rmErr := c.ctx.Executor.Run("sudo", "-n", "rm", "-f", scratch); rmErr != nil {
				c.ctx.Logger.Warning("Failed to remove scratch file %s: %v", scratch, rmErr)
			}
			return err
		}
	} else {
		f, err := os.OpenFile(scratch, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to create scratch file: %w", err)
		}
		argv := spec.Argv()
		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Stdout = f
		runErr := c.ctx.Executor.RunPassthrough(cmd)
		f.Close()
		if runErr != nil {
			os.Remove(scratch)
			return runErr
		}
	}

	// Sync the zeros to disk, delete, then sync again so the deletion is
	// durable and the blocks really return to the free pool.
	c.sync()
	if sudo {
		if err := c.ctx.Executor.Run("sudo", "-n", "rm", "-f", scratch); err != nil {
			return err
		}
	} else if err := os.Remove(scratch); err != nil {
		return fmt.Errorf("failed to remove scratch file: %w", err)
	}
	c.sync()

	return nil
}
