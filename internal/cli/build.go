package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avern/squashdisk/internal/image"
	"github.com/avern/squashdisk/internal/system"
)

// BuildCommand packs a disk, partition, file, or stdin into a container.
type BuildCommand struct {
	ctx *GlobalContext

	force     bool
	noSudo    bool
	size      string
	buffer    string
	rateLimit string
	comp      string
	output    string
	outputDir string
	include   string
	owner     string
	mode      string
	pvTool    string
	mksqTool  string
}

// NewBuildCommand creates the build command
func NewBuildCommand(ctx *GlobalContext) *cobra.Command {
	cmd := &BuildCommand{ctx: ctx}

	cobraCmd := &cobra.Command{
		Use:   "build <source>",
		Short: "Pack a disk or file into a squashfs container",
		Long: `Read a block device, regular file, or stdin ("-") through a
rate-limited copy and store it as the single disk.img entry of a new
compressed squashfs container, together with best-effort diagnostic
dumps of the source device.`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().BoolVarP(&cmd.force, "force", "f", false, "Bypass the mounted-partition check and skip unreadable regions")
	cobraCmd.Flags().BoolVarP(&cmd.noSudo, "no-sudo", "n", false, "Never escalate privileges")
	cobraCmd.Flags().StringVarP(&cmd.size, "size", "s", "0", "Read at most this many bytes (0 = unlimited)")
	cobraCmd.Flags().StringVarP(&cmd.buffer, "buffer", "B", "1Mi", "Copy buffer size")
	cobraCmd.Flags().StringVarP(&cmd.rateLimit, "rate-limit", "L", "0", "Copy rate limit per second (0 = none)")
	cobraCmd.Flags().StringVarP(&cmd.comp, "comp", "c", "zstd", "Compressor algorithm")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "", "Output container file")
	cobraCmd.Flags().StringVarP(&cmd.outputDir, "output-dir", "d", "", "Directory for the derived output name")
	cobraCmd.Flags().StringVarP(&cmd.include, "include", "i", "", "Extra directory tree merged into the container root")
	cobraCmd.Flags().StringVar(&cmd.owner, "owner", "0:0", "Ownership of disk.img (user[:group], name or id)")
	cobraCmd.Flags().StringVar(&cmd.mode, "mode", "444", "Permission bits of disk.img (octal)")
	cobraCmd.Flags().StringVar(&cmd.pvTool, "pv", "pv", "Path to the pv tool")
	cobraCmd.Flags().StringVar(&cmd.mksqTool, "mksquashfs", "mksquashfs", "Path to the mksquashfs tool")

	return cobraCmd
}

// Run executes the build command
func (c *BuildCommand) Run(cmd *cobra.Command, args []string) error {
	source := args[0]

	if c.output != "" && c.outputDir != "" {
		return fmt.Errorf("--output and --output-dir are mutually exclusive")
	}

	sizeBytes, err := system.ParseSize(c.size)
	if err != nil {
		return err
	}
	bufferBytes, err := system.ParseSize(c.buffer)
	if err != nil {
		return err
	}
	rateBytes, err := system.ParseSize(c.rateLimit)
	if err != nil {
		return err
	}

	modeBits, err := strconv.ParseUint(strings.TrimPrefix(c.mode, "0"), 8, 32)
	if err != nil || modeBits > 0777 {
		return fmt.Errorf("invalid mode %q (expect octal permission bits)", c.mode)
	}
	uid, gid, err := system.ResolveOwner(c.owner)
	if err != nil {
		return err
	}

	if err := c.ctx.CheckDependencies("lsblk", c.pvTool, c.mksqTool); err != nil {
		return err
	}

	squash := image.NewSquashManager(c.ctx.Executor, c.mksqTool)
	if err := squash.CheckVersion(); err != nil {
		return err
	}

	stdin := source == "-"
	isDevice := false
	var dev *image.BlockDevice

	if stdin {
		if c.output == "" {
			return fmt.Errorf("reading from stdin requires --output")
		}
	} else {
		abs, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("invalid source path: %w", err)
		}
		source = abs
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("source not accessible: %w", err)
		}
		isDevice, err = system.IsBlockDevice(source)
		if err != nil {
			return err
		}
	}

	if isDevice {
		dev, err = c.ctx.Disks.Describe(source)
		if err != nil {
			return err
		}
		if !c.force {
			mounted, err := c.ctx.Disks.MountedPartitions(source)
			if err != nil {
				return err
			}
			if len(mounted) > 0 {
				return fmt.Errorf("%s has mounted partitions (%s); unmount them or use --force",
					source, strings.Join(mounted, ", "))
			}
		}
	}

	sudo := false
	if !stdin && !system.CanRead(source) {
		if c.noSudo {
			return fmt.Errorf("cannot read %s and escalation is disabled", source)
		}
		c.ctx.Logger.Info("Source %s is not readable, escalating the copy", source)
		sudo = true
	}

	// Without an explicit size bound, probe the source length. This only
	// improves the progress display; failure to learn it is fine.
	var length uint64
	if sizeBytes == 0 && !stdin {
		if dev != nil {
			length = dev.Size
		} else if sz, err := system.FileSize(source); err == nil {
			length = sz
		}
	}

	output := c.output
	if output == "" {
		dir := c.outputDir
		if dir == "" {
			dir = "."
		}
		output = filepath.Join(dir, image.DefaultContainerName(dev, source))
	}

	return c.execute(source, output, buildParams{
		isDevice: isDevice,
		sudo:     sudo,
		size:     sizeBytes,
		length:   length,
		buffer:   bufferBytes,
		rate:     rateBytes,
		mode:     os.FileMode(modeBits),
		uid:      uid,
		gid:      gid,
	}, squash)
}

type buildParams struct {
	isDevice bool
	sudo     bool
	size     uint64
	length   uint64
	buffer   uint64
	rate     uint64
	mode     os.FileMode
	uid      uint32
	gid      uint32
}

func (c *BuildCommand) execute(source, output string, p buildParams, squash *image.SquashManager) error {
	staging, err := os.MkdirTemp("", "squashdisk-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if p.isDevice {
		for _, d := range image.Diagnostics(source, p.sudo) {
			if err := d.Collect(c.ctx.Executor, staging); err != nil {
				c.ctx.Logger.Debug("Diagnostic %s skipped: %v", d.Name, err)
			}
		}
	}

	copySpec := image.CopySpec{
		Tool:       c.pvTool,
		Source:     source,
		Size:       p.size,
		Length:     p.length,
		Buffer:     p.buffer,
		RateLimit:  p.rate,
		SkipErrors: c.force,
		Sudo:       p.sudo,
	}

	sources := []string{staging}
	if c.include != "" {
		info, err := os.Stat(c.include)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("include path %s is not a directory", c.include)
		}
		sources = append(sources, c.include)
	}

	opts := image.BuildOptions{
		Sources:    sources,
		Output:     output,
		Compressor: c.comp,
		Pseudo: []image.PseudoFile{{
			Name:    image.InnerImageName,
			Mode:    p.mode,
			UID:     p.uid,
			GID:     p.gid,
			Command: copySpec.Argv(),
		}},
		ForceUID: p.uid,
		ForceGID: p.gid,
		Progress: term.IsTerminal(int(os.Stderr.Fd())),
	}

	// From here on interrupts are deliberately not trapped: mksquashfs
	// removes its partial output on signal, and cutting that short would
	// leave a truncated container behind.
	c.ctx.Logger.Info("Building %s...", output)
	if err := squash.Build(opts); err != nil {
		return err
	}

	if sz, err := system.FileSize(output); err == nil {
		c.ctx.Logger.Success("Built %s (%s)", output, system.FormatSize(sz))
	} else {
		c.ctx.Logger.Success("Built %s", output)
	}
	return nil
}
