package main

import (
	"os"
	"sync"

	"github.com/avern/squashdisk/internal/cli"
	"github.com/avern/squashdisk/internal/image"
	"github.com/avern/squashdisk/internal/system"
	"github.com/avern/squashdisk/internal/ui"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	noColor bool
	debug   bool

	ctx  *cli.GlobalContext
	once sync.Once
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "squashdisk",
	Short: "Squashdisk - pack disks into loop-mountable squashfs containers",
	Long: `Squashdisk packs raw disks, partitions, or files into compressed
squashfs containers, mounts them back read-only through a two-level
loopback chain, and can zero the free space of a filesystem before
imaging. It orchestrates standard Linux tools (mksquashfs, udisksctl,
pv, lsblk) rather than reimplementing them.`,
	Version: "0.2.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Update context components with parsed flag values
		once.Do(func() {
			ctx.Executor = system.NewExecutor(debug)
			ctx.Logger = ui.NewLogger(verbose, quiet, noColor)

			ctx.Loops = image.NewLoopManager(ctx.Executor)
			ctx.Mounts = image.NewMountManager(ctx.Executor)
			ctx.Disks = image.NewDiskManager(ctx.Executor)
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (suppress non-error output)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode (show commands)")

	// Create initial context with default values
	// Will be updated in PersistentPreRun with parsed flag values
	ctx = cli.NewGlobalContext(false, false, false, false)

	// Register commands
	rootCmd.AddCommand(cli.NewBuildCommand(ctx))
	rootCmd.AddCommand(cli.NewMountCommand(ctx))
	rootCmd.AddCommand(cli.NewWashCommand(ctx))

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
