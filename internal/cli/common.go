package cli

import (
	"github.com/avern/squashdisk/internal/image"
	"github.com/avern/squashdisk/internal/system"
	"github.com/avern/squashdisk/internal/ui"
)

// GlobalContext holds shared resources for all commands
type GlobalContext struct {
	Executor system.Runner
	Logger   *ui.Logger
	Loops    *image.LoopManager
	Mounts   *image.MountManager
	Disks    *image.DiskManager
}

// NewGlobalContext creates a new global context
func NewGlobalContext(verbose, quiet, noColor, debug bool) *GlobalContext {
	executor := system.NewExecutor(debug)
	logger := ui.NewLogger(verbose, quiet, noColor)

	return &GlobalContext{
		Executor: executor,
		Logger:   logger,
		Loops:    image.NewLoopManager(executor),
		Mounts:   image.NewMountManager(executor),
		Disks:    image.NewDiskManager(executor),
	}
}

// CheckDependencies checks for required system commands. Each command has
// its own list; nothing here may mutate OS state yet.
func (ctx *GlobalContext) CheckDependencies(deps ...string) error {
	return system.CheckDependencies(deps)
}
