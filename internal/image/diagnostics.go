package image

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/avern/squashdisk/internal/system"
)

// Diagnostic is one best-effort capture of device metadata into a text file
// stored next to the disk image inside the container.
type Diagnostic struct {
	Name string   // file name inside the container
	Argv []string // command whose stdout becomes the file content
}

// Diagnostics returns the capture set for a source device. Callers run each
// one in its own error boundary; none of them may abort a build.
func Diagnostics(source string, sudo bool) []Diagnostic {
	diags := []Diagnostic{
		{Name: "partition-table.txt", Argv: []string{"sfdisk", "-d", source}},
		{Name: "fdisk.txt", Argv: []string{"fdisk", "-l", source}},
		{Name: "smart.txt", Argv: []string{"smartctl", "-a", source}},
		{Name: "lsblk.json", Argv: []string{"lsblk", "-O", "-J", source}},
	}
	if sudo {
		for i := range diags {
			diags[i].Argv = system.SudoArgv(diags[i].Argv)
		}
	}
	return diags
}

// Collect runs one diagnostic and writes its output into dir.
func (d Diagnostic) Collect(runner system.Runner, dir string) error {
	output, err := runner.RunOutput(d.Argv[0], d.Argv[1:]...)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, d.Name)
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
