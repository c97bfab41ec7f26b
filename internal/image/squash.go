package image

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/kballard/go-shellquote"

	"github.com/avern/squashdisk/internal/system"
)

// MinMksquashfsVersion is the oldest mksquashfs whose pseudo-file and
// ownership handling covers everything the builder emits.
const MinMksquashfsVersion = "4.4"

// PseudoFile is a filesystem entry whose content comes from the stdout of a
// command instead of a real source file.
type PseudoFile struct {
	Name    string
	Mode    os.FileMode
	UID     uint32
	GID     uint32
	Command []string
}

// Directive serializes the entry into mksquashfs -p form. The command part
// is run by mksquashfs through the shell, so the argv is joined with full
// quoting here and nowhere else.
func (p PseudoFile) Directive() string {
	return fmt.Sprintf("%s f %o %d %d %s",
		p.Name, p.Mode.Perm(), p.UID, p.GID, shellquote.Join(p.Command...))
}

// BuildOptions collects everything one mksquashfs invocation needs.
type BuildOptions struct {
	Sources    []string // source trees merged into the container root
	Output     string
	Compressor string // empty selects the mksquashfs default
	Pseudo     []PseudoFile
	ForceUID   uint32 // ownership forced on the root and all entries
	ForceGID   uint32
	Progress   bool
}

// SquashManager wraps the external filesystem builder.
type SquashManager struct {
	runner system.Runner
	tool   string
}

// NewSquashManager creates a new squash manager. tool may be a bare command
// name or an explicit path.
func NewSquashManager(runner system.Runner, tool string) *SquashManager {
	if tool == "" {
		tool = "mksquashfs"
	}
	return &SquashManager{
		runner: runner,
		tool:   tool,
	}
}

// Version queries the tool's version.
// First output line: "mksquashfs version 4.5.1 (2022/03/17)"
func (m *SquashManager) Version() (*goversion.Version, error) {
	output, err := m.runner.RunOutput(m.tool, "-version")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s version: %w", m.tool, err)
	}
	return ParseMksquashfsVersion(output)
}

// ParseMksquashfsVersion extracts the version from mksquashfs -version output.
func ParseMksquashfsVersion(output string) (*goversion.Version, error) {
	fields := strings.Fields(output)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			v, err := goversion.NewVersion(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("unparseable mksquashfs version %q: %w", fields[i+1], err)
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("no version in mksquashfs output: %q", strings.TrimSpace(output))
}

// CheckVersion fails when the tool is older than MinMksquashfsVersion.
func (m *SquashManager) CheckVersion() error {
	v, err := m.Version()
	if err != nil {
		return err
	}
	min := goversion.Must(goversion.NewVersion(MinMksquashfsVersion))
	if v.LessThan(min) {
		return fmt.Errorf("%s is version %s, need at least %s", m.tool, v, min)
	}
	return nil
}

// Build runs the filesystem builder. Progress output goes straight to the
// caller's terminal; interrupt handling is left to mksquashfs itself so its
// own cleanup semantics apply.
func (m *SquashManager) Build(opts BuildOptions) error {
	if len(opts.Sources) == 0 {
		return fmt.Errorf("no source trees to pack")
	}
	if opts.Output == "" {
		return fmt.Errorf("no output path")
	}

	args := append([]string{}, opts.Sources...)
	args = append(args, opts.Output, "-noappend")
	if opts.Compressor != "" {
		args = append(args, "-comp", opts.Compressor)
	}
	for _, p := range opts.Pseudo {
		args = append(args, "-p", p.Directive())
	}
	args = append(args,
		"-force-uid", strconv.FormatUint(uint64(opts.ForceUID), 10),
		"-force-gid", strconv.FormatUint(uint64(opts.ForceGID), 10))
	if !opts.Progress {
		args = append(args, "-no-progress")
	}

	return m.runner.RunPassthrough(exec.Command(m.tool, args...))
}
