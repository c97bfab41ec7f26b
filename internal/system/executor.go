package system

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Runner is the subprocess seam shared by all managers. The concrete
// Executor runs real commands; tests substitute a recording mock.
type Runner interface {
	Run(name string, args ...string) error
	RunOutput(name string, args ...string) (string, error)
	RunCmd(cmd *exec.Cmd) (string, error)
	RunPassthrough(cmd *exec.Cmd) error
}

// Executor handles execution of external commands
type Executor struct {
	debug bool
}

// NewExecutor creates a new executor
func NewExecutor(debug bool) *Executor {
	return &Executor{
		debug: debug,
	}
}

// Run executes a command and discards output
func (e *Executor) Run(name string, args ...string) error {
	_, err := e.RunOutput(name, args...)
	return err
}

// RunOutput executes a command and returns stdout
func (e *Executor) RunOutput(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	return e.RunCmd(cmd)
}

// RunCmd executes a prepared command
func (e *Executor) RunCmd(cmd *exec.Cmd) (string, error) {
	if e.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] Executing: %s\n", cmd.String())
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w\nStderr: %s",
			cmd.Args[0], err, stderr.String())
	}

	return stdout.String(), nil
}

// RunPassthrough executes a prepared command with stderr attached to the
// terminal, for tools that paint their own progress (pv, mksquashfs).
// Stdin and stdout are only attached when the caller has not redirected
// them already; stdin must flow through or packing from "-" reads nothing.
func (e *Executor) RunPassthrough(cmd *exec.Cmd) error {
	if e.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] Executing: %s\n", cmd.String())
	}

	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", cmd.Args[0], err)
	}
	return nil
}

// ShellRedirect wraps an argument vector in "sh -c '... > path'". This is
// the one place an argv is flattened into shell text; everything stays
// quoted through shellquote so paths with spaces survive.
func ShellRedirect(argv []string, path string) []string {
	return []string{"sh", "-c", shellquote.Join(argv...) + " > " + shellquote.Join(path)}
}

// CommandExists checks if a command is available in PATH. Names containing
// a slash are treated as explicit paths, so tool-override flags work too.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CheckDependencies verifies required commands are available
func CheckDependencies(deps []string) error {
	var missing []string
	for _, dep := range deps {
		if !CommandExists(dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required commands: %s",
			strings.Join(missing, ", "))
	}
	return nil
}
