package image

import (
	"fmt"
	"os/exec"
	"strings"
)

// fakeRunner scripts subprocess output by exact command line and records
// every call in order.
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: make(map[string]string)}
}

func (r *fakeRunner) record(name string, args []string) string {
	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, key)
	return key
}

func (r *fakeRunner) Run(name string, args ...string) error {
	r.record(name, args)
	return nil
}

func (r *fakeRunner) RunOutput(name string, args ...string) (string, error) {
	key := r.record(name, args)
	if out, ok := r.outputs[key]; ok {
		return out, nil
	}
	return "", fmt.Errorf("unexpected command: %s", key)
}

func (r *fakeRunner) RunCmd(cmd *exec.Cmd) (string, error) {
	return r.RunOutput(cmd.Args[0], cmd.Args[1:]...)
}

func (r *fakeRunner) RunPassthrough(cmd *exec.Cmd) error {
	r.record(cmd.Args[0], cmd.Args[1:])
	return nil
}
