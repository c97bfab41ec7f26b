package cli

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avern/squashdisk/internal/image"
	"github.com/avern/squashdisk/internal/system"
	"github.com/avern/squashdisk/internal/ui"
)

func testContext(runner system.Runner) *GlobalContext {
	return &GlobalContext{
		Executor: runner,
		Logger:   ui.NewLogger(false, true, true),
		Loops:    image.NewLoopManager(runner),
		Mounts:   image.NewMountManager(runner),
		Disks:    image.NewDiskManager(runner),
	}
}

// A partition index that does not exist on the inner image must produce an
// operational error and unwind both loop attachments in reverse order.
func TestMountMissingPartitionTearsDown(t *testing.T) {
	assert := assert.New(t)

	outerMount := t.TempDir()
	container := filepath.Join(t.TempDir(), "disk.squashdisk")
	assert.NoError(os.WriteFile(container, []byte("hsqs"), 0644))
	inner := filepath.Join(outerMount, image.InnerImageName)
	assert.NoError(os.WriteFile(inner, nil, 0644))

	runner := newFakeRunner()
	runner.outputs["udisksctl loop-setup --no-user-interaction -r -f "+container] =
		"Mapped file " + container + " as /dev/loop990.\n"
	runner.outputs["udisksctl mount --no-user-interaction -b /dev/loop990 -o ro"] =
		"Mounted /dev/loop990 at " + outerMount + "\n"
	runner.outputs["udisksctl loop-setup --no-user-interaction -r -f "+inner] =
		"Mapped file " + inner + " as /dev/loop991.\n"

	cmd := &MountCommand{ctx: testContext(runner), deviceTimeout: 50 * time.Millisecond}
	err := cmd.execute(container, 3)
	assert.Error(err)
	assert.Contains(err.Error(), "no partition 3")

	// three setup calls, then teardown of exactly what was created,
	// newest first
	assert.Equal([]string{
		"udisksctl loop-setup --no-user-interaction -r -f " + container,
		"udisksctl mount --no-user-interaction -b /dev/loop990 -o ro",
		"udisksctl loop-setup --no-user-interaction -r -f " + inner,
		"udisksctl loop-delete --no-user-interaction -b /dev/loop991",
		"udisksctl unmount --no-user-interaction -b /dev/loop990",
		"udisksctl loop-delete --no-user-interaction -b /dev/loop990",
	}, runner.calls)
}

// slowTeardownRunner stretches every plain Run call (the teardown path)
// so signals can be delivered while the unwind is in flight.
type slowTeardownRunner struct {
	*fakeRunner
	delay time.Duration
}

func (r *slowTeardownRunner) Run(name string, args ...string) error {
	time.Sleep(r.delay)
	return r.fakeRunner.Run(name, args...)
}

// A second termination signal arriving while the unwind is still running
// must be absorbed, not kill the process and leak the loop devices.
func TestMountSecondSignalDuringTeardown(t *testing.T) {
	assert := assert.New(t)

	outerMount := t.TempDir()
	container := filepath.Join(t.TempDir(), "disk.squashdisk")
	assert.NoError(os.WriteFile(container, []byte("hsqs"), 0644))
	inner := filepath.Join(outerMount, image.InnerImageName)
	assert.NoError(os.WriteFile(inner, nil, 0644))

	fake := newFakeRunner()
	fake.outputs["udisksctl loop-setup --no-user-interaction -r -f "+container] =
		"Mapped file " + container + " as /dev/loop990.\n"
	fake.outputs["udisksctl mount --no-user-interaction -b /dev/loop990 -o ro"] =
		"Mounted /dev/loop990 at " + outerMount + "\n"
	fake.outputs["udisksctl loop-setup --no-user-interaction -r -f "+inner] =
		"Mapped file " + inner + " as /dev/loop991.\n"
	runner := &slowTeardownRunner{fakeRunner: fake, delay: 100 * time.Millisecond}

	cmd := &MountCommand{ctx: testContext(runner), deviceTimeout: 50 * time.Millisecond}

	go func() {
		time.Sleep(100 * time.Millisecond)
		syscall.Kill(os.Getpid(), syscall.SIGINT)
		// lands mid-unwind: three release calls take 300ms
		time.Sleep(150 * time.Millisecond)
		syscall.Kill(os.Getpid(), syscall.SIGINT)
	}()

	assert.NoError(cmd.execute(container, -1))

	assert.Equal([]string{
		"udisksctl loop-setup --no-user-interaction -r -f " + container,
		"udisksctl mount --no-user-interaction -b /dev/loop990 -o ro",
		"udisksctl loop-setup --no-user-interaction -r -f " + inner,
		"lsblk -J -b -o NAME,PATH,SIZE,TYPE,FSTYPE,LABEL,RO,MOUNTPOINT,VENDOR,MODEL,SERIAL /dev/loop991",
		"udisksctl loop-delete --no-user-interaction -b /dev/loop991",
		"udisksctl unmount --no-user-interaction -b /dev/loop990",
		"udisksctl loop-delete --no-user-interaction -b /dev/loop990",
	}, fake.calls)
}

// A failure before any resource exists must not run any teardown.
func TestMountAttachFailureNoTeardown(t *testing.T) {
	assert := assert.New(t)

	runner := newFakeRunner() // no scripted outputs: loop-setup fails
	cmd := &MountCommand{ctx: testContext(runner), deviceTimeout: 50 * time.Millisecond}

	err := cmd.execute("/nonexistent.squashdisk", -1)
	assert.Error(err)
	assert.Len(runner.calls, 1)
}

// A container whose squashfs lacks the disk.img entry is rejected, and the
// outer loop and mount are released.
func TestMountRejectsForeignContainer(t *testing.T) {
	assert := assert.New(t)

	outerMount := t.TempDir() // deliberately empty: no disk.img
	container := filepath.Join(t.TempDir(), "other.squashfs")
	assert.NoError(os.WriteFile(container, []byte("hsqs"), 0644))

	runner := newFakeRunner()
	runner.outputs["udisksctl loop-setup --no-user-interaction -r -f "+container] =
		"Mapped file " + container + " as /dev/loop990.\n"
	runner.outputs["udisksctl mount --no-user-interaction -b /dev/loop990 -o ro"] =
		"Mounted /dev/loop990 at " + outerMount + "\n"

	cmd := &MountCommand{ctx: testContext(runner), deviceTimeout: 50 * time.Millisecond}
	err := cmd.execute(container, -1)
	assert.Error(err)
	assert.Contains(err.Error(), image.InnerImageName)

	assert.Equal([]string{
		"udisksctl loop-setup --no-user-interaction -r -f " + container,
		"udisksctl mount --no-user-interaction -b /dev/loop990 -o ro",
		"udisksctl unmount --no-user-interaction -b /dev/loop990",
		"udisksctl loop-delete --no-user-interaction -b /dev/loop990",
	}, runner.calls)
}
