package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoopAttach(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := newFakeRunner()
	runner.outputs["udisksctl loop-setup --no-user-interaction -r -f /srv/a.squashdisk"] =
		"Mapped file /srv/a.squashdisk as /dev/loop4.\n"

	dev, err := NewLoopManager(runner).Attach("/srv/a.squashdisk")
	assert.NoError(err)
	assert.Equal("/dev/loop4", dev)
}

func TestLoopDetach(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := newFakeRunner()
	assert.NoError(NewLoopManager(runner).Detach("/dev/loop4"))
	assert.Equal([]string{"udisksctl loop-delete --no-user-interaction -b /dev/loop4"}, runner.calls)
}

func TestMountReadOnly(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := newFakeRunner()
	runner.outputs["udisksctl mount --no-user-interaction -b /dev/loop4 -o ro"] =
		"Mounted /dev/loop4 at /run/media/user/container\n"

	mnt, err := NewMountManager(runner).Mount("/dev/loop4", true)
	assert.NoError(err)
	assert.Equal("/run/media/user/container", mnt)
}

func TestMountReadWrite(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := newFakeRunner()
	runner.outputs["udisksctl mount --no-user-interaction -b /dev/sdb2"] =
		"Mounted /dev/sdb2 at /run/media/user/data."

	mnt, err := NewMountManager(runner).Mount("/dev/sdb2", false)
	assert.NoError(err)
	assert.Equal("/run/media/user/data", mnt)
}

func TestUnmount(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	runner := newFakeRunner()
	assert.NoError(NewMountManager(runner).Unmount("/dev/loop4"))
	assert.Equal([]string{"udisksctl unmount --no-user-interaction -b /dev/loop4"}, runner.calls)
}
