package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopySpecArgvDefaults(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	argv := CopySpec{Source: "/dev/sdb"}.Argv()
	assert.Equal([]string{"pv", "/dev/sdb"}, argv)
}

func TestCopySpecArgvFull(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	spec := CopySpec{
		Tool:       "/opt/bin/pv",
		Source:     "/dev/sdb",
		Size:       1 << 30,
		Buffer:     1 << 20,
		RateLimit:  50 << 20,
		SkipErrors: true,
	}
	assert.Equal([]string{
		"/opt/bin/pv",
		"-B", "1048576",
		"-L", "52428800",
		"-E",
		"-S", "-s", "1073741824",
		"/dev/sdb",
	}, spec.Argv())
}

func TestCopySpecArgvLengthHint(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	// a probed length is display-only: no -S stop bound
	argv := CopySpec{Source: "/dev/sdb", Length: 4096}.Argv()
	assert.Equal([]string{"pv", "-s", "4096", "/dev/sdb"}, argv)
}

func TestCopySpecArgvStdin(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	assert.Equal([]string{"pv"}, CopySpec{Source: "-"}.Argv())
	assert.Equal([]string{"pv"}, CopySpec{}.Argv())
}

func TestCopySpecArgvSudo(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	argv := CopySpec{Source: "/dev/sdb", Sudo: true}.Argv()
	assert.Equal([]string{"sudo", "-n", "pv", "/dev/sdb"}, argv)
}
