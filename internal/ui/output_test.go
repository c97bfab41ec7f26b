package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionTableAlignment(t *testing.T) {
	assert := assert.New(t)

	table := NewPartitionTable()
	table.AddDevice("/dev/loop0p1", "512 MiB", "vfat", "EFI")
	table.AddDevice("/dev/loop0p2", "29 GiB", "ext4", "")

	assert.Equal(
		"NAME             SIZE  FSTYPE  LABEL\n"+
			"/dev/loop0p1  512 MiB  vfat    EFI\n"+
			"/dev/loop0p2   29 GiB  ext4    \n",
		table.Render())
}

func TestPartitionTableEmpty(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(NewPartitionTable().Render())
}
