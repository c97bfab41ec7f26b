package ui

import (
	"fmt"
	"strings"
)

var partitionHeaders = [4]string{"NAME", "SIZE", "FSTYPE", "LABEL"}

// sizeColumn is right-aligned so values line up at the units.
const sizeColumn = 1

// PartitionTable lists the partitions of a block device on stdout, one
// row per partition.
type PartitionTable struct {
	rows [][4]string
}

// NewPartitionTable creates an empty partition listing
func NewPartitionTable() *PartitionTable {
	return &PartitionTable{}
}

// AddDevice appends one partition row
func (t *PartitionTable) AddDevice(path, size, fstype, label string) {
	t.rows = append(t.rows, [4]string{path, size, fstype, label})
}

// Render formats the listing. Empty tables render to nothing, so a device
// without partitions produces no stdout noise.
func (t *PartitionTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	var widths [4]int
	for i, h := range partitionHeaders {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(row [4]string) {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == sizeColumn {
				fmt.Fprintf(&b, "%*s", widths[i], cell)
			} else if i == len(row)-1 {
				b.WriteString(cell)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i], cell)
			}
		}
		b.WriteByte('\n')
	}

	writeRow(partitionHeaders)
	for _, row := range t.rows {
		writeRow(row)
	}
	return b.String()
}

// Print writes the listing to stdout
func (t *PartitionTable) Print() {
	fmt.Print(t.Render())
}
