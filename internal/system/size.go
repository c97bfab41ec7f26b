package system

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize converts a size string to bytes. Decimal suffixes are powers of
// 1000 (1K = 1000), binary suffixes powers of 1024 (1Ki = 1024), matching
// numfmt --from=auto.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q (use formats like 500, 10K, 1Mi, 2G): %w", s, err)
	}
	return n, nil
}

// FormatSize converts bytes to a human-readable binary-suffix string.
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}
