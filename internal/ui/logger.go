package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Logger provides color-coded logging on stderr. Machine-readable output
// (device paths, tables) goes to stdout elsewhere; everything here is for
// humans, so callers can parse stdout without filtering log lines out.
type Logger struct {
	Verbose bool
	Quiet   bool

	info    *color.Color
	success *color.Color
	warning *color.Color
	errc    *color.Color
	debug   *color.Color
}

// NewLogger creates a new logger. Color is dropped when asked to, or when
// stderr is not a terminal.
func NewLogger(verbose, quiet, noColor bool) *Logger {
	if noColor || !term.IsTerminal(int(os.Stderr.Fd())) {
		color.NoColor = true
	}

	return &Logger{
		Verbose: verbose,
		Quiet:   quiet,
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		errc:    color.New(color.FgRed),
		debug:   color.New(color.FgCyan),
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.log(l.info, "[INFO] ", format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.log(l.success, "[SUCCESS] ", format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(l.warning, "[WARNING] ", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(l.errc, "[ERROR] ", format, args...)
}

// Debug logs a debug message (only if verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.log(l.debug, "[DEBUG] ", format, args...)
}

func (l *Logger) log(c *color.Color, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, c.Sprint(prefix+msg))
}
