// Package ui provides terminal output helpers for the pagelight CLI.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// Init applies global color settings for the process.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Success prints a green confirmation line.
func Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning line.
func Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf("⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints a cyan informational line.
func Info(format string, args ...interface{}) {
	color.New(color.FgCyan).Printf("ℹ %s\n", fmt.Sprintf(format, args...))
}

// Header prints a bold section title.
func Header(title string) {
	color.New(color.FgMagenta, color.Bold).Printf("━━━ %s ━━━\n", title)
}
