package output

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Release state colors
	Released = color.New(color.FgGreen)
	Pending  = color.New(color.FgYellow)
	Stale    = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)

	Header = color.New(color.FgWhite, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// StateColor returns the color for a release state label
func StateColor(state string) *color.Color {
	switch state {
	case "released":
		return Released
	case "pending":
		return Pending
	case "stale":
		return Stale
	default:
		return color.New(color.Reset)
	}
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}
