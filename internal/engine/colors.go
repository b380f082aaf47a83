package engine

import (
	"os"

	"github.com/fatih/color"
)

// Color helpers for terminal output. Disabled when stderr is not a terminal
// (piped/redirected) or NO_COLOR is set.
var (
	Bold   = color.New(color.Bold, color.FgCyan).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Gray   = color.New(color.FgHiBlack).SprintFunc()
)

func init() {
	if !isTerminal(os.Stderr) {
		color.NoColor = true
	}
}

// isTerminal checks if the file is a terminal (TTY) using Stat.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
