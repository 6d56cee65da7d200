package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode selects how results are written to the terminal.
type Mode int

const (
	// ModePlain writes unstyled text: pipes, CI logs, NO_COLOR.
	ModePlain Mode = iota
	// ModeColor styles output with lipgloss.
	ModeColor
)

// DetectMode decides whether output written to f may be styled.
//
// Returns ModePlain if:
//   - GRAPHLOAD_NO_COLOR=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (https://no-color.org)
//   - f is not a terminal
//
// Returns ModeColor otherwise.
func DetectMode(f *os.File) Mode {
	if os.Getenv("GRAPHLOAD_NO_COLOR") == "1" {
		return ModePlain
	}
	if os.Getenv("CI") != "" {
		return ModePlain
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModePlain
	}
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return ModePlain
	}
	return ModeColor
}
