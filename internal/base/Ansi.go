package base

import "os"

type AnsiCode string

var enableAnsiColor bool = true

func SetEnableAnsiColor(enabled bool) {
	enableAnsiColor = enabled
}

func (x AnsiCode) String() string {
	if enableAnsiColor {
		return (string)(x)
	}
	return ""
}

// https://gist.github.com/fnky/458719343aabd01cfb17a3a4f7296797

const (
	ANSI_RESET AnsiCode = "\033[0m"
	ANSI_BOLD  AnsiCode = "\033[1m"
	ANSI_FAINT AnsiCode = "\033[2m"

	ANSI_FG0_RED     AnsiCode = "\033[31m"
	ANSI_FG0_GREEN   AnsiCode = "\033[32m"
	ANSI_FG0_YELLOW  AnsiCode = "\033[33m"
	ANSI_FG0_BLUE    AnsiCode = "\033[34m"
	ANSI_FG0_MAGENTA AnsiCode = "\033[35m"
	ANSI_FG0_CYAN    AnsiCode = "\033[36m"
	ANSI_FG1_RED     AnsiCode = "\033[31;1m"
	ANSI_FG1_GREEN   AnsiCode = "\033[32;1m"
	ANSI_FG1_MAGENTA AnsiCode = "\033[35;1m"
	ANSI_FG1_WHITE   AnsiCode = "\033[37;1m"
)

// IsTerminal reports whether the file is attached to a character device.
func IsTerminal(f *os.File) bool {
	if st, err := f.Stat(); err == nil {
		return st.Mode()&os.ModeCharDevice != 0
	}
	return false
}
