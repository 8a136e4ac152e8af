package compiledb

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kballard/go-shellquote"
)

var LogCompileDb = base.NewLogCategory("CompileDb")

var ErrMalformedLine = errors.New("malformed compiler invocation")

// CompileCommandEntry is one translation unit found in a build trace.
type CompileCommandEntry struct {
	SourceFile      string   `json:"file"`
	IncludePaths    []string `json:"includePaths"`
	Definitions     []string `json:"definitions"`
	CompilerOptions []string `json:"compilerOptions"`

	// only used when exporting to compile_commands.json
	Directory string   `json:"directory,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

func (x CompileCommandEntry) String() string {
	return x.SourceFile
}

// C:\ alone, quoted, after '=' or joined to a switch: -IC:\, /IC:\, /FoC:\
var re_windowsDrivePath = regexp.MustCompile(`(?:^|[\s"'=]|[-/][A-Za-z]+)[A-Za-z]:\\`)

// tokenize splits a traced command line respecting shell quoting. Windows traces use backslash
// as path separator, which shell quoting would read as escapes: those are doubled first.
func tokenize(line string, msvc bool) ([]string, error) {
	if msvc || re_windowsDrivePath.MatchString(line) {
		line = strings.ReplaceAll(line, `\`, `\\`)
	}
	return shellquote.Split(line)
}

// ParseLine parses one line of trace output. Lines which are not compiler invocations
// return ok=false and no error.
func ParseLine(line string) (entry CompileCommandEntry, ok bool, err error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	// cheap rejection first: diagnostics are not shell quoted and would fail tokenizing
	driver := leadingArgument(line)
	if !IsCompilerDriver(driver) {
		return
	}
	msvc := IsMsvcDriver(driver)

	var argv []string
	if argv, err = tokenize(line, msvc); err != nil {
		return entry, false, fmt.Errorf("%w: %v: %q", ErrMalformedLine, err, line)
	}
	if len(argv) == 0 || !IsCompilerDriver(argv[0]) {
		return
	}
	if _, compileOnly := base.IndexIf(isCompileOnlySwitch, argv[1:]...); !compileOnly {
		return
	}

	entry.Arguments = argv
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		kind, value, separate := classifyFlag(arg, msvc)

		switch kind {
		case FLAG_INCLUDE, FLAG_DEFINE:
			if separate {
				if i+1 >= len(argv) {
					return CompileCommandEntry{}, false, fmt.Errorf("%w: missing value for %q: %q", ErrMalformedLine, arg, line)
				}
				i++
				value = argv[i]
			}
			if kind == FLAG_INCLUDE {
				entry.IncludePaths = append(entry.IncludePaths, value)
			} else {
				entry.Definitions = append(entry.Definitions, value)
			}

		case FLAG_OPTION:
			if !isFlag(arg, msvc) {
				if len(entry.SourceFile) == 0 {
					entry.SourceFile = arg
				} else {
					entry.CompilerOptions = append(entry.CompilerOptions, arg)
				}
				continue
			}

			entry.CompilerOptions = append(entry.CompilerOptions, arg)
			if separate && i+1 < len(argv) {
				i++
				entry.CompilerOptions = append(entry.CompilerOptions, argv[i])
			}
		}
	}

	if len(entry.SourceFile) == 0 {
		return CompileCommandEntry{}, false, fmt.Errorf("%w: no source file: %q", ErrMalformedLine, line)
	}
	return entry, true, nil
}

// leadingArgument is the first argument of line without tokenizing it: a quoted path may
// contain spaces, "C:\Program Files\...\cl.exe".
func leadingArgument(line string) string {
	if quote := line[0]; quote == '"' || quote == '\'' {
		if end := strings.IndexByte(line[1:], quote); end >= 0 {
			return line[1 : end+1]
		}
		return line[1:]
	}
	return strings.Fields(line)[0]
}

// ParseTrace extracts every compiler invocation from a trace, in order. Malformed invocations
// are skipped and reported as warnings, they never fail the whole trace.
func ParseTrace(lines []string) (entries []CompileCommandEntry, warnings []error) {
	for _, line := range lines {
		entry, ok, err := ParseLine(line)
		if err != nil {
			base.LogWarning(LogCompileDb, "skipping trace line: %v", err)
			warnings = append(warnings, err)
			continue
		}
		if ok {
			base.LogTrace(LogCompileDb, "found compiler invocation for %q", entry.SourceFile)
			entries = append(entries, entry)
		}
	}
	return
}
