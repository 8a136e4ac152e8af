package compiledb

import (
	"path/filepath"
	"regexp"
	"strings"
)

/***************************************
 * Compiler drivers
 ***************************************/

// gcc-13, g++-12, clang++-17, x86_64-w64-mingw32-g++, cl.exe...
var re_compilerDriver = regexp.MustCompile(`(?i)^(?:[\w.]+-)*(gcc|g\+\+|cc|c\+\+|clang|clang\+\+|clang-cl|cl)(?:-[\d.]+)?(?:\.exe)?$`)

func IsCompilerDriver(arg0 string) bool {
	base := filepath.Base(strings.ReplaceAll(arg0, `\`, `/`))
	return re_compilerDriver.MatchString(base)
}

var re_msvcDriver = regexp.MustCompile(`(?i)^(clang-cl|cl)(?:\.exe)?$`)

// IsMsvcDriver is true for drivers taking slash switches: cl and clang-cl.
func IsMsvcDriver(arg0 string) bool {
	base := filepath.Base(strings.ReplaceAll(arg0, `\`, `/`))
	return re_msvcDriver.MatchString(base)
}

func isCompileOnlySwitch(arg string) bool {
	return arg == "-c" || arg == "/c"
}

/***************************************
 * Flag classification
 ***************************************/

type flagKind int32

const (
	FLAG_OPTION flagKind = iota
	FLAG_INCLUDE
	FLAG_DEFINE
)

type flagPrefix struct {
	Prefix string
	Kind   flagKind
	Msvc   bool
}

// longest prefixes first: "-isystem" must not be read as "-i"+"system"
var flagPrefixes = []flagPrefix{
	{"-idirafter", FLAG_INCLUDE, false},
	{"-isystem", FLAG_INCLUDE, false},
	{"-iquote", FLAG_INCLUDE, false},
	{"-I", FLAG_INCLUDE, false},
	{"/I", FLAG_INCLUDE, true},
	{"-D", FLAG_DEFINE, false},
	{"/D", FLAG_DEFINE, true},
}

// options whose value is the next argument, kept together in CompilerOptions
var separateValueOptions = map[string]struct{}{
	"-o":        {},
	"-x":        {},
	"-MF":       {},
	"-MT":       {},
	"-MQ":       {},
	"-include":  {},
	"-imacros":  {},
	"-Xclang":   {},
	"-target":   {},
	"--sysroot": {},
	"-arch":     {},
	"-isysroot": {},
}

// classifyFlag returns the flag kind, its joined value if any, and whether the value is the next argument.
// Slash switches are only recognized for msvc drivers, elsewhere they are absolute paths.
func classifyFlag(arg string, msvc bool) (kind flagKind, value string, separate bool) {
	for _, it := range flagPrefixes {
		if it.Msvc && !msvc {
			continue
		}
		if strings.HasPrefix(arg, it.Prefix) {
			value = arg[len(it.Prefix):]
			return it.Kind, value, len(value) == 0
		}
	}
	_, separate = separateValueOptions[arg]
	return FLAG_OPTION, "", separate
}

func isFlag(arg string, msvc bool) bool {
	if strings.HasPrefix(arg, "-") {
		return true
	}
	// /c /nologo /EHsc /std:c++17, clang-cl still accepts absolute unix paths
	if msvc && strings.HasPrefix(arg, "/") && len(arg) > 1 && !strings.ContainsRune(arg[1:], '/') {
		return !looksLikeSourceFile(arg)
	}
	return false
}

var sourceExtensions = map[string]struct{}{
	".c": {}, ".cc": {}, ".cpp": {}, ".cxx": {}, ".c++": {}, ".cp": {},
	".m": {}, ".mm": {}, ".ixx": {}, ".cppm": {}, ".mxx": {}, ".mpp": {},
	".h": {}, ".hh": {}, ".hpp": {}, ".hxx": {}, ".h++": {},
}

func looksLikeSourceFile(arg string) bool {
	_, ok := sourceExtensions[strings.ToLower(filepath.Ext(arg))]
	return ok
}
