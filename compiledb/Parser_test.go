package compiledb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineGcc(t *testing.T) {
	line := `g++ -I/home/u/libfoo -I /usr/include -isystem/opt/inc -DLIBFOO_STATIC -D NDEBUG=1 -O2 -std=c++20 -fmax-errors=5 -o /out/libfoo/foo.o -c -x c++ /home/u/libfoo/foo.cxx`

	entry, ok, err := ParseLine(line)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "/home/u/libfoo/foo.cxx", entry.SourceFile)
	assert.Equal(t, []string{"/home/u/libfoo", "/usr/include", "/opt/inc"}, entry.IncludePaths)
	assert.Equal(t, []string{"LIBFOO_STATIC", "NDEBUG=1"}, entry.Definitions)
	assert.Equal(t, []string{"-O2", "-std=c++20", "-fmax-errors=5", "-o", "/out/libfoo/foo.o", "-c", "-x", "c++"}, entry.CompilerOptions)
	assert.Equal(t, "g++", entry.Arguments[0])
}

func TestParseLineKeepsUnknownFlags(t *testing.T) {
	entry, ok, err := ParseLine(`/usr/bin/clang++-17 -fsomething-new --weird=1 -c foo.cpp -Wextra-semi`)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "foo.cpp", entry.SourceFile)
	assert.Equal(t, []string{"-fsomething-new", "--weird=1", "-c", "-Wextra-semi"}, entry.CompilerOptions)
	assert.Empty(t, entry.IncludePaths)
	assert.Empty(t, entry.Definitions)
}

func TestParseLineQuoting(t *testing.T) {
	entry, ok, err := ParseLine(`clang++ "-DMSG=\"hi there\"" -I'/path with spaces/inc' -c 'my file.cpp'`)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "my file.cpp", entry.SourceFile)
	assert.Equal(t, []string{`MSG="hi there"`}, entry.Definitions)
	assert.Equal(t, []string{"/path with spaces/inc"}, entry.IncludePaths)
}

func TestParseLineMsvc(t *testing.T) {
	line := `cl.exe /nologo /IC:\src\libfoo /I C:\deps\include /DLIBFOO_SHARED /D WIN32 /EHsc /c C:\src\libfoo\foo.cxx /Fo:C:\out\foo.obj`

	entry, ok, err := ParseLine(line)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, `C:\src\libfoo\foo.cxx`, entry.SourceFile)
	assert.Equal(t, []string{`C:\src\libfoo`, `C:\deps\include`}, entry.IncludePaths)
	assert.Equal(t, []string{"LIBFOO_SHARED", "WIN32"}, entry.Definitions)
	assert.Equal(t, []string{"/nologo", "/EHsc", "/c", `/Fo:C:\out\foo.obj`}, entry.CompilerOptions)
}

func TestParseLineNotAnInvocation(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"ld -o libfoo.so foo.o",
		"g++ --version",
		"g++ -o hello hello.o",
		"info: dir/ is up to date",
		"warning: can't do that",
		"c++ libfoo/cxx{foo}",
	} {
		_, ok, err := ParseLine(line)
		assert.NoError(t, err, line)
		assert.False(t, ok, line)
	}
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		`g++ -c "unterminated.cpp`,
		`g++ -c -I`,
		`g++ -c -O2`,
	} {
		_, ok, err := ParseLine(line)
		assert.False(t, ok, line)
		assert.True(t, errors.Is(err, ErrMalformedLine), "%q: %v", line, err)
	}
}

func TestParseTraceSkipsMalformedLines(t *testing.T) {
	trace := []string{
		"g++ -Ia -DX -c a.cpp",
		`g++ -c "broken`,
		"info: nothing to see",
		"gcc -Ib -c b.c",
	}

	entries, warnings := ParseTrace(trace)
	require.Len(t, entries, 2)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "a.cpp", entries[0].SourceFile)
	assert.Equal(t, "b.c", entries[1].SourceFile)
}

func TestParseTraceIsIdempotent(t *testing.T) {
	trace := []string{
		"g++ -I/usr/include -I./src -DDEBUG=1 -O0 -g -c src/foo.cpp",
		"g++ -I/usr/include -DDEBUG=1 -O0 -g -c src/bar.cpp -o bar.o",
		`g++ -c "broken`,
		"cl /IC:\\inc /c C:\\src\\x.cpp",
	}

	first, firstWarnings := ParseTrace(trace)
	second, secondWarnings := ParseTrace(trace)
	assert.Equal(t, first, second)
	assert.Equal(t, len(firstWarnings), len(secondWarnings))
}

func TestIsCompilerDriver(t *testing.T) {
	for _, it := range []string{"gcc", "g++", "cc", "c++", "clang", "clang++", "clang-cl", "cl", "cl.exe", "CL.EXE",
		"/usr/bin/g++-13", "x86_64-w64-mingw32-g++", "clang++-17.0", `C:\LLVM\bin\clang-cl.exe`} {
		assert.True(t, IsCompilerDriver(it), it)
	}
	for _, it := range []string{"ld", "ar", "b", "bdep", "cc1plus", "info:", "lib.exe", "link.exe"} {
		assert.False(t, IsCompilerDriver(it), it)
	}
}

func TestParseLineAbsoluteUnixSources(t *testing.T) {
	for _, it := range []struct {
		line     string
		source   string
		includes []string
	}{
		{"g++ -I/usr/include -c /Data/src/foo.cpp -o foo.o", "/Data/src/foo.cpp", []string{"/usr/include"}},
		{"g++ -c -o foo.o /Development/libfoo/foo.cxx", "/Development/libfoo/foo.cxx", nil},
		{"clang++ -I/Install/include -c /Install/src/bar.cxx", "/Install/src/bar.cxx", []string{"/Install/include"}},
		{"gcc -c /Dev/x.c -DFOO", "/Dev/x.c", nil},
	} {
		entry, ok, err := ParseLine(it.line)
		require.NoError(t, err, it.line)
		require.True(t, ok, it.line)
		assert.Equal(t, it.source, entry.SourceFile, it.line)
		assert.Equal(t, it.includes, entry.IncludePaths, it.line)
	}
}

func TestParseLineQuotedDriverPath(t *testing.T) {
	entry, ok, err := ParseLine(`"C:\Program Files\Microsoft Visual Studio\bin\cl.exe" /nologo /IC:\inc /c C:\src\foo.cxx`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `C:\src\foo.cxx`, entry.SourceFile)
	assert.Equal(t, []string{`C:\inc`}, entry.IncludePaths)
	assert.Equal(t, `C:\Program Files\Microsoft Visual Studio\bin\cl.exe`, entry.Arguments[0])

	entry, ok, err = ParseLine(`"/opt/my tools/bin/g++" -I/usr/include -c /home/u/foo.cxx`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/home/u/foo.cxx", entry.SourceFile)
	assert.Equal(t, []string{"/usr/include"}, entry.IncludePaths)

	entry, ok, err = ParseLine(`'/opt/my tools/bin/clang++' -c foo.cpp`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "foo.cpp", entry.SourceFile)
}

func TestParseLineJoinedWindowsPaths(t *testing.T) {
	entry, ok, err := ParseLine(`cl /nologo /IC:\inc\sub /c foo.cpp`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{`C:\inc\sub`}, entry.IncludePaths)

	entry, ok, err = ParseLine(`x86_64-w64-mingw32-g++ -IC:\inc\sub -c foo.cpp`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{`C:\inc\sub`}, entry.IncludePaths)
}

func TestIsMsvcDriver(t *testing.T) {
	for _, it := range []string{"cl", "cl.exe", "CL.EXE", "clang-cl", `C:\LLVM\bin\clang-cl.exe`} {
		assert.True(t, IsMsvcDriver(it), it)
	}
	for _, it := range []string{"g++", "clang++", "gcc-13", "/usr/bin/cc"} {
		assert.False(t, IsMsvcDriver(it), it)
	}
}
