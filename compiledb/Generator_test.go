package compiledb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamrann/build2-vs/internal/settings"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type traceInvoker struct {
	calls  [][]string
	stderr func(args []string) []string
	stdout []string
	exit   int
	exitOf func(args []string) int
}

func (x *traceInvoker) Invoke(ctx context.Context, args []string, options ...toolchain.InvokeOptionFunc) (int, error) {
	return x.InvokeQueued(ctx, args, options...)
}
func (x *traceInvoker) InvokeQueued(ctx context.Context, args []string, options ...toolchain.InvokeOptionFunc) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	x.calls = append(x.calls, args)

	var opts toolchain.InvokeOptions
	for _, it := range options {
		it(&opts)
	}
	if x.stderr != nil {
		for _, line := range x.stderr(args) {
			if err := opts.OnStdErr.Invoke(line); err != nil {
				return -1, err
			}
		}
	}
	for _, line := range x.stdout {
		if err := opts.OnStdOut.Invoke(line); err != nil {
			return -1, err
		}
	}
	if x.exitOf != nil {
		return x.exitOf(args), nil
	}
	return x.exit, nil
}

func TestGeneratorForcedTrace(t *testing.T) {
	outRoot := filepath.Join(t.TempDir(), "hello-gcc", "libfoo")
	srcRoot := "/home/u/hello/libfoo"

	b := &traceInvoker{
		stderr: func(args []string) []string {
			return []string{
				"rm " + filepath.Join(outRoot, "foo.o"),
				"info: some diagnostic",
				"g++ -I" + srcRoot + " -DLIBFOO=1 -o " + filepath.Join(outRoot, "foo.o") + " -c " + filepath.Join(srcRoot, "foo.cxx"),
			}
		},
		stdout: []string{"g++ -I" + srcRoot + " -c " + filepath.Join(srcRoot, "bar.cxx")},
	}

	entries, err := NewGenerator(b, settings.TRACE_FORCED).Generate(context.Background(), []string{outRoot + "/"})
	require.NoError(t, err)
	require.Len(t, b.calls, 1)

	dir := outRoot + string(filepath.Separator)
	assert.Equal(t, []string{"--verbose=2", "--dry-run", "clean(" + dir + ")", "update(" + dir + ")"}, b.calls[0])
	assert.Equal(t, ForcedTraceArgs(outRoot), b.calls[0])

	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(srcRoot, "foo.cxx"), entries[0].SourceFile)
	assert.Equal(t, []string{srcRoot}, entries[0].IncludePaths)
	assert.Equal(t, []string{"LIBFOO=1"}, entries[0].Definitions)
	assert.Contains(t, entries[0].CompilerOptions, filepath.Join(outRoot, "foo.o"))
	assert.Equal(t, outRoot, entries[0].Directory)
	assert.Equal(t, filepath.Join(srcRoot, "bar.cxx"), entries[1].SourceFile)
}

func TestGeneratorForcedTraceFailureFallsBackToIncremental(t *testing.T) {
	dir := t.TempDir()
	b := &traceInvoker{
		stderr: func(args []string) []string {
			if strings.HasPrefix(args[2], "clean(") {
				return []string{"error: unable to import target libfoo%lib{foo}"}
			}
			return []string{"g++ -Iinc -c /src/libbar/bar.cxx"}
		},
		exitOf: func(args []string) int {
			if strings.HasPrefix(args[2], "clean(") {
				return 1
			}
			return 0
		},
	}

	entries, err := NewGenerator(b, settings.TRACE_FORCED).Generate(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, [][]string{ForcedTraceArgs(dir), IncrementalTraceArgs(dir)}, b.calls)
	require.Len(t, entries, 1)
	assert.Equal(t, "/src/libbar/bar.cxx", entries[0].SourceFile)
}

func TestGeneratorForcedTraceFailureKeepsLargerTrace(t *testing.T) {
	b := &traceInvoker{
		exit: 1,
		stderr: func(args []string) []string {
			if strings.HasPrefix(args[2], "clean(") {
				return []string{"g++ -c a.cpp", "g++ -c b.cpp", "error: boom"}
			}
			return []string{"error: boom"}
		},
	}

	entries, err := NewGenerator(b, settings.TRACE_FORCED).Generate(context.Background(), []string{t.TempDir()})
	require.NoError(t, err)
	assert.Len(t, b.calls, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.cpp", entries[0].SourceFile)
}

func TestGeneratorIncrementalTrace(t *testing.T) {
	dir := t.TempDir()
	b := &traceInvoker{}

	entries, err := NewGenerator(b, settings.TRACE_INCREMENTAL).Generate(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing to rebuild is an empty result, not an error")
	assert.Equal(t, [][]string{{"--verbose=2", "--dry-run", "update(" + dir + string(filepath.Separator) + ")"}}, b.calls)
}

func TestGeneratorNonZeroExitKeepsPartialTrace(t *testing.T) {
	b := &traceInvoker{
		exit:   1,
		stderr: func([]string) []string { return []string{"g++ -c a.cpp", "error: boom"} },
	}

	entries, err := NewGenerator(b, settings.TRACE_INCREMENTAL).Generate(context.Background(), []string{t.TempDir()})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.cpp", entries[0].SourceFile)
}

func TestGeneratorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(&traceInvoker{}, settings.TRACE_INCREMENTAL).Generate(ctx, []string{t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompilationDatabase(t *testing.T) {
	entries, _ := ParseTrace([]string{
		"g++ -Ia -c a.cpp -o a.o",
		"g++ -Ia -c b.cpp -o b.o",
		"g++ -Ia -c a.cpp -o a.o",
	})
	for i := range entries {
		entries[i].Directory = "/out"
	}

	var db CompilationDatabase
	db.Append(entries...)
	require.Len(t, db, 2)
	assert.Equal(t, CompileCommand{
		Directory: "/out",
		File:      "a.cpp",
		Output:    "a.o",
		Arguments: []string{"g++", "-Ia", "-c", "a.cpp", "-o", "a.o"},
	}, db[0])

	path := filepath.Join(t.TempDir(), "compile_commands.json")
	require.NoError(t, WriteCompilationDatabase(path, db))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file": "b.cpp"`)
}
