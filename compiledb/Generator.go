package compiledb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/internal/settings"
	"github.com/kamrann/build2-vs/toolchain"
)

// CompileCommandSource produces the compile commands of the given build output directories.
type CompileCommandSource interface {
	Generate(ctx context.Context, targetDirs []string) ([]CompileCommandEntry, error)
}

// Generator asks b for a dry-run trace of each target directory and parses it.
type Generator struct {
	B    toolchain.Invoker
	Mode settings.TraceMode
}

var _ CompileCommandSource = (*Generator)(nil)

func NewGenerator(b toolchain.Invoker, mode settings.TraceMode) *Generator {
	return &Generator{B: b, Mode: mode}
}

func (x *Generator) Generate(ctx context.Context, targetDirs []string) ([]CompileCommandEntry, error) {
	var result []CompileCommandEntry
	for _, dir := range targetDirs {
		entries, err := x.generateOne(ctx, dir)
		if err != nil {
			return nil, err
		}
		result = append(result, entries...)
	}
	return result, nil
}

func (x *Generator) generateOne(ctx context.Context, targetDir string) ([]CompileCommandEntry, error) {
	dir, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, err
	}

	if x.Mode == settings.TRACE_INCREMENTAL {
		entries, _, err := x.trace(ctx, dir, IncrementalTraceArgs(dir))
		return entries, err
	}

	entries, exitCode, err := x.trace(ctx, dir, ForcedTraceArgs(dir))
	if err != nil || exitCode == 0 {
		return entries, err
	}

	base.LogWarning(LogCompileDb, "forced trace of %q exited with code %d, falling back to incremental", dir, exitCode)
	incremental, _, err := x.trace(ctx, dir, IncrementalTraceArgs(dir))
	if err != nil {
		return nil, err
	}
	if len(incremental) > len(entries) {
		return incremental, nil
	}
	return entries, nil
}

// trace runs b with args and parses every compiler invocation it prints, even when b fails.
func (x *Generator) trace(ctx context.Context, dir string, args []string) ([]CompileCommandEntry, int, error) {
	var barrier sync.Mutex
	var stderr, stdout []string
	collect := func(dst *[]string) base.EventDelegate[string] {
		return func(line string) error {
			barrier.Lock()
			defer barrier.Unlock()
			*dst = append(*dst, line)
			return nil
		}
	}

	exitCode, err := x.B.InvokeQueued(ctx, args,
		toolchain.OptionInvokeStdErr(collect(&stderr)),
		toolchain.OptionInvokeStdOut(collect(&stdout)))
	if err != nil {
		return nil, exitCode, fmt.Errorf("trace %q: %w", dir, err)
	}
	if exitCode != 0 {
		base.LogWarning(LogCompileDb, "trace of %q exited with code %d, parsing partial output", dir, exitCode)
	}

	// build2 prints commands on stderr
	entries, _ := ParseTrace(append(stderr, stdout...))
	for i := range entries {
		entries[i].Directory = dir
	}

	base.LogVerbose(LogCompileDb, "found %d compiler invocations in %q", len(entries), dir)
	return entries, exitCode, nil
}

// ForcedTraceArgs cleans then updates dir without executing anything: targets cleaned by the
// dry run are out of date for the update, so every compile command is printed.
func ForcedTraceArgs(dir string) []string {
	dir = withTrailingSeparator(dir)
	return []string{"--verbose=2", "--dry-run", fmt.Sprintf("clean(%s)", dir), fmt.Sprintf("update(%s)", dir)}
}

func IncrementalTraceArgs(dir string) []string {
	return []string{"--verbose=2", "--dry-run", fmt.Sprintf("update(%s)", withTrailingSeparator(dir))}
}

func withTrailingSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}
