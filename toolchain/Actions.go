package toolchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/kamrann/build2-vs/internal/base"
)

type ActionKind int32

const (
	ACTION_BUILD ActionKind = iota
	ACTION_REBUILD
	ACTION_CLEAN
)

func (x ActionKind) String() string {
	switch x {
	case ACTION_BUILD:
		return "build"
	case ACTION_REBUILD:
		return "rebuild"
	case ACTION_CLEAN:
		return "clean"
	default:
		return fmt.Sprintf("ActionKind(%d)", int32(x))
	}
}
func (x *ActionKind) Set(in string) error {
	for _, it := range []ActionKind{ACTION_BUILD, ACTION_REBUILD, ACTION_CLEAN} {
		if strings.EqualFold(it.String(), in) {
			*x = it
			return nil
		}
	}
	return base.MakeUnexpectedValueError(x, in)
}

// Chain is a sequence of bdep invocations, run in order.
type Chain [][]string

func operationArgs(operation string, cfg BuildConfiguration) []string {
	return []string{
		"--verbose=2",
		operation,
		"-c", cfg.ConfigDir,
		"-d", cfg.TargetPath,
	}
}

func BuildArgs(cfg BuildConfiguration) []string { return operationArgs("update", cfg) }
func CleanArgs(cfg BuildConfiguration) []string { return operationArgs("clean", cfg) }

// RebuildArgs cleans then updates: bdep has no single rebuild operation.
func RebuildArgs(cfg BuildConfiguration) Chain {
	return Chain{CleanArgs(cfg), BuildArgs(cfg)}
}

func ActionChain(kind ActionKind, cfg BuildConfiguration) Chain {
	switch kind {
	case ACTION_REBUILD:
		return RebuildArgs(cfg)
	case ACTION_CLEAN:
		return Chain{CleanArgs(cfg)}
	default:
		return Chain{BuildArgs(cfg)}
	}
}

// RunChain runs every step through the toolchain queue, streaming stderr lines to onLine.
// The chain stops at the first step exiting with a non-zero code, which is reported with ok=false.
func RunChain(ctx context.Context, tc Invoker, chain Chain, onLine base.EventDelegate[string]) (ok bool, err error) {
	for i, args := range chain {
		exitCode, err := tc.InvokeQueued(ctx, args, OptionInvokeStdErr(onLine))
		if err != nil {
			return false, err
		}
		if exitCode != 0 {
			base.LogWarning(LogToolchain, "step %d/%d %v failed with exit code %d", i+1, len(chain), args, exitCode)
			return false, nil
		}
	}
	return true, nil
}
