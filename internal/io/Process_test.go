package io

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const helperEnv = "B2VS_PROCESS_HELPER"

// TestMain doubles as a fake child process when re-executed with helperEnv set.
func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(runHelper(mode, os.Args[1:]))
	}
	goleak.VerifyTestMain(m)
}

func runHelper(mode string, args []string) int {
	switch mode {
	case "echo":
		for _, it := range args {
			fmt.Fprintln(os.Stdout, "out:"+it)
			fmt.Fprintln(os.Stderr, "err:"+it)
		}
		return 0
	case "exit":
		code, _ := strconv.Atoi(args[0])
		fmt.Fprintln(os.Stderr, "failing")
		return code
	case "sleep":
		fmt.Fprintln(os.Stderr, "sleeping")
		time.Sleep(time.Minute)
		return 0
	default:
		return 99
	}
}

func helperOption(mode string) ProcessOptionFunc {
	return OptionProcessExport(helperEnv, mode)
}

func TestRunProcessStreamsLines(t *testing.T) {
	var barrier sync.Mutex
	var stdout, stderr []string

	code, err := RunProcess(context.Background(), os.Args[0], []string{"a", "b"},
		helperOption("echo"),
		OptionProcessStdOut(func(line string) error {
			barrier.Lock()
			defer barrier.Unlock()
			stdout = append(stdout, line)
			return nil
		}),
		OptionProcessStdErr(func(line string) error {
			barrier.Lock()
			defer barrier.Unlock()
			stderr = append(stderr, line)
			return nil
		}))

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"out:a", "out:b"}, stdout)
	assert.Equal(t, []string{"err:a", "err:b"}, stderr)
}

func TestRunProcessNonZeroExitIsNotAnError(t *testing.T) {
	code, err := RunProcess(context.Background(), os.Args[0], []string{"3"},
		helperOption("exit"),
		OptionProcessStdErr(func(string) error { return nil }))

	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRunProcessSpawnFailure(t *testing.T) {
	_, err := RunProcess(context.Background(), filepath.Join(t.TempDir(), "missing-executable"), nil)
	assert.Error(t, err)
}

func TestRunProcessCancelKillsChild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := time.Now()
	_, err := RunProcess(ctx, os.Args[0], nil,
		helperOption("sleep"),
		OptionProcessStdErr(func(string) error {
			cancel()
			return nil
		}))

	assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
	assert.Less(t, time.Since(started), 30*time.Second)
}

func TestRunProcessHandlerErrorAborts(t *testing.T) {
	stop := errors.New("stop")
	_, err := RunProcess(context.Background(), os.Args[0], nil,
		helperOption("sleep"),
		OptionProcessStdErr(func(string) error { return stop }))

	assert.ErrorIs(t, err, stop)
}

func TestSafeCreate(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "nested", "file.json")
	require.NoError(t, SafeCreate(dst, func(w io.Writer) error {
		_, err := w.Write([]byte("{}"))
		return err
	}))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.False(t, Exists(dst+".tmp"))
}
