package io

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/shirou/gopsutil/process"
)

var LogProcess = base.NewLogCategory("Process")

// build2 can emit very long command lines
const maxLineLength = 1 << 20

/***************************************
 * Process Options
 ***************************************/

type ProcessOptions struct {
	Environment     []string
	OnStdOut        base.EventDelegate[string]
	OnStdErr        base.EventDelegate[string]
	WorkingDir      string
	NewProcessGroup bool
}

type ProcessOptionFunc func(*ProcessOptions)

func (x *ProcessOptions) Init(options ...ProcessOptionFunc) {
	x.NewProcessGroup = true
	for _, it := range options {
		it(x)
	}
}

func OptionProcessExport(name, value string) ProcessOptionFunc {
	return func(po *ProcessOptions) {
		po.Environment = append(po.Environment, name+"="+value)
	}
}
func OptionProcessStdOut(onStdOut base.EventDelegate[string]) ProcessOptionFunc {
	return func(po *ProcessOptions) {
		po.OnStdOut = onStdOut
	}
}
func OptionProcessStdErr(onStdErr base.EventDelegate[string]) ProcessOptionFunc {
	return func(po *ProcessOptions) {
		po.OnStdErr = onStdErr
	}
}
func OptionProcessWorkingDir(value string) ProcessOptionFunc {
	return func(po *ProcessOptions) {
		po.WorkingDir = value
	}
}

/***************************************
 * RunProcess
 ***************************************/

// RunProcess spawns executable and streams its output line by line to the bound delegates.
// A non-zero exit is reported through exitCode with a nil error: err is only set when the
// process could not be spawned, when its output could not be read, when a delegate failed,
// or when ctx was done (in which case the whole process tree is killed).
func RunProcess(ctx context.Context, executable string, arguments []string, userOptions ...ProcessOptionFunc) (exitCode int, err error) {
	var options ProcessOptions
	options.Init(userOptions...)

	if err = ctx.Err(); err != nil {
		return -1, err
	}

	defer base.LogBenchmark(LogProcess, "Run(%q, %q)", executable, strings.Join(arguments, "\", \"")).Close()

	cmd := exec.Command(executable, arguments...)
	if len(options.Environment) > 0 {
		cmd.Env = append(os.Environ(), options.Environment...)
	}
	if len(options.WorkingDir) > 0 {
		cmd.Dir = options.WorkingDir
	}
	if options.NewProcessGroup {
		// don't pass parent signal to child processes
		cmd.SysProcAttr = newProcessGroupSysProcAttr()
	}

	base.LogTrace(LogProcess, "run %v (dir: %q)", cmd, cmd.Dir)

	var stdout, stderr io.ReadCloser
	if stdout, err = cmd.StdoutPipe(); err != nil {
		return -1, err
	}
	if stderr, err = cmd.StderrPipe(); err != nil {
		return -1, err
	}
	if err = cmd.Start(); err != nil {
		return -1, err
	}

	// first failure wins, and tears the process tree down
	var failure struct {
		once sync.Once
		err  error
	}
	done := make(chan struct{})
	abort := func(cause error) {
		failure.once.Do(func() {
			failure.err = cause
			killProcessTree(cmd.Process.Pid, options.NewProcessGroup)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			abort(ctx.Err())
		case <-done:
		}
	}()

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		if er := pumpLines(stdout, options.OnStdOut); er != nil {
			abort(er)
		}
	}()
	go func() {
		defer pumps.Done()
		if er := pumpLines(stderr, options.OnStdErr); er != nil {
			abort(er)
		}
	}()
	pumps.Wait()

	err = cmd.Wait()
	close(done)

	// settle the failure slot: a late abort is now a no-op
	failure.once.Do(func() {})
	if failure.err != nil {
		return -1, failure.err
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		base.LogVeryVerbose(LogProcess, "%q exited with code %d", executable, exitErr.ExitCode())
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}

func pumpLines(rd io.Reader, onLine base.EventDelegate[string]) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if onLine.Bound() {
			if err := onLine.Invoke(line); err != nil {
				// drain the pipe so the child is never blocked on a full buffer
				io.Copy(io.Discard, rd)
				return err
			}
		} else {
			base.LogVerbose(LogProcess, "%s", line)
		}
	}
	return scanner.Err()
}

// killProcessTree kills every descendant before the root, so none is reparented and left running.
func killProcessTree(pid int, processGroup bool) {
	if proc, err := process.NewProcess(int32(pid)); err == nil {
		killDescendants(proc)
		if err = proc.Kill(); err != nil {
			base.LogDebug(LogProcess, "kill %d: %v", pid, err)
		}
	}
	if processGroup {
		killProcessGroup(pid)
	}
}

func killDescendants(proc *process.Process) {
	children, err := proc.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		killDescendants(child)
		if err := child.Kill(); err != nil {
			base.LogDebug(LogProcess, "kill %d: %v", child.Pid, err)
		}
	}
}
