package toolchain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
)

var LogToolchain = base.NewLogCategory("Toolchain")

var ErrToolchainClosed = errors.New("toolchain queue is closed")

const defaultQueueDepth = 64

/***************************************
 * Invoke options
 ***************************************/

type InvokeOptions struct {
	OnStdErr   base.EventDelegate[string]
	OnStdOut   base.EventDelegate[string]
	WorkingDir string
	Env        []string
}

type InvokeOptionFunc func(*InvokeOptions)

func OptionInvokeStdErr(onLine base.EventDelegate[string]) InvokeOptionFunc {
	return func(io *InvokeOptions) {
		io.OnStdErr = onLine
	}
}
func OptionInvokeStdOut(onLine base.EventDelegate[string]) InvokeOptionFunc {
	return func(io *InvokeOptions) {
		io.OnStdOut = onLine
	}
}

// OptionInvokeCaptureStdOut appends every stdout line to dst, dst must not be shared between invocations.
func OptionInvokeCaptureStdOut(dst *[]string) InvokeOptionFunc {
	return OptionInvokeStdOut(func(line string) error {
		*dst = append(*dst, line)
		return nil
	})
}
func OptionInvokeWorkingDir(dir string) InvokeOptionFunc {
	return func(io *InvokeOptions) {
		io.WorkingDir = dir
	}
}
func OptionInvokeEnvironment(nameValues ...string) InvokeOptionFunc {
	return func(io *InvokeOptions) {
		io.Env = append(io.Env, nameValues...)
	}
}

func (x *InvokeOptions) processOptions() []internal_io.ProcessOptionFunc {
	return []internal_io.ProcessOptionFunc{
		internal_io.OptionProcessStdErr(x.OnStdErr),
		internal_io.OptionProcessStdOut(x.OnStdOut),
		internal_io.OptionProcessWorkingDir(x.WorkingDir),
		func(po *internal_io.ProcessOptions) {
			po.Environment = append(po.Environment, x.Env...)
		},
	}
}

/***************************************
 * Invoker
 ***************************************/

type Invoker interface {
	Invoke(ctx context.Context, args []string, options ...InvokeOptionFunc) (int, error)
	InvokeQueued(ctx context.Context, args []string, options ...InvokeOptionFunc) (int, error)
}

type runProcessFunc = func(ctx context.Context, executable string, arguments []string, options ...internal_io.ProcessOptionFunc) (int, error)

/***************************************
 * Toolchain
 ***************************************/

// Toolchain runs one build2 executable. Queued invocations go through a FIFO consumed by a
// single worker goroutine, so at most one queued invocation is in flight per instance.
type Toolchain struct {
	Name       string
	Executable string
	LockFile   string

	queue      chan *invocation
	startOnce  sync.Once
	barrier    sync.RWMutex
	closed     bool
	stop       chan struct{}
	stopped    chan struct{}
	runProcess runProcessFunc
}

type ToolchainOptionFunc func(*Toolchain)

func OptionToolchainLockFile(path string) ToolchainOptionFunc {
	return func(t *Toolchain) {
		t.LockFile = path
	}
}
func OptionToolchainQueueDepth(depth int) ToolchainOptionFunc {
	return func(t *Toolchain) {
		if depth > 0 {
			t.queue = make(chan *invocation, depth)
		}
	}
}

func NewToolchain(name, executable string, options ...ToolchainOptionFunc) *Toolchain {
	result := &Toolchain{
		Name:       name,
		Executable: executable,
		queue:      make(chan *invocation, defaultQueueDepth),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		runProcess: internal_io.RunProcess,
	}
	for _, it := range options {
		it(result)
	}
	return result
}

func (x *Toolchain) String() string { return x.Name }

// Invoke runs the toolchain directly, bypassing the queue.
func (x *Toolchain) Invoke(ctx context.Context, args []string, options ...InvokeOptionFunc) (int, error) {
	var opts InvokeOptions
	for _, it := range options {
		it(&opts)
	}

	base.LogVerbose(LogToolchain, "%s %v", x.Name, args)
	return x.runProcess(ctx, x.Executable, args, opts.processOptions()...)
}

// InvokeQueued waits for its turn in the toolchain queue before running. A caller cancelling
// while pending is dropped from the queue, a caller cancelling while running kills its process.
func (x *Toolchain) InvokeQueued(ctx context.Context, args []string, options ...InvokeOptionFunc) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	req := &invocation{
		ctx:     ctx,
		args:    args,
		options: options,
		promise: base.NewPromise[int](),
	}

	if err := x.enqueue(ctx, req); err != nil {
		return -1, err
	}

	select {
	case <-req.promise.Done():
	case <-ctx.Done():
		if req.state.CompareAndSwap(invocationPending, invocationCancelled) {
			base.LogTrace(LogToolchain, "%s %v: cancelled while pending", x.Name, args)
			return -1, ctx.Err()
		}
		// already running: the process observes ctx and returns promptly
	}
	return req.promise.Join().Get()
}

func (x *Toolchain) enqueue(ctx context.Context, req *invocation) error {
	x.startOnce.Do(func() {
		go x.worker()
	})

	x.barrier.RLock()
	defer x.barrier.RUnlock()

	if x.closed {
		return ErrToolchainClosed
	}

	select {
	case x.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue worker, pending invocations fail with ErrToolchainClosed.
func (x *Toolchain) Close() error {
	x.barrier.Lock()
	if x.closed {
		x.barrier.Unlock()
		return nil
	}
	x.closed = true
	x.barrier.Unlock()

	close(x.stop)

	started := true
	x.startOnce.Do(func() {
		started = false
	})
	if started {
		<-x.stopped
	}
	return nil
}

func (x *Toolchain) worker() {
	defer close(x.stopped)
	for {
		select {
		case req := <-x.queue:
			x.process(req)
		case <-x.stop:
			for {
				select {
				case req := <-x.queue:
					req.promise.Resolve(-1, ErrToolchainClosed)
				default:
					return
				}
			}
		}
	}
}

func (x *Toolchain) process(req *invocation) {
	if !req.state.CompareAndSwap(invocationPending, invocationRunning) {
		return
	}
	if err := req.ctx.Err(); err != nil {
		req.promise.Resolve(-1, err)
		return
	}

	if len(x.LockFile) == 0 {
		req.promise.Resolve(x.Invoke(req.ctx, req.args, req.options...))
		return
	}

	exitCode := -1
	err := internal_io.WithLock(req.ctx, x.LockFile, func() (err error) {
		exitCode, err = x.Invoke(req.ctx, req.args, req.options...)
		return err
	})
	req.promise.Resolve(exitCode, err)
}

/***************************************
 * Invocation
 ***************************************/

const (
	invocationPending int32 = iota
	invocationRunning
	invocationCancelled
)

type invocation struct {
	ctx     context.Context
	args    []string
	options []InvokeOptionFunc
	promise *base.Promise[int]
	state   atomic.Int32
}
