package app

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/pkg/profile"
)

var LogProfiling = base.NewLogCategory("Profiling")

/***************************************
 * Profiling Mode
 ***************************************/

type ProfilingMode byte

const (
	PROFILING_NONE ProfilingMode = iota
	PROFILING_BLOCK
	PROFILING_CPU
	PROFILING_GOROUTINE
	PROFILING_MEMORY
	PROFILING_MUTEX
	PROFILING_TRACE
)

func ProfilingModes() []ProfilingMode {
	return []ProfilingMode{
		PROFILING_NONE,
		PROFILING_BLOCK,
		PROFILING_CPU,
		PROFILING_GOROUTINE,
		PROFILING_MEMORY,
		PROFILING_MUTEX,
		PROFILING_TRACE,
	}
}
func (x ProfilingMode) Mode() func(*profile.Profile) {
	switch x {
	case PROFILING_BLOCK:
		return profile.BlockProfile
	case PROFILING_CPU:
		return profile.CPUProfile
	case PROFILING_GOROUTINE:
		return profile.GoroutineProfile
	case PROFILING_MEMORY:
		return profile.MemProfile
	case PROFILING_MUTEX:
		return profile.MutexProfile
	case PROFILING_TRACE:
		return profile.TraceProfile
	default:
		return nil
	}
}
func (x ProfilingMode) String() string {
	switch x {
	case PROFILING_NONE:
		return "NONE"
	case PROFILING_BLOCK:
		return "BLOCK"
	case PROFILING_CPU:
		return "CPU"
	case PROFILING_GOROUTINE:
		return "GOROUTINE"
	case PROFILING_MEMORY:
		return "MEM"
	case PROFILING_MUTEX:
		return "MUTEX"
	case PROFILING_TRACE:
		return "TRACE"
	default:
		return fmt.Sprintf("ProfilingMode(%d)", byte(x))
	}
}
func (x *ProfilingMode) Set(in string) error {
	for _, it := range ProfilingModes() {
		if it.String() == strings.ToUpper(in) {
			*x = it
			return nil
		}
	}
	return base.MakeUnexpectedValueError(x, in)
}

/***************************************
 * Profiler
 ***************************************/

// StartProfiling writes the selected profile in dir until the returned func is called.
func StartProfiling(mode ProfilingMode, dir string) func() {
	if mode == PROFILING_NONE {
		return func() {}
	}

	base.LogWarning(LogProfiling, "use %v profiling mode, writing to %q", mode, dir)
	if mode == PROFILING_CPU {
		runtime.SetCPUProfileRate(300) // default is 100
	}

	profiler := profile.Start(
		mode.Mode(),
		profile.NoShutdownHook,
		profile.Quiet,
		profile.ProfilePath(dir))
	return profiler.Stop
}
