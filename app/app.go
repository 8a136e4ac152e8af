package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/internal/cmd"
	"github.com/urfave/cli/v2"
)

var LogApp = base.NewLogCategory("App")

var profilingFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "profiling",
		Usage: "NONE, BLOCK, CPU, GOROUTINE, MEM, MUTEX or TRACE",
		Value: PROFILING_NONE.String(),
	},
	&cli.StringFlag{
		Name:  "profiling-dir",
		Usage: "where profiles are written",
		Value: ".",
	},
}

// NewApp describes the command line, prefix is the program name.
func NewApp(prefix string) *cli.App {
	var stopProfiling func()

	return &cli.App{
		Name:                 prefix,
		Usage:                "build2 project integration for Visual Studio and Visual Studio Code",
		Flags:                append(append([]cli.Flag{}, cmd.GlobalFlags...), profilingFlags...),
		Commands:             cmd.Commands(),
		EnableBashCompletion: true,
		Before: func(c *cli.Context) error {
			var mode ProfilingMode
			if err := mode.Set(c.String("profiling")); err != nil {
				return err
			}
			stopProfiling = StartProfiling(mode, c.String("profiling-dir"))
			return nil
		},
		After: func(c *cli.Context) error {
			if stopProfiling != nil {
				stopProfiling()
			}
			return nil
		},
	}
}

// WithCommandLine runs the command line in args until it completes or the process is interrupted.
func WithCommandLine(prefix string, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer base.FlushLog()

	err := NewApp(prefix).RunContext(ctx, args)
	if err != nil {
		base.LogForwardln("")
		base.LogError(LogApp, "%v", err)
	}
	return err
}
