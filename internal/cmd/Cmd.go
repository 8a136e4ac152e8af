package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kamrann/build2-vs/compiledb"
	"github.com/kamrann/build2-vs/index"
	"github.com/kamrann/build2-vs/intellisense"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/internal/settings"
	"github.com/kamrann/build2-vs/resolver"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/kamrann/build2-vs/workspace"
	"github.com/urfave/cli/v2"
)

var LogCommand = base.NewLogCategory("Command")

var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "root",
		Aliases: []string{"r"},
		Usage:   "build2 project root directory",
		Value:   ".",
	},
	&cli.StringFlag{
		Name:    "settings",
		Aliases: []string{"s"},
		Usage:   "settings file, defaults to .build2vs.json or .build2vs.toml in the project root",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "verbose output",
	},
	&cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "only print warnings and errors",
	},
	&cli.StringSliceFlag{
		Name:  "log-category",
		Usage: "override the level of one log category, NAME=LEVEL (Toolchain=VERBOSE)",
	},
	&cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored logs, they are only colored on a terminal",
	},
}

func Commands() []*cli.Command {
	return []*cli.Command{
		CommandConfigs,
		CommandIndex,
		CommandGenerate,
		CommandCompileDb,
		CommandBuild,
		CommandRebuild,
		CommandClean,
		CommandWatch,
		CommandDistClean,
	}
}

/***************************************
 * Command environment
 ***************************************/

// CommandEnv is what every command works with: the project, its settings and the toolchain.
type CommandEnv struct {
	Settings  *settings.Settings
	Workspace *workspace.Workspace
	B         *toolchain.Toolchain
	BDep      *toolchain.Toolchain
	Store     *index.Store
}

func OpenCommandEnv(c *cli.Context) (*CommandEnv, error) {
	ws, err := workspace.Open(c.String("root"))
	if err != nil {
		return nil, err
	}

	config, err := settings.Load(ws.Root, c.String("settings"))
	if err != nil {
		return nil, err
	}
	applyLogLevel(c, config)
	if err := applyLogCategories(c.StringSlice("log-category")); err != nil {
		return nil, err
	}

	lockFile := config.Toolchain.LockFile
	if len(lockFile) > 0 {
		lockFile = ws.Rooted(lockFile)
	}

	env := &CommandEnv{
		Settings:  config,
		Workspace: ws,
		B: toolchain.NewToolchain("b", config.Toolchain.B,
			toolchain.OptionToolchainQueueDepth(config.Toolchain.QueueDepth),
			toolchain.OptionToolchainLockFile(lockFile)),
		BDep: toolchain.NewToolchain("bdep", config.Toolchain.BDep,
			toolchain.OptionToolchainQueueDepth(config.Toolchain.QueueDepth),
			toolchain.OptionToolchainLockFile(lockFile)),
	}

	if !config.Index.Disabled {
		if env.Store, err = index.OpenStore(c.Context, config.IndexPath(ws.Root), config.Index.Compression); err != nil {
			base.LogWarning(LogCommand, "ignoring unreadable index: %v", err)
			env.Store = index.NewStore(config.IndexPath(ws.Root), config.Index.Compression)
		}
	}

	base.LogVerbose(LogCommand, "project %q, settings from %q", ws.Root, config.Source)
	return env, nil
}

func (x *CommandEnv) Close() error {
	errB := x.B.Close()
	errBDep := x.BDep.Close()
	if errB != nil {
		return errB
	}
	return errBDep
}

func (x *CommandEnv) Enumerator() toolchain.Enumerator {
	return toolchain.Enumerator{BDep: x.BDep}
}

func (x *CommandEnv) Resolver() resolver.Resolver {
	return resolver.Default(x.Workspace, x.Store, x.Enumerator())
}

func (x *CommandEnv) CompileCommands() *compiledb.Generator {
	return compiledb.NewGenerator(x.B, x.Settings.CompileCommands.TraceMode)
}

func (x *CommandEnv) IntelliSense() *intellisense.Generator {
	return &intellisense.Generator{
		Resolver:  x.Resolver(),
		Source:    x.CompileCommands(),
		Workspace: x.Workspace,
	}
}

// withCommandEnv opens the command environment for the duration of scope.
func withCommandEnv(c *cli.Context, scope func(context.Context, *CommandEnv) error) error {
	env, err := OpenCommandEnv(c)
	if err != nil {
		return err
	}
	defer func() {
		if er := env.Close(); er != nil {
			base.LogWarning(LogCommand, "close toolchain: %v", er)
		}
	}()
	return scope(c.Context, env)
}

func applyLogLevel(c *cli.Context, config *settings.Settings) {
	applyColor(c)
	switch {
	case c.Bool("quiet"):
		base.SetLogVisibleLevel(base.LOG_WARNING)
	case c.Bool("verbose"):
		base.SetLogVisibleLevel(base.LOG_VERBOSE)
	default:
		base.SetLogVisibleLevel(config.LogLevel)
	}
}

func applyLogCategories(specs []string) error {
	manager := base.GetLogManager()
	for _, spec := range specs {
		name, value, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("invalid log category %q, expected NAME=LEVEL", spec)
		}

		var level base.LogLevel
		if err := level.Set(value); err != nil {
			return err
		}
		if err := manager.SetCategoryLevel(name, level); err != nil {
			if match, ok := suggest(name, manager.CategoryNames()); ok {
				return fmt.Errorf("%w, did you mean %q?", err, match)
			}
			return err
		}
	}
	return nil
}

func applyColor(c *cli.Context) {
	enabled := !c.Bool("no-color") && base.IsTerminal(os.Stderr)
	base.SetEnableAnsiColor(enabled)
	base.GetLogger().SetEnableColor(enabled)
}

// printLine writes command results to stdout, logs go to stderr.
func printLine(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}
