package cmd

import (
	"context"

	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
	"github.com/kamrann/build2-vs/resolver"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/urfave/cli/v2"
)

var CommandBuild = newActionCommand(toolchain.ACTION_BUILD, "update the target in a build configuration")
var CommandRebuild = newActionCommand(toolchain.ACTION_REBUILD, "clean then update the target in a build configuration")
var CommandClean = newActionCommand(toolchain.ACTION_CLEAN, "clean the target in a build configuration")

func newActionCommand(kind toolchain.ActionKind, usage string) *cli.Command {
	return &cli.Command{
		Name:      kind.String(),
		Usage:     usage,
		ArgsUsage: "[TARGET]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "configuration name or directory, defaults to the default configuration"},
		},
		Action: func(c *cli.Context) error {
			return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
				target := env.Workspace.Root
				if c.Args().Present() {
					target = env.Workspace.Rooted(c.Args().First())
				}

				cfg, err := actionConfiguration(ctx, env, target, c.String("config"))
				if err != nil {
					return err
				}

				base.LogClaim(LogCommand, "%v %q in %v", kind, target, cfg)
				ok, err := toolchain.RunChain(ctx, env.BDep, toolchain.ActionChain(kind, cfg), func(line string) error {
					base.LogForwardln(line)
					return nil
				})
				if err != nil {
					return err
				}
				if !ok {
					return base.MakeError("%v failed for %q", kind, target)
				}
				return nil
			})
		},
	}
}

// actionConfiguration finds the configuration of target named config. An existing directory is
// taken as is, which lets actions run in configurations bdep does not know about yet.
func actionConfiguration(ctx context.Context, env *CommandEnv, target, config string) (toolchain.BuildConfiguration, error) {
	mode := resolver.ModeForPath(env.Workspace, target)
	configs, err := env.Resolver().Resolve(ctx, target, mode)
	if err != nil {
		return toolchain.BuildConfiguration{}, err
	}

	if cfg, ok := selectConfiguration(configs, config); ok {
		cfg.TargetPath = target
		return cfg, nil
	}
	if i, found := base.IndexIf(func(cfg toolchain.BuildConfiguration) bool {
		return cfg.ConfigDir == env.Workspace.Rooted(config)
	}, configs...); found {
		cfg := configs[i]
		cfg.TargetPath = target
		return cfg, nil
	}

	if len(config) > 0 {
		if dir := env.Workspace.Rooted(config); internal_io.IsDir(dir) {
			return toolchain.BuildConfiguration{ConfigDir: dir, TargetPath: target}, nil
		}
	}
	if len(configs) == 0 {
		return toolchain.BuildConfiguration{}, resolver.ErrNoConfigurations
	}

	names := base.Map(func(cfg toolchain.BuildConfiguration) string { return cfg.ConfigurationName }, configs...)
	if match, ok := suggest(config, names); ok {
		return toolchain.BuildConfiguration{}, base.MakeError("unknown configuration %q, did you mean %q?", config, match)
	}
	return toolchain.BuildConfiguration{}, base.MakeError("unknown configuration %q", config)
}
