package cmd

import (
	"context"
	"os"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/resolver"
	"github.com/urfave/cli/v2"
)

var CommandConfigs = &cli.Command{
	Name:      "configs",
	Usage:     "list the build configurations of the project or of a package",
	ArgsUsage: "[PATH]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "indexed", Usage: "only look in the index"},
		&cli.BoolFlag{Name: "on-demand", Usage: "only ask bdep"},
		&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "print as json"},
	},
	Action: func(c *cli.Context) error {
		return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
			path := env.Workspace.Root
			if c.Args().Present() {
				path = env.Workspace.Rooted(c.Args().First())
			}

			var r resolver.Resolver
			switch {
			case c.Bool("indexed"):
				if env.Store == nil {
					return base.MakeError("the index is disabled in %q", env.Settings.Source)
				}
				r = resolver.Indexed{Store: env.Store, Workspace: env.Workspace}
			case c.Bool("on-demand"):
				r = resolver.OnDemand{Enumerator: env.Enumerator(), Workspace: env.Workspace}
			default:
				r = env.Resolver()
			}

			mode := resolver.ModeForPath(env.Workspace, path)
			configs, err := r.Resolve(ctx, path, mode)
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				return resolver.ErrNoConfigurations
			}

			if c.Bool("json") {
				return base.JsonSerialize(configs, os.Stdout, base.OptionJsonPrettyPrint(true))
			}
			base.LogInfo(LogCommand, "%d configurations for %v %q", len(configs), mode, path)
			for _, it := range configs {
				marker := " "
				if it.Default {
					marker = "*"
				}
				printLine("%s %-20s %s", marker, it.ConfigurationName, it.ConfigDir)
			}
			return nil
		})
	},
}
