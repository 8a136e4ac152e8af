package cmd

import (
	"context"

	"github.com/kamrann/build2-vs/index"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/urfave/cli/v2"
)

var CommandIndex = &cli.Command{
	Name:  "index",
	Usage: "ask bdep for the configurations of the project and every package, and store them in the index",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "concurrent bdep queries, they still run one at a time", Value: 4},
		&cli.BoolFlag{Name: "clear", Usage: "drop every record before indexing"},
	},
	Action: func(c *cli.Context) error {
		return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
			if env.Store == nil {
				return base.MakeError("the index is disabled in %q", env.Settings.Source)
			}
			if c.Bool("clear") {
				env.Store.Clear()
			}

			indexer := &index.Indexer{
				Store:      env.Store,
				Workspace:  env.Workspace,
				Enumerator: env.Enumerator(),
				Jobs:       c.Int("jobs"),
			}
			stats, err := indexer.Run(ctx)
			if err != nil {
				return err
			}

			base.LogClaim(LogCommand, "indexed %d configurations from %d manifests in %q",
				stats.Configurations, stats.Manifests, env.Store.Path)
			return nil
		})
	},
}
