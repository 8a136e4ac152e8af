package cmd

import (
	"context"

	"github.com/kamrann/build2-vs/index"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/workspace"
	"github.com/urfave/cli/v2"
)

var CommandWatch = &cli.Command{
	Name:  "watch",
	Usage: "regenerate IntelliSense configurations whenever a manifest or the settings change",
	Flags: []cli.Flag{
		formatFlag,
		&cli.DurationFlag{Name: "interval", Usage: "wait for changes to settle before reacting", Value: workspace.DefaultWatchInterval},
	},
	Action: func(c *cli.Context) error {
		var format OutputFormat
		if err := format.Set(c.String("format")); err != nil {
			return err
		}

		return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
			watcher, err := workspace.NewWatcher(env.Workspace, c.Duration("interval"))
			if err != nil {
				return err
			}
			defer watcher.Close()

			changed := make(chan workspace.ConfigurationChangedEvent, 1)
			handle := env.Workspace.Events.OnConfigurationChanged(func(e workspace.ConfigurationChangedEvent) error {
				select {
				case changed <- e:
				default:
				}
				return nil
			})
			defer env.Workspace.Events.RemoveConfigurationChanged(handle)

			watchErr := make(chan error, 1)
			go func() { watchErr <- watcher.Run(ctx) }()

			base.LogClaim(LogCommand, "watching %d directories of %q", len(watcher.WatchedDirs()), env.Workspace.Root)
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-watchErr:
					return err
				case e := <-changed:
					base.LogInfo(LogCommand, "%v changed: %q", e.Kind, e.Path)
					if err := refreshWorkspace(ctx, env, format); err != nil {
						if ctx.Err() != nil {
							return nil
						}
						base.LogError(LogCommand, "regenerate: %v", err)
					}
				}
			}
		})
	},
}

func refreshWorkspace(ctx context.Context, env *CommandEnv, format OutputFormat) error {
	if env.Store != nil {
		indexer := &index.Indexer{Store: env.Store, Workspace: env.Workspace, Enumerator: env.Enumerator()}
		if _, err := indexer.Run(ctx); err != nil {
			return err
		}
	}

	packages, err := env.Workspace.Packages()
	if err != nil {
		return err
	}
	return generateIntelliSense(ctx, env, packages, format, false)
}
