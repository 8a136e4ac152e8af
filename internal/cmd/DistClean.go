package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kamrann/build2-vs/intellisense"
	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
	"github.com/urfave/cli/v2"
)

var CommandDistClean = &cli.Command{
	Name:      "distclean",
	Usage:     "erase generated IntelliSense files and the index",
	ArgsUsage: "[PKG...]",
	Action: func(c *cli.Context) error {
		return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
			packages, err := selectPackages(env.Workspace, c.Args().Slice())
			if err != nil {
				return err
			}

			for _, pkg := range packages {
				distCleanFile(filepath.Join(env.Workspace.PackageDir(pkg), intellisense.CppPropertiesFilename))
			}

			if !c.Args().Present() {
				base.LogClaim(LogCommand, "dist-clean %q", env.Workspace.Root)
				distCleanFile(filepath.Join(env.Workspace.Root, intellisense.VscodePropertiesFolder, intellisense.VscodePropertiesFile))

				// clean the index, not the settings
				if env.Store != nil {
					env.Store.Clear()
					distCleanFile(env.Store.Path)
				}
			}
			return nil
		})
	},
}

func distCleanFile(f string) {
	if internal_io.Exists(f) {
		base.LogVerbose(LogCommand, "remove file %q", f)
		if err := os.Remove(f); err != nil {
			base.LogWarning(LogCommand, "distclean: %v", err)
		}
	}
}
