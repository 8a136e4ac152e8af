package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kamrann/build2-vs/compiledb"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/resolver"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/urfave/cli/v2"
)

var CommandCompileDb = &cli.Command{
	Name:      "compiledb",
	Usage:     "write compile_commands.json for one build configuration",
	ArgsUsage: "[PKG...]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "configuration name, defaults to the default configuration"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file, '-' for stdout", Value: "compile_commands.json"},
	},
	Action: func(c *cli.Context) error {
		return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
			packages, err := selectPackages(env.Workspace, c.Args().Slice())
			if err != nil {
				return err
			}

			r := env.Resolver()
			var db compiledb.CompilationDatabase
			for _, pkg := range packages {
				dir := env.Workspace.PackageDir(pkg)
				configs, err := r.Resolve(ctx, dir, resolver.MODE_PACKAGE)
				if err != nil {
					return err
				}

				cfg, ok := selectConfiguration(configs, c.String("config"))
				if !ok {
					base.LogWarning(LogCommand, "%s: no configuration named %q", pkg.Name, c.String("config"))
					continue
				}

				entries, err := env.CompileCommands().Generate(ctx, []string{cfg.PackageBuildDir(pkg.Name)})
				if err != nil {
					return err
				}
				base.LogVerbose(LogCommand, "%s: %d compile commands in %v", pkg.Name, len(entries), cfg)
				db.Append(entries...)
			}

			output := c.String("output")
			if output == "-" {
				return db.Write(os.Stdout)
			}
			if !filepath.IsAbs(output) {
				output = env.Workspace.Rooted(output)
			}
			if err := compiledb.WriteCompilationDatabase(output, db); err != nil {
				return err
			}
			base.LogClaim(LogCommand, "wrote %d compile commands to %q", len(db), output)
			return nil
		})
	},
}

// selectConfiguration picks the configuration named name, or the default one when name is empty.
func selectConfiguration(configs []toolchain.BuildConfiguration, name string) (toolchain.BuildConfiguration, bool) {
	if i, found := base.IndexIf(func(cfg toolchain.BuildConfiguration) bool {
		if len(name) == 0 {
			return cfg.Default
		}
		return cfg.ConfigurationName == name
	}, configs...); found {
		return configs[i], true
	}
	if len(name) == 0 && len(configs) > 0 {
		return configs[0], true
	}
	return toolchain.BuildConfiguration{}, false
}
