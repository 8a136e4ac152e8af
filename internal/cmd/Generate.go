package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kamrann/build2-vs/intellisense"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/workspace"
	"github.com/urfave/cli/v2"
)

type OutputFormat int32

const (
	OUTPUT_CPPPROPERTIES OutputFormat = iota
	OUTPUT_VSCODE
	OUTPUT_JSON
)

func (x OutputFormat) String() string {
	switch x {
	case OUTPUT_CPPPROPERTIES:
		return "cppproperties"
	case OUTPUT_VSCODE:
		return "vscode"
	case OUTPUT_JSON:
		return "json"
	default:
		return fmt.Sprintf("OutputFormat(%d)", int32(x))
	}
}
func (x *OutputFormat) Set(in string) error {
	for _, it := range []OutputFormat{OUTPUT_CPPPROPERTIES, OUTPUT_VSCODE, OUTPUT_JSON} {
		if strings.EqualFold(it.String(), in) {
			*x = it
			return nil
		}
	}
	return base.MakeUnexpectedValueError(x, in)
}

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "cppproperties (Visual Studio), vscode or json (stdout)",
	Value:   OUTPUT_CPPPROPERTIES.String(),
}

var CommandGenerate = &cli.Command{
	Name:      "generate",
	Usage:     "generate IntelliSense configurations from the compiler invocations of every build configuration",
	ArgsUsage: "[PKG...]",
	Flags: []cli.Flag{
		formatFlag,
		&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "print what would be written"},
	},
	Action: func(c *cli.Context) error {
		var format OutputFormat
		if err := format.Set(c.String("format")); err != nil {
			return err
		}

		return withCommandEnv(c, func(ctx context.Context, env *CommandEnv) error {
			packages, err := selectPackages(env.Workspace, c.Args().Slice())
			if err != nil {
				return err
			}
			return generateIntelliSense(ctx, env, packages, format, c.Bool("dry-run"))
		})
	},
}

func generateIntelliSense(ctx context.Context, env *CommandEnv, packages []workspace.PackageLocation, format OutputFormat, dryRun bool) error {
	filters, err := intellisense.FiltersFromSettings(env.Settings)
	if err != nil {
		return err
	}

	locations := base.Map(func(it workspace.PackageLocation) string { return it.Location }, packages...)
	generated, err := env.IntelliSense().Generate(ctx, locations, filters)
	if err != nil {
		return err
	}

	switch format {
	case OUTPUT_JSON:
		return base.JsonSerialize(generated, os.Stdout, base.OptionJsonPrettyPrint(true))

	case OUTPUT_VSCODE:
		if dryRun {
			printLine("would write %d packages to .vscode", len(generated))
			return nil
		}
		path, err := intellisense.WriteVscodeProperties(env.Workspace.Root, generated)
		if err != nil {
			return err
		}
		base.LogClaim(LogCommand, "wrote %q", path)

	default:
		for _, location := range base.SortedKeys(generated) {
			configs := generated[location]
			dir := env.Workspace.Rooted(location)
			if dryRun {
				printLine("would write %d configurations to %q", len(configs), dir)
				continue
			}
			path, err := intellisense.WriteCppProperties(dir, configs)
			if err != nil {
				return err
			}
			base.LogClaim(LogCommand, "wrote %q (%d configurations)", path, len(configs))
		}
	}
	return nil
}
