package intellisense

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/kamrann/build2-vs/compiledb"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/resolver"
	"github.com/kamrann/build2-vs/workspace"
	"golang.org/x/sync/errgroup"
)

var LogIntelliSense = base.NewLogCategory("IntelliSense")

// Generator produces the IntelliSense metadata of packages, one entry per build configuration.
type Generator struct {
	Resolver  resolver.Resolver
	Source    compiledb.CompileCommandSource
	Workspace *workspace.Workspace
}

// Generate returns the configurations of each package path, keyed by the path as given.
// Packages run concurrently. On error or cancellation nothing is returned.
func (x *Generator) Generate(ctx context.Context, packagePaths []string, filters Filters) (map[string][]PackageIntelliSenseConfig, error) {
	defer base.LogBenchmark(LogIntelliSense, "generate %d packages", len(packagePaths)).Close()

	var barrier sync.Mutex
	result := make(map[string][]PackageIntelliSenseConfig, len(packagePaths))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, path := range packagePaths {
		if location := x.location(path); filters.ExcludesPackage(location) {
			base.LogVerbose(LogIntelliSense, "package %q is excluded", location)
			continue
		}

		path := path
		group.Go(func() error {
			configs, err := x.generatePackage(groupCtx, path, filters)
			if err != nil {
				return err
			}

			barrier.Lock()
			defer barrier.Unlock()
			result[path] = configs
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (x *Generator) generatePackage(ctx context.Context, path string, filters Filters) ([]PackageIntelliSenseConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := x.Workspace.Rooted(path)
	packageName, err := x.Workspace.PackageName(dir)
	if err != nil {
		base.LogWarning(LogIntelliSense, "%v, using the directory name as package name", err)
		packageName = filepath.Base(dir)
	}

	configs, err := x.Resolver.Resolve(ctx, dir, resolver.MODE_PACKAGE)
	if err != nil {
		return nil, err
	}

	result := make([]PackageIntelliSenseConfig, 0, len(configs))
	for _, cfg := range configs {
		if filters.ExcludesConfiguration(cfg.ConfigurationName) {
			base.LogVerbose(LogIntelliSense, "%s: configuration %q is excluded", packageName, cfg.ConfigurationName)
			continue
		}

		entries, err := x.Source.Generate(ctx, []string{cfg.PackageBuildDir(packageName)})
		if err != nil {
			return nil, err
		}

		folded := Fold(packageName, cfg.ConfigurationName, entries)
		base.LogVerbose(LogIntelliSense, "%v: %d translation units, %d include paths, %d definitions",
			folded, len(entries), len(folded.IncludePaths), len(folded.Definitions))
		result = append(result, folded)
	}
	return result, nil
}

// location is the path relative to the workspace root, the form package filters are written against.
func (x *Generator) location(path string) string {
	if rel, err := filepath.Rel(x.Workspace.Root, x.Workspace.Rooted(path)); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
