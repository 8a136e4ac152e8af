package index

import (
	"context"
	"fmt"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/kamrann/build2-vs/workspace"
	"golang.org/x/sync/errgroup"
)

// ConfigurationEnumerator is the on-demand query the indexer records results of.
type ConfigurationEnumerator interface {
	ProjectConfigurations(ctx context.Context, root string) ([]toolchain.BuildConfiguration, error)
	PackageConfigurations(ctx context.Context, packageDir, packageName string) ([]toolchain.BuildConfiguration, error)
}

var _ ConfigurationEnumerator = toolchain.Enumerator{}

type IndexStats struct {
	Manifests      int
	Configurations int
}

// Indexer fills a store with the build configurations of a project and each of its packages.
type Indexer struct {
	Store      *Store
	Workspace  *workspace.Workspace
	Enumerator ConfigurationEnumerator
	Jobs       int
}

func (x *Indexer) Run(ctx context.Context) (IndexStats, error) {
	defer base.LogBenchmark(LogIndex, "index %q", x.Workspace.Root).Close()

	packages, err := x.Workspace.Packages()
	if err != nil {
		return IndexStats{}, err
	}

	type result struct {
		manifest string
		configs  []toolchain.BuildConfiguration
	}
	results := make([]result, len(packages)+1)

	group, groupCtx := errgroup.WithContext(ctx)
	if x.Jobs > 0 {
		group.SetLimit(x.Jobs)
	}

	if x.Workspace.IsMultiPackageProject() {
		group.Go(func() error {
			configs, err := x.Enumerator.ProjectConfigurations(groupCtx, x.Workspace.Root)
			if err != nil {
				return fmt.Errorf("project %q: %w", x.Workspace.Root, err)
			}
			results[0] = result{manifest: x.Workspace.PackageListPath(), configs: configs}
			return nil
		})
	}

	for i, pkg := range packages {
		i, pkg := i, pkg
		group.Go(func() error {
			dir := x.Workspace.PackageDir(pkg)
			configs, err := x.Enumerator.PackageConfigurations(groupCtx, dir, pkg.Name)
			if err != nil {
				return fmt.Errorf("package %q: %w", pkg.Location, err)
			}
			results[i+1] = result{manifest: x.Workspace.PackageManifestPath(dir), configs: configs}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return IndexStats{}, err
	}

	var stats IndexStats
	for _, it := range results {
		if len(it.manifest) == 0 {
			continue
		}
		if err := Put(x.Store, it.manifest, TypeIdBuildConfiguration, it.configs...); err != nil {
			return IndexStats{}, err
		}
		stats.Manifests++
		stats.Configurations += len(it.configs)
		base.LogVerbose(LogIndex, "%q: %d configurations", it.manifest, len(it.configs))
	}
	return stats, x.Store.Save(ctx)
}
