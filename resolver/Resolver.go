package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/kamrann/build2-vs/index"
	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/kamrann/build2-vs/workspace"
)

var LogResolver = base.NewLogCategory("Resolver")

var ErrNoConfigurations = errors.New("no build configuration found")

/***************************************
 * Mode
 ***************************************/

type Mode int32

const (
	MODE_PACKAGE Mode = iota
	MODE_PROJECT
)

func (x Mode) String() string {
	switch x {
	case MODE_PACKAGE:
		return "PACKAGE"
	case MODE_PROJECT:
		return "PROJECT"
	default:
		return fmt.Sprintf("Mode(%d)", int32(x))
	}
}

// ModeForPath selects project mode only for the root of a multi-package project.
func ModeForPath(ws *workspace.Workspace, path string) Mode {
	canonical, err := internal_io.CanonicalPath(ws.Rooted(path))
	if err != nil {
		return MODE_PACKAGE
	}
	if canonical == ws.Root && ws.IsMultiPackageProject() {
		return MODE_PROJECT
	}
	return MODE_PACKAGE
}

// ManifestPathFor returns the manifest holding the configurations of path.
func ManifestPathFor(ws *workspace.Workspace, path string, mode Mode) string {
	if mode == MODE_PROJECT {
		return ws.PackageListPath()
	}
	return ws.PackageManifestPath(path)
}

/***************************************
 * Resolver
 ***************************************/

type Resolver interface {
	Resolve(ctx context.Context, path string, mode Mode) ([]toolchain.BuildConfiguration, error)
}

type ResolverFunc func(ctx context.Context, path string, mode Mode) ([]toolchain.BuildConfiguration, error)

func (x ResolverFunc) Resolve(ctx context.Context, path string, mode Mode) ([]toolchain.BuildConfiguration, error) {
	return x(ctx, path, mode)
}

// Indexed reads configurations previously recorded by the indexer.
type Indexed struct {
	Store     *index.Store
	Workspace *workspace.Workspace
}

func (x Indexed) Resolve(ctx context.Context, path string, mode Mode) ([]toolchain.BuildConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	manifest := ManifestPathFor(x.Workspace, path, mode)
	configs, err := index.Decode[toolchain.BuildConfiguration](x.Store, manifest, index.TypeIdBuildConfiguration)
	if err != nil {
		return nil, err
	}
	base.LogTrace(LogResolver, "indexed: %d configurations for %q", len(configs), manifest)
	return configs, nil
}

// OnDemand asks bdep for the configurations of path.
type OnDemand struct {
	Enumerator index.ConfigurationEnumerator
	Workspace  *workspace.Workspace
}

func (x OnDemand) Resolve(ctx context.Context, path string, mode Mode) ([]toolchain.BuildConfiguration, error) {
	dir := x.Workspace.Rooted(path)
	if mode == MODE_PROJECT {
		return x.Enumerator.ProjectConfigurations(ctx, dir)
	}

	name, err := x.Workspace.PackageName(dir)
	if err != nil {
		base.LogWarning(LogResolver, "on-demand: can't read package name of %q, accepting any package: %v", dir, err)
	}
	return x.Enumerator.PackageConfigurations(ctx, dir, name)
}

/***************************************
 * Chain
 ***************************************/

type chain []Resolver

// Chain returns the result of the first resolver yielding a non-empty result, later resolvers
// are not invoked. A failing resolver is logged and counts as empty, cancellation is returned.
func Chain(resolvers ...Resolver) Resolver {
	return chain(resolvers)
}

func (x chain) Resolve(ctx context.Context, path string, mode Mode) ([]toolchain.BuildConfiguration, error) {
	for i, it := range x {
		configs, err := it.Resolve(ctx, path, mode)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			base.LogWarning(LogResolver, "strategy #%d failed for %q: %v", i, path, err)
			continue
		}
		if len(configs) > 0 {
			base.LogVerbose(LogResolver, "%v %q resolved by strategy #%d: %v", mode, path, i, configs)
			return configs, nil
		}
	}
	return nil, nil
}

// Default tries the index first, then bdep. A nil store skips the index.
func Default(ws *workspace.Workspace, store *index.Store, enumerator index.ConfigurationEnumerator) Resolver {
	var resolvers []Resolver
	if store != nil {
		resolvers = append(resolvers, Indexed{Store: store, Workspace: ws})
	}
	resolvers = append(resolvers, OnDemand{Enumerator: enumerator, Workspace: ws})
	return Chain(resolvers...)
}

// ResolvePath resolves path with the mode its identity implies.
func ResolvePath(ctx context.Context, r Resolver, ws *workspace.Workspace, path string) ([]toolchain.BuildConfiguration, error) {
	return r.Resolve(ctx, ws.Rooted(path), ModeForPath(ws, path))
}
