package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
)

// DefaultDiscoveryExcludes are never searched for packages.
var DefaultDiscoveryExcludes = []string{
	"**/.*",
	"**/node_modules",
	"**/upstream",
}

type DiscoveryOptions struct {
	Excludes     []string
	UseGitIgnore bool
}

type DiscoveryOptionFunc func(*DiscoveryOptions)

func OptionDiscoveryExclude(globs ...string) DiscoveryOptionFunc {
	return func(o *DiscoveryOptions) {
		o.Excludes = append(o.Excludes, globs...)
	}
}
func OptionDiscoveryGitIgnore(enabled bool) DiscoveryOptionFunc {
	return func(o *DiscoveryOptions) {
		o.UseGitIgnore = enabled
	}
}

// DiscoverPackages finds package directories under root by looking for package manifests.
// Packages don't nest, build configurations and ignored directories are skipped.
func DiscoverPackages(root string, options ...DiscoveryOptionFunc) ([]PackageLocation, error) {
	opts := DiscoveryOptions{
		Excludes:     base.CopySlice(DefaultDiscoveryExcludes...),
		UseGitIgnore: true,
	}
	for _, it := range options {
		it(&opts)
	}
	for _, glob := range opts.Excludes {
		if !doublestar.ValidatePattern(glob) {
			return nil, base.MakeError("invalid discovery exclude pattern %q", glob)
		}
	}

	var ignore gitignore.GitIgnore
	if opts.UseGitIgnore {
		ignore = loadGitIgnore(root)
	}

	var result []PackageLocation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			base.LogDebug(LogWorkspace, "discovery: %v", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if rel != "." {
			if isExcluded(rel, opts.Excludes) {
				return filepath.SkipDir
			}
			if ignore != nil {
				if match := ignore.Relative(rel, true); match != nil && match.Ignore() {
					return filepath.SkipDir
				}
			}
		}

		if internal_io.Exists(filepath.Join(path, "build", "config.build")) {
			base.LogTrace(LogWorkspace, "discovery: skip build configuration %q", rel)
			return filepath.SkipDir
		}
		if internal_io.Exists(filepath.Join(path, PackageManifestFilename)) {
			base.LogTrace(LogWorkspace, "discovery: found package %q", rel)
			result = append(result, PackageLocation{Location: rel})
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Location < result[j].Location })
	return result, nil
}

func isExcluded(rel string, globs []string) bool {
	for _, glob := range globs {
		if ok, _ := doublestar.Match(glob, rel); ok {
			return true
		}
	}
	return false
}

func loadGitIgnore(root string) gitignore.GitIgnore {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, root, nil)
}
