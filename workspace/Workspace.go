package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
)

var LogWorkspace = base.NewLogCategory("Workspace")

// Workspace is a build2 project opened at its root directory.
type Workspace struct {
	Root   string
	Events Events
}

func Open(root string) (*Workspace, error) {
	canonical, err := internal_io.CanonicalPath(root)
	if err != nil {
		return nil, err
	}
	if !internal_io.IsDir(canonical) {
		return nil, fmt.Errorf("workspace root %q is not a directory", root)
	}
	base.LogVerbose(LogWorkspace, "open workspace %q", canonical)
	return &Workspace{Root: canonical}, nil
}

func (x *Workspace) String() string { return x.Root }

func (x *Workspace) PackageListPath() string {
	return filepath.Join(x.Root, PackageListManifestFilename)
}

// Rooted makes a relative path relative to the workspace root.
func (x *Workspace) Rooted(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(x.Root, path)
}

// PackageManifestPath returns the manifest of the package in dir.
func (x *Workspace) PackageManifestPath(dir string) string {
	return filepath.Join(x.Rooted(dir), PackageManifestFilename)
}

func (x *Workspace) PackageDir(pkg PackageLocation) string {
	return x.Rooted(pkg.Location)
}

// IsMultiPackageProject is true when packages.manifest lists more than one package.
func (x *Workspace) IsMultiPackageProject() bool {
	packages, err := ReadPackageList(x.PackageListPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			base.LogWarning(LogWorkspace, "can't read package list: %v", err)
		}
		return false
	}
	return len(packages) > 1
}

// Packages lists the packages of the project, with their names read from each package manifest.
// Without packages.manifest, a root manifest makes the root the only package, else packages
// are discovered on disk.
func (x *Workspace) Packages() ([]PackageLocation, error) {
	packages, err := ReadPackageList(x.PackageListPath())
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		if internal_io.Exists(filepath.Join(x.Root, PackageManifestFilename)) {
			packages = []PackageLocation{{Location: "."}}
		} else if packages, err = DiscoverPackages(x.Root); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	for i, pkg := range packages {
		if len(pkg.Name) > 0 {
			continue
		}
		name, err := x.PackageName(x.PackageDir(pkg))
		if err != nil {
			base.LogWarning(LogWorkspace, "package %q: %v", pkg.Location, err)
			name = filepath.Base(x.PackageDir(pkg))
		}
		packages[i].Name = name
	}
	return packages, nil
}

// PackageName reads the name of the package at dir from its manifest.
func (x *Workspace) PackageName(dir string) (string, error) {
	manifest, err := ReadPackageManifest(x.PackageManifestPath(dir))
	if err != nil {
		return "", err
	}
	return manifest.Name, nil
}

// FindPackage returns the package whose location or directory matches path.
func (x *Workspace) FindPackage(path string) (PackageLocation, bool) {
	packages, err := x.Packages()
	if err != nil {
		return PackageLocation{}, false
	}
	dir := x.Rooted(path)
	for _, it := range packages {
		if x.PackageDir(it) == dir {
			return it, true
		}
	}
	return PackageLocation{}, false
}
