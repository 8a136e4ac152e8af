package workspace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	internal_io "github.com/kamrann/build2-vs/internal/io"
)

const (
	PackageManifestFilename     = "manifest"
	PackageListManifestFilename = "packages.manifest"
)

/***************************************
 * Manifest
 ***************************************/

type ManifestValue struct {
	Name  string
	Value string
}

// Manifest is one list of name/value pairs, in file order.
type Manifest []ManifestValue

func (x Manifest) Get(name string) (string, bool) {
	for _, it := range x {
		if it.Name == name {
			return it.Value, true
		}
	}
	return "", false
}

func (x Manifest) GetAll(name string) (result []string) {
	for _, it := range x {
		if it.Name == name {
			result = append(result, it.Value)
		}
	}
	return
}

// ParseManifests reads a manifest stream: a sequence of manifests, each started by a
// format version line (": 1") and separated by lines holding a single colon.
func ParseManifests(rd io.Reader) (result []Manifest, err error) {
	var current Manifest
	started := false

	scanner := bufio.NewScanner(rd)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		// "name:\" starts a multi-line value, closed by a line holding a single backslash
		if strings.HasSuffix(line, `:\`) {
			name := strings.TrimSpace(strings.TrimSuffix(line, `:\`))
			var lines []string
			closed := false
			for scanner.Scan() {
				lineNumber++
				if strings.TrimSpace(scanner.Text()) == `\` {
					closed = true
					break
				}
				lines = append(lines, scanner.Text())
			}
			if !closed {
				return nil, fmt.Errorf("manifest line %d: unterminated multi-line value %q", lineNumber, name)
			}
			started = true
			current = append(current, ManifestValue{Name: name, Value: strings.Join(lines, "\n")})
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("manifest line %d: expected 'name: value', got %q", lineNumber, line)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if len(name) == 0 {
			// format version or manifest separator
			if started && len(current) > 0 {
				result = append(result, current)
			}
			current = nil
			started = true
			continue
		}

		started = true
		current = append(current, ManifestValue{Name: name, Value: value})
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		result = append(result, current)
	}
	return result, nil
}

func ReadManifests(path string) (result []Manifest, err error) {
	err = internal_io.OpenFile(path, func(f *os.File) error {
		result, err = ParseManifests(f)
		return err
	})
	return
}

/***************************************
 * Package manifest
 ***************************************/

type PackageManifest struct {
	Name    string
	Version string
	Project string
	Summary string
}

func ReadPackageManifest(path string) (*PackageManifest, error) {
	manifests, err := ReadManifests(path)
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		return nil, fmt.Errorf("empty package manifest %q", path)
	}

	values := manifests[0]
	result := &PackageManifest{}
	result.Name, _ = values.Get("name")
	result.Version, _ = values.Get("version")
	result.Project, _ = values.Get("project")
	result.Summary, _ = values.Get("summary")

	if len(result.Name) == 0 {
		return nil, fmt.Errorf("package manifest %q has no name", path)
	}
	return result, nil
}

/***************************************
 * Package list manifest
 ***************************************/

// PackageLocation is a package of the project, Location is relative to the project root.
type PackageLocation struct {
	Location string `json:"location"`
	Name     string `json:"name"`
}

func (x PackageLocation) String() string { return x.Location }

func ReadPackageList(path string) ([]PackageLocation, error) {
	manifests, err := ReadManifests(path)
	if err != nil {
		return nil, err
	}

	result := make([]PackageLocation, 0, len(manifests))
	for _, it := range manifests {
		location, ok := it.Get("location")
		if !ok {
			return nil, fmt.Errorf("package list %q: entry without location", path)
		}
		result = append(result, PackageLocation{Location: strings.TrimRight(location, `/\`)})
	}
	return result, nil
}
