package cmd

import (
	"fmt"

	"github.com/hbollon/go-edlib"
	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/workspace"
)

const suggestionMinSimilarity = 0.6

// suggest returns the candidate closest to in, if any is close enough.
func suggest(in string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	match, err := edlib.FuzzySearchThreshold(in, candidates, suggestionMinSimilarity, edlib.Levenshtein)
	if err != nil || len(match) == 0 {
		return "", false
	}
	return match, true
}

// selectPackages maps command arguments to package locations, every package when args is empty.
func selectPackages(ws *workspace.Workspace, args []string) ([]workspace.PackageLocation, error) {
	packages, err := ws.Packages()
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return packages, nil
	}

	candidates := make([]string, 0, 2*len(packages))
	for _, it := range packages {
		candidates = append(candidates, it.Location, it.Name)
	}

	result := make([]workspace.PackageLocation, 0, len(args))
	for _, arg := range args {
		i, found := base.IndexIf(func(pkg workspace.PackageLocation) bool {
			return pkg.Location == arg || pkg.Name == arg || ws.PackageDir(pkg) == ws.Rooted(arg)
		}, packages...)
		if found {
			result = append(result, packages[i])
			continue
		}

		if match, ok := suggest(arg, candidates); ok {
			return nil, fmt.Errorf("unknown package %q, did you mean %q?", arg, match)
		}
		return nil, fmt.Errorf("unknown package %q", arg)
	}
	return result, nil
}
