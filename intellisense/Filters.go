package intellisense

import (
	"fmt"
	"regexp"

	"github.com/kamrann/build2-vs/internal/settings"
)

// Filters are the exclude lists applied by the generator: packages matching any package pattern
// are skipped before resolution, configurations matching any configuration pattern after it.
type Filters struct {
	ignorePackages []*regexp.Regexp
	ignoreConfigs  []*regexp.Regexp
}

func NewFilters(ignorePackagePatterns, ignoreBuildConfigPatterns []string) (Filters, error) {
	packages, err := compilePatterns(ignorePackagePatterns)
	if err != nil {
		return Filters{}, err
	}
	configs, err := compilePatterns(ignoreBuildConfigPatterns)
	if err != nil {
		return Filters{}, err
	}
	return Filters{ignorePackages: packages, ignoreConfigs: configs}, nil
}

func FiltersFromSettings(s *settings.Settings) (Filters, error) {
	return NewFilters(s.CompileCommands.IgnorePackagePatterns, s.CompileCommands.IgnoreBuildConfigPatterns)
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	result := make([]*regexp.Regexp, len(patterns))
	for i, it := range patterns {
		re, err := regexp.Compile(it)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", settings.ErrInvalidPattern, it, err)
		}
		result[i] = re
	}
	return result, nil
}

func (x Filters) ExcludesPackage(location string) bool {
	return matchAny(x.ignorePackages, location)
}

func (x Filters) ExcludesConfiguration(name string) bool {
	return matchAny(x.ignoreConfigs, name)
}

func matchAny(patterns []*regexp.Regexp, in string) bool {
	for _, re := range patterns {
		if re.MatchString(in) {
			return true
		}
	}
	return false
}
