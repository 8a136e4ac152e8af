package intellisense

import (
	"strings"

	"github.com/kamrann/build2-vs/compiledb"
	"github.com/kamrann/build2-vs/internal/base"
)

// PackageIntelliSenseConfig is what an editor needs to know about one package built in one configuration.
type PackageIntelliSenseConfig struct {
	PackageName       string   `json:"packageName"`
	ConfigurationName string   `json:"configurationName"`
	IncludePaths      []string `json:"includePaths"`
	Definitions       []string `json:"definitions"`
	CompilerSwitches  string   `json:"compilerSwitches"`
	CompilerOptions   []string `json:"-"`
}

func (x PackageIntelliSenseConfig) String() string {
	return x.PackageName + "/" + x.ConfigurationName
}

// Fold merges the translation units of one configuration. Include paths and definitions keep the
// first occurrence of each value, compiler options are kept as they come.
func Fold(packageName, configurationName string, entries []compiledb.CompileCommandEntry) PackageIntelliSenseConfig {
	var includePaths, definitions base.SetT[string]
	var options []string
	for _, it := range entries {
		includePaths.AppendUniq(it.IncludePaths...)
		definitions.AppendUniq(it.Definitions...)
		options = append(options, it.CompilerOptions...)
	}

	return PackageIntelliSenseConfig{
		PackageName:       packageName,
		ConfigurationName: configurationName,
		IncludePaths:      emptyIfNil(includePaths.Slice()),
		Definitions:       emptyIfNil(definitions.Slice()),
		CompilerSwitches:  strings.Join(options, " "),
		CompilerOptions:   emptyIfNil(options),
	}
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
