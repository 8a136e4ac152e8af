package intellisense

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
)

const (
	CppPropertiesFilename  = "CppProperties.json"
	VscodePropertiesFolder = ".vscode"
	VscodePropertiesFile   = "c_cpp_properties.json"

	Build2VSEnvironmentName     = "build2-VS"
	Build2VSGeneratedEnvVarName = "BUILD2-VS-GENERATED"
)

/***************************************
 * CppProperties.json (Visual Studio open folder)
 ***************************************/

type cppPropertiesEnvironment struct {
	Name      string `json:"name"`
	Generated string `json:"BUILD2-VS-GENERATED"`
}

type cppPropertiesConfiguration struct {
	Name             string   `json:"name"`
	IncludePath      []string `json:"includePath"`
	Defines          []string `json:"defines"`
	CompilerSwitches string   `json:"compilerSwitches"`
}

type cppProperties struct {
	Environments   []cppPropertiesEnvironment   `json:"environments"`
	Configurations []cppPropertiesConfiguration `json:"configurations"`
}

// generatedValue prefixes a value with the empty marker variable, so generated entries can be told
// apart from the ones users add by hand.
func generatedValue(value string) string {
	return fmt.Sprintf("${env.%s}%s", Build2VSGeneratedEnvVarName, value)
}

func makeCppProperties(configs []PackageIntelliSenseConfig) cppProperties {
	result := cppProperties{
		Environments:   []cppPropertiesEnvironment{{Name: Build2VSEnvironmentName}},
		Configurations: make([]cppPropertiesConfiguration, len(configs)),
	}
	for i, cfg := range configs {
		includePath := append([]string{"${env.INCLUDE}"}, base.Map(generatedValue, cfg.IncludePaths...)...)
		defines := base.Map(generatedValue, cfg.Definitions...)

		result.Configurations[i] = cppPropertiesConfiguration{
			Name:             cfg.ConfigurationName,
			IncludePath:      includePath,
			Defines:          defines,
			CompilerSwitches: cfg.CompilerSwitches,
		}
	}
	return result
}

// WriteCppProperties writes the CppProperties.json of one package in packageDir. Visual Studio
// picks the closest one walking up from a source file, so each package gets its own.
func WriteCppProperties(packageDir string, configs []PackageIntelliSenseConfig) (string, error) {
	path := filepath.Join(packageDir, CppPropertiesFilename)
	base.LogVerbose(LogIntelliSense, "writing %d configurations to %q", len(configs), path)
	return path, internal_io.SafeCreate(path, func(w io.Writer) error {
		return base.JsonSerialize(makeCppProperties(configs), w, base.OptionJsonPrettyPrint(true))
	})
}

/***************************************
 * c_cpp_properties.json (Visual Studio Code)
 ***************************************/

type vscodeConfiguration struct {
	Name         string   `json:"name"`
	IncludePath  []string `json:"includePath"`
	Defines      []string `json:"defines"`
	CompilerArgs []string `json:"compilerArgs,omitempty"`
}

type vscodeProperties struct {
	Version        int                   `json:"version"`
	Configurations []vscodeConfiguration `json:"configurations"`
}

func makeVscodeProperties(packages map[string][]PackageIntelliSenseConfig) vscodeProperties {
	result := vscodeProperties{Version: 4, Configurations: []vscodeConfiguration{}}
	for _, path := range base.SortedKeys(packages) {
		for _, cfg := range packages[path] {
			result.Configurations = append(result.Configurations, vscodeConfiguration{
				Name:         fmt.Sprintf("%s (%s)", cfg.PackageName, cfg.ConfigurationName),
				IncludePath:  cfg.IncludePaths,
				Defines:      cfg.Definitions,
				CompilerArgs: cfg.CompilerOptions,
			})
		}
	}
	return result
}

// WriteVscodeProperties writes one .vscode/c_cpp_properties.json in root for every package.
func WriteVscodeProperties(root string, packages map[string][]PackageIntelliSenseConfig) (string, error) {
	path := filepath.Join(root, VscodePropertiesFolder, VscodePropertiesFile)
	base.LogVerbose(LogIntelliSense, "writing %d packages to %q", len(packages), path)
	return path, internal_io.SafeCreate(path, func(w io.Writer) error {
		return base.JsonSerialize(makeVscodeProperties(packages), w, base.OptionJsonPrettyPrint(true))
	})
}
