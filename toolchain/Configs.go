package toolchain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kamrann/build2-vs/internal/base"
)

/***************************************
 * bdep json output
 ***************************************/

type bdepConfiguration struct {
	Id      int    `json:"id"`
	Path    string `json:"path"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default bool   `json:"default,omitempty"`
}

type bdepPackageStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type bdepConfigurationStatus struct {
	Configuration bdepConfiguration   `json:"configuration"`
	Packages      []bdepPackageStatus `json:"packages"`
}

func (x bdepConfiguration) toBuildConfiguration(targetPath string) BuildConfiguration {
	configDir := filepath.Clean(x.Path)
	name := x.Name
	if len(name) == 0 {
		name = filepath.Base(configDir)
	}
	return BuildConfiguration{
		ConfigurationName: name,
		ConfigDir:         configDir,
		TargetPath:        targetPath,
		Id:                x.Id,
		Default:           x.Default,
	}
}

/***************************************
 * Enumerator
 ***************************************/

// Enumerator asks bdep which configurations a project or package is initialized in.
type Enumerator struct {
	BDep Invoker
}

func (x Enumerator) query(ctx context.Context, args []string, dst interface{}) error {
	var stdout []string
	exitCode, err := x.BDep.InvokeQueued(ctx, args,
		OptionInvokeCaptureStdOut(&stdout),
		OptionInvokeStdErr(func(line string) error {
			base.LogVerbose(LogToolchain, "bdep: %s", line)
			return nil
		}))
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("bdep %s: exit code %d", strings.Join(args, " "), exitCode)
	}

	payload := strings.TrimSpace(strings.Join(stdout, "\n"))
	if len(payload) == 0 {
		return nil
	}
	if err := base.JsonUnmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("bdep %s: invalid json output: %w", strings.Join(args, " "), err)
	}
	return nil
}

// ProjectConfigurations lists every configuration of the project rooted at root.
func (x Enumerator) ProjectConfigurations(ctx context.Context, root string) ([]BuildConfiguration, error) {
	var configs []bdepConfiguration
	if err := x.query(ctx, []string{"config", "list", "--stdout-format", "json", "-d", root}, &configs); err != nil {
		return nil, err
	}

	result := make([]BuildConfiguration, len(configs))
	for i, it := range configs {
		result[i] = it.toBuildConfiguration(root)
	}
	return result, nil
}

// PackageConfigurations lists the configurations the package in packageDir is initialized in.
func (x Enumerator) PackageConfigurations(ctx context.Context, packageDir, packageName string) ([]BuildConfiguration, error) {
	var status []bdepConfigurationStatus
	if err := x.query(ctx, []string{"status", "--all", "--stdout-format", "json", "-d", packageDir}, &status); err != nil {
		return nil, err
	}

	result := make([]BuildConfiguration, 0, len(status))
	for _, it := range status {
		if !it.hasPackage(packageName) {
			continue
		}
		result = append(result, it.Configuration.toBuildConfiguration(packageDir))
	}
	return result, nil
}

func (x bdepConfigurationStatus) hasPackage(name string) bool {
	for _, pkg := range x.Packages {
		if len(name) == 0 || pkg.Name == name {
			return pkg.Status != "unknown"
		}
	}
	return false
}
