package toolchain

import (
	"fmt"
	"path/filepath"
)

// BuildConfiguration identifies one build2 configuration a package or project is initialized in.
type BuildConfiguration struct {
	ConfigurationName string `json:"name"`
	ConfigDir         string `json:"configDir"`
	TargetPath        string `json:"targetPath"`

	Id      int  `json:"id,omitempty"`
	Default bool `json:"default,omitempty"`
}

func (x BuildConfiguration) String() string {
	return fmt.Sprintf("%s (%s)", x.ConfigurationName, x.ConfigDir)
}

// PackageBuildDir is where build2 puts the output of packageName when built in this configuration.
func (x BuildConfiguration) PackageBuildDir(packageName string) string {
	return filepath.Join(x.ConfigDir, packageName) + string(filepath.Separator)
}
