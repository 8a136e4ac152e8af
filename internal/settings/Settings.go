package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/pelletier/go-toml/v2"
)

var LogSettings = base.NewLogCategory("Settings")

var ErrInvalidPattern = errors.New("invalid pattern")

const (
	JsonFilename = ".build2vs.json"
	TomlFilename = ".build2vs.toml"
)

type TraceMode string

const (
	// TRACE_FORCED dry-runs clean then update, so every compile command gets printed.
	TRACE_FORCED TraceMode = "forced"
	// TRACE_INCREMENTAL only reports the commands build2 considers out of date.
	TRACE_INCREMENTAL TraceMode = "incremental"
)

type Toolchain struct {
	B          string `json:"b" toml:"b"`
	BDep       string `json:"bdep" toml:"bdep"`
	LockFile   string `json:"lockFile,omitempty" toml:"lockFile,omitempty"`
	QueueDepth int    `json:"queueDepth,omitempty" toml:"queueDepth,omitempty"`
}

type CompileCommands struct {
	IgnorePackagePatterns     []string  `json:"ignorePackagePatterns" toml:"ignorePackagePatterns"`
	IgnoreBuildConfigPatterns []string  `json:"ignoreBuildConfigPatterns" toml:"ignoreBuildConfigPatterns"`
	TraceMode                 TraceMode `json:"traceMode" toml:"traceMode"`
}

type Index struct {
	Path        string                 `json:"path,omitempty" toml:"path,omitempty"`
	Compression base.CompressionFormat `json:"compression" toml:"compression"`
	Disabled    bool                   `json:"disabled,omitempty" toml:"disabled,omitempty"`
}

type Settings struct {
	Toolchain       Toolchain       `json:"toolchain" toml:"toolchain"`
	CompileCommands CompileCommands `json:"compileCommands" toml:"compileCommands"`
	Index           Index           `json:"index" toml:"index"`
	LogLevel        base.LogLevel   `json:"logLevel" toml:"logLevel"`

	// file the settings were read from, empty for defaults
	Source string `json:"-" toml:"-"`
}

func Default() *Settings {
	return &Settings{
		Toolchain: Toolchain{
			B:          "b",
			BDep:       "bdep",
			QueueDepth: 64,
		},
		CompileCommands: CompileCommands{
			TraceMode: TRACE_FORCED,
		},
		Index: Index{
			Compression: base.COMPRESSION_FORMAT_LZ4,
		},
		LogLevel: base.LOG_INFO,
	}
}

// Load reads settings from path when given, otherwise looks for a settings file in root.
// No settings file at all is not an error: defaults are returned.
func Load(root, path string) (*Settings, error) {
	if len(path) == 0 {
		for _, name := range []string{JsonFilename, TomlFilename} {
			candidate := filepath.Join(root, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	result := Default()
	if len(path) == 0 {
		base.LogVerbose(LogSettings, "no settings file found in %q, using defaults", root)
		return result, result.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := Decode(path, data, result); err != nil {
		return nil, fmt.Errorf("parse settings %q: %w", path, err)
	}
	result.Source = path

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("settings %q: %w", path, err)
	}

	base.LogVerbose(LogSettings, "loaded settings from %q", path)
	return result, nil
}

// Decode merges data over dst, the format is chosen from the file extension.
func Decode(path string, data []byte, dst *Settings) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(dst)
	case ".json":
		return base.JsonUnmarshal(data, dst)
	default:
		return base.MakeUnexpectedValueError(path, filepath.Ext(path))
	}
}

func (x *Settings) Validate() error {
	if len(x.Toolchain.B) == 0 {
		return errors.New("toolchain.b cannot be empty")
	}
	if len(x.Toolchain.BDep) == 0 {
		return errors.New("toolchain.bdep cannot be empty")
	}
	if x.Toolchain.QueueDepth < 0 {
		return fmt.Errorf("toolchain.queueDepth must be positive, got %d", x.Toolchain.QueueDepth)
	}

	switch x.CompileCommands.TraceMode {
	case "":
		x.CompileCommands.TraceMode = TRACE_FORCED
	case TRACE_FORCED, TRACE_INCREMENTAL:
	default:
		return fmt.Errorf("compileCommands.traceMode: unknown mode %q", x.CompileCommands.TraceMode)
	}

	if err := ValidatePatterns(x.CompileCommands.IgnorePackagePatterns...); err != nil {
		return fmt.Errorf("compileCommands.ignorePackagePatterns: %w", err)
	}
	if err := ValidatePatterns(x.CompileCommands.IgnoreBuildConfigPatterns...); err != nil {
		return fmt.Errorf("compileCommands.ignoreBuildConfigPatterns: %w", err)
	}
	return nil
}

func ValidatePatterns(patterns ...string) error {
	for _, it := range patterns {
		if _, err := regexp.Compile(it); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidPattern, it, err)
		}
	}
	return nil
}

// IndexPath returns where the configuration index of the project rooted at root is persisted.
func (x *Settings) IndexPath(root string) string {
	if len(x.Index.Path) > 0 {
		if filepath.IsAbs(x.Index.Path) {
			return x.Index.Path
		}
		return filepath.Join(root, x.Index.Path)
	}
	return filepath.Join(root, ".b2vs", "index"+x.Index.Compression.Extname())
}
