package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	s, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "b", s.Toolchain.B)
	assert.Equal(t, "bdep", s.Toolchain.BDep)
	assert.Equal(t, TRACE_FORCED, s.CompileCommands.TraceMode)
	assert.Empty(t, s.Source)
}

func TestLoadJson(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, JsonFilename), `{
		"toolchain": {"b": "/opt/build2/bin/b"},
		"compileCommands": {
			"ignorePackagePatterns": ["^tests/"],
			"ignoreBuildConfigPatterns": ["-release$"],
			"traceMode": "incremental"
		},
		"index": {"compression": "ZSTD"},
		"logLevel": "VERBOSE"
	}`)

	s, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/build2/bin/b", s.Toolchain.B)
	assert.Equal(t, "bdep", s.Toolchain.BDep, "unset fields keep their default")
	assert.Equal(t, []string{"^tests/"}, s.CompileCommands.IgnorePackagePatterns)
	assert.Equal(t, []string{"-release$"}, s.CompileCommands.IgnoreBuildConfigPatterns)
	assert.Equal(t, TRACE_INCREMENTAL, s.CompileCommands.TraceMode)
	assert.Equal(t, base.COMPRESSION_FORMAT_ZSTD, s.Index.Compression)
	assert.Equal(t, base.LOG_VERBOSE, s.LogLevel)
	assert.Equal(t, filepath.Join(root, ".b2vs", "index.zst"), s.IndexPath(root))
}

func TestLoadToml(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, TomlFilename), `
logLevel = "WARNING"

[toolchain]
bdep = "bdep-0.17"
lockFile = "/tmp/b2vs.lock"

[compileCommands]
ignorePackagePatterns = ["-tests$"]
`)

	s, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "bdep-0.17", s.Toolchain.BDep)
	assert.Equal(t, "/tmp/b2vs.lock", s.Toolchain.LockFile)
	assert.Equal(t, []string{"-tests$"}, s.CompileCommands.IgnorePackagePatterns)
	assert.Equal(t, base.LOG_WARNING, s.LogLevel)
	assert.Equal(t, filepath.Join(root, ".b2vs", "index.lz4"), s.IndexPath(root))
}

func TestLoadRejectsInvalidPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, JsonFilename), `{"compileCommands": {"ignoreBuildConfigPatterns": ["(unclosed"]}}`)

	_, err := Load(root, "")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestLoadRejectsUnknownTraceMode(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "custom.json")
	writeFile(t, path, `{"compileCommands": {"traceMode": "sometimes"}}`)

	_, err := Load(root, path)
	assert.Error(t, err)
}
