package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/toolchain"
	"github.com/kamrann/build2-vs/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gccConfig = toolchain.BuildConfiguration{
	ConfigurationName: "gcc",
	ConfigDir:         "/work/hello-gcc",
	TargetPath:        "/work/hello/libfoo",
	Id:                1,
	Default:           true,
}

var clangConfig = toolchain.BuildConfiguration{
	ConfigurationName: "clang",
	ConfigDir:         "/work/hello-clang",
	TargetPath:        "/work/hello/libfoo",
	Id:                2,
}

func TestStoreRoundTrip(t *testing.T) {
	for _, format := range []base.CompressionFormat{base.COMPRESSION_FORMAT_LZ4, base.COMPRESSION_FORMAT_ZSTD} {
		t.Run(format.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index"+format.Extname())
			ctx := context.Background()

			store := NewStore(path, format)
			require.NoError(t, Put(store, "/work/hello/libfoo/manifest", TypeIdBuildConfiguration, gccConfig, clangConfig))
			require.NoError(t, Put(store, "/work/hello/packages.manifest", TypeIdBuildConfiguration, gccConfig))
			assert.True(t, store.Dirty())
			require.NoError(t, store.Save(ctx))
			assert.False(t, store.Dirty())

			loaded, err := OpenStore(ctx, path, format)
			require.NoError(t, err)
			assert.Equal(t, 2, loaded.Len())

			configs, err := Decode[toolchain.BuildConfiguration](loaded, "/work/hello/libfoo/manifest", TypeIdBuildConfiguration)
			require.NoError(t, err)
			assert.Equal(t, []toolchain.BuildConfiguration{gccConfig, clangConfig}, configs)

			record, ok := loaded.Get("/work/hello/packages.manifest", TypeIdBuildConfiguration)
			require.True(t, ok)
			assert.Equal(t, MakeKey("/work/hello/packages.manifest", TypeIdBuildConfiguration), record.Key)
			assert.Len(t, record.Values, 1)
		})
	}
}

func TestStoreKeys(t *testing.T) {
	store := NewStore("", base.COMPRESSION_FORMAT_LZ4)
	require.NoError(t, Put(store, "/work/hello/libfoo/manifest", TypeIdBuildConfiguration, gccConfig))

	assert.Len(t, store.Values("/work/hello/libfoo/./manifest", TypeIdBuildConfiguration), 1, "paths are cleaned")
	assert.Nil(t, store.Values("/work/hello/libfoo/manifest", "other.Type"))
	assert.Nil(t, store.Values("/work/hello/libbar/manifest", TypeIdBuildConfiguration))

	require.NoError(t, Put[toolchain.BuildConfiguration](store, "/work/hello/libfoo/manifest", TypeIdBuildConfiguration))
	record, ok := store.Get("/work/hello/libfoo/manifest", TypeIdBuildConfiguration)
	assert.True(t, ok, "an empty result is still indexed")
	assert.Empty(t, record.Values)

	assert.True(t, store.Remove("/work/hello/libfoo/manifest", TypeIdBuildConfiguration))
	assert.False(t, store.Remove("/work/hello/libfoo/manifest", TypeIdBuildConfiguration))
	assert.Equal(t, 0, store.Len())

	assert.NoError(t, store.Save(context.Background()), "no path, nothing persisted")
}

func TestStoreMissingFile(t *testing.T) {
	store, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "index.lz4"), base.COMPRESSION_FORMAT_LZ4)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestStoreRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.lz4")
	require.NoError(t, os.WriteFile(path, []byte("not an index"), 0o644))

	_, err := OpenStore(context.Background(), path, base.COMPRESSION_FORMAT_LZ4)
	assert.Error(t, err)
}

func TestRecordStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")
	require.NoError(t, os.WriteFile(path, []byte(": 1\nname: libfoo\n"), 0o644))

	store := NewStore("", base.COMPRESSION_FORMAT_LZ4)
	require.NoError(t, Put(store, path, TypeIdBuildConfiguration, gccConfig))
	record, _ := store.Get(path, TypeIdBuildConfiguration)
	assert.False(t, record.Stale())

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	assert.True(t, record.Stale())

	require.NoError(t, os.Remove(path))
	assert.True(t, record.Stale())
}

/***************************************
 * Indexer
 ***************************************/

type fakeEnumerator struct {
	barrier  sync.Mutex
	project  []toolchain.BuildConfiguration
	packages map[string][]toolchain.BuildConfiguration
	fail     string
	calls    []string
}

func (x *fakeEnumerator) ProjectConfigurations(ctx context.Context, root string) ([]toolchain.BuildConfiguration, error) {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.calls = append(x.calls, "project")
	return x.project, nil
}
func (x *fakeEnumerator) PackageConfigurations(ctx context.Context, packageDir, packageName string) ([]toolchain.BuildConfiguration, error) {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.calls = append(x.calls, packageName)
	if packageName == x.fail {
		return nil, errors.New("bdep failed")
	}
	return x.packages[packageName], nil
}

func helloWorkspace(t *testing.T) *workspace.Workspace {
	root := t.TempDir()
	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(filepath.Join(root, "packages.manifest"), ": 1\nlocation: libfoo/\n:\nlocation: libbar/\n")
	write(filepath.Join(root, "libfoo", "manifest"), ": 1\nname: libfoo\n")
	write(filepath.Join(root, "libbar", "manifest"), ": 1\nname: libbar\n")

	ws, err := workspace.Open(root)
	require.NoError(t, err)
	return ws
}

func TestIndexer(t *testing.T) {
	ws := helloWorkspace(t)
	enumerator := &fakeEnumerator{
		project: []toolchain.BuildConfiguration{gccConfig, clangConfig},
		packages: map[string][]toolchain.BuildConfiguration{
			"libfoo": {gccConfig, clangConfig},
			"libbar": {clangConfig},
		},
	}
	path := filepath.Join(ws.Root, ".b2vs", "index.lz4")
	store := NewStore(path, base.COMPRESSION_FORMAT_LZ4)

	stats, err := (&Indexer{Store: store, Workspace: ws, Enumerator: enumerator, Jobs: 2}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Manifests: 3, Configurations: 5}, stats)
	assert.ElementsMatch(t, []string{"project", "libfoo", "libbar"}, enumerator.calls)

	loaded, err := OpenStore(context.Background(), path, base.COMPRESSION_FORMAT_LZ4)
	require.NoError(t, err)

	configs, err := Decode[toolchain.BuildConfiguration](loaded, ws.PackageListPath(), TypeIdBuildConfiguration)
	require.NoError(t, err)
	assert.Equal(t, []toolchain.BuildConfiguration{gccConfig, clangConfig}, configs)

	configs, err = Decode[toolchain.BuildConfiguration](loaded, filepath.Join(ws.Root, "libbar", "manifest"), TypeIdBuildConfiguration)
	require.NoError(t, err)
	assert.Equal(t, []toolchain.BuildConfiguration{clangConfig}, configs)
}

func TestIndexerFailureStoresNothing(t *testing.T) {
	ws := helloWorkspace(t)
	store := NewStore("", base.COMPRESSION_FORMAT_LZ4)

	_, err := (&Indexer{Store: store, Workspace: ws, Enumerator: &fakeEnumerator{fail: "libbar"}}).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}
