package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func packageManifest(name string) string {
	return ": 1\nname: " + name + "\nversion: 0.1.0-a.0.z\nproject: hello\nsummary: " + name + " C++ library\n"
}

// helloProject lays out a project with two packages, libfoo and libbar.
func helloProject(t *testing.T) *Workspace {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "packages.manifest"), ": 1\nlocation: libfoo/\n:\nlocation: libbar/\n")
	mkfile(t, filepath.Join(root, "libfoo", "manifest"), packageManifest("libfoo"))
	mkfile(t, filepath.Join(root, "libbar", "manifest"), packageManifest("libbar"))

	ws, err := Open(root)
	require.NoError(t, err)
	return ws
}

func TestParseManifests(t *testing.T) {
	manifests, err := ParseManifests(strings.NewReader(`# package list
: 1
location: libfoo/
:
location: libbar/
description:\
first line
  second line
\
`))
	require.NoError(t, err)
	require.Len(t, manifests, 2)

	location, ok := manifests[0].Get("location")
	assert.True(t, ok)
	assert.Equal(t, "libfoo/", location)

	description, ok := manifests[1].Get("description")
	assert.True(t, ok)
	assert.Equal(t, "first line\n  second line", description)

	_, ok = manifests[1].Get("name")
	assert.False(t, ok)
}

func TestParseManifestsErrors(t *testing.T) {
	for _, content := range []string{
		": 1\nnot a value\n",
		": 1\ndescription:\\\nnever closed\n",
	} {
		_, err := ParseManifests(strings.NewReader(content))
		assert.Error(t, err, content)
	}
}

func TestReadPackageManifest(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "manifest"), packageManifest("libfoo"))

	manifest, err := ReadPackageManifest(filepath.Join(dir, "manifest"))
	require.NoError(t, err)
	assert.Equal(t, &PackageManifest{Name: "libfoo", Version: "0.1.0-a.0.z", Project: "hello", Summary: "libfoo C++ library"}, manifest)

	mkfile(t, filepath.Join(dir, "anonymous"), ": 1\nversion: 1.0.0\n")
	_, err = ReadPackageManifest(filepath.Join(dir, "anonymous"))
	assert.Error(t, err)
}

func TestWorkspacePackages(t *testing.T) {
	ws := helloProject(t)

	assert.True(t, ws.IsMultiPackageProject())

	packages, err := ws.Packages()
	require.NoError(t, err)
	assert.Equal(t, []PackageLocation{
		{Location: "libfoo", Name: "libfoo"},
		{Location: "libbar", Name: "libbar"},
	}, packages)

	assert.Equal(t, filepath.Join(ws.Root, "libbar"), ws.PackageDir(packages[1]))

	pkg, ok := ws.FindPackage(filepath.Join(ws.Root, "libfoo"))
	assert.True(t, ok)
	assert.Equal(t, "libfoo", pkg.Name)

	_, ok = ws.FindPackage("libbaz")
	assert.False(t, ok)
}

func TestWorkspaceSinglePackage(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "packages.manifest"), ": 1\nlocation: ./\n")
	mkfile(t, filepath.Join(root, "manifest"), packageManifest("hello"))

	ws, err := Open(root)
	require.NoError(t, err)
	assert.False(t, ws.IsMultiPackageProject(), "one listed package is not a multi-package project")

	name, err := ws.PackageName(".")
	require.NoError(t, err)
	assert.Equal(t, "hello", name)
}

func TestWorkspaceWithoutPackageList(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "manifest"), packageManifest("hello"))

	ws, err := Open(root)
	require.NoError(t, err)
	assert.False(t, ws.IsMultiPackageProject())

	packages, err := ws.Packages()
	require.NoError(t, err)
	assert.Equal(t, []PackageLocation{{Location: ".", Name: "hello"}}, packages)
}

func TestOpenRejectsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	mkfile(t, path, "")
	_, err := Open(path)
	assert.Error(t, err)
}

func TestDiscoverPackages(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, ".gitignore"), "/ignored/\n")
	mkfile(t, filepath.Join(root, "libs", "libfoo", "manifest"), packageManifest("libfoo"))
	mkfile(t, filepath.Join(root, "libs", "libfoo", "tests", "manifest"), packageManifest("nested"))
	mkfile(t, filepath.Join(root, "hello", "manifest"), packageManifest("hello"))
	mkfile(t, filepath.Join(root, "ignored", "manifest"), packageManifest("ignored"))
	mkfile(t, filepath.Join(root, ".bdep", "manifest"), packageManifest("hidden"))
	mkfile(t, filepath.Join(root, "hello-gcc", "build", "config.build"), "config.cxx = g++\n")
	mkfile(t, filepath.Join(root, "hello-gcc", "hello", "manifest"), packageManifest("configured"))

	packages, err := DiscoverPackages(root)
	require.NoError(t, err)
	assert.Equal(t, []PackageLocation{{Location: "hello"}, {Location: "libs/libfoo"}}, packages)

	packages, err = DiscoverPackages(root, OptionDiscoveryGitIgnore(false), OptionDiscoveryExclude("libs/**"))
	require.NoError(t, err)
	assert.Equal(t, []PackageLocation{{Location: "hello"}, {Location: "ignored"}}, packages)

	_, err = DiscoverPackages(root, OptionDiscoveryExclude("[unclosed"))
	assert.Error(t, err)
}

func TestClassifyChange(t *testing.T) {
	for path, expected := range map[string]ChangeKind{
		"/p/libfoo/manifest":   CHANGE_MANIFEST,
		"/p/packages.manifest": CHANGE_PACKAGELIST,
		"/p/.build2vs.json":    CHANGE_SETTINGS,
		"/p/.build2vs.toml":    CHANGE_SETTINGS,
	} {
		kind, ok := ClassifyChange(path)
		assert.True(t, ok, path)
		assert.Equal(t, expected, kind, path)
	}
	_, ok := ClassifyChange("/p/libfoo/foo.cxx")
	assert.False(t, ok)
}

func TestEventsInvokeInRegistrationOrder(t *testing.T) {
	var events Events
	var order []string
	first := events.OnConfigurationChanged(func(e ConfigurationChangedEvent) error {
		order = append(order, "first:"+e.Path)
		return nil
	})
	events.OnConfigurationChanged(func(e ConfigurationChangedEvent) error {
		order = append(order, "second:"+e.Path)
		return nil
	})

	require.NoError(t, events.NotifyConfigurationChanged(ConfigurationChangedEvent{Path: "manifest"}))
	assert.True(t, events.RemoveConfigurationChanged(first))
	require.NoError(t, events.NotifyConfigurationChanged(ConfigurationChangedEvent{Path: "again"}))

	assert.Equal(t, []string{"first:manifest", "second:manifest", "second:again"}, order)
}

func TestDebouncerCollapsesBursts(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add("b")
	d.Add("a")
	d.Add("b")

	select {
	case batch := <-d.Output():
		assert.Equal(t, []string{"a", "b"}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestWatcherContentChanged(t *testing.T) {
	ws := helloProject(t)
	w, err := NewWatcher(ws, time.Hour)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{ws.Root, filepath.Join(ws.Root, "libfoo"), filepath.Join(ws.Root, "libbar")}, w.WatchedDirs())

	manifest := filepath.Join(ws.Root, "libfoo", "manifest")
	assert.False(t, w.contentChanged(manifest), "same content as when watching started")

	mkfile(t, manifest, packageManifest("libfoo2"))
	assert.True(t, w.contentChanged(manifest))
	assert.False(t, w.contentChanged(manifest))

	require.NoError(t, os.Remove(manifest))
	assert.True(t, w.contentChanged(manifest), "removal is a change")
	assert.False(t, w.contentChanged(manifest))
}

func TestWatcherNotifiesManifestChanges(t *testing.T) {
	ws := helloProject(t)
	w, err := NewWatcher(ws, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	received := make(chan ConfigurationChangedEvent, 16)
	ws.Events.OnConfigurationChanged(func(e ConfigurationChangedEvent) error {
		received <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	manifest := filepath.Join(ws.Root, "libbar", "manifest")
	mkfile(t, manifest, packageManifest("libbar")+"description: changed\n")

	select {
	case e := <-received:
		assert.Equal(t, ConfigurationChangedEvent{Path: manifest, Kind: CHANGE_MANIFEST}, e)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notified")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
