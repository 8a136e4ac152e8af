package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/kamrann/build2-vs/internal/base"
)

const DefaultWatchInterval = 200 * time.Millisecond

// Watcher fires Events.OnConfigurationChanged when a manifest, the package list or the settings
// file of the workspace changes. Saves which leave the content unchanged are not reported.
type Watcher struct {
	Workspace *Workspace

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer

	barrier sync.Mutex
	watched base.SetT[string]
	digests map[string]uint64
}

func NewWatcher(ws *Workspace, interval time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	x := &Watcher{
		Workspace: ws,
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(interval),
		digests:   make(map[string]uint64),
	}
	if err := x.refreshWatchedDirs(); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return x, nil
}

// WatchedDirs returns the directories currently watched, the root first.
func (x *Watcher) WatchedDirs() []string {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	return x.watched.Slice()
}

// Run dispatches changes until ctx is done or the watcher is closed.
func (x *Watcher) Run(ctx context.Context) error {
	defer x.debouncer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-x.fsWatcher.Events:
			if !ok {
				return nil
			}
			if _, interesting := ClassifyChange(event.Name); !interesting {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				x.debouncer.Add(filepath.Clean(event.Name))
			}

		case err, ok := <-x.fsWatcher.Errors:
			if !ok {
				return nil
			}
			base.LogWarning(LogWorkspace, "watcher: %v", err)

		case batch := <-x.debouncer.Output():
			if err := x.dispatch(batch); err != nil {
				return err
			}
		}
	}
}

func (x *Watcher) Close() error {
	x.debouncer.Stop()
	return x.fsWatcher.Close()
}

func (x *Watcher) dispatch(batch []string) error {
	for _, path := range batch {
		kind, _ := ClassifyChange(path)
		if !x.contentChanged(path) {
			base.LogTrace(LogWorkspace, "watcher: %q saved without change", path)
			continue
		}

		if kind == CHANGE_PACKAGELIST {
			if err := x.refreshWatchedDirs(); err != nil {
				base.LogWarning(LogWorkspace, "watcher: can't refresh package directories: %v", err)
			}
		}
		if err := x.Workspace.Events.NotifyConfigurationChanged(ConfigurationChangedEvent{Path: path, Kind: kind}); err != nil {
			return err
		}
	}
	return nil
}

// contentChanged compares the file digest with the last one seen, a removed file is a change.
func (x *Watcher) contentChanged(path string) bool {
	digest, exists := digestFile(path)

	x.barrier.Lock()
	defer x.barrier.Unlock()

	previous, known := x.digests[path]
	if !exists {
		delete(x.digests, path)
		return known
	}
	x.digests[path] = digest
	return !known || previous != digest
}

func (x *Watcher) refreshWatchedDirs() error {
	dirs := []string{x.Workspace.Root}
	if packages, err := x.Workspace.Packages(); err == nil {
		for _, pkg := range packages {
			dirs = append(dirs, x.Workspace.PackageDir(pkg))
		}
	} else {
		base.LogWarning(LogWorkspace, "watcher: can't list packages: %v", err)
	}

	for _, dir := range dirs {
		x.barrier.Lock()
		known := x.watched.Contains(dir)
		x.barrier.Unlock()
		if known {
			continue
		}

		if err := x.fsWatcher.Add(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		base.LogVerbose(LogWorkspace, "watcher: watching %q", dir)

		x.barrier.Lock()
		x.watched.AppendUniq(dir)
		x.barrier.Unlock()

		x.recordDigests(dir)
	}
	return nil
}

func (x *Watcher) recordDigests(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, it := range entries {
		if it.IsDir() {
			continue
		}
		path := filepath.Join(dir, it.Name())
		if _, interesting := ClassifyChange(path); !interesting {
			continue
		}
		if digest, ok := digestFile(path); ok {
			x.barrier.Lock()
			x.digests[path] = digest
			x.barrier.Unlock()
		}
	}
}

func digestFile(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}
