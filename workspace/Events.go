package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/kamrann/build2-vs/internal/base"
	"github.com/kamrann/build2-vs/internal/settings"
)

type ChangeKind int32

const (
	CHANGE_MANIFEST ChangeKind = iota
	CHANGE_PACKAGELIST
	CHANGE_SETTINGS
)

func (x ChangeKind) String() string {
	switch x {
	case CHANGE_MANIFEST:
		return "MANIFEST"
	case CHANGE_PACKAGELIST:
		return "PACKAGELIST"
	case CHANGE_SETTINGS:
		return "SETTINGS"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int32(x))
	}
}

type ConfigurationChangedEvent struct {
	Path string
	Kind ChangeKind
}

// ClassifyChange tells which kind of configuration file path is, if any.
func ClassifyChange(path string) (ChangeKind, bool) {
	switch filepath.Base(path) {
	case PackageManifestFilename:
		return CHANGE_MANIFEST, true
	case PackageListManifestFilename:
		return CHANGE_PACKAGELIST, true
	case settings.JsonFilename, settings.TomlFilename:
		return CHANGE_SETTINGS, true
	default:
		return CHANGE_MANIFEST, false
	}
}

// Events are the notification points a host subscribes to. Nothing in this module subscribes
// on its own, the host decides what to refresh.
type Events struct {
	configurationChanged base.ConcurrentEvent[ConfigurationChangedEvent]
}

func (x *Events) OnConfigurationChanged(callback base.EventDelegate[ConfigurationChangedEvent]) base.DelegateHandle {
	return x.configurationChanged.Add(callback)
}
func (x *Events) RemoveConfigurationChanged(handle base.DelegateHandle) bool {
	return x.configurationChanged.Remove(handle)
}
func (x *Events) NotifyConfigurationChanged(event ConfigurationChangedEvent) error {
	base.LogVerbose(LogWorkspace, "configuration changed: %v %q", event.Kind, event.Path)
	return x.configurationChanged.Invoke(event)
}
