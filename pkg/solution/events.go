package solution

import (
	"tableflip.dev/sln/pkg/notify"
	"tableflip.dev/sln/pkg/slnfile"
)

// EventType says what changed.
type EventType int

const (
	EventFolderAdded EventType = iota
	EventFolderRemoved
	EventProjectAdded
	EventProjectRemoved
	// EventReloaded follows every successful reload, after the entity events.
	EventReloaded
	// EventReloadFailed carries the parse error; the previous document stays.
	EventReloadFailed
	// EventFilesChanged reports file changes seen by the watcher.
	EventFilesChanged
	// EventStartupChanged follows a write to the user-state file.
	EventStartupChanged
)

var eventNames = map[EventType]string{
	EventFolderAdded:    "folder-added",
	EventFolderRemoved:  "folder-removed",
	EventProjectAdded:   "project-added",
	EventProjectRemoved: "project-removed",
	EventReloaded:       "reloaded",
	EventReloadFailed:   "reload-failed",
	EventFilesChanged:   "files-changed",
	EventStartupChanged: "startup-changed",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is delivered to subscribers in emission order.
type Event struct {
	Type   EventType
	Entity *slnfile.Entity
	Paths  []string
	Err    error
}

// Subscription is a registered event handler.
type Subscription = notify.Subscription
