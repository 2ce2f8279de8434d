package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of every topic PlevenLab publishes.
const DefaultTopicPrefix = "plevenlab"

// Topics builds PlevenLab topic names under a configurable root.
//
//	topics := mqtt.NewTopics("plevenlab")
//	topics.ContentChange("event", "create")
//	// Returns: "plevenlab/content/event/create"
type Topics struct {
	prefix string
}

// NewTopics returns a builder rooted at prefix. Leading and trailing
// slashes are trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// ContentChange is the topic for a change to one kind of content.
//
// Example: plevenlab/content/post/delete
func (t Topics) ContentChange(entity, action string) string {
	return fmt.Sprintf("%s/content/%s/%s", t.root(), entity, action)
}

// AllContentChanges matches every content change topic.
//
// Example: plevenlab/content/#
func (t Topics) AllContentChanges() string {
	return t.root() + "/content/#"
}

// SystemStatus is the retained online/offline status topic.
//
// Example: plevenlab/system/status
func (t Topics) SystemStatus() string {
	return t.root() + "/system/status"
}

func (t Topics) root() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}
