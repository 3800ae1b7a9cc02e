package domain

import (
	"github.com/google/uuid"
)

// ResourceType classifies a discovered asset. The set is closed.
type ResourceType string

const (
	TypeVideo  ResourceType = "video"
	TypeImage  ResourceType = "image"
	TypeAudio  ResourceType = "audio"
	TypeFile   ResourceType = "file"
	TypeFolder ResourceType = "folder"
	TypeOther  ResourceType = "other"
)

// AllTypes lists every ResourceType in display order.
var AllTypes = []ResourceType{TypeVideo, TypeImage, TypeAudio, TypeFile, TypeFolder, TypeOther}

// ParseResourceType maps a user supplied name (singular or the plural
// bucket name used by the backend) to a ResourceType.
func ParseResourceType(s string) (ResourceType, bool) {
	switch s {
	case "video", "videos":
		return TypeVideo, true
	case "image", "images":
		return TypeImage, true
	case "audio", "audios":
		return TypeAudio, true
	case "file", "files":
		return TypeFile, true
	case "folder", "folders":
		return TypeFolder, true
	case "other", "others":
		return TypeOther, true
	}
	return "", false
}

// ResourceItem is one asset discovered on a page.
type ResourceItem struct {
	// ID is unique per generated item and never reused.
	ID string `json:"id"`

	// Index is the position assigned when the item was created within its batch.
	Index int `json:"index"`

	// URL is always an absolute http or https URL.
	URL string `json:"url"`

	Type ResourceType `json:"type"`

	// Name is an optional display label, empty when unknown.
	Name string `json:"name"`

	Selected bool `json:"selected"`
}

// NewResourceItem builds a selected item with a fresh ID.
func NewResourceItem(index int, rawURL string, typ ResourceType, name string) ResourceItem {
	return ResourceItem{
		ID:       NewID(),
		Index:    index,
		URL:      rawURL,
		Type:     typ,
		Name:     name,
		Selected: true,
	}
}

// Key identifies an item for deduplication and retry merging.
func (i ResourceItem) Key() string {
	return ItemKey(i.Type, i.URL)
}

// ItemKey builds the (type, url) key without an item at hand.
func ItemKey(typ ResourceType, rawURL string) string {
	return string(typ) + "|" + rawURL
}

// NewID returns a time-sortable opaque identifier (UUIDv7).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
