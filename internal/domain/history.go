package domain

import "time"

// HistoryTab is a remembered source URL with user metadata.
type HistoryTab struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Label      string    `json:"label"`
	Note       string    `json:"note"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	UseCount   int       `json:"useCount"`
}

// SortMode selects the comparator used when listing items.
type SortMode string

const (
	SortDefault SortMode = ""
	SortURL     SortMode = "url"
	SortLength  SortMode = "length"
	SortType    SortMode = "type"
	SortDomain  SortMode = "domain"
)

// Preferences is the persisted UI state. It is overwritten as a whole on save.
type Preferences struct {
	SelectedOnly bool                  `json:"selectedOnly"`
	Dedupe       bool                  `json:"dedupe"`
	MaxResults   int                   `json:"maxResults"`
	Domain       string                `json:"domain"`
	Types        map[ResourceType]bool `json:"types"`
	Sort         SortMode              `json:"sort"`
	Theme        string                `json:"theme"`
}

// DefaultPreferences enables every type with dedupe on and no result cap.
func DefaultPreferences() Preferences {
	types := make(map[ResourceType]bool, len(AllTypes))
	for _, t := range AllTypes {
		types[t] = true
	}
	return Preferences{
		Dedupe: true,
		Types:  types,
		Theme:  "light",
	}
}
