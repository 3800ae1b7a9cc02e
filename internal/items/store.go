// Package items holds the current extraction batch together with its
// selection, filter and sort state.
package items

import (
	"sort"
	"strings"

	"jetgrab/internal/domain"
	"jetgrab/internal/urlnorm"
)

// Filter is the set of user controls applied to the batch. A nil Types
// map enables every type.
type Filter struct {
	Types        map[domain.ResourceType]bool
	SelectedOnly bool
	Domain       string
	Query        string
}

// FilterFromPreferences builds a Filter from persisted preferences.
func FilterFromPreferences(p domain.Preferences) Filter {
	return Filter{
		Types:        p.Types,
		SelectedOnly: p.SelectedOnly,
		Domain:       p.Domain,
	}
}

// Match reports whether it passes every predicate. Predicates are
// applied in order: type, selected-only, domain, free text.
func (f Filter) Match(it domain.ResourceItem) bool {
	if f.Types != nil && !f.Types[it.Type] {
		return false
	}
	if f.SelectedOnly && !it.Selected {
		return false
	}
	if d := strings.ToLower(strings.TrimSpace(f.Domain)); d != "" {
		host, err := urlnorm.Hostname(it.URL)
		if err != nil || !strings.Contains(host, d) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(it.URL + " " + string(it.Type) + " " + it.Name)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Store is the in-memory batch. It is not safe for concurrent use; the
// owner serializes access.
type Store struct {
	items  []domain.ResourceItem
	filter Filter
}

// NewStore returns an empty store with no active filter.
func NewStore() *Store {
	return &Store{}
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{filter: s.filter}
	if s.items != nil {
		c.items = make([]domain.ResourceItem, len(s.items))
		copy(c.items, s.items)
	}
	return c
}

// SetAll replaces the batch and renumbers Index in the given order.
func (s *Store) SetAll(items []domain.ResourceItem) {
	s.items = make([]domain.ResourceItem, len(items))
	copy(s.items, items)
	for i := range s.items {
		s.items[i].Index = i
	}
}

// Clear drops the batch.
func (s *Store) Clear() {
	s.items = nil
}

// All returns a copy of the batch in insertion order.
func (s *Store) All() []domain.ResourceItem {
	out := make([]domain.ResourceItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

// Get looks an item up by ID.
func (s *Store) Get(id string) (domain.ResourceItem, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.ResourceItem{}, false
}

// Filter returns the active filter.
func (s *Store) Filter() Filter {
	return s.filter
}

// SetFilter replaces the active filter.
func (s *Store) SetFilter(f Filter) {
	s.filter = f
}

// Filtered returns the items passing the active filter, in insertion order.
func (s *Store) Filtered() []domain.ResourceItem {
	out := make([]domain.ResourceItem, 0, len(s.items))
	for _, it := range s.items {
		if s.filter.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Visible is Filtered, then Sorted by mode, then capped at max when max > 0.
func (s *Store) Visible(mode domain.SortMode, max int) []domain.ResourceItem {
	out := Sorted(s.Filtered(), mode)
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Toggle flips the selection of a visible item. Hidden or unknown items
// are left alone and false is returned.
func (s *Store) Toggle(id string) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			if !s.filter.Match(s.items[i]) {
				return false
			}
			s.items[i].Selected = !s.items[i].Selected
			return true
		}
	}
	return false
}

// SelectAll selects every visible item.
func (s *Store) SelectAll() int {
	return s.mutateVisible(func(it *domain.ResourceItem) { it.Selected = true })
}

// DeselectAll clears the selection of every visible item.
func (s *Store) DeselectAll() int {
	return s.mutateVisible(func(it *domain.ResourceItem) { it.Selected = false })
}

// InvertSelect flips the selection of every visible item.
func (s *Store) InvertSelect() int {
	return s.mutateVisible(func(it *domain.ResourceItem) { it.Selected = !it.Selected })
}

// mutateVisible evaluates the filter once per item before mutating so a
// selected-only filter does not hide items mid-pass.
func (s *Store) mutateVisible(fn func(*domain.ResourceItem)) int {
	visible := make([]bool, len(s.items))
	for i, it := range s.items {
		visible[i] = s.filter.Match(it)
	}
	n := 0
	for i := range s.items {
		if visible[i] {
			fn(&s.items[i])
			n++
		}
	}
	return n
}

// Selected returns every selected item regardless of the filter.
func (s *Store) Selected() []domain.ResourceItem {
	var out []domain.ResourceItem
	for _, it := range s.items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// Counts returns the number of items per type.
func (s *Store) Counts() map[domain.ResourceType]int {
	counts := make(map[domain.ResourceType]int)
	for _, it := range s.items {
		counts[it.Type]++
	}
	return counts
}

// RetryMerge merges a retry pass into the batch by (type, url). Matching
// entries are overwritten in place, new ones are appended and unmatched
// old entries are kept.
func (s *Store) RetryMerge(newItems []domain.ResourceItem) (added, updated int) {
	pos := make(map[string]int, len(s.items))
	for i, it := range s.items {
		pos[it.Key()] = i
	}
	for _, it := range newItems {
		if i, ok := pos[it.Key()]; ok {
			it.Index = s.items[i].Index
			s.items[i] = it
			updated++
			continue
		}
		it.Index = len(s.items)
		pos[it.Key()] = len(s.items)
		s.items = append(s.items, it)
		added++
	}
	return added, updated
}

// Sorted returns a sorted copy of items. SortDefault keeps insertion
// order (by Index). Ties keep their relative order.
func Sorted(items []domain.ResourceItem, mode domain.SortMode) []domain.ResourceItem {
	out := make([]domain.ResourceItem, len(items))
	copy(out, items)

	var less func(a, b domain.ResourceItem) bool
	switch mode {
	case domain.SortURL:
		less = func(a, b domain.ResourceItem) bool { return a.URL < b.URL }
	case domain.SortLength:
		less = func(a, b domain.ResourceItem) bool { return len(a.URL) < len(b.URL) }
	case domain.SortType:
		less = func(a, b domain.ResourceItem) bool { return a.Type < b.Type }
	case domain.SortDomain:
		less = func(a, b domain.ResourceItem) bool { return hostOf(a.URL) < hostOf(b.URL) }
	default:
		less = func(a, b domain.ResourceItem) bool { return a.Index < b.Index }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func hostOf(rawURL string) string {
	h, err := urlnorm.Hostname(rawURL)
	if err != nil {
		return ""
	}
	return h
}

// ParseSortMode validates a user supplied sort mode.
func ParseSortMode(s string) (domain.SortMode, bool) {
	switch domain.SortMode(s) {
	case domain.SortDefault, domain.SortURL, domain.SortLength, domain.SortType, domain.SortDomain:
		return domain.SortMode(s), true
	}
	return "", false
}
