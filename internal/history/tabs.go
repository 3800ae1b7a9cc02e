// Package history persists remembered source URLs, the recent-URL list
// and user preferences on top of a storage.Store.
//
// Stored records that are missing or fail to decode are treated as
// empty collections and logged; they never fail the caller.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"jetgrab/internal/domain"
	"jetgrab/internal/storage"
	"jetgrab/internal/urlnorm"
)

// DefaultLimit is the number of tabs kept on persist.
const DefaultLimit = 80

// ErrTabNotFound is returned for unknown tab IDs.
var ErrTabNotFound = errors.New("history tab not found")

// Tabs is the history-tab collection. It is safe for concurrent use.
type Tabs struct {
	mu    sync.Mutex
	store storage.Store
	limit int
	now   func() time.Time
	tabs  []domain.HistoryTab
	log   logrus.FieldLogger
}

// NewTabs returns an empty collection backed by store. Call Load to read
// the persisted snapshot.
func NewTabs(store storage.Store, limit int, logger logrus.FieldLogger) *Tabs {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Tabs{
		store: store,
		limit: limit,
		now:   time.Now,
		log:   logger.WithField("component", "history"),
	}
}

// Load replaces the in-memory collection with the persisted snapshot.
func (h *Tabs) Load(ctx context.Context) error {
	raw, err := h.store.Get(ctx, storage.RecordHistoryTabs)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	tabs := decodeTabs(raw, h.log)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.tabs = tabs
	h.log.WithField("count", len(tabs)).Debug("History loaded")
	return nil
}

func decodeTabs(raw []byte, log logrus.FieldLogger) []domain.HistoryTab {
	if len(raw) == 0 {
		return nil
	}
	var tabs []domain.HistoryTab
	if err := json.Unmarshal(raw, &tabs); err != nil {
		log.WithError(err).Warn("Stored history is corrupt, starting empty")
		return nil
	}
	// Drop entries that no longer validate and keep URLs unique.
	seen := make(map[string]struct{}, len(tabs))
	out := tabs[:0]
	for _, t := range tabs {
		u, err := urlnorm.ParseOne(t.URL)
		if err != nil {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		t.URL = u
		out = append(out, t)
	}
	return out
}

// Remember finds or creates the tab for rawURL and persists the
// collection. Reuse bumps UseCount and LastUsedAt.
func (h *Tabs) Remember(ctx context.Context, rawURL string) (domain.HistoryTab, error) {
	u, err := urlnorm.ParseOne(rawURL)
	if err != nil {
		return domain.HistoryTab{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	var tab domain.HistoryTab
	if i := h.indexByURL(u); i >= 0 {
		h.tabs[i].UseCount++
		h.tabs[i].LastUsedAt = now
		h.tabs[i].UpdatedAt = now
		tab = h.tabs[i]
	} else {
		tab = domain.HistoryTab{
			ID:         domain.NewID(),
			URL:        u,
			CreatedAt:  now,
			UpdatedAt:  now,
			LastUsedAt: now,
			UseCount:   1,
		}
		h.tabs = append(h.tabs, tab)
	}
	return tab, h.persistLocked(ctx)
}

// Persist sorts, caps and writes the collection.
func (h *Tabs) Persist(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.persistLocked(ctx)
}

func (h *Tabs) persistLocked(ctx context.Context) error {
	sortTabs(h.tabs)
	if len(h.tabs) > h.limit {
		h.log.WithField("dropped", len(h.tabs)-h.limit).Debug("History capped")
		h.tabs = h.tabs[:h.limit]
	}
	raw, err := json.Marshal(h.tabs)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := h.store.Set(ctx, storage.RecordHistoryTabs, raw); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// sortTabs orders pinned tabs first, then by most recent use.
func sortTabs(tabs []domain.HistoryTab) {
	sort.SliceStable(tabs, func(i, j int) bool {
		if tabs[i].Pinned != tabs[j].Pinned {
			return tabs[i].Pinned
		}
		return tabs[i].LastUsedAt.After(tabs[j].LastUsedAt)
	})
}

func (h *Tabs) indexByURL(u string) int {
	for i, t := range h.tabs {
		if t.URL == u {
			return i
		}
	}
	return -1
}

func (h *Tabs) indexByID(id string) int {
	for i, t := range h.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// List returns the tabs in display order.
func (h *Tabs) List() []domain.HistoryTab {
	h.mu.Lock()
	defer h.mu.Unlock()
	sortTabs(h.tabs)
	out := make([]domain.HistoryTab, len(h.tabs))
	copy(out, h.tabs)
	return out
}

// Get returns the tab with the given ID.
func (h *Tabs) Get(id string) (domain.HistoryTab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexByID(id); i >= 0 {
		return h.tabs[i], true
	}
	return domain.HistoryTab{}, false
}

// Resolve accepts either a tab ID or a URL already in the collection.
func (h *Tabs) Resolve(ref string) (domain.HistoryTab, bool) {
	if t, ok := h.Get(ref); ok {
		return t, true
	}
	u, err := urlnorm.ParseOne(ref)
	if err != nil {
		return domain.HistoryTab{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexByURL(u); i >= 0 {
		return h.tabs[i], true
	}
	return domain.HistoryTab{}, false
}

func (h *Tabs) update(ctx context.Context, id string, fn func(*domain.HistoryTab)) (domain.HistoryTab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.indexByID(id)
	if i < 0 {
		return domain.HistoryTab{}, ErrTabNotFound
	}
	fn(&h.tabs[i])
	h.tabs[i].UpdatedAt = h.now()
	tab := h.tabs[i]
	return tab, h.persistLocked(ctx)
}

// SetLabel renames a tab.
func (h *Tabs) SetLabel(ctx context.Context, id, label string) (domain.HistoryTab, error) {
	return h.update(ctx, id, func(t *domain.HistoryTab) { t.Label = label })
}

// SetNote replaces a tab's note.
func (h *Tabs) SetNote(ctx context.Context, id, note string) (domain.HistoryTab, error) {
	return h.update(ctx, id, func(t *domain.HistoryTab) { t.Note = note })
}

// SetPinned pins or unpins a tab.
func (h *Tabs) SetPinned(ctx context.Context, id string, pinned bool) (domain.HistoryTab, error) {
	return h.update(ctx, id, func(t *domain.HistoryTab) { t.Pinned = pinned })
}

// Delete removes one tab.
func (h *Tabs) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.indexByID(id)
	if i < 0 {
		return ErrTabNotFound
	}
	h.tabs = append(h.tabs[:i], h.tabs[i+1:]...)
	return h.persistLocked(ctx)
}

// Clear removes every tab and the stored record.
func (h *Tabs) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Remove(ctx, storage.RecordHistoryTabs); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	h.tabs = nil
	return nil
}

// Export serializes the collection in display order.
func (h *Tabs) Export() ([]byte, error) {
	tabs := h.List()
	if tabs == nil {
		tabs = []domain.HistoryTab{}
	}
	return json.MarshalIndent(tabs, "", "  ")
}

// Import merges exported tabs by URL. Imported records win over existing
// ones with the same URL; invalid URLs are skipped. It returns the number
// of records merged.
func (h *Tabs) Import(ctx context.Context, data []byte) (int, error) {
	var incoming []domain.HistoryTab
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, fmt.Errorf("invalid history export: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	merged := 0
	for _, t := range incoming {
		u, err := urlnorm.ParseOne(t.URL)
		if err != nil {
			continue
		}
		t.URL = u
		// IDs must stay unique across URLs.
		if j := h.indexByID(t.ID); t.ID == "" || (j >= 0 && h.tabs[j].URL != u) {
			t.ID = domain.NewID()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = now
		}
		if t.LastUsedAt.IsZero() {
			t.LastUsedAt = t.UpdatedAt
		}
		if t.UseCount < 0 {
			t.UseCount = 0
		}
		if i := h.indexByURL(u); i >= 0 {
			h.tabs[i] = t
		} else {
			h.tabs = append(h.tabs, t)
		}
		merged++
	}
	h.log.WithField("count", merged).Info("History imported")
	return merged, h.persistLocked(ctx)
}
