package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"jetgrab/internal/storage"
)

// RecentLimit caps the recent-URL list.
const RecentLimit = 10

// LoadRecent returns the recent URLs, most recent first.
func LoadRecent(ctx context.Context, store storage.Store, log logrus.FieldLogger) ([]string, error) {
	raw, err := store.Get(ctx, storage.RecordRecentURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent urls: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		log.WithError(err).Warn("Stored recent urls are corrupt, starting empty")
		return nil, nil
	}
	return urls, nil
}

// AddRecent moves urls to the front of the recent list, keeping it
// unique and capped.
func AddRecent(ctx context.Context, store storage.Store, log logrus.FieldLogger, urls ...string) ([]string, error) {
	current, err := LoadRecent(ctx, store, log)
	if err != nil {
		return nil, err
	}
	next := make([]string, 0, len(urls)+len(current))
	seen := make(map[string]struct{})
	for _, u := range append(append([]string{}, urls...), current...) {
		if _, dup := seen[u]; dup || u == "" {
			continue
		}
		seen[u] = struct{}{}
		next = append(next, u)
	}
	if len(next) > RecentLimit {
		next = next[:RecentLimit]
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, storage.RecordRecentURLs, raw); err != nil {
		return nil, fmt.Errorf("failed to save recent urls: %w", err)
	}
	return next, nil
}
