package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"jetgrab/internal/domain"
	"jetgrab/internal/storage"
)

// Themes accepted by SaveTheme.
var Themes = []string{"light", "dark"}

// LoadPreferences reads the preference bundle. Missing or corrupt
// records yield the defaults; types missing from a stored map are
// filled in as enabled.
func LoadPreferences(ctx context.Context, store storage.Store, log logrus.FieldLogger) (domain.Preferences, error) {
	prefs := domain.DefaultPreferences()
	raw, err := store.Get(ctx, storage.RecordPreferences)
	if err != nil {
		return prefs, fmt.Errorf("failed to load preferences: %w", err)
	}
	if len(raw) == 0 {
		return prefs, nil
	}
	var stored domain.Preferences
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.WithError(err).Warn("Stored preferences are corrupt, using defaults")
		return prefs, nil
	}
	if stored.Types == nil {
		stored.Types = prefs.Types
	} else {
		for _, t := range domain.AllTypes {
			if _, ok := stored.Types[t]; !ok {
				stored.Types[t] = true
			}
		}
	}
	if stored.MaxResults < 0 {
		stored.MaxResults = 0
	}
	if theme, err := LoadTheme(ctx, store, log); err == nil && theme != "" {
		stored.Theme = theme
	}
	if stored.Theme == "" {
		stored.Theme = prefs.Theme
	}
	return stored, nil
}

// SavePreferences overwrites the bundle as a whole, and the theme record
// alongside it.
func SavePreferences(ctx context.Context, store storage.Store, prefs domain.Preferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := store.Set(ctx, storage.RecordPreferences, raw); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	if prefs.Theme != "" {
		return SaveTheme(ctx, store, prefs.Theme)
	}
	return nil
}

// LoadTheme returns the stored theme name, or "" when unset or corrupt.
func LoadTheme(ctx context.Context, store storage.Store, log logrus.FieldLogger) (string, error) {
	raw, err := store.Get(ctx, storage.RecordTheme)
	if err != nil {
		return "", fmt.Errorf("failed to load theme: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	var theme string
	if err := json.Unmarshal(raw, &theme); err != nil || !validTheme(theme) {
		log.WithField("raw", string(raw)).Warn("Stored theme is invalid, ignoring")
		return "", nil
	}
	return theme, nil
}

// SaveTheme stores a theme name.
func SaveTheme(ctx context.Context, store storage.Store, theme string) error {
	if !validTheme(theme) {
		return fmt.Errorf("unknown theme %q (want light or dark)", theme)
	}
	raw, _ := json.Marshal(theme)
	if err := store.Set(ctx, storage.RecordTheme, raw); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

func validTheme(theme string) bool {
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}
