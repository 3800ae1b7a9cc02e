package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jetgrab/internal/domain"
	"jetgrab/internal/history"
	"jetgrab/internal/items"
)

// applySetting sets one key=value preference.
func applySetting(p domain.Preferences, key, value string) (domain.Preferences, error) {
	switch key {
	case "types":
		types := make(map[domain.ResourceType]bool, len(domain.AllTypes))
		for _, t := range domain.AllTypes {
			types[t] = false
		}
		for _, raw := range strings.Split(value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if raw == "all" {
				for _, t := range domain.AllTypes {
					types[t] = true
				}
				continue
			}
			t, ok := domain.ParseResourceType(raw)
			if !ok {
				return p, fmt.Errorf("unknown type %q", raw)
			}
			types[t] = true
		}
		p.Types = types
	case "dedupe", "selected-only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return p, fmt.Errorf("%s: %w", key, err)
		}
		if key == "dedupe" {
			p.Dedupe = b
		} else {
			p.SelectedOnly = b
		}
	case "max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return p, fmt.Errorf("max must be a non-negative integer, got %q", value)
		}
		p.MaxResults = n
	case "domain":
		p.Domain = strings.TrimSpace(value)
	case "sort":
		mode, ok := items.ParseSortMode(value)
		if !ok {
			return p, fmt.Errorf("unknown sort mode %q", value)
		}
		p.Sort = mode
	case "theme":
		if value != "light" && value != "dark" {
			return p, fmt.Errorf("theme must be light or dark, got %q", value)
		}
		p.Theme = value
	default:
		return p, fmt.Errorf("unknown preference %q", key)
	}
	return p, nil
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change saved view preferences",
}

func init() {
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.prefs)
		},
	}
	set := &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change preferences (types, dedupe, selected-only, max, domain, sort, theme)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p := a.prefs
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected key=value, got %q", arg)
				}
				if p, err = applySetting(p, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
					return err
				}
			}
			return history.SavePreferences(cmd.Context(), a.store, p)
		},
	}
	prefsCmd.AddCommand(show, set)
	rootCmd.AddCommand(prefsCmd)
}
