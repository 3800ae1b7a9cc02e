// Package export renders a batch of items as JSON, plain text or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jetgrab/internal/domain"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
)

// DefaultArchiveName is used when the backend suggests no filename.
const DefaultArchiveName = "jetgrab_media.zip"

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTXT, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, txt or csv)", s)
}

// Write encodes items to w in the given format.
func Write(w io.Writer, format Format, items []domain.ResourceItem) error {
	switch format {
	case FormatJSON:
		return JSON(w, items)
	case FormatTXT:
		return TXT(w, items)
	case FormatCSV:
		return CSV(w, items)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// JSON writes items as an indented array. An empty batch is "[]".
func JSON(w io.Writer, items []domain.ResourceItem) error {
	if items == nil {
		items = []domain.ResourceItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(items)
}

// TXT writes one URL per line.
func TXT(w io.Writer, items []domain.ResourceItem) error {
	for _, it := range items {
		if _, err := fmt.Fprintln(w, it.URL); err != nil {
			return err
		}
	}
	return nil
}

// CSV writes a header row followed by one row per item.
func CSV(w io.Writer, items []domain.ResourceItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "type", "name", "url", "selected"}); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			strconv.Itoa(it.Index),
			string(it.Type),
			it.Name,
			it.URL,
			strconv.FormatBool(it.Selected),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ArchiveName returns suggested when it is a usable file name, else the default.
func ArchiveName(suggested string) string {
	name := strings.TrimSpace(suggested)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return DefaultArchiveName
	}
	return name
}
