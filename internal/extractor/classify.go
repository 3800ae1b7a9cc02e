package extractor

import (
	"html"
	"net/url"
	"path"
	"strings"

	"jetgrab/internal/domain"
)

var suffixTable = []struct {
	typ  domain.ResourceType
	exts []string
}{
	{domain.TypeVideo, []string{".mp4", ".webm", ".ogg", ".mov", ".m3u8"}},
	{domain.TypeImage, []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".avif"}},
	{domain.TypeAudio, []string{".mp3", ".wav", ".m4a", ".aac", ".flac"}},
	{domain.TypeFile, []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".zip", ".rar", ".7z", ".txt", ".csv", ".json"}},
}

// Classify maps a URL to a ResourceType by the lower-cased suffix of its
// path, ignoring query and fragment.
func Classify(rawURL string) domain.ResourceType {
	p := strings.ToLower(rawURL)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	for _, row := range suffixTable {
		for _, ext := range row.exts {
			if strings.HasSuffix(p, ext) {
				return row.typ
			}
		}
	}
	return domain.TypeOther
}

var escapeReplacer = strings.NewReplacer(
	`\u002F`, "/",
	`\u002f`, "/",
	`\u0026`, "&",
	`\u003d`, "=",
	`\u003D`, "=",
	`\/`, "/",
)

// Unescape turns a raw match into a plain URL: JSON slash escapes,
// unicode slash escapes and HTML entities are decoded and
// protocol-relative URLs get https.
func Unescape(raw string) string {
	value := strings.TrimSpace(raw)
	value = escapeReplacer.Replace(value)
	value = html.UnescapeString(value)
	value = strings.TrimRight(value, ".,;:)]}")
	if strings.HasPrefix(value, "//") {
		value = "https:" + value
	}
	return value
}

// NameFromURL returns the last path segment of rawURL, or rawURL itself
// when there is none.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return rawURL
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
