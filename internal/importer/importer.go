// Package importer decodes page HTML handed over by the browser-assisted
// channel: a bookmarklet message, a URL parameter or a pasted payload.
package importer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultMaxBytes caps decoded payloads.
const DefaultMaxBytes = 5 << 20

var (
	// ErrEmptyPayload is returned when nothing usable was supplied.
	ErrEmptyPayload = errors.New("import payload is empty")

	// ErrPayloadTooLarge is returned when the payload exceeds the cap.
	ErrPayloadTooLarge = errors.New("import payload too large")
)

// Decode turns a payload into HTML. Accepted forms, tried in order:
// "base64:"/"b64:" prefixed base64, raw HTML (starts with '<'),
// %-encoded text, and bare base64. The cap applies to both the encoded
// and decoded size.
func Decode(payload string, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	p := strings.TrimSpace(payload)
	if p == "" {
		return "", ErrEmptyPayload
	}
	if len(p) > maxBytes*4/3+4 {
		return "", fmt.Errorf("%w: %d bytes encoded", ErrPayloadTooLarge, len(p))
	}

	var html string
	switch {
	case hasPrefixFold(p, "base64:"):
		b, err := decodeBase64(p[len("base64:"):])
		if err != nil {
			return "", err
		}
		html = b
	case hasPrefixFold(p, "b64:"):
		b, err := decodeBase64(p[len("b64:"):])
		if err != nil {
			return "", err
		}
		html = b
	case strings.HasPrefix(p, "<"):
		html = p
	case strings.Contains(p, "%3C") || strings.Contains(p, "%3c"):
		s, err := url.QueryUnescape(p)
		if err != nil {
			return "", fmt.Errorf("import payload is not valid url encoding: %w", err)
		}
		html = s
	default:
		// Plain text that merely mentions URLs is still extractable, so
		// bare base64 is only accepted when it decodes to page-like text.
		html = p
		if b, err := decodeBase64(p); err == nil && looksLikePage(b) {
			html = b
		}
	}

	if strings.TrimSpace(html) == "" {
		return "", ErrEmptyPayload
	}
	if len(html) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes decoded, limit %d", ErrPayloadTooLarge, len(html), maxBytes)
	}
	return html, nil
}

func looksLikePage(s string) bool {
	return utf8.ValidString(s) && (strings.Contains(s, "<") || strings.Contains(s, "http"))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func decodeBase64(s string) (string, error) {
	s = strings.TrimSpace(s)
	// Payloads passed through URLs lose their '+' to spaces.
	s = strings.ReplaceAll(s, " ", "+")
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return string(b), nil
		}
	}
	return "", errors.New("import payload is not valid base64")
}

// FromQuery reads the payload from the "html" or "payload" parameter of
// a raw query string (with or without the leading '?').
func FromQuery(rawQuery string, maxBytes int) (string, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return "", fmt.Errorf("invalid query: %w", err)
	}
	for _, key := range []string{"html", "payload"} {
		if v := q.Get(key); v != "" {
			return Decode(v, maxBytes)
		}
	}
	return "", ErrEmptyPayload
}

// Read decodes a payload read from r, refusing to read past the cap.
func Read(r io.Reader, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	limit := int64(maxBytes)*4/3 + 5
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read import payload: %w", err)
	}
	if int64(len(raw)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limit)
	}
	return Decode(string(raw), maxBytes)
}
