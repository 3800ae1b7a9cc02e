// Package urlnorm turns free-form pasted text into well-formed http(s) URLs.
package urlnorm

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// ErrNoValidURL is returned when input contains no usable http(s) URL.
var ErrNoValidURL = errors.New("no valid http(s) URL in input")

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// Sanitize trims raw and prefixes https:// when it carries no scheme.
// Tokens that already name a scheme are returned untouched so that
// Valid can reject the non-http ones.
func Sanitize(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "//") {
		return "https:" + value
	}
	if schemePrefix.MatchString(value) {
		return value
	}
	return "https://" + value
}

// Valid reports whether s is an absolute URL with scheme http or https
// and a non-empty host.
func Valid(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

// ParseInputURLs splits text on whitespace, commas and semicolons,
// sanitizes every token and keeps the valid ones in first-seen order.
// Malformed tokens are dropped silently.
func ParseInputURLs(text string) []string {
	tokens := strings.FieldsFunc(text, isSeparator)
	seen := make(map[string]struct{}, len(tokens))
	urls := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		s := Sanitize(tok)
		if !Valid(s) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		urls = append(urls, s)
	}
	return urls
}

// ParseOne sanitizes and validates a single URL.
func ParseOne(raw string) (string, error) {
	s := Sanitize(raw)
	if !Valid(s) {
		return "", ErrNoValidURL
	}
	return s, nil
}

// Hostname returns the lower-cased host of rawURL, or an error when it
// does not parse.
func Hostname(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", errors.New("url has no host")
	}
	return strings.ToLower(host), nil
}
