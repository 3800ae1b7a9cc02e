// Package extractor finds downloadable media URLs in raw page text.
//
// Extraction is best-effort. An ordered table of regular expressions is
// run over the raw HTML/JS text and, optionally, a DOM pass collects
// src/href attributes of media tags first. Every candidate is unescaped,
// must be an absolute http(s) URL and is classified by suffix unless the
// pattern assumes a type.
package extractor

import (
	"strings"

	"github.com/sirupsen/logrus"

	"jetgrab/internal/domain"
	"jetgrab/internal/urlnorm"
)

// Extractor holds the matcher table and per-call options.
type Extractor struct {
	Patterns []Pattern

	// Dedupe suppresses repeated (type, url) pairs within one call.
	Dedupe bool

	// MaxResults caps the number of returned items when > 0.
	MaxResults int

	// ParseTags enables the DOM pass over video/audio/img/a tags.
	ParseTags bool

	// BaseURL resolves relative URLs found by the DOM pass and decides
	// which links count as same-site folders.
	BaseURL string

	log logrus.FieldLogger
}

// New returns an Extractor with the default table and dedupe enabled.
func New(logger logrus.FieldLogger) *Extractor {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}
	return &Extractor{
		Patterns:  DefaultPatterns(),
		Dedupe:    true,
		ParseTags: true,
		log:       logger.WithField("component", "extractor"),
	}
}

type batch struct {
	items []domain.ResourceItem
	seen  map[string]struct{}
	dedup bool
	max   int
}

func (b *batch) full() bool {
	return b.max > 0 && len(b.items) >= b.max
}

// add appends candidate if it passes validation and dedupe. An empty
// typ classifies by suffix.
func (b *batch) add(candidate string, typ domain.ResourceType) bool {
	if b.full() {
		return false
	}
	u := Unescape(candidate)
	if !strings.HasPrefix(u, "http") || !urlnorm.Valid(u) {
		return false
	}
	if typ == "" {
		typ = Classify(u)
	}
	key := domain.ItemKey(typ, u)
	if b.dedup {
		if _, dup := b.seen[key]; dup {
			return false
		}
		b.seen[key] = struct{}{}
	}
	b.items = append(b.items, domain.NewResourceItem(len(b.items), u, typ, NameFromURL(u)))
	return true
}

// Extract runs the DOM pass (when enabled) and then every pattern in
// table order over text.
func (e *Extractor) Extract(text string) []domain.ResourceItem {
	b := &batch{
		seen:  make(map[string]struct{}),
		dedup: e.Dedupe,
		max:   e.MaxResults,
	}

	if e.ParseTags {
		for _, c := range tagCandidates(text, e.BaseURL) {
			b.add(c.url, c.typ)
		}
	}

	for _, p := range e.Patterns {
		if b.full() {
			break
		}
		matches := p.Regexp.FindAllStringSubmatch(text, -1)
		added := 0
		for _, m := range matches {
			if p.Group >= len(m) {
				continue
			}
			if b.add(m[p.Group], p.Type) {
				added++
			}
		}
		if len(matches) > 0 {
			e.log.WithFields(logrus.Fields{
				"pattern": p.Name,
				"matches": len(matches),
				"added":   added,
			}).Debug("Pattern matched")
		}
	}

	e.log.WithField("count", len(b.items)).Debug("Extraction finished")
	return b.items
}

// antiBotSignals are markers of the marketplace's challenge page.
var antiBotSignals = []string{
	"punish-component",
	"sufei-punish",
	"awsc.js",
	"captcha",
	"x5sec",
	"lib-windvane",
	"deny",
}

// DetectAntiBot reports whether html looks like a challenge page rather
// than product content. At least three markers must be present.
func DetectAntiBot(html string) bool {
	content := strings.ToLower(html)
	hits := 0
	for _, s := range antiBotSignals {
		if strings.Contains(content, s) {
			hits++
		}
	}
	return hits >= 3
}
