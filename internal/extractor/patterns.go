package extractor

import (
	"fmt"
	"regexp"

	"jetgrab/internal/domain"
)

// Pattern is one row of the matcher table. Group selects the capture
// group holding the URL (0 for the whole match). An empty Type means the
// match is classified by its suffix.
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
	Group  int
	Type   domain.ResourceType
}

// NewPattern compiles expr into a Pattern.
func NewPattern(name, expr string, group int, typ domain.ResourceType) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %s: %w", name, err)
	}
	if group < 0 || group > re.NumSubexp() {
		return Pattern{}, fmt.Errorf("pattern %s: group %d out of range (%d groups)", name, group, re.NumSubexp())
	}
	return Pattern{Name: name, Regexp: re, Group: group, Type: typ}, nil
}

// MustPattern is NewPattern for static tables.
func MustPattern(name, expr string, group int, typ domain.ResourceType) Pattern {
	p, err := NewPattern(name, expr, group, typ)
	if err != nil {
		panic(err)
	}
	return p
}

const mediaExt = `\.(?:mp4|webm|ogg|mov|m3u8)`

// escapedQuery is an optional query string inside a JSON-escaped string.
// Only the escapes of "&", "=" and "/" are taken, so an escaped closing
// quote ends the match.
const escapedQuery = `(?:\?(?:[^\s"'<>\\]|\\u00(?:26|3[dD]|2[fF])|\\/)*)?`

// jsonFields are the player config keys known to carry a media URL.
var jsonFields = []string{"videoUrl", "playUrl", "previewVideoUrl", "mediaUrl"}

func fieldPattern(key string) Pattern {
	return MustPattern(key, `"`+key+`"\s*:\s*"([^"]+)"`, 1, domain.TypeVideo)
}

func escapedFieldPattern(key string) Pattern {
	return MustPattern("escaped_"+key, `\\"`+key+`\\"\s*:\s*\\"((?:[^"\\]|\\/)+)\\"`, 1, domain.TypeVideo)
}

func unicodeQuotedFieldPattern(key string) Pattern {
	return MustPattern("u0022_"+key, key+`\\u0022\s*:\s*\\u0022(.+?)\\u0022`, 1, domain.TypeVideo)
}

// DefaultPatterns returns a fresh copy of the built-in table. Order
// matters: with dedupe on, the first pattern to yield a (type, url) pair
// decides which textual form is kept and the item's index.
func DefaultPatterns() []Pattern {
	patterns := []Pattern{
		MustPattern("direct_media", `https?://[^\s"'<>\\]+`+mediaExt+`(?:\?[^\s"'<>\\]*)?`, 0, ""),
		fieldPattern("videoUrl"),
		MustPattern("video", `"video"\s*:\s*"([^"]+)"`, 1, domain.TypeVideo),
	}
	for _, key := range jsonFields[1:] {
		patterns = append(patterns, fieldPattern(key))
	}
	patterns = append(patterns,
		MustPattern("src_media", `src=['"](https?://[^'"]+`+mediaExt+`(?:\?[^'"]*)?)['"]`, 1, ""),
		MustPattern("escaped_direct_media", `https?:\\/\\/[^\s"'<>]+?`+mediaExt+escapedQuery, 0, ""),
	)
	for _, key := range jsonFields {
		patterns = append(patterns, escapedFieldPattern(key))
	}
	for _, key := range jsonFields {
		patterns = append(patterns, unicodeQuotedFieldPattern(key))
	}
	patterns = append(patterns, MustPattern("generic", `https?://[^\s"'<>\\]+`, 0, ""))
	return patterns
}
