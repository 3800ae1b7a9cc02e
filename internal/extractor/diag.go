package extractor

import "regexp"

var tokenPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"videoUrl", regexp.MustCompile(`"videoUrl"\s*:\s*"([^"]+)"`)},
	{"escapedVideoUrl", regexp.MustCompile(`\\"videoUrl\\"\s*:\s*\\"((?:[^"\\]|\\/)+)\\"`)},
	{"directMp4", regexp.MustCompile(`https?://[^\s"'<>]+\.(?:mp4|webm|ogg|mov)`)},
	{"escapedMp4", regexp.MustCompile(`https?:\\/\\/[^\s"'<>]+\.(?:mp4|webm|ogg|mov)`)},
}

// CountVideoTokens counts how often each known video marker occurs in
// html. It is a diagnostic aid and does not extract anything.
func CountVideoTokens(html string) map[string]int {
	counts := make(map[string]int, len(tokenPatterns))
	for _, tp := range tokenPatterns {
		counts[tp.name] = len(tp.re.FindAllStringIndex(html, -1))
	}
	return counts
}
