package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jetgrab/internal/domain"
)

func newTestExtractor() *Extractor {
	e := New(nil)
	e.BaseURL = "https://shop.example.com/item/1.html"
	return e
}

func findByURL(items []domain.ResourceItem, u string) []domain.ResourceItem {
	var out []domain.ResourceItem
	for _, it := range items {
		if it.URL == u {
			out = append(out, it)
		}
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := map[string]domain.ResourceType{
		"https://cdn.net/a.mp4?token=1":  domain.TypeVideo,
		"https://cdn.net/a.M3U8":         domain.TypeVideo,
		"https://cdn.net/a.ogg":          domain.TypeVideo,
		"https://cdn.net/a.jpg":          domain.TypeImage,
		"https://cdn.net/a.webp#frag":    domain.TypeImage,
		"https://cdn.net/a.mp3":          domain.TypeAudio,
		"https://cdn.net/manual.pdf":       domain.TypeFile,
		"https://cdn.net/page.html":      domain.TypeOther,
		"https://cdn.net/no-extension":   domain.TypeOther,
		"https://cdn.net/a.mp4/download": domain.TypeOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, Classify(in), in)
	}
}

func TestExtract_DedupePlainAndJSONField(t *testing.T) {
	html := `<script>var cfg = {"videoUrl":"https://cdn.example.com/v/clip.mp4"};</script>
<p>mirror: https://cdn.example.com/v/clip.mp4</p>`

	items := newTestExtractor().Extract(html)

	matches := findByURL(items, "https://cdn.example.com/v/clip.mp4")
	require.Len(t, matches, 1)
	assert.Equal(t, domain.TypeVideo, matches[0].Type)
	assert.True(t, matches[0].Selected)
	assert.Equal(t, "clip.mp4", matches[0].Name)
}

func TestExtract_NoDedupeKeepsRepeats(t *testing.T) {
	html := `{"videoUrl":"https://cdn.example.com/v/clip.mp4"} https://cdn.example.com/v/clip.mp4`

	e := newTestExtractor()
	e.Dedupe = false
	items := e.Extract(html)

	assert.Greater(t, len(findByURL(items, "https://cdn.example.com/v/clip.mp4")), 1)
}

func TestExtract_EscapedJSON(t *testing.T) {
	html := `window.__INIT__ = "{\"playUrl\":\"https:\/\/video.example.com\/p\/intro.mp4\"}";`

	items := newTestExtractor().Extract(html)

	matches := findByURL(items, "https://video.example.com/p/intro.mp4")
	require.Len(t, matches, 1)
	assert.Equal(t, domain.TypeVideo, matches[0].Type)
}

func TestExtract_EscapedDirectMediaKeepsQuery(t *testing.T) {
	amp := "\\" + "u0026"
	html := `{\"videoUrl\":\"https:\/\/v.example.com\/v\/123.mp4?auth_key=1` + amp + `t=2\"}`

	items := newTestExtractor().Extract(html)

	require.NotEmpty(t, items)
	assert.Equal(t, "https://v.example.com/v/123.mp4?auth_key=1&t=2", items[0].URL)
	assert.Empty(t, findByURL(items, "https://v.example.com/v/123.mp4"))
}

func TestExtract_UnicodeQuotedField(t *testing.T) {
	q := "\\" + "u0022"
	slash := "\\" + "u002F"
	html := "data=mediaUrl" + q + ":" + q + "https:" + slash + slash + "m.example.com" + slash + "a.webm" + q + ";"

	items := newTestExtractor().Extract(html)

	require.Len(t, findByURL(items, "https://m.example.com/a.webm"), 1)
}

func TestExtract_IndexFollowsFirstOccurrence(t *testing.T) {
	html := `https://a.example.com/first.mp4 https://a.example.com/photo.jpg {"videoUrl":"https://a.example.com/first.mp4"}`

	items := newTestExtractor().Extract(html)

	require.NotEmpty(t, items)
	assert.Equal(t, "https://a.example.com/first.mp4", items[0].URL)
	for i, it := range items {
		assert.Equal(t, i, it.Index)
	}
	photo := findByURL(items, "https://a.example.com/photo.jpg")
	require.Len(t, photo, 1)
	assert.Equal(t, domain.TypeImage, photo[0].Type)
}

func TestExtract_DiscardsNonHTTP(t *testing.T) {
	html := `{"videoUrl":"blob:abc-123"} {"video":"/relative/clip.mp4"} {"mediaUrl":"ftp://x/y.mp4"}`

	e := newTestExtractor()
	e.ParseTags = false
	items := e.Extract(html)

	assert.Empty(t, items)
}

func TestExtract_ProtocolRelativeField(t *testing.T) {
	html := `{"playUrl":"//cdn.example.com/v.mp4"}`

	items := newTestExtractor().Extract(html)

	require.Len(t, findByURL(items, "https://cdn.example.com/v.mp4"), 1)
}

func TestExtract_CrossTypeDuplicatesPreserved(t *testing.T) {
	// The field pattern assumes video; the catch-all classifies the same
	// extensionless URL as other. Both survive because the keys differ.
	html := `{"videoUrl":"https://cdn.example.com/stream?id=9"}`

	e := newTestExtractor()
	e.ParseTags = false
	items := e.Extract(html)

	matches := findByURL(items, "https://cdn.example.com/stream?id=9")
	require.Len(t, matches, 2)
	assert.Equal(t, domain.TypeVideo, matches[0].Type)
	assert.Equal(t, domain.TypeOther, matches[1].Type)
}

func TestExtract_DOMPass(t *testing.T) {
	html := `<html><body>
<video src="/media/hero.mp4"><source src="//cdn.example.com/alt.webm"></video>
<audio><source src="/media/jingle.mp3"></audio>
<img data-src="/img/p1.png">
<a href="/downloads/">Downloads</a>
<a href="https://other.example.org/dir/">elsewhere</a>
<a href="/docs/manual.pdf">Manual</a>
</body></html>`

	items := newTestExtractor().Extract(html)

	byURL := func(u string) domain.ResourceType {
		m := findByURL(items, u)
		require.NotEmpty(t, m, u)
		return m[0].Type
	}
	assert.Equal(t, domain.TypeVideo, byURL("https://shop.example.com/media/hero.mp4"))
	assert.Equal(t, domain.TypeVideo, byURL("https://cdn.example.com/alt.webm"))
	assert.Equal(t, domain.TypeAudio, byURL("https://shop.example.com/media/jingle.mp3"))
	assert.Equal(t, domain.TypeImage, byURL("https://shop.example.com/img/p1.png"))
	assert.Equal(t, domain.TypeFolder, byURL("https://shop.example.com/downloads/"))
	assert.Equal(t, domain.TypeFile, byURL("https://shop.example.com/docs/manual.pdf"))
	for _, it := range findByURL(items, "https://other.example.org/dir/") {
		assert.NotEqual(t, domain.TypeFolder, it.Type, "foreign directory links are not folders")
	}
}

func TestExtract_MaxResults(t *testing.T) {
	html := `https://a.net/1.mp4 https://a.net/2.mp4 https://a.net/3.mp4`

	e := newTestExtractor()
	e.MaxResults = 2
	items := e.Extract(html)

	assert.Len(t, items, 2)
}

func TestExtract_CustomPatternTable(t *testing.T) {
	p, err := NewPattern("dataClip", `data-clip="([^"]+)"`, 1, domain.TypeVideo)
	require.NoError(t, err)

	e := newTestExtractor()
	e.ParseTags = false
	e.Patterns = []Pattern{p}
	items := e.Extract(`<div data-clip="https://v.example.com/play/42"></div>`)

	require.Len(t, items, 1)
	assert.Equal(t, domain.TypeVideo, items[0].Type)

	_, err = NewPattern("bad", `(`, 0, "")
	assert.Error(t, err)
	_, err = NewPattern("bad-group", `a(b)`, 2, "")
	assert.Error(t, err)
}

func TestUnescape(t *testing.T) {
	slash := "\\" + "u002F"
	assert.Equal(t, "https://a.net/x.mp4", Unescape(`https:\/\/a.net\/x.mp4`))
	assert.Equal(t, "https://a.net/x.mp4", Unescape("https:"+slash+slash+"a.net"+slash+"x.mp4"))
	assert.Equal(t, "https://a.net/x?a=1&b=2", Unescape("https://a.net/x?a=1&amp;b=2"))
	assert.Equal(t, "https://a.net/x", Unescape("//a.net/x"))
}

func TestDetectAntiBot(t *testing.T) {
	assert.True(t, DetectAntiBot(`<div id="punish-component"></div><script src="AWSC.js"></script> x5sec`))
	assert.False(t, DetectAntiBot(`<p>please solve the captcha</p>`))
}

func TestCountVideoTokens(t *testing.T) {
	html := `{"videoUrl":"https://a.net/x.mp4"} https://a.net/y.webm {\"videoUrl\":\"https:\/\/a.net\/z.mov\"}`

	counts := CountVideoTokens(html)

	assert.Equal(t, 1, counts["videoUrl"])
	assert.Equal(t, 1, counts["escapedVideoUrl"])
	assert.Equal(t, 2, counts["directMp4"])
	assert.Equal(t, 1, counts["escapedMp4"])
}
