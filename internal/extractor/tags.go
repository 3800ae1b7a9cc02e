package extractor

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"jetgrab/internal/domain"
)

type candidate struct {
	url string
	typ domain.ResourceType
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, `\/`, "/"))
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "javascript:") || strings.HasPrefix(raw, "#") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if base == nil {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// tagCandidates walks the parsed document and collects media tag
// sources and typed links. Parse failures yield no candidates.
func tagCandidates(text, baseURL string) []candidate {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil
	}

	var base *url.URL
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
			base = u
		}
	}

	var out []candidate
	push := func(raw string, typ domain.ResourceType) {
		if u := resolve(base, raw); u != "" {
			out = append(out, candidate{url: u, typ: typ})
		}
	}

	var walk func(n *html.Node, parent string)
	walk = func(n *html.Node, parent string) {
		tag := parent
		if n.Type == html.ElementNode {
			tag = strings.ToLower(n.Data)
			switch tag {
			case "video":
				push(attr(n, "src"), domain.TypeVideo)
				push(attr(n, "poster"), domain.TypeImage)
			case "audio":
				push(attr(n, "src"), domain.TypeAudio)
			case "source":
				switch parent {
				case "video":
					push(attr(n, "src"), domain.TypeVideo)
				case "audio":
					push(attr(n, "src"), domain.TypeAudio)
				}
			case "img":
				for _, key := range []string{"src", "data-src", "data-original"} {
					push(attr(n, key), domain.TypeImage)
				}
			case "a":
				if href := resolve(base, attr(n, "href")); href != "" {
					if typ := classifyLink(base, href); typ != domain.TypeOther {
						out = append(out, candidate{url: href, typ: typ})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, tag)
		}
	}
	walk(doc, "")
	return out
}

// classifyLink treats same-host links ending in "/" as folders and
// otherwise falls back to suffix classification.
func classifyLink(base *url.URL, href string) domain.ResourceType {
	if base != nil && strings.HasSuffix(href, "/") {
		if u, err := url.Parse(href); err == nil && strings.EqualFold(u.Host, base.Host) {
			return domain.TypeFolder
		}
	}
	return Classify(href)
}
