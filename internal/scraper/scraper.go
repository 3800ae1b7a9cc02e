package scraper

import "context"

// Fetcher returns the rendered HTML of a page. It backs the
// browser-assisted mode, where page text is extracted locally instead of
// by the backend.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) FetchHTML(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
