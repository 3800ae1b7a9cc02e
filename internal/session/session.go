// Package session drives one client session: it reduces user actions
// into state and runs the resulting side effects against the backend,
// the local extractor and the persistence layer.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"jetgrab/internal/api"
	"jetgrab/internal/domain"
	"jetgrab/internal/extractor"
	"jetgrab/internal/history"
	"jetgrab/internal/scraper"
	"jetgrab/internal/storage"
)

// Backend is the subset of the backend API a session needs.
type Backend interface {
	Scrape(ctx context.Context, pageURL string, opts api.FetchOptions) (api.Result, error)
	Extract(ctx context.Context, pageURL string, opts api.FetchOptions) (api.Result, error)
	Package(ctx context.Context, items []domain.ResourceItem) (api.Archive, error)
}

// Progress reports the URL about to be fetched. Index is 1-based.
type Progress struct {
	Index int
	Total int
	URL   string
}

// Deps are the collaborators of a Session. Only Backend is required.
type Deps struct {
	Backend Backend

	// Fetcher renders pages locally when the backend reports an
	// anti-bot block.
	Fetcher scraper.Fetcher

	History *history.Tabs
	Store   storage.Store
	Logger  logrus.FieldLogger
}

// Session serializes actions; a second Dispatch waits for the first.
type Session struct {
	mu       sync.Mutex
	deps     Deps
	state    State
	progress func(Progress)
	log      logrus.FieldLogger
}

// New returns a session in scrape mode with prefs applied.
func New(deps Deps, prefs domain.Preferences) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		deps:  deps,
		state: NewState(prefs),
		log:   logger.WithField("component", "session"),
	}
}

// OnProgress installs a callback invoked before each URL of a batch.
func (s *Session) OnProgress(fn func(Progress)) {
	s.mu.Lock()
	s.progress = fn
	s.mu.Unlock()
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch reduces a, runs the effects and feeds their completions back
// until the state settles. The returned error is the first error any
// step recorded in the state; it is also kept in State.Err.
func (s *Session) Dispatch(ctx context.Context, a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Err = nil
	var firstErr error
	queue := []Action{a}
	for len(queue) > 0 {
		act := queue[0]
		queue = queue[1:]

		var effects []Effect
		s.state, effects = Reduce(s.state, act)
		if s.state.Err != nil && firstErr == nil {
			firstErr = s.state.Err
		}
		for _, e := range effects {
			if follow := s.run(ctx, e); follow != nil {
				queue = append(queue, follow)
			}
		}
	}
	s.state.Err = firstErr
	return s.state.clone(), firstErr
}

func (s *Session) run(ctx context.Context, e Effect) Action {
	switch e := e.(type) {
	case FetchBatch:
		results := s.runBatch(ctx, e.URLs, e.Mode)
		if e.Retry {
			return RetryDone{Results: results}
		}
		return BatchDone{Results: results}

	case ExtractHTML:
		ex := s.newExtractor(e.BaseURL)
		found := ex.Extract(e.HTML)
		return ImportDone{Items: found, AntiBot: len(found) == 0 && extractor.DetectAntiBot(e.HTML)}

	case PackageItems:
		arc, err := s.deps.Backend.Package(ctx, e.Items)
		if err != nil {
			s.log.WithError(err).Warn("Packaging failed")
		}
		return PackageDone{Archive: arc, Err: err}

	case RememberURLs:
		return s.remember(ctx, e.URLs)

	case SavePreferences:
		if s.deps.Store == nil {
			return nil
		}
		if err := history.SavePreferences(ctx, s.deps.Store, e.Prefs); err != nil {
			s.log.WithError(err).Error("Failed to save preferences")
		}
		return nil
	}
	return nil
}

func (s *Session) remember(ctx context.Context, urls []string) Action {
	if s.deps.Store != nil {
		if _, err := history.AddRecent(ctx, s.deps.Store, s.log, urls...); err != nil {
			s.log.WithError(err).Warn("Failed to store recent urls")
		}
	}
	if s.deps.History == nil {
		return nil
	}
	var last string
	for _, u := range urls {
		tab, err := s.deps.History.Remember(ctx, u)
		if err != nil {
			s.log.WithError(err).WithField("url", u).Warn("Failed to remember url")
			continue
		}
		last = tab.ID
	}
	if last == "" {
		return nil
	}
	return HistoryRemembered{ID: last}
}

func (s *Session) newExtractor(baseURL string) *extractor.Extractor {
	ex := extractor.New(s.log)
	ex.Dedupe = s.state.Prefs.Dedupe
	ex.BaseURL = baseURL
	return ex
}

// runBatch fetches urls one at a time. A failure never aborts the batch.
func (s *Session) runBatch(ctx context.Context, urls []string, mode Mode) []URLResult {
	results := make([]URLResult, 0, len(urls))
	for i, u := range urls {
		if s.progress != nil {
			s.progress(Progress{Index: i + 1, Total: len(urls), URL: u})
		}
		if err := ctx.Err(); err != nil {
			results = append(results, failed(u, err))
			continue
		}
		results = append(results, s.fetchOne(ctx, u, mode))
	}
	return results
}

func (s *Session) fetchOne(ctx context.Context, u string, mode Mode) URLResult {
	log := s.log.WithFields(logrus.Fields{"url": u, "mode": mode})

	var (
		res api.Result
		err error
	)
	opts := api.FetchOptions{KeepDuplicates: !s.state.Prefs.Dedupe}
	if mode == ModeExtract {
		res, err = s.deps.Backend.Extract(ctx, u, opts)
	} else {
		res, err = s.deps.Backend.Scrape(ctx, u, opts)
	}
	if err == nil {
		log.WithField("items", len(res.Items)).Debug("Fetched")
		return URLResult{URL: u, Items: res.Items, PageTitle: res.PageTitle}
	}

	if api.IsAntiBot(err) && s.deps.Fetcher != nil {
		log.Info("Backend blocked, rendering locally")
		if r, ok := s.fallback(ctx, u, mode); ok {
			return r
		}
	}
	log.WithError(err).Warn("Fetch failed")
	return failed(u, err)
}

// fallback renders u in the local browser and extracts from its HTML.
func (s *Session) fallback(ctx context.Context, u string, mode Mode) (URLResult, bool) {
	html, err := s.deps.Fetcher.FetchHTML(ctx, u)
	if err != nil {
		s.log.WithError(err).WithField("url", u).Warn("Local render failed")
		return URLResult{}, false
	}
	if extractor.DetectAntiBot(html) {
		return URLResult{}, false
	}
	found := s.newExtractor(u).Extract(html)
	if mode != ModeExtract {
		videos := found[:0]
		for _, it := range found {
			if it.Type == domain.TypeVideo {
				videos = append(videos, it)
			}
		}
		found = videos
	}
	if len(found) == 0 {
		return URLResult{}, false
	}
	return URLResult{URL: u, Items: found, ViaBrowser: true}, true
}

func failed(u string, err error) URLResult {
	f := &Failure{URL: u, Reason: err.Error(), Kind: FailureOther}
	var apiErr *api.APIError
	switch {
	case api.IsAntiBot(err):
		f.Kind = FailureAntiBot
	case api.IsUnreachable(err), errors.Is(err, context.DeadlineExceeded):
		f.Kind = FailureUnreachable
	case errors.As(err, &apiErr):
		f.Kind = FailureServer
	}
	return URLResult{URL: u, Failure: f}
}
