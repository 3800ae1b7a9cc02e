package session

import (
	"fmt"
	"strings"

	"jetgrab/internal/domain"
	"jetgrab/internal/items"
	"jetgrab/internal/urlnorm"
)

// Reduce applies a to s and returns the next state together with the
// side effects the caller must run. It performs no I/O.
func Reduce(s State, a Action) (State, []Effect) {
	next := s.clone()

	switch a := a.(type) {
	case SetMode:
		if a.Mode == next.Mode {
			return next, nil
		}
		next.Mode = a.Mode
		next.reset()
		next.Status = fmt.Sprintf("mode: %s", a.Mode)

	case Toggle:
		if !next.Items.Toggle(a.ID) {
			next.Status = "item is not visible"
		}

	case SelectAll:
		n := next.Items.SelectAll()
		next.Status = fmt.Sprintf("selected %d", n)

	case DeselectAll:
		n := next.Items.DeselectAll()
		next.Status = fmt.Sprintf("deselected %d", n)

	case InvertSelect:
		n := next.Items.InvertSelect()
		next.Status = fmt.Sprintf("inverted %d", n)

	case SetFilter:
		next.Items.SetFilter(a.Filter)

	case SetSort:
		next.Sort = a.Mode

	case SetPreferences:
		next.Prefs = a.Prefs
		next.Sort = a.Prefs.Sort
		f := items.FilterFromPreferences(a.Prefs)
		f.Query = next.Items.Filter().Query
		next.Items.SetFilter(f)
		return next, []Effect{SavePreferences{Prefs: a.Prefs}}

	case Submit:
		urls := urlnorm.ParseInputURLs(a.Text)
		if len(urls) == 0 {
			next.Err = urlnorm.ErrNoValidURL
			next.Status = "enter at least one valid http(s) URL"
			return next, nil
		}
		if next.Mode == ModeImport {
			next.Mode = ModeScrape
		}
		next.reset()
		next.Busy = true
		next.Status = fmt.Sprintf("fetching %d url(s)", len(urls))
		return next, []Effect{FetchBatch{URLs: urls, Mode: next.Mode}}

	case Retry:
		if len(next.Failed) == 0 {
			next.Err = ErrNothingToRetry
			next.Status = ErrNothingToRetry.Error()
			return next, nil
		}
		next.Busy = true
		next.Status = fmt.Sprintf("retrying %d url(s)", len(next.Failed))
		return next, []Effect{FetchBatch{URLs: next.FailedURLs(), Mode: next.Mode, Retry: true}}

	case BatchDone:
		next.Busy = false
		found := collect(a.Results, next.Prefs.Dedupe)
		next.Items.SetAll(found)
		next.applyResults(a.Results)
		return next, remember(a.Results)

	case RetryDone:
		next.Busy = false
		found := collect(a.Results, next.Prefs.Dedupe)
		added, updated := next.Items.RetryMerge(found)
		next.applyResults(a.Results)
		next.Status = fmt.Sprintf("%s (retry: %d new, %d updated)", next.Status, added, updated)
		return next, remember(a.Results)

	case ImportHTML:
		if strings.TrimSpace(a.HTML) == "" {
			next.Err = ErrEmptyImport
			next.Status = ErrEmptyImport.Error()
			return next, nil
		}
		next.Busy = true
		next.Status = "extracting pasted html"
		return next, []Effect{ExtractHTML{HTML: a.HTML, BaseURL: a.BaseURL}}

	case ImportDone:
		next.Busy = false
		next.Mode = ModeImport
		next.reset()
		next.Items.SetAll(a.Items)
		switch {
		case len(a.Items) > 0:
			next.Outcome = OutcomeOK
		case a.AntiBot:
			next.Outcome = OutcomeAntiBot
		default:
			next.Outcome = OutcomeEmpty
		}
		next.Status = statusFor(next.Outcome, len(a.Items), 1, 1)

	case Package:
		sel := next.Items.Selected()
		if a.VisibleOnly {
			sel = visibleSelected(next.Visible())
		}
		if len(sel) == 0 {
			next.Err = ErrNothingSelected
			next.Status = ErrNothingSelected.Error()
			return next, nil
		}
		next.Busy = true
		next.Status = fmt.Sprintf("packaging %d item(s)", len(sel))
		return next, []Effect{PackageItems{Items: sel}}

	case PackageDone:
		next.Busy = false
		if a.Err != nil {
			next.Err = a.Err
			next.Status = "packaging failed: " + a.Err.Error()
			return next, nil
		}
		arc := a.Archive
		next.LastArchive = &arc
		next.Status = fmt.Sprintf("archive ready: %d/%d downloaded", arc.SuccessCount, arc.TotalCount)

	case HistoryRemembered:
		next.ActiveHistoryID = a.ID
	}

	return next, nil
}

func visibleSelected(view []domain.ResourceItem) []domain.ResourceItem {
	var out []domain.ResourceItem
	for _, it := range view {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// reset discards the previous batch.
func (s *State) reset() {
	s.Items.Clear()
	s.Failed = nil
	s.Outcome = OutcomeNone
	s.PageTitle = ""
	s.LastArchive = nil
}

func (s *State) applyResults(results []URLResult) {
	var failed []Failure
	succeeded := 0
	for _, r := range results {
		if r.Failure != nil {
			failed = append(failed, *r.Failure)
			continue
		}
		succeeded++
		if s.PageTitle == "" {
			s.PageTitle = r.PageTitle
		}
	}
	s.Failed = failed
	s.Outcome = classify(s.Items.Len(), succeeded, failed)
	s.Status = statusFor(s.Outcome, s.Items.Len(), succeeded, len(results))
}

// collect concatenates the items of successful results in input order.
// With dedupe on, a (type, url) pair seen from an earlier URL wins.
func collect(results []URLResult, dedupe bool) []domain.ResourceItem {
	var out []domain.ResourceItem
	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Failure != nil {
			continue
		}
		for _, it := range r.Items {
			if dedupe {
				if _, ok := seen[it.Key()]; ok {
					continue
				}
				seen[it.Key()] = struct{}{}
			}
			out = append(out, it)
		}
	}
	return out
}

func remember(results []URLResult) []Effect {
	var urls []string
	for _, r := range results {
		if r.Failure == nil {
			urls = append(urls, r.URL)
		}
	}
	if len(urls) == 0 {
		return nil
	}
	return []Effect{RememberURLs{URLs: urls}}
}

func classify(found, succeeded int, failed []Failure) Outcome {
	if found > 0 {
		return OutcomeOK
	}
	for _, f := range failed {
		if f.Kind == FailureAntiBot {
			return OutcomeAntiBot
		}
	}
	if succeeded == 0 && len(failed) > 0 {
		return OutcomeAllFailed
	}
	return OutcomeEmpty
}

func statusFor(o Outcome, found, succeeded, total int) string {
	switch o {
	case OutcomeOK:
		return fmt.Sprintf("found %d item(s) from %d/%d url(s)", found, succeeded, total)
	case OutcomeAntiBot:
		return "the site blocked automated access; try browser mode or paste the page html"
	case OutcomeAllFailed:
		return "all urls failed; check the backend and try again"
	default:
		return "page loaded but no media was found"
	}
}
