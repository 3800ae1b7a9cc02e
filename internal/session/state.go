package session

import (
	"errors"

	"jetgrab/internal/api"
	"jetgrab/internal/domain"
	"jetgrab/internal/items"
)

// Mode selects how a batch is produced.
type Mode string

const (
	ModeScrape  Mode = "scrape"
	ModeExtract Mode = "extract"
	ModeImport  Mode = "import"
)

// Outcome classifies how the last batch ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeOK        Outcome = "ok"
	OutcomeEmpty     Outcome = "empty"
	OutcomeAllFailed Outcome = "all_failed"
	OutcomeAntiBot   Outcome = "anti_bot"
)

// FailureKind tells the failure classes of a single URL apart.
type FailureKind string

const (
	FailureUnreachable FailureKind = "unreachable"
	FailureServer      FailureKind = "server"
	FailureAntiBot     FailureKind = "anti_bot"
	FailureOther       FailureKind = "other"
)

var (
	ErrNothingToRetry  = errors.New("no failed urls to retry")
	ErrNothingSelected = errors.New("no items selected")
	ErrEmptyImport     = errors.New("no html to import")
)

// Failure records why one URL of a batch produced nothing.
type Failure struct {
	URL    string      `json:"url"`
	Reason string      `json:"reason"`
	Kind   FailureKind `json:"kind"`
}

// URLResult is the outcome of fetching one URL of a batch. Exactly one
// of Items (possibly empty) or Failure is meaningful.
type URLResult struct {
	URL        string
	Items      []domain.ResourceItem
	PageTitle  string
	ViaBrowser bool
	Failure    *Failure
}

// State is the whole client session. Reduce never mutates the State it
// is given.
type State struct {
	Mode            Mode
	Items           *items.Store
	Prefs           domain.Preferences
	Sort            domain.SortMode
	Failed          []Failure
	ActiveHistoryID string
	PageTitle       string
	Outcome         Outcome
	LastArchive     *api.Archive
	Status          string
	Busy            bool
	Err             error
}

// NewState returns the initial state for prefs.
func NewState(prefs domain.Preferences) State {
	store := items.NewStore()
	store.SetFilter(items.FilterFromPreferences(prefs))
	return State{
		Mode:  ModeScrape,
		Items: store,
		Prefs: prefs,
		Sort:  prefs.Sort,
	}
}

func (s State) clone() State {
	next := s
	next.Items = s.Items.Clone()
	next.Failed = append([]Failure(nil), s.Failed...)
	return next
}

// Visible is the rendered subset: filtered, sorted and capped.
func (s State) Visible() []domain.ResourceItem {
	return s.Items.Visible(s.Sort, s.Prefs.MaxResults)
}

// FailedURLs lists the URLs of the last failures in order.
func (s State) FailedURLs() []string {
	out := make([]string, len(s.Failed))
	for i, f := range s.Failed {
		out[i] = f.URL
	}
	return out
}

// Action is a user intent or a completed side effect.
type Action interface{ action() }

type (
	SetMode        struct{ Mode Mode }
	Toggle         struct{ ID string }
	SelectAll      struct{}
	InvertSelect   struct{}
	DeselectAll    struct{}
	SetFilter      struct{ Filter items.Filter }
	SetSort        struct{ Mode domain.SortMode }
	SetPreferences struct{ Prefs domain.Preferences }

	// Submit parses free-form text into URLs and fetches them.
	Submit struct{ Text string }

	// Retry re-runs the failed subset of the last batch.
	Retry struct{}

	// ImportHTML extracts locally from HTML supplied by the user.
	ImportHTML struct{ HTML, BaseURL string }

	// Package asks for an archive of the selected items. With
	// VisibleOnly set, selected items hidden by the filter or the result
	// cap are left out.
	Package struct{ VisibleOnly bool }

	BatchDone struct{ Results []URLResult }
	RetryDone struct{ Results []URLResult }

	ImportDone struct {
		Items   []domain.ResourceItem
		AntiBot bool
	}

	PackageDone struct {
		Archive api.Archive
		Err     error
	}

	HistoryRemembered struct{ ID string }
)

func (SetMode) action()           {}
func (Toggle) action()            {}
func (SelectAll) action()         {}
func (InvertSelect) action()      {}
func (DeselectAll) action()       {}
func (SetFilter) action()         {}
func (SetSort) action()           {}
func (SetPreferences) action()    {}
func (Submit) action()            {}
func (Retry) action()             {}
func (ImportHTML) action()        {}
func (Package) action()           {}
func (BatchDone) action()         {}
func (RetryDone) action()         {}
func (ImportDone) action()        {}
func (PackageDone) action()       {}
func (HistoryRemembered) action() {}

// Effect describes a side effect for the Runner to perform.
type Effect interface{ effect() }

type (
	FetchBatch struct {
		URLs  []string
		Mode  Mode
		Retry bool
	}
	ExtractHTML     struct{ HTML, BaseURL string }
	PackageItems    struct{ Items []domain.ResourceItem }
	RememberURLs    struct{ URLs []string }
	SavePreferences struct{ Prefs domain.Preferences }
)

func (FetchBatch) effect()      {}
func (ExtractHTML) effect()     {}
func (PackageItems) effect()    {}
func (RememberURLs) effect()    {}
func (SavePreferences) effect() {}
