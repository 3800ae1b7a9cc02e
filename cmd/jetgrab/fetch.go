package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"jetgrab/internal/domain"
	"jetgrab/internal/export"
	"jetgrab/internal/items"
	"jetgrab/internal/session"
)

// viewFlags shape how a result is filtered and written.
type viewFlags struct {
	types        []string
	domain       string
	query        string
	selectedOnly bool
	sort         string
	format       string
	out          string
	pkg          bool
	noDedupe     bool
	max          int
}

func (f *viewFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVar(&f.types, "type", nil, "Resource types to show (video,image,audio,file,folder,other)")
	fl.StringVar(&f.domain, "domain", "", "Only show items whose host contains this text")
	fl.StringVar(&f.query, "query", "", "Only show items whose url or name contains this text")
	fl.BoolVar(&f.selectedOnly, "selected-only", false, "Only show selected items")
	fl.StringVar(&f.sort, "sort", "", "Sort by url, length, type or domain")
	fl.StringVar(&f.format, "format", "txt", "Output format: json, txt or csv")
	fl.StringVarP(&f.out, "out", "o", "", "Write output to a file instead of stdout")
	fl.BoolVar(&f.pkg, "package", false, "Download the selected items into a zip archive")
	fl.BoolVar(&f.noDedupe, "no-dedupe", false, "Keep repeated (type, url) pairs")
	fl.IntVar(&f.max, "max", 0, "Cap the number of shown items (0 = no cap)")
}

// apply overrides the stored preferences with explicit flags.
func (f *viewFlags) apply(cmd *cobra.Command, prefs domain.Preferences) (domain.Preferences, error) {
	if cmd.Flags().Changed("type") {
		types := make(map[domain.ResourceType]bool, len(domain.AllTypes))
		for _, t := range domain.AllTypes {
			types[t] = false
		}
		for _, raw := range f.types {
			t, ok := domain.ParseResourceType(raw)
			if !ok {
				return prefs, fmt.Errorf("unknown type %q", raw)
			}
			types[t] = true
		}
		prefs.Types = types
	}
	if cmd.Flags().Changed("domain") {
		prefs.Domain = f.domain
	}
	if cmd.Flags().Changed("selected-only") {
		prefs.SelectedOnly = f.selectedOnly
	}
	if cmd.Flags().Changed("sort") {
		mode, ok := items.ParseSortMode(f.sort)
		if !ok {
			return prefs, fmt.Errorf("unknown sort mode %q", f.sort)
		}
		prefs.Sort = mode
	}
	if f.noDedupe {
		prefs.Dedupe = false
	}
	if cmd.Flags().Changed("max") {
		if f.max < 0 {
			return prefs, fmt.Errorf("--max must not be negative")
		}
		prefs.MaxResults = f.max
	}
	return prefs, nil
}

func newFetchCmd(mode session.Mode, short string) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   string(mode) + " <url>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, err := export.ParseFormat(flags.format)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			prefs, err := flags.apply(cmd, a.prefs)
			if err != nil {
				return err
			}
			s := a.session(prefs)

			sp := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			s.OnProgress(func(p session.Progress) {
				sp.Suffix = fmt.Sprintf(" [%d/%d] %s", p.Index, p.Total, p.URL)
				if p.Index == 1 {
					sp.Start()
				}
			})

			if _, err := s.Dispatch(ctx, session.SetMode{Mode: mode}); err != nil {
				return err
			}
			if flags.query != "" {
				f := items.FilterFromPreferences(prefs)
				f.Query = flags.query
				if _, err := s.Dispatch(ctx, session.SetFilter{Filter: f}); err != nil {
					return err
				}
			}
			st, err := s.Dispatch(ctx, session.Submit{Text: strings.Join(args, " ")})
			sp.Stop()
			if err != nil {
				return err
			}
			return finish(cmd, a, s, st, flags, format)
		},
	}
	flags.register(cmd)
	return cmd
}

// finish prints the outcome, writes the view and optionally packages.
func finish(cmd *cobra.Command, a *app, s *session.Session, st session.State, flags viewFlags, format export.Format) error {
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, st.Status)
	for _, f := range st.Failed {
		fmt.Fprintf(errOut, "  failed: %s (%s)\n", f.URL, f.Reason)
	}

	if err := writeView(cmd.OutOrStdout(), flags.out, format, st.Visible()); err != nil {
		return err
	}

	if flags.pkg {
		st, err := s.Dispatch(cmd.Context(), session.Package{VisibleOnly: true})
		if err != nil {
			return err
		}
		path, err := saveArchive(a.cfg.DownloadDir, st)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "%s -> %s\n", st.Status, path)
	}

	if st.Outcome == session.OutcomeAllFailed || st.Outcome == session.OutcomeAntiBot {
		return fmt.Errorf("no results: %s", st.Outcome)
	}
	return nil
}

func writeView(stdout io.Writer, out string, format export.Format, view []domain.ResourceItem) error {
	if out == "" {
		return export.Write(stdout, format, view)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.Write(f, format, view); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveArchive(dir string, st session.State) (string, error) {
	if st.LastArchive == nil {
		return "", fmt.Errorf("no archive produced")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, export.ArchiveName(st.LastArchive.Filename))
	if err := os.WriteFile(path, st.LastArchive.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(
		newFetchCmd(session.ModeScrape, "List the videos on one or more pages"),
		newFetchCmd(session.ModeExtract, "List every resource type on one or more pages"),
	)
}
