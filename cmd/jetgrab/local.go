package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jetgrab/internal/export"
	"jetgrab/internal/extractor"
	"jetgrab/internal/importer"
	"jetgrab/internal/session"
	"jetgrab/internal/urlnorm"
)

// readImport reads and decodes the payload named by arg ("-" is stdin).
func readImport(stdin io.Reader, arg string, maxBytes int) (string, error) {
	if arg == "-" {
		return importer.Read(stdin, maxBytes)
	}
	f, err := os.Open(arg)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return importer.Read(f, maxBytes)
}

func newImportCmd() *cobra.Command {
	var (
		flags viewFlags
		base  string
	)
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Extract media from saved page HTML",
		Long:  "Reads page HTML from a file or stdin. The payload may be raw HTML, URL-encoded or base64 (optionally prefixed with base64:).",
		Args:  cobra.ExactArgs(1),
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

			html, err := readImport(cmd.InOrStdin(), args[0], int(a.cfg.ImportMaxBytes))
			if err != nil {
				return err
			}

			prefs, err := flags.apply(cmd, a.prefs)
			if err != nil {
				return err
			}
			s := a.session(prefs)
			st, err := s.Dispatch(ctx, session.ImportHTML{HTML: html, BaseURL: base})
			if err != nil {
				return err
			}
			return finish(cmd, a, s, st, flags, format)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&base, "base", "", "Page URL used to resolve relative links")
	return cmd
}

func newBrowseCmd() *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "browse <url>",
		Short: "Render a page in a local headless browser and extract from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			target, err := urlnorm.ParseOne(args[0])
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			html, err := a.browser().FetchHTML(ctx, target)
			if err != nil {
				return err
			}
			if extractor.DetectAntiBot(html) {
				a.log.WithField("url", target).Warn("Rendered page looks like a bot challenge")
			}

			prefs, err := flags.apply(cmd, a.prefs)
			if err != nil {
				return err
			}
			s := a.session(prefs)
			st, err := s.Dispatch(ctx, session.ImportHTML{HTML: html, BaseURL: target})
			if err != nil {
				return err
			}
			if _, err := a.tabs.Remember(ctx, target); err != nil {
				a.log.WithError(err).Warn("Failed to remember url")
			}
			return finish(cmd, a, s, st, flags, format)
		},
	}
	flags.register(cmd)
	return cmd
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("backend %s: %w", a.client.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "backend %s is healthy\n", a.client.BaseURL())
		return nil
	},
}

// localDiag mirrors the backend diagnostic for a locally rendered page.
type localDiag struct {
	Target      string         `json:"target"`
	HTMLLength  int            `json:"html_length"`
	AntiBot     bool           `json:"anti_bot"`
	VideoTokens map[string]int `json:"video_tokens"`
}

func newDiagCmd() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "diag <url>",
		Short: "Show how a target page answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var result any
			if local {
				target, err := urlnorm.ParseOne(args[0])
				if err != nil {
					return err
				}
				html, err := a.browser().FetchHTML(ctx, target)
				if err != nil {
					return err
				}
				result = localDiag{
					Target:      target,
					HTMLLength:  len(html),
					AntiBot:     extractor.DetectAntiBot(html),
					VideoTokens: extractor.CountVideoTokens(html),
				}
			} else {
				res, err := a.client.Diag(ctx, args[0])
				if err != nil {
					return err
				}
				result = res
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Render the page with the local browser instead of asking the backend")
	return cmd
}

func init() {
	rootCmd.AddCommand(newImportCmd(), newBrowseCmd(), healthCmd, newDiagCmd())
}
