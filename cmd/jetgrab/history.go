package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jetgrab/internal/domain"
	"jetgrab/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage remembered source pages",
}

// withTabs opens the app and resolves the first argument to a tab.
func withTabs(fn func(cmd *cobra.Command, a *app, tab domain.HistoryTab, rest []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		tab, ok := a.tabs.Resolve(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", history.ErrTabNotFound, args[0])
		}
		return fn(cmd, a, tab, args[1:])
	}
}

func printTabs(w io.Writer, tabs []domain.HistoryTab) {
	if len(tabs) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPIN\tUSES\tLAST USED\tLABEL\tURL")
	for _, t := range tabs {
		pin := ""
		if t.Pinned {
			pin = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", t.ID, pin, t.UseCount, t.LastUsedAt.Local().Format(time.DateTime), t.Label, t.URL)
	}
	tw.Flush()
}

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "List remembered pages, pinned first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			printTabs(cmd.OutOrStdout(), a.tabs.List())
			return nil
		},
	}

	pin := &cobra.Command{
		Use:   "pin <id|url>",
		Short: "Keep a page at the top of the list",
		Args:  cobra.ExactArgs(1),
		RunE: withTabs(func(cmd *cobra.Command, a *app, tab domain.HistoryTab, _ []string) error {
			_, err := a.tabs.SetPinned(cmd.Context(), tab.ID, true)
			return err
		}),
	}
	unpin := &cobra.Command{
		Use:   "unpin <id|url>",
		Short: "Unpin a page",
		Args:  cobra.ExactArgs(1),
		RunE: withTabs(func(cmd *cobra.Command, a *app, tab domain.HistoryTab, _ []string) error {
			_, err := a.tabs.SetPinned(cmd.Context(), tab.ID, false)
			return err
		}),
	}
	label := &cobra.Command{
		Use:   "label <id|url> <label...>",
		Short: "Name a page",
		Args:  cobra.MinimumNArgs(1),
		RunE: withTabs(func(cmd *cobra.Command, a *app, tab domain.HistoryTab, rest []string) error {
			_, err := a.tabs.SetLabel(cmd.Context(), tab.ID, strings.Join(rest, " "))
			return err
		}),
	}
	note := &cobra.Command{
		Use:   "note <id|url> <note...>",
		Short: "Attach a note to a page",
		Args:  cobra.MinimumNArgs(1),
		RunE: withTabs(func(cmd *cobra.Command, a *app, tab domain.HistoryTab, rest []string) error {
			_, err := a.tabs.SetNote(cmd.Context(), tab.ID, strings.Join(rest, " "))
			return err
		}),
	}
	rm := &cobra.Command{
		Use:   "rm <id|url>",
		Short: "Forget a page",
		Args:  cobra.ExactArgs(1),
		RunE: withTabs(func(cmd *cobra.Command, a *app, tab domain.HistoryTab, _ []string) error {
			return a.tabs.Delete(cmd.Context(), tab.ID)
		}),
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.tabs.Clear(cmd.Context())
		},
	}
	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the history as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			data, err := a.tabs.Export()
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	}
	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge an exported history; imported entries win",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			n, err := a.tabs.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merged %d entries\n", n)
			return nil
		},
	}

	historyCmd.AddCommand(list, pin, unpin, label, note, rm, clearCmd, exportCmd, importCmd)
	rootCmd.AddCommand(historyCmd)
}
