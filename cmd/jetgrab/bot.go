package main

import (
	"github.com/spf13/cobra"

	"jetgrab/internal/bot"
	"jetgrab/internal/session"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Serve the Telegram front-end until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := session.Deps{
			Backend: a.client,
			Fetcher: a.browser(),
			History: a.tabs,
			Store:   a.store,
			Logger:  a.log,
		}
		h, err := bot.NewHandler(a.cfg, deps, a.prefs, a.log)
		if err != nil {
			return err
		}

		a.log.Info("jetgrab bot is running. Press Ctrl+C to exit.")
		h.Start(ctx)
		a.log.Info("jetgrab bot shut down gracefully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
