package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jetgrab/internal/api"
	"jetgrab/internal/config"
	"jetgrab/internal/domain"
	"jetgrab/internal/history"
	"jetgrab/internal/scraper"
	"jetgrab/internal/session"
	"jetgrab/internal/storage"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:           "jetgrab",
	Short:         "Find and download media linked from web pages",
	Long:          "jetgrab asks a scraping backend for the media on one or more pages, lets you filter and export the result, and packages downloads into a zip.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./configs", "Directory holding config.yaml")
}

// app bundles what most commands need.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	store  *storage.BadgerStore
	tabs   *history.Tabs
	client *api.Client
	prefs  domain.Preferences
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	// stdout carries command output.
	log.SetOutput(os.Stderr)
	if strings.EqualFold(cfg.LogFormat, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg)
	log.WithFields(logrus.Fields{
		"api_base":  cfg.APIBase,
		"data_path": cfg.DataPath,
	}).Debug("Configuration loaded successfully")

	store, err := storage.NewBadgerStore(cfg.DataPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tabs := history.NewTabs(store, cfg.HistoryLimit, log)
	if err := tabs.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	prefs, err := history.LoadPreferences(ctx, store, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		tabs:   tabs,
		client: api.NewClient(cfg.APIBase, cfg.RequestTimeout, log),
		prefs:  prefs,
	}, nil
}

func (a *app) Close() {
	if err := a.store.RunGC(); err != nil {
		a.log.WithError(err).Debug("Value log GC failed")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Error("Error closing database")
	}
}

func (a *app) browser() *scraper.RodScraper {
	return scraper.NewRodScraper(a.log, a.cfg.BrowserTimeout)
}

func (a *app) session(prefs domain.Preferences) *session.Session {
	return session.New(session.Deps{
		Backend: a.client,
		Fetcher: a.browser(),
		History: a.tabs,
		Store:   a.store,
		Logger:  a.log,
	}, prefs)
}
