package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// DefaultPageTimeout bounds loading a single page.
const DefaultPageTimeout = 30 * time.Second

// ErrNoBrowser is returned when no Chromium binary can be found.
var ErrNoBrowser = errors.New("rod browser dependency not found")

// RodScraper implements Fetcher with a headless browser launched per call.
type RodScraper struct {
	log     logrus.FieldLogger
	timeout time.Duration
	settle  time.Duration
}

// NewRodScraper creates a new scraper service instance.
func NewRodScraper(logger logrus.FieldLogger, timeout time.Duration) *RodScraper {
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	return &RodScraper{
		log:     logger.WithField("component", "scraper"),
		timeout: timeout,
		settle:  2 * time.Second,
	}
}

// FetchHTML loads url in a fresh headless browser and returns the DOM
// serialized after load, so player configs injected by scripts are
// included.
func (s *RodScraper) FetchHTML(ctx context.Context, url string) (html string, err error) {
	log := s.log.WithField("url", url)
	log.Info("Capturing page with headless browser")

	path, exists := launcher.LookPath()
	if !exists {
		log.Error("Cannot find browser executable for rod")
		return "", ErrNoBrowser
	}
	u, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		log.WithError(err).Error("Failed to launch rod browser")
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err = browser.Connect(); err != nil {
		log.WithError(err).Error("Failed to connect to rod browser")
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod browser instance")
			if err == nil {
				err = fmt.Errorf("error closing browser: %w", closeErr)
			}
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		log.WithError(err).Error("Failed to create rod page")
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Error closing rod page")
		}
	}()

	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			log.WithError(pageCtx.Err()).Warn("Page capture timed out")
			return "", fmt.Errorf("page capture timed out for %s: %w", url, pageCtx.Err())
		}
		log.WithError(err).Error("Failed to wait for page load")
		return "", fmt.Errorf("failed waiting for page load: %w", err)
	}

	// Lazy players often attach their config shortly after load.
	select {
	case <-time.After(s.settle):
	case <-pageCtx.Done():
	}

	html, err = page.HTML()
	if err != nil {
		log.WithError(err).Error("Failed to read page HTML")
		return "", fmt.Errorf("failed to read page html: %w", err)
	}

	log.WithField("bytes", len(html)).Info("Page captured")
	return html, nil
}
