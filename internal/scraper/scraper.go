// Package scraper loads a page in a browser session and inventories the
// form controls it renders.
package scraper

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/hatter/internal/browser"
	"github.com/v0xg/hatter/internal/observability"
	"github.com/v0xg/hatter/internal/stability"
)

// DefaultSettle is how long a page is given to render dynamic content
// after the stability gate. It is the only settle a scrape waits.
const DefaultSettle = 3 * time.Second

// Page is the part of a browser session a scrape needs.
type Page interface {
	stability.Detector
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Opener acquires a fresh page for one scrape.
type Opener func(ctx context.Context) (Page, error)

// BrowserOpener opens real browser sessions through l.
func BrowserOpener(l *browser.Launcher) Opener {
	return func(ctx context.Context) (Page, error) {
		s, err := l.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

var _ Page = (*browser.Session)(nil)

// Scraper runs scrapes. It holds no per-scrape state and is safe for
// concurrent use.
type Scraper struct {
	Gate   *stability.Gate
	Settle time.Duration

	open    Opener
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New returns a Scraper opening pages with open. metrics may be nil.
func New(open Opener, logger *zap.Logger, metrics *observability.Metrics) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scraper")
	// Settle replaces the gate's own settle so a page waits once.
	gate := stability.NewGate(logger)
	gate.Settle = 0
	return &Scraper{
		Gate:    gate,
		Settle:  DefaultSettle,
		open:    open,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Scrape navigates to url and returns the controls of the rendered page.
// A page without controls is a valid, empty result. Failures to load the
// page are returned as *ScrapeError.
func (s *Scraper) Scrape(ctx context.Context, url string) (res *Result, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrNoURL
	}

	log := s.logger.With(zap.String("url", url))
	start := s.now()
	defer func() {
		s.metrics.ObserveScrape(err == nil, s.now().Sub(start))
	}()

	page, err := s.open(ctx)
	if err != nil {
		return nil, &ScrapeError{URL: url, Op: "open browser", Err: err}
	}
	s.metrics.SessionOpened()
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("Failed to close session", zap.Error(cerr))
		}
		s.metrics.SessionClosed()
	}()

	log.Info("Scraping form")
	if err := page.Navigate(ctx, url); err != nil {
		return nil, &ScrapeError{URL: url, Op: "navigate", Err: err}
	}

	out, err := s.Gate.Wait(ctx, page)
	s.metrics.ObserveChallengeRounds(out.Rounds)
	if err != nil {
		return nil, &ScrapeError{URL: url, Op: "stability gate", Err: err}
	}

	if err := settle(ctx, s.Settle); err != nil {
		return nil, &ScrapeError{URL: url, Op: "settle", Err: err}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, &ScrapeError{URL: url, Op: "read document", Err: err}
	}

	res, err = Extract(strings.NewReader(html))
	if err != nil {
		return nil, &ScrapeError{URL: url, Op: "parse document", Err: err}
	}
	res.URL = url

	log.Info("Scrape finished",
		zap.Int("fields", len(res.Fields)),
		zap.Duration("duration", s.now().Sub(start)))
	return res, nil
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
