// Package render drives headless Chrome to produce the listing candidates
// and per-film detail used by the enrichment pipeline. The listing site is
// a single-page app, so plain HTTP fetches return an empty shell; only a
// rendered DOM carries the data.
package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Config controls the headless renderer.
type Config struct {
	BaseURL     string
	UserAgent   string
	NavTimeout  time.Duration
	WaitTimeout time.Duration
}

// Renderer owns one headless browser shared by all page loads; every load
// runs in its own tab context with its own timeout.
type Renderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	cfg             Config
	logger          *zap.Logger
}

// New launches the headless browser and warms it up.
func New(cfg Config, logger *zap.Logger) (*Renderer, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 60 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 30 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Renderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		cfg:             cfg,
		logger:          logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (r *Renderer) Close(_ context.Context) error {
	if r == nil {
		return nil
	}
	r.browserCancel()
	r.allocatorCancel()
	return nil
}

// newTab opens a fresh tab with the renderer's navigation timeout, wired
// to the caller's context for cancellation.
func (r *Renderer) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	stop := forwardCancel(ctx, cancelTask)
	return taskCtx, func() {
		stop()
		cancelTask()
		cancelTab()
	}
}

// prelude returns the tasks every page load starts with: protocol-level
// network events on and the user agent pinned for the tab.
func (r *Renderer) prelude() chromedp.Tasks {
	return chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(r.cfg.UserAgent),
	}
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeSpace collapses all whitespace runs to single spaces.
func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
