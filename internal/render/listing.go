package render

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/cinefeed/crawler/internal/listing"
)

// filmAnchorSelector matches the film links the SPA injects once loaded.
const filmAnchorSelector = `a[href*="/film/"]`

// listingJS collects one {title, url} per distinct film link. Titles are
// probed across the markup variants the site has shipped over time.
const listingJS = `(() => {
	const anchors = Array.from(document.querySelectorAll('a[href*="/film/"]'));
	const seen = new Map();
	for (const a of anchors) {
		const href = a.getAttribute('href') || '';
		if (!href.includes('/film/')) continue;

		const candidates = [
			a.innerText,
			a.getAttribute('aria-label'),
			a.getAttribute('title'),
			a.querySelector('[data-title]')?.getAttribute('data-title'),
			a.querySelector('.movie-title,.movie__title,.film-title,.film__title')?.innerText,
			a.querySelector('img')?.getAttribute('alt'),
			a.querySelector('img')?.getAttribute('title'),
		];
		let title = '';
		for (const c of candidates) {
			if (!c) continue;
			const s = String(c).trim();
			if (s.length >= 2) { title = s; break; }
		}
		if (!title) continue;

		const url = href.startsWith('http') ? href : (location.origin + href);
		if (!seen.has(url)) seen.set(url, { title: title, url: url });
	}
	return Array.from(seen.values());
})()`

type rawCandidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Candidates renders the listing page for a location and date and returns
// the distinct film references found in the DOM.
func (r *Renderer) Candidates(ctx context.Context, location, date string) ([]listing.Candidate, error) {
	url := fmt.Sprintf("%s/cinemas?location=%s&date=%s", r.cfg.BaseURL, location, date)
	r.logger.Info("rendering listing page",
		zap.String("url", url),
		zap.String("location", location),
		zap.String("date", date),
	)

	taskCtx, cancel := r.newTab(ctx)
	defer cancel()

	var raw []rawCandidate
	err := chromedp.Run(taskCtx,
		r.prelude(),
		chromedp.Navigate(url),
		chromedp.WaitVisible(filmAnchorSelector, chromedp.ByQuery),
		chromedp.Evaluate(listingJS, &raw),
	)
	if err != nil {
		return nil, fmt.Errorf("render listing %s: %w", url, err)
	}

	candidates := make([]listing.Candidate, 0, len(raw))
	for _, c := range raw {
		candidates = append(candidates, listing.Candidate{
			Title: normalizeSpace(c.Title),
			URL:   c.URL,
		})
	}
	r.logger.Info("listing rendered", zap.Int("candidates", len(candidates)))
	return candidates, nil
}
