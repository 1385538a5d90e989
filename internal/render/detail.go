package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/cinefeed/crawler/internal/listing"
)

const descriptionSelector = `.b-movie-description__text, .b-movie-description`

// dismissOverlayJS removes the cookie-consent dialog; it sits on top of
// the page and blocks both clicks and text visibility checks.
const dismissOverlayJS = `(() => {
	const ids = ["CybotCookiebotDialog", "CybotCookiebotDialogBodyUnderlay"];
	for (const id of ids) {
		const el = document.getElementById(id);
		if (el) el.remove();
	}
	document.body.style.overflow = "auto";
})()`

// expandDescriptionJS clicks the collapsed-description toggle if present.
const expandDescriptionJS = `(() => {
	const btn = document.querySelector('.b-movie-description__btn');
	if (btn) btn.click();
})()`

// descriptionJS reads the description paragraphs, preferring the specific
// text nodes and falling back to the whole description block.
const descriptionJS = `(() => {
	const parts = Array.from(document.querySelectorAll('.b-movie-description__text'))
		.map(e => (e.innerText || '').trim())
		.filter(Boolean);
	if (parts.length) return parts.join('\n\n');
	const block = document.querySelector('.b-movie-description');
	return block ? (block.innerText || '') : '';
})()`

// sessionsJS collects the showtime rows for the currently selected date.
const sessionsJS = `(() => {
	const out = [];
	for (const el of document.querySelectorAll('[data-session-id], .b-session')) {
		const id = el.getAttribute('data-session-id') || '';
		const time = (el.querySelector('.b-session__time')?.innerText || '').trim();
		if (!id && !time) continue;
		const link = el.querySelector('a[href*="buy"], a[href*="ticket"]');
		out.push({
			time: time,
			hall: (el.querySelector('.b-session__hall')?.innerText || '').trim(),
			info: (el.querySelector('.b-session__info')?.innerText || '').trim(),
			session_id: id,
			cinema_name: (el.closest('[data-cinema-name]')?.getAttribute('data-cinema-name') || '').trim(),
			purchase_url: link ? link.href : '',
		});
	}
	return out;
})()`

// Description renders a film page and extracts its description text. The
// SPA sometimes fills the block late, so the read is retried a few times
// before giving up with an empty result.
func (r *Renderer) Description(ctx context.Context, filmURL string) (string, error) {
	taskCtx, cancel := r.newTab(ctx)
	defer cancel()

	err := chromedp.Run(taskCtx,
		r.prelude(),
		chromedp.Navigate(filmURL),
		chromedp.Evaluate(dismissOverlayJS, nil),
		chromedp.WaitReady(descriptionSelector, chromedp.ByQuery),
		chromedp.Evaluate(dismissOverlayJS, nil),
		chromedp.Evaluate(expandDescriptionJS, nil),
	)
	if err != nil {
		return "", fmt.Errorf("render film page %s: %w", filmURL, err)
	}

	var desc string
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			if err := chromedp.Run(taskCtx, chromedp.Sleep(time.Second)); err != nil {
				break
			}
		}
		if err := chromedp.Run(taskCtx, chromedp.Evaluate(descriptionJS, &desc)); err != nil {
			return "", fmt.Errorf("read description %s: %w", filmURL, err)
		}
		if desc != "" {
			break
		}
	}
	if desc == "" {
		r.logger.Warn("film description missing", zap.String("url", filmURL))
	}
	return normalizeSpace(desc), nil
}

// SessionsForDate renders a film page pinned to one date and extracts its
// showtimes.
func (r *Renderer) SessionsForDate(ctx context.Context, filmURL, date string) ([]listing.Session, error) {
	taskCtx, cancel := r.newTab(ctx)
	defer cancel()

	url := fmt.Sprintf("%s?date=%s", filmURL, date)
	var sessions []listing.Session
	err := chromedp.Run(taskCtx,
		r.prelude(),
		chromedp.Navigate(url),
		chromedp.Evaluate(dismissOverlayJS, nil),
		chromedp.Evaluate(sessionsJS, &sessions),
	)
	if err != nil {
		return nil, fmt.Errorf("render sessions %s: %w", url, err)
	}
	return sessions, nil
}
