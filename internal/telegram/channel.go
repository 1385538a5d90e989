package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Post is one assembled channel post, ready for the feed renderer.
type Post struct {
	ID          string
	URL         string
	Published   string
	Title       string
	Description string
	Images      []string
}

// Channel is the assembled scrape result: channel metadata plus posts in
// document order (newest first on the source page).
type Channel struct {
	Title       string
	Description string
	Posts       []Post
}

// Fetcher retrieves the raw channel page markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Scraper fetches a channel page and assembles posts from the extracted
// records.
type Scraper struct {
	fetcher Fetcher
	parser  *Parser
	limit   int
	logger  *zap.Logger
}

// NewScraper builds a Scraper. limit caps the number of posts per channel;
// limit <= 0 means no cap.
func NewScraper(fetcher Fetcher, limit int, logger *zap.Logger) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		parser:  NewParser("https://t.me/"),
		limit:   limit,
		logger:  logger,
	}
}

var postURLPattern = regexp.MustCompile(`^https?://t\.me/([^/?#\s]+)/(\d+)$`)

const titleMaxRunes = 120

// resolveChannelURL maps a channel reference to the page to fetch. A bare
// channel name becomes the public preview page; a direct post URL becomes
// its embed form, which carries the message markup for a single post.
func resolveChannelURL(channel string) (url string, isPost bool) {
	if postURLPattern.MatchString(channel) {
		return channel + "?embed=1&mode=tme", true
	}
	if strings.HasPrefix(channel, "http://") || strings.HasPrefix(channel, "https://") {
		return channel, false
	}
	return "https://t.me/s/" + channel, false
}

// Scrape fetches and assembles one channel. Posts come back newest first,
// matching document order; feed renderers reverse for chronological
// reading.
func (s *Scraper) Scrape(ctx context.Context, channel string) (Channel, error) {
	url, isPost := resolveChannelURL(channel)
	raw, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return Channel{}, fmt.Errorf("fetch channel %s: %w", url, err)
	}

	page := s.parser.Parse(raw)
	out := Channel{
		Title:       page.Title,
		Description: page.Description,
	}
	if out.Title == "" {
		out.Title = "Telegram: " + channel
	}

	for _, rec := range page.Records {
		post := assemblePost(rec)
		if isPost && len(post.Images) == 0 && page.Image != "" {
			// Single-post embed pages expose the photo only via og:image.
			post.Images = []string{page.Image}
		}
		out.Posts = append(out.Posts, post)
		if s.limit > 0 && len(out.Posts) >= s.limit {
			break
		}
	}

	s.logger.Info("channel scraped",
		zap.String("channel", channel),
		zap.Int("posts", len(out.Posts)),
	)
	return out, nil
}

func assemblePost(rec Record) Post {
	text := normalizeText(strings.Join(rec.TextParts, ""))

	var images, extras []string
	for _, m := range rec.Media {
		if m.Kind == KindImage {
			images = append(images, m.URL)
		}
		extras = append(extras, m.URL)
	}
	extras = dedupe(append(append([]string{}, rec.Links...), extras...))

	desc := text
	if len(extras) > 0 {
		if desc != "" {
			desc += "\n\n"
		}
		desc += strings.Join(extras, "\n")
	}

	return Post{
		ID:          rec.ID,
		URL:         "https://t.me/" + rec.ID,
		Published:   rec.Published,
		Title:       postTitle(text, rec.ID),
		Description: strings.TrimSpace(desc),
		Images:      images,
	}
}

// postTitle derives a short title from the post text, truncated on a rune
// boundary, with a placeholder for text-free posts.
func postTitle(text, id string) string {
	title := strings.TrimSpace(text)
	if title == "" {
		return "Post " + id
	}
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = strings.TrimRight(string(runes[:titleMaxRunes-3]), " ") + "..."
	}
	return title
}

// normalizeText collapses runs of spaces within each line and drops empty
// lines, keeping one newline between the survivors.
func normalizeText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
