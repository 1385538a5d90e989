// Package rss renders RSS 2.0 documents for the movie listing and the
// mirrored channel feeds.
package rss

import (
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/cinefeed/crawler/internal/listing"
	"github.com/cinefeed/crawler/internal/state"
	"github.com/cinefeed/crawler/internal/telegram"
)

// Images modes accepted by the channel feed builder.
const (
	ImagesAll   = "all"
	ImagesFirst = "first"
	ImagesNone  = "none"
)

// Feed is the root rss element.
type Feed struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ContentNS string   `xml:"xmlns:content,attr"`
	Channel   Channel  `xml:"channel"`
}

// Channel holds feed-level headers and the item list.
type Channel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	LastBuildDate string `xml:"lastBuildDate"`
	Items         []Item `xml:"item"`
}

// Item is a single feed entry.
type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        GUID   `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description *CDATA `xml:"description,omitempty"`
	Content     *CDATA `xml:"content:encoded,omitempty"`
}

// GUID carries the item identifier with its permalink flag.
type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

// CDATA wraps text that must survive markup-unfriendly characters.
type CDATA struct {
	Text string `xml:",cdata"`
}

// Header names the feed shown to readers.
type Header struct {
	Title       string
	Link        string
	Description string
}

// BuildMovieFeed renders the current repertoire plus recent lifecycle events.
// Events arrive oldest-first from the state log; the newest eventsLimit of
// them are emitted, newest first, after the movie items. eventsLimit <= 0
// suppresses event items entirely.
func BuildMovieFeed(hdr Header, movies []listing.Movie, events []state.Event, eventsLimit int, now time.Time) Feed {
	items := make([]Item, 0, len(movies)+eventsLimit)
	for _, m := range movies {
		items = append(items, Item{
			Title:       m.Title,
			Link:        m.URL,
			GUID:        GUID{Value: m.URL, IsPermaLink: "true"},
			PubDate:     now.Format(time.RFC1123Z),
			Description: &CDATA{Text: movieDescription(m)},
		})
	}

	if eventsLimit <= 0 {
		events = nil
	} else if len(events) > eventsLimit {
		events = events[len(events)-eventsLimit:]
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		prefix := "Added"
		if ev.Type == state.EventRemove {
			prefix = "Removed"
		}
		pub := now
		if ts, err := time.Parse(time.RFC3339, ev.TS); err == nil {
			pub = ts
		}
		items = append(items, Item{
			Title:       fmt.Sprintf("%s: %s", prefix, ev.Title),
			Link:        ev.URL,
			GUID:        GUID{Value: ev.URL + "#" + ev.Type + "-" + ev.TS, IsPermaLink: "false"},
			PubDate:     pub.Format(time.RFC1123Z),
			Description: &CDATA{Text: fmt.Sprintf("%s: %s (%s)", prefix, ev.Title, ev.Date)},
		})
	}

	return newFeed(hdr, items, now)
}

// BuildChannelFeed renders channel posts as feed items. Posts arrive
// newest-first from the scraper and are reversed so readers see them in
// publication order. imagesMode controls how many post images land in the
// content markup: all, first or none.
func BuildChannelFeed(hdr Header, posts []telegram.Post, imagesMode string, now time.Time) Feed {
	items := make([]Item, 0, len(posts))
	for i := len(posts) - 1; i >= 0; i-- {
		p := posts[i]
		pub := now
		if ts, err := time.Parse(time.RFC3339, p.Published); err == nil {
			pub = ts
		}
		items = append(items, Item{
			Title:       p.Title,
			Link:        p.URL,
			GUID:        GUID{Value: p.URL, IsPermaLink: "true"},
			PubDate:     pub.Format(time.RFC1123Z),
			Description: &CDATA{Text: p.Description},
			Content:     &CDATA{Text: postContent(p, imagesMode)},
		})
	}
	return newFeed(hdr, items, now)
}

func newFeed(hdr Header, items []Item, now time.Time) Feed {
	return Feed{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		Channel: Channel{
			Title:         hdr.Title,
			Link:          hdr.Link,
			Description:   hdr.Description,
			LastBuildDate: now.Format(time.RFC1123Z),
			Items:         items,
		},
	}
}

func movieDescription(m listing.Movie) string {
	var b strings.Builder
	b.WriteString(m.Description)
	if len(m.Sessions) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Schedule:")
		for _, s := range m.Sessions {
			b.WriteString("\n")
			b.WriteString(sessionLine(s))
		}
	}
	return b.String()
}

func sessionLine(s listing.Session) string {
	parts := make([]string, 0, 4)
	if s.Time != "" {
		parts = append(parts, s.Time)
	}
	if s.Hall != "" {
		parts = append(parts, s.Hall)
	}
	if s.Info != "" {
		parts = append(parts, s.Info)
	}
	if s.CinemaName != "" {
		parts = append(parts, s.CinemaName)
	}
	return strings.Join(parts, " · ")
}

func postContent(p telegram.Post, imagesMode string) string {
	var b strings.Builder
	if p.Description != "" {
		b.WriteString(strings.ReplaceAll(html.EscapeString(p.Description), "\n", "<br/>"))
	}

	images := p.Images
	switch imagesMode {
	case ImagesNone:
		images = nil
	case ImagesFirst:
		if len(images) > 1 {
			images = images[:1]
		}
	}
	for _, src := range images {
		if b.Len() > 0 {
			b.WriteString("<br/>")
		}
		b.WriteString(`<img src="` + html.EscapeString(src) + `"/>`)
	}
	return b.String()
}
