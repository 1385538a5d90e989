// Package telegram extracts structured posts from a public channel's
// rendered message feed without building a full document tree.
package telegram

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Class tokens that drive the extraction state machine. Only class-token
// and tag-name matching is used, so extra wrapper elements and unknown
// attributes in the source markup do not disturb extraction.
const (
	classMessage     = "tgme_widget_message"
	classMessageText = "js-message_text"
	classPhotoWrap   = "tgme_widget_message_photo_wrap"
	classPhoto       = "tgme_widget_message_photo"
	classVideoPlayer = "tgme_widget_message_video_player"
	classLinkPreview = "tgme_widget_message_link_preview"
)

// Media kinds attached to extracted records.
const (
	KindImage = "image"
	KindVideo = "video"
	KindMedia = "media"
)

// Media is one media reference collected inside a record.
type Media struct {
	URL  string
	Kind string
}

// Record is one extracted message in document order. Text is accumulated
// as parts so the caller controls joining and normalization.
type Record struct {
	ID        string
	Published string
	TextParts []string
	Links     []string
	Media     []Media
}

// Page is the full extraction result: document-level metadata captured
// from meta tags plus the records in document order.
type Page struct {
	Title       string
	Description string
	Image       string
	Records     []Record
}

// tagAttrs holds the only attributes the engine consults. Unrecognized
// attributes are ignored.
type tagAttrs struct {
	class    string
	href     string
	style    string
	datetime string
	dataPost string
	property string
	content  string
}

// Parser walks a raw markup byte stream and emits records. Base resolves
// site-relative URLs during normalization.
type Parser struct {
	base string
}

// NewParser creates a Parser resolving relative URLs against base.
func NewParser(base string) *Parser {
	if base == "" {
		base = "https://t.me/"
	}
	return &Parser{base: strings.TrimSuffix(base, "/")}
}

// Parse scans the markup in a single pass. Malformed or unbalanced input
// degrades record quality but never fails: depth counters clamp at zero
// and incomplete records are dropped silently.
func (p *Parser) Parse(data []byte) Page {
	var (
		page      Page
		current   *Record
		inMessage bool
		msgDepth  int
		inText    bool
		textDepth int
	)
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// EOF or tokenizer failure: emit what was collected.
			return page
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			attrs := collectAttrs(tok)
			switch tok.Data {
			case "meta":
				p.handleMeta(&page, attrs)
			case "div":
				// Only a real start tag opens a message container; a
				// self-closed div has no body and no matching end tag.
				if !inMessage && tok.Type == html.StartTagToken && hasClass(attrs.class, classMessage) {
					inMessage = true
					msgDepth = 1
					current = &Record{ID: attrs.dataPost}
					continue
				}
				if inMessage && tok.Type == html.StartTagToken {
					msgDepth++
					switch {
					case !inText && hasClass(attrs.class, classMessageText):
						inText = true
						textDepth = 1
					case inText:
						textDepth++
					}
				}
				if inMessage && hasClass(attrs.class, classPhoto) {
					if img := backgroundImageURL(attrs.style); img != "" {
						current.Media = append(current.Media, Media{URL: p.normalizeURL(img), Kind: KindImage})
					}
				}
			case "br":
				if inText && current != nil {
					current.TextParts = append(current.TextParts, "\n")
				}
			case "time":
				if inMessage && attrs.datetime != "" && current != nil {
					current.Published = attrs.datetime
				}
			case "a":
				if inMessage && current != nil {
					p.handleAnchor(current, attrs, inText)
				}
			}
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data != "div" {
				continue
			}
			if inText {
				textDepth--
				if textDepth <= 0 {
					inText = false
					textDepth = 0
				}
			}
			if inMessage {
				msgDepth--
				if msgDepth <= 0 {
					inMessage = false
					msgDepth = 0
					if current != nil {
						p.finalize(&page, current)
					}
					current = nil
				}
			}
		case html.TextToken:
			if inText && current != nil {
				current.TextParts = append(current.TextParts, string(z.Text()))
			}
		}
	}
}

func (p *Parser) handleMeta(page *Page, attrs tagAttrs) {
	if attrs.content == "" {
		return
	}
	switch attrs.property {
	case "og:title":
		page.Title = attrs.content
	case "og:description":
		page.Description = attrs.content
	case "og:image":
		page.Image = attrs.content
	}
}

// handleAnchor classifies an anchor by its class tokens: photo and video
// wrappers and link previews contribute media entries, anchors inside the
// text region contribute links, everything else is ignored.
func (p *Parser) handleAnchor(current *Record, attrs tagAttrs, inText bool) {
	switch {
	case hasClass(attrs.class, classPhotoWrap):
		if img := backgroundImageURL(attrs.style); img != "" {
			current.Media = append(current.Media, Media{URL: p.normalizeURL(img), Kind: KindImage})
		}
	case hasClass(attrs.class, classVideoPlayer):
		if attrs.href != "" {
			current.Media = append(current.Media, Media{URL: p.normalizeURL(attrs.href), Kind: KindVideo})
		}
	case hasClass(attrs.class, classLinkPreview):
		if attrs.href != "" {
			current.Media = append(current.Media, Media{URL: p.normalizeURL(attrs.href), Kind: KindMedia})
		}
	case inText:
		if attrs.href != "" {
			current.Links = append(current.Links, p.normalizeURL(attrs.href))
		}
	}
}

// finalize emits a completed record. Records missing the post identifier
// or timestamp are dropped; links and media are deduplicated preserving
// first-seen order.
func (p *Parser) finalize(page *Page, rec *Record) {
	if rec.ID == "" || rec.Published == "" {
		return
	}
	rec.Links = dedupe(rec.Links)
	rec.Media = dedupeMedia(rec.Media)
	page.Records = append(page.Records, *rec)
}

// normalizeURL resolves protocol-relative and site-relative URLs.
func (p *Parser) normalizeURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return p.base + raw
	default:
		return raw
	}
}

func collectAttrs(tok html.Token) tagAttrs {
	var attrs tagAttrs
	for _, a := range tok.Attr {
		switch a.Key {
		case "class":
			attrs.class = a.Val
		case "href":
			attrs.href = a.Val
		case "style":
			attrs.style = a.Val
		case "datetime":
			attrs.datetime = a.Val
		case "data-post":
			attrs.dataPost = a.Val
		case "property":
			attrs.property = a.Val
		case "content":
			attrs.content = a.Val
		}
	}
	return attrs
}

func hasClass(class, want string) bool {
	for _, token := range strings.Fields(class) {
		if token == want {
			return true
		}
	}
	return false
}

// backgroundImageURL extracts the url(...) target from an inline style,
// stripping quotes and whitespace.
func backgroundImageURL(style string) string {
	idx := strings.Index(style, "url(")
	if idx < 0 {
		return ""
	}
	rest := style[idx+len("url("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return strings.Trim(strings.TrimSpace(rest[:end]), `'"`)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func dedupeMedia(items []Media) []Media {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}
