package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) Page {
	t.Helper()
	return NewParser("https://t.me/").Parse([]byte(markup))
}

func TestParseMediaGroupImagesOrder(t *testing.T) {
	t.Parallel()

	page := parse(t, `
	<div class="tgme_widget_message text_not_supported_wrap js-widget_message" data-post="chan/1">
	  <div class="tgme_widget_message_bubble">
	    <a class="tgme_widget_message_photo_wrap" style="background-image:url('https://img/1.jpg')">
	      <div class="tgme_widget_message_photo" style="background-image:url('https://img/1.jpg')"></div>
	    </a>
	    <a class="tgme_widget_message_photo_wrap">
	      <div class="tgme_widget_message_photo" style="background-image:url('https://img/2.jpg')"></div>
	    </a>
	    <div class="tgme_widget_message_text js-message_text" dir="auto">Hello</div>
	    <time datetime="2026-01-05T10:00:00+00:00"></time>
	  </div>
	</div>`)

	require.Len(t, page.Records, 1)
	rec := page.Records[0]
	require.Equal(t, "chan/1", rec.ID)
	require.Equal(t, "2026-01-05T10:00:00+00:00", rec.Published)

	var images []string
	for _, m := range rec.Media {
		if m.Kind == KindImage {
			images = append(images, m.URL)
		}
	}
	require.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, images)
}

func TestParseTextRegionAndLinks(t *testing.T) {
	t.Parallel()

	page := parse(t, `
	<div class="tgme_widget_message" data-post="chan/7">
	  <a href="https://outside.example/ignored">outside text region</a>
	  <div class="tgme_widget_message_text js-message_text">
	    First line<br/>Second <a href="https://example.com/article">line</a>
	    <div><a href="/chan/5">nested relative</a></div>
	  </div>
	  <time datetime="2026-01-05T10:00:00+00:00"></time>
	  <a class="tgme_widget_message_link_preview" href="//preview.example/page">preview</a>
	</div>`)

	require.Len(t, page.Records, 1)
	rec := page.Records[0]
	require.Equal(t, []string{"https://example.com/article", "https://t.me/chan/5"}, rec.Links)
	require.Equal(t, []Media{{URL: "https://preview.example/page", Kind: KindMedia}}, rec.Media)

	text := ""
	for _, part := range rec.TextParts {
		text += part
	}
	require.Contains(t, text, "First line\nSecond line")
}

func TestParseVideoPlayerAnchor(t *testing.T) {
	t.Parallel()

	page := parse(t, `
	<div class="tgme_widget_message" data-post="chan/9">
	  <a class="tgme_widget_message_video_player" href="https://t.me/chan/9?single"></a>
	  <time datetime="2026-01-05T10:00:00+00:00"></time>
	</div>`)

	require.Len(t, page.Records, 1)
	require.Equal(t, []Media{{URL: "https://t.me/chan/9?single", Kind: KindVideo}}, page.Records[0].Media)
}

func TestParseDropsIncompleteRecords(t *testing.T) {
	t.Parallel()

	// Missing timestamp, then missing post id, then a complete one.
	page := parse(t, `
	<div class="tgme_widget_message" data-post="chan/1">
	  <div class="js-message_text">no time</div>
	</div>
	<div class="tgme_widget_message">
	  <time datetime="2026-01-05T10:00:00+00:00"></time>
	</div>
	<div class="tgme_widget_message" data-post="chan/3">
	  <div class="js-message_text">ok</div>
	  <time datetime="2026-01-05T11:00:00+00:00"></time>
	</div>`)

	require.Len(t, page.Records, 1)
	require.Equal(t, "chan/3", page.Records[0].ID)
}

func TestParseUnbalancedMarkupClampsDepth(t *testing.T) {
	t.Parallel()

	// Stray closing tags before and inside the message must not wedge the
	// state machine or lose the following record.
	page := parse(t, `
	</div></div>
	<div class="tgme_widget_message" data-post="chan/1">
	  <div class="js-message_text">text</div></div>
	</div></div>
	<div class="tgme_widget_message" data-post="chan/2">
	  <div class="js-message_text">second</div>
	  <time datetime="2026-01-05T10:00:00+00:00"></time>
	</div>`)

	require.Len(t, page.Records, 1)
	require.Equal(t, "chan/2", page.Records[0].ID)
}

func TestParseSelfClosedMessageDivDoesNotOpenRecord(t *testing.T) {
	t.Parallel()

	page := parse(t, `
	<div class="tgme_widget_message" data-post="chan/1"/>
	<div class="tgme_widget_message" data-post="chan/2">
	  <div class="tgme_widget_message_text js-message_text">Hello</div>
	  <time datetime="2026-01-05T10:00:00+00:00"></time>
	</div>`)

	require.Len(t, page.Records, 1)
	rec := page.Records[0]
	require.Equal(t, "chan/2", rec.ID)
	require.Contains(t, rec.TextParts, "Hello")
}

func TestParseDedupePreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	page := parse(t, `
	<div class="tgme_widget_message" data-post="chan/4">
	  <div class="js-message_text">
	    <a href="https://a.example/">a</a>
	    <a href="https://b.example/">b</a>
	    <a href="https://a.example/">a again</a>
	  </div>
	  <time datetime="2026-01-05T10:00:00+00:00"></time>
	</div>`)

	require.Len(t, page.Records, 1)
	require.Equal(t, []string{"https://a.example/", "https://b.example/"}, page.Records[0].Links)
}

func TestParseDocumentMetadata(t *testing.T) {
	t.Parallel()

	page := parse(t, `
	<meta property="og:title" content="Channel Title" />
	<meta property="og:description" content="Channel about things" />
	<meta property="og:image" content="https://cdn4.telesco.pe/file/abc.jpg" />`)

	require.Equal(t, "Channel Title", page.Title)
	require.Equal(t, "Channel about things", page.Description)
	require.Equal(t, "https://cdn4.telesco.pe/file/abc.jpg", page.Image)
	require.Empty(t, page.Records)
}

func TestBackgroundImageURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		style string
		want  string
	}{
		{`background-image:url('https://img/1.jpg')`, "https://img/1.jpg"},
		{`width:100px;background-image: url( "https://img/2.jpg" )`, "https://img/2.jpg"},
		{`background-image:url(https://img/3.jpg)`, "https://img/3.jpg"},
		{`background-image:url('https://img/4.jpg'`, ""},
		{`color:red`, ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, backgroundImageURL(tc.style), "style %q", tc.style)
	}
}
