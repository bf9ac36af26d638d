package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name          string
		html          string
		wantPublished *time.Time
		wantUpdated   *time.Time
	}{
		{
			name:          "two time markers",
			html:          `<p><time datetime="2024-01-15">Jan 15</time> updated <time datetime="2024-03-01T10:00:00Z">Mar 1</time></p>`,
			wantPublished: ptr(date(2024, 1, 15)),
			wantUpdated:   ptr(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:          "single time marker",
			html:          `<time class="pub" datetime='2023-11-02'>Nov 2</time>`,
			wantPublished: ptr(date(2023, 11, 2)),
		},
		{
			name:          "invalid time marker is not counted",
			html:          `<time datetime="garbage">?</time><time datetime="2024-01-15">x</time><time datetime="2024-02-20">y</time>`,
			wantPublished: ptr(date(2024, 1, 15)),
			wantUpdated:   ptr(date(2024, 2, 20)),
		},
		{
			name:          "data-datetime is not the datetime attribute",
			html:          `<time data-datetime="x" datetime="2024-01-15">a</time><time data-datetime="2024-09-09">b</time>`,
			wantPublished: ptr(date(2024, 1, 15)),
		},
		{
			name:          "partial time marker falls through to visible date",
			html:          `<time datetime="3/4">Mar 4</time><p>Posted March 5, 2024</p>`,
			wantPublished: ptr(date(2024, 3, 5)),
		},
		{
			name:          "visible date text",
			html:          `<article><p>Posted on March 5, 2024 by Sam</p></article>`,
			wantPublished: ptr(date(2024, 3, 5)),
		},
		{
			name:          "visible date text without comma",
			html:          `<p>December 9 2022</p>`,
			wantPublished: ptr(date(2022, 12, 9)),
		},
		{
			name:          "visible date ignored when a marker exists",
			html:          `<p>March 5, 2024</p><time datetime="2023-06-01">June</time>`,
			wantPublished: ptr(date(2023, 6, 1)),
		},
		{
			name:          "impossible visible date skipped",
			html:          `<p>February 30, 2024</p>`,
			wantPublished: nil,
		},
		{
			name: "published meta overrides time markers",
			html: `<head><meta property="article:published_time" content="2022-05-05T00:00:00Z"></head>
				<time datetime="2024-01-15">a</time><time datetime="2024-03-01">b</time>`,
			wantPublished: ptr(date(2022, 5, 5)),
			wantUpdated:   ptr(date(2024, 3, 1)),
		},
		{
			name:          "modified meta fills updated",
			html:          `<meta property="article:modified_time" content="2024-04-04"><time datetime="2024-01-15">a</time>`,
			wantPublished: ptr(date(2024, 1, 15)),
			wantUpdated:   ptr(date(2024, 4, 4)),
		},
		{
			name:          "meta attributes in any order",
			html:          `<meta content="2021-07-07" property="article:published_time" />`,
			wantPublished: ptr(date(2021, 7, 7)),
		},
		{
			name:          "invalid meta ignored",
			html:          `<meta property="article:published_time" content="soon"><time datetime="2024-01-15">a</time>`,
			wantPublished: ptr(date(2024, 1, 15)),
		},
		{
			name: "no dates",
			html: `<html><body><h1>Nothing here</h1></body></html>`,
		},
		{
			name: "injected badge is not read back",
			html: `<h1>T</h1><div class="freshness-badge freshness-fresh"><span class="freshness-label">Last reviewed:</span> <span class="freshness-date">June 1, 2025</span></div>
				<p>Written January 10, 2024</p>`,
			wantPublished: ptr(date(2024, 1, 10)),
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractDates(tt.html)
			assertTime(t, tt.wantPublished, got.Published, "published")
			assertTime(t, tt.wantUpdated, got.Updated, "updated")
		})
	}
}

func TestExtractMetadata(t *testing.T) {
	e := New()

	html := `<html><head>
		<meta name="description" content="  A guide to &amp; about squats. ">
	</head><body>
		<img src="/logo.png" alt="logo">
		<h1 class="title">My <em>Great</em> &amp; Bold
			Article</h1>
		<img src="/hero.jpg?w=1200&amp;h=600" style="width:100%; object-fit: cover">
		<img src="/later.jpg" class="object-cover">
		<h1>Second heading</h1>
	</body></html>`

	meta := e.ExtractMetadata(html)
	assert.Equal(t, "My Great & Bold Article", meta.Title)
	assert.Equal(t, "A guide to & about squats.", meta.Description)
	assert.Equal(t, "/hero.jpg?w=1200&h=600", meta.HeroImageURL)
}

func TestExtractMetadataClassHint(t *testing.T) {
	meta := New().ExtractMetadata(`<img src="/a.jpg"><img class="rounded object-cover" src="/b.jpg">`)
	assert.Equal(t, "/b.jpg", meta.HeroImageURL)
	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.Description)
}

func TestExtractMetadataMissing(t *testing.T) {
	meta := New().ExtractMetadata(`<p>no heading <img src="/x.png"></p>`)
	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.Description)
	assert.Empty(t, meta.HeroImageURL)
}

func TestStripBadges(t *testing.T) {
	e := New()
	in := `<h1>A</h1><div class="freshness-badge freshness-stale"><span>x</span></div><p>body</p>`
	assert.Equal(t, `<h1>A</h1><p>body</p>`, e.StripBadges(in))
	assert.Equal(t, "<p>plain</p>", e.StripBadges("<p>plain</p>"))
}

func TestParseDate(t *testing.T) {
	valid := map[string]time.Time{
		"2024-01-15":                date(2024, 1, 15),
		" 2024-01-15T08:30:00Z ":    time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		"2024-01-15T08:30:00.000Z":  time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		"2024-01-15T08:30:00+02:00": time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC),
		"2024-01-15T08:30:00":       time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		"January 15, 2024":          date(2024, 1, 15),
	}
	for in, want := range valid {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	for _, in := range []string{"", "   ", "not-a-date", "2024-13-45", "3/4"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}

func assertTime(t *testing.T, want, got *time.Time, field string) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, field)
		return
	}
	require.NotNil(t, got, field)
	assert.True(t, want.Equal(*got), "%s: want %s, got %s", field, want, got)
}
