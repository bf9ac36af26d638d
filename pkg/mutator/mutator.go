// Package mutator injects JSON-LD structured data and a visible freshness
// badge into built pages. Every injection is skipped when the page already
// carries what it would add, so running it again over its own output is a no-op.
package mutator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/amosWeiskopf/freshsmith/internal/config"
	"github.com/amosWeiskopf/freshsmith/internal/models"
	"github.com/amosWeiskopf/freshsmith/pkg/analyzer"
	"github.com/amosWeiskopf/freshsmith/pkg/extractor"
	"github.com/amosWeiskopf/freshsmith/pkg/utils"
)

var (
	headCloseRe    = regexp.MustCompile(`(?i)</head\s*>`)
	headingCloseRe = regexp.MustCompile(`(?i)</h1\s*>`)

	// badgeRe matches the badge class on an element, not in a stylesheet
	badgeRe = regexp.MustCompile(`(?i)\bclass\s*=\s*["'][^"']*\b` + extractor.BadgeClass + `\b`)
)

const (
	// TimestampLayout is the UTC millisecond timestamp used in structured data
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
	// DisplayLayout is the human-readable badge date
	DisplayLayout = "January 2, 2006"
)

// articleMarkers detect an existing Article block in compact or spaced JSON
var articleMarkers = []string{`"@type":"Article"`, `"@type": "Article"`}

// Changes records which injections were applied to a page
type Changes struct {
	StructuredData bool
	Badge          bool
}

// Changed reports whether any injection happened
func (c Changes) Changed() bool {
	return c.StructuredData || c.Badge
}

// Mutator applies the configured injections
type Mutator struct {
	cfg config.FreshnessConfig
}

// New creates a Mutator for one run's configuration
func New(cfg config.FreshnessConfig) *Mutator {
	return &Mutator{cfg: cfg}
}

// Mutate returns the page with structured data and badge injected where
// enabled and not already present. A page without a published date, or
// without the anchor an injection needs, is left alone for that injection.
func (m *Mutator) Mutate(markup, urlPath string, meta models.PageMetadata, dates models.ExtractedDates, freshness models.Freshness) (string, Changes) {
	var changes Changes
	if dates.Published == nil {
		return markup, changes
	}

	if m.cfg.InjectStructuredData && !HasStructuredData(markup) {
		if out, ok := m.injectStructuredData(markup, urlPath, meta, dates); ok {
			markup = out
			changes.StructuredData = true
		}
	}

	if m.cfg.InjectBadge && !HasBadge(markup) {
		if out, ok := m.injectBadge(markup, dates, freshness); ok {
			markup = out
			changes.Badge = true
		}
	}

	return markup, changes
}

// HasStructuredData reports whether the markup already carries an Article block
func HasStructuredData(markup string) bool {
	for _, marker := range articleMarkers {
		if strings.Contains(markup, marker) {
			return true
		}
	}
	return false
}

// HasBadge reports whether the markup already carries a freshness badge
func HasBadge(markup string) bool {
	return badgeRe.MatchString(markup)
}

type organization struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type webPage struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

type article struct {
	Context          string       `json:"@context"`
	Type             string       `json:"@type"`
	Headline         string       `json:"headline"`
	Description      string       `json:"description"`
	DatePublished    string       `json:"datePublished"`
	DateModified     string       `json:"dateModified"`
	Author           organization `json:"author"`
	Publisher        organization `json:"publisher"`
	MainEntityOfPage webPage      `json:"mainEntityOfPage"`
	Image            string       `json:"image,omitempty"`
}

// StructuredData builds the JSON-LD payload for a page
func (m *Mutator) StructuredData(urlPath string, meta models.PageMetadata, dates models.ExtractedDates) ([]byte, error) {
	effective, ok := analyzer.EffectiveDate(dates)
	if !ok {
		return nil, fmt.Errorf("no published date for %s", urlPath)
	}
	org := organization{Type: "Organization", Name: m.cfg.SiteName}
	return json.Marshal(article{
		Context:          "https://schema.org",
		Type:             "Article",
		Headline:         meta.Title,
		Description:      meta.Description,
		DatePublished:    FormatTimestamp(*dates.Published),
		DateModified:     FormatTimestamp(effective),
		Author:           org,
		Publisher:        org,
		MainEntityOfPage: webPage{Type: "WebPage", ID: utils.JoinURL(m.cfg.SiteURL, urlPath)},
		Image:            meta.HeroImageURL,
	})
}

func (m *Mutator) injectStructuredData(markup, urlPath string, meta models.PageMetadata, dates models.ExtractedDates) (string, bool) {
	loc := headCloseRe.FindStringIndex(markup)
	if loc == nil {
		return markup, false
	}
	idx := loc[0]
	payload, err := m.StructuredData(urlPath, meta, dates)
	if err != nil {
		return markup, false
	}
	block := `<script type="application/ld+json">` + string(payload) + "</script>\n"
	return markup[:idx] + block + markup[idx:], true
}

// Badge renders the badge for a page. Fresh pages show the effective date as
// "last reviewed"; stale pages show the original publication date instead.
func Badge(dates models.ExtractedDates, freshness models.Freshness) string {
	status, label, shown := "stale", "Originally published:", *dates.Published
	if freshness.IsFresh {
		effective, _ := analyzer.EffectiveDate(dates)
		status, label, shown = "fresh", "Last reviewed:", effective
	}
	return fmt.Sprintf(
		`<div class="%s freshness-%s"><span class="freshness-label">%s</span> <span class="freshness-date">%s</span></div>`,
		extractor.BadgeClass, status, label, shown.UTC().Format(DisplayLayout),
	)
}

func (m *Mutator) injectBadge(markup string, dates models.ExtractedDates, freshness models.Freshness) (string, bool) {
	badge := Badge(dates, freshness)

	switch m.cfg.BadgePosition {
	case config.BeforeContent:
		if m.cfg.BadgeAnchor == "" {
			return markup, false
		}
		idx := strings.Index(markup, m.cfg.BadgeAnchor)
		if idx < 0 {
			return markup, false
		}
		return markup[:idx] + badge + markup[idx:], true
	default:
		loc := headingCloseRe.FindStringIndex(markup)
		if loc == nil {
			return markup, false
		}
		idx := loc[1]
		return markup[:idx] + badge + markup[idx:], true
	}
}

// FormatTimestamp renders t in UTC with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
