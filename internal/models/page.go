package models

import "time"

// RawPage is a built HTML file loaded for processing
type RawPage struct {
	Path    string    `json:"path"`
	URLPath string    `json:"url_path"`
	HTML    string    `json:"-"`
	ModTime time.Time `json:"mod_time"`
}

// ExtractedDates holds the dates found in a page's markup. Either may be nil.
type ExtractedDates struct {
	Published *time.Time `json:"published,omitempty"`
	Updated   *time.Time `json:"updated,omitempty"`
}

// HasPublished reports whether a publication date is known
func (d ExtractedDates) HasPublished() bool {
	return d.Published != nil
}

// PageMetadata holds auxiliary fields used to build structured data
type PageMetadata struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	HeroImageURL string `json:"hero_image_url,omitempty"`
}

// Freshness is the outcome of classifying an effective date against a threshold
type Freshness struct {
	IsFresh   bool `json:"is_fresh"`
	AgeInDays int  `json:"age_in_days"`
}

// PageResult is the per-page record collected into the report
type PageResult struct {
	URLPath       string     `json:"url_path"`
	Title         string     `json:"title"`
	PublishedDate time.Time  `json:"published_date"`
	UpdatedDate   *time.Time `json:"updated_date,omitempty"`
	EffectiveDate time.Time  `json:"effective_date"`
	IsFresh       bool       `json:"is_fresh"`
	AgeInDays     int        `json:"age_in_days"`
	Injected      bool       `json:"injected"`
	DateSource    string     `json:"date_source"`
}

// Report aggregates the results of one scan
type Report struct {
	GeneratedAt     time.Time    `json:"generated_at"`
	FreshnessMonths int          `json:"freshness_months"`
	Pages           []PageResult `json:"pages"`
	TotalPages      int          `json:"total_pages"`
	StaleCount      int          `json:"stale_count"`
	InjectedCount   int          `json:"injected_count"`
}

// Date sources recorded on PageResult.DateSource
const (
	DateSourceMarkup  = "markup"
	DateSourceModTime = "mtime"
)
