package analyzer

import (
	"math"
	"time"

	"github.com/amosWeiskopf/freshsmith/internal/models"
)

// Analyzer classifies pages as fresh or stale against a month threshold
type Analyzer struct {
	freshnessMonths int
}

// New creates an Analyzer for the given threshold in calendar months
func New(freshnessMonths int) *Analyzer {
	return &Analyzer{freshnessMonths: freshnessMonths}
}

// Threshold returns now shifted back by months calendar months.
// Overflowing days normalise forward the way time.AddDate does,
// so Aug 31 minus six months is Mar 2 or Mar 3.
func Threshold(now time.Time, months int) time.Time {
	return now.AddDate(0, -months, 0)
}

// Classify decides freshness for an effective date. The boundary is
// inclusive and the age is whole days rounded toward negative infinity.
func Classify(effective, now time.Time, months int) models.Freshness {
	return models.Freshness{
		IsFresh:   !effective.Before(Threshold(now, months)),
		AgeInDays: int(math.Floor(now.Sub(effective).Hours() / 24)),
	}
}

// EffectiveDate is the updated date when known, otherwise the published date
func EffectiveDate(dates models.ExtractedDates) (time.Time, bool) {
	if dates.Updated != nil {
		return *dates.Updated, true
	}
	if dates.Published != nil {
		return *dates.Published, true
	}
	return time.Time{}, false
}

// Classify applies the analyzer's threshold
func (a *Analyzer) Classify(effective, now time.Time) models.Freshness {
	return Classify(effective, now, a.freshnessMonths)
}

// Analyze builds the result record for a page. dates.Published must be set;
// the scanner guarantees this with its modification-time fallback.
func (a *Analyzer) Analyze(urlPath, title string, dates models.ExtractedDates, now time.Time) models.PageResult {
	effective, _ := EffectiveDate(dates)
	freshness := a.Classify(effective, now)

	result := models.PageResult{
		URLPath:       urlPath,
		Title:         title,
		EffectiveDate: effective,
		IsFresh:       freshness.IsFresh,
		AgeInDays:     freshness.AgeInDays,
	}
	if dates.Published != nil {
		result.PublishedDate = *dates.Published
	}
	if dates.Updated != nil {
		updated := *dates.Updated
		result.UpdatedDate = &updated
	}
	return result
}
