package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/freshsmith/internal/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestClassifyBoundary(t *testing.T) {
	exactly := time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC)

	got := Classify(exactly, now, 6)
	assert.True(t, got.IsFresh, "exactly six calendar months old is fresh")
	assert.Equal(t, 182, got.AgeInDays)

	got = Classify(exactly.AddDate(0, 0, -1), now, 6)
	assert.False(t, got.IsFresh, "one day older is stale")
	assert.Equal(t, 183, got.AgeInDays)

	got = Classify(exactly.Add(-time.Nanosecond), now, 6)
	assert.False(t, got.IsFresh)
}

func TestClassifyAgeTruncates(t *testing.T) {
	tests := []struct {
		name      string
		effective time.Time
		wantAge   int
	}{
		{"same instant", now, 0},
		{"23 hours", now.Add(-23 * time.Hour), 0},
		{"25 hours", now.Add(-25 * time.Hour), 1},
		{"47 hours 59 minutes", now.Add(-47*time.Hour - 59*time.Minute), 1},
		{"future by one hour", now.Add(time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAge, Classify(tt.effective, now, 6).AgeInDays)
		})
	}
}

func TestThresholdMonthArithmetic(t *testing.T) {
	// Aug 31 minus six months lands on "Feb 31", which normalises to Mar 3 (2025 is not a leap year)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Threshold(end, 6))

	assert.Equal(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), Threshold(now, 12))
}

func TestEffectiveDate(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	got, ok := EffectiveDate(models.ExtractedDates{Published: &published, Updated: &updated})
	require.True(t, ok)
	assert.Equal(t, updated, got)

	got, ok = EffectiveDate(models.ExtractedDates{Published: &published})
	require.True(t, ok)
	assert.Equal(t, published, got)

	_, ok = EffectiveDate(models.ExtractedDates{})
	assert.False(t, ok)
}

func TestAnalyze(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	a := New(6)
	result := a.Analyze("/blog/squats", "Squats", models.ExtractedDates{Published: &published, Updated: &updated}, now)

	assert.Equal(t, "/blog/squats", result.URLPath)
	assert.Equal(t, "Squats", result.Title)
	assert.Equal(t, published, result.PublishedDate)
	require.NotNil(t, result.UpdatedDate)
	assert.Equal(t, updated, *result.UpdatedDate)
	assert.Equal(t, updated, result.EffectiveDate)
	assert.True(t, result.IsFresh)
	assert.Equal(t, 45, result.AgeInDays)

	stale := a.Analyze("/blog/old", "Old", models.ExtractedDates{Published: &published}, now)
	assert.False(t, stale.IsFresh)
	assert.Nil(t, stale.UpdatedDate)
	assert.Equal(t, published, stale.EffectiveDate)
}
