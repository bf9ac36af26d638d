package extractor

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/amosWeiskopf/freshsmith/internal/models"
	"github.com/amosWeiskopf/freshsmith/pkg/utils"
)

// Open Graph article properties carrying explicit publication metadata
const (
	PublishedTimeProperty = "article:published_time"
	ModifiedTimeProperty  = "article:modified_time"
)

// BadgeClass marks the visible freshness badge injected into pages
const BadgeClass = "freshness-badge"

// Extractor pulls dates and metadata out of raw page markup.
// It works on the markup text with patterns rather than a DOM, so broken
// pages still yield whatever can be recognised.
type Extractor struct {
	timeRe        *regexp.Regexp
	longDateRe    *regexp.Regexp
	metaRe        *regexp.Regexp
	attrRe        *regexp.Regexp
	headingRe     *regexp.Regexp
	imgRe         *regexp.Regexp
	coverStyleRe  *regexp.Regexp
	badgeRe       *regexp.Regexp
	classTokenSep *regexp.Regexp
}

// New creates a new Extractor instance
func New() *Extractor {
	return &Extractor{
		timeRe:        regexp.MustCompile(`(?i)<time\b[^>]*>`),
		longDateRe:    regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`),
		metaRe:        regexp.MustCompile(`(?i)<meta\b[^>]*>`),
		attrRe:        regexp.MustCompile(`([a-zA-Z_:][-a-zA-Z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+))`),
		headingRe:     regexp.MustCompile(`(?is)<h1\b[^>]*>(.*?)</h1\s*>`),
		imgRe:         regexp.MustCompile(`(?i)<img\b[^>]*>`),
		coverStyleRe:  regexp.MustCompile(`(?i)object-fit\s*:\s*cover`),
		badgeRe:       regexp.MustCompile(`(?is)<div\b[^>]*\bclass\s*=\s*["'][^"']*\b` + BadgeClass + `\b[^"']*["'][^>]*>.*?</div\s*>`),
		classTokenSep: regexp.MustCompile(`\s+`),
	}
}

// ExtractDates derives publication and update dates from markup.
//
// Signals are applied weakest first so stronger ones can override them:
//  1. <time datetime> markers in document order: first is published, second updated
//  2. the first long-form date in the text, only if published is still unknown
//  3. article:published_time meta, overriding published
//  4. article:modified_time meta, overriding updated
//
// Unparseable candidates are skipped.
func (e *Extractor) ExtractDates(markup string) models.ExtractedDates {
	var dates models.ExtractedDates

	// Our own badge is not article content
	markup = e.StripBadges(markup)

	var found []time.Time
	for _, tag := range e.timeRe.FindAllString(markup, -1) {
		value, present := e.attributes(tag)["datetime"]
		if !present {
			continue
		}
		if t, ok := ParseDate(value); ok {
			found = append(found, t)
		}
	}
	if len(found) > 0 {
		published := found[0]
		dates.Published = &published
	}
	if len(found) > 1 {
		updated := found[1]
		dates.Updated = &updated
	}

	if dates.Published == nil {
		if t, ok := e.visibleDate(markup); ok {
			dates.Published = &t
		}
	}

	if t, ok := e.metaDate(markup, PublishedTimeProperty); ok {
		dates.Published = &t
	}
	if t, ok := e.metaDate(markup, ModifiedTimeProperty); ok {
		dates.Updated = &t
	}

	return dates
}

// ExtractMetadata extracts the title, description and hero image.
// Missing fields are left empty.
func (e *Extractor) ExtractMetadata(markup string) models.PageMetadata {
	var meta models.PageMetadata

	if m := e.headingRe.FindStringSubmatch(markup); m != nil {
		meta.Title = textContent(m[1])
	}

	for _, tag := range e.metaRe.FindAllString(markup, -1) {
		attrs := e.attributes(tag)
		if strings.EqualFold(attrs["name"], "description") {
			meta.Description = strings.TrimSpace(attrs["content"])
			break
		}
	}

	meta.HeroImageURL = e.heroImage(markup)
	return meta
}

// StripBadges removes previously injected freshness badges from markup
func (e *Extractor) StripBadges(markup string) string {
	if !strings.Contains(markup, BadgeClass) {
		return markup
	}
	return e.badgeRe.ReplaceAllString(markup, "")
}

func (e *Extractor) visibleDate(markup string) (time.Time, bool) {
	m := e.longDateRe.FindStringSubmatch(markup)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("January 2, 2006", m[1]+" "+m[2]+", "+m[3], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (e *Extractor) metaDate(markup, property string) (time.Time, bool) {
	for _, tag := range e.metaRe.FindAllString(markup, -1) {
		attrs := e.attributes(tag)
		if !strings.EqualFold(attrs["property"], property) && !strings.EqualFold(attrs["name"], property) {
			continue
		}
		if t, ok := ParseDate(attrs["content"]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (e *Extractor) heroImage(markup string) string {
	for _, tag := range e.imgRe.FindAllString(markup, -1) {
		attrs := e.attributes(tag)
		if attrs["src"] == "" {
			continue
		}
		if e.coverStyleRe.MatchString(attrs["style"]) || e.hasClass(attrs["class"], "object-cover") {
			return attrs["src"]
		}
	}
	return ""
}

func (e *Extractor) hasClass(classAttr, class string) bool {
	for _, c := range e.classTokenSep.Split(strings.TrimSpace(classAttr), -1) {
		if c == class {
			return true
		}
	}
	return false
}

// attributes parses the attributes of a single start tag. Names are
// lower-cased, values entity-decoded, and the first occurrence wins.
func (e *Extractor) attributes(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range e.attrRe.FindAllStringSubmatch(tag, -1) {
		name := strings.ToLower(m[1])
		if _, seen := attrs[name]; seen {
			continue
		}
		attrs[name] = html.UnescapeString(m[2] + m[3] + m[4])
	}
	return attrs
}

// textContent returns the text of an HTML fragment with tags dropped
func textContent(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return utils.CleanText(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
