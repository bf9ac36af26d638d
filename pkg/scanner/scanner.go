package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/amosWeiskopf/freshsmith/internal/config"
	"github.com/amosWeiskopf/freshsmith/internal/models"
	"github.com/amosWeiskopf/freshsmith/pkg/analyzer"
	"github.com/amosWeiskopf/freshsmith/pkg/extractor"
	"github.com/amosWeiskopf/freshsmith/pkg/mutator"
)

// Scanner walks a built site, stamps article pages and classifies them
type Scanner struct {
	cfg       config.FreshnessConfig
	walker    Walker
	extractor *extractor.Extractor
	analyzer  *analyzer.Analyzer
	mutator   *mutator.Mutator
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// Option customises a Scanner
type Option func(*Scanner)

// WithWalker replaces the file-system walker
func WithWalker(w Walker) Option {
	return func(s *Scanner) { s.walker = w }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithMetrics records scan metrics on m
func WithMetrics(m *Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock fixes the reference time used for classification
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a Scanner for one run's configuration
func New(cfg config.FreshnessConfig, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:       cfg,
		walker:    FSWalker{},
		extractor: extractor.New(),
		analyzer:  analyzer.New(cfg.FreshnessMonths),
		mutator:   mutator.New(cfg),
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan processes every article page below root and returns one result per
// page in no particular order. Any read or write failure aborts the scan.
func (s *Scanner) Scan(ctx context.Context, root string) ([]models.PageResult, error) {
	files, err := s.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	var pages []models.RawPage
	for _, f := range files {
		urlPath, err := URLPath(root, f)
		if err != nil {
			return nil, err
		}
		if !Included(urlPath, s.cfg.ContentPathPrefixes, s.cfg.IgnorePathPrefixes) {
			s.metrics.IncSkipped()
			continue
		}
		pages = append(pages, models.RawPage{Path: f, URLPath: urlPath})
	}

	s.logger.Info().
		Str("root", root).
		Int("html_files", len(files)).
		Int("articles", len(pages)).
		Int("workers", s.cfg.Workers).
		Msg("Scanning built pages")

	now := s.now()
	if s.cfg.Workers <= 1 {
		return s.scanSequential(ctx, pages, now)
	}
	return s.scanConcurrent(ctx, pages, now)
}

func (s *Scanner) scanSequential(ctx context.Context, pages []models.RawPage, now time.Time) ([]models.PageResult, error) {
	results := make([]models.PageResult, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := s.processPage(page, now)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Scanner) scanConcurrent(ctx context.Context, pages []models.RawPage, now time.Time) ([]models.PageResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		results  = make([]models.PageResult, 0, len(pages))
		firstErr error
		wg       sync.WaitGroup
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	work := make(chan models.RawPage)
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range work {
				result, err := s.processPage(page, now)
				if err != nil {
					setErr(err)
					return
				}
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, page := range pages {
		select {
		case <-ctx.Done():
			break feed
		case work <- page:
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processPage runs the read, extract, mutate, write and classify steps for one page
func (s *Scanner) processPage(page models.RawPage, now time.Time) (models.PageResult, error) {
	info, err := os.Stat(page.Path)
	if err != nil {
		return models.PageResult{}, fmt.Errorf("stat %s: %w", page.Path, err)
	}
	data, err := os.ReadFile(page.Path)
	if err != nil {
		return models.PageResult{}, fmt.Errorf("read %s: %w", page.Path, err)
	}
	page.HTML = string(data)
	page.ModTime = info.ModTime()

	dates := s.extractor.ExtractDates(page.HTML)
	meta := s.extractor.ExtractMetadata(page.HTML)
	if meta.Title == "" {
		meta.Title = page.URLPath
	}

	source := models.DateSourceMarkup
	if dates.Published == nil {
		modTime := page.ModTime.UTC()
		dates.Published = &modTime
		source = models.DateSourceModTime
	}

	effective, _ := analyzer.EffectiveDate(dates)
	freshness := s.analyzer.Classify(effective, now)

	mutated, changes := s.mutator.Mutate(page.HTML, page.URLPath, meta, dates, freshness)
	if changes.Changed() {
		if s.cfg.DryRun {
			if e := s.logger.Debug(); e.Enabled() {
				e.Str("url_path", page.URLPath).
					Str("diff", mutator.Diff(page.HTML, mutated)).
					Msg("Dry run, page not written")
			}
		} else if err := writeFileAtomic(page.Path, []byte(mutated), info.Mode().Perm()); err != nil {
			return models.PageResult{}, err
		}
	}

	result := s.analyzer.Analyze(page.URLPath, meta.Title, dates, now)
	result.Injected = changes.Changed()
	result.DateSource = source

	s.metrics.ObservePage(result, changes.StructuredData, changes.Badge)
	s.logger.Debug().
		Str("url_path", result.URLPath).
		Str("date_source", source).
		Time("effective", result.EffectiveDate).
		Bool("fresh", result.IsFresh).
		Int("age_days", result.AgeInDays).
		Bool("json_ld", changes.StructuredData).
		Bool("badge", changes.Badge).
		Msg("Page processed")

	return result, nil
}

// writeFileAtomic replaces path through a temp file in the same directory,
// so readers see either the old or the new page, never a partial one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".freshsmith-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
