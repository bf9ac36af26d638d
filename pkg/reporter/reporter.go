package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/amosWeiskopf/freshsmith/internal/models"
	"github.com/amosWeiskopf/freshsmith/pkg/utils"
)

// MaxFailureEntries caps how many stale pages a failure message lists
const MaxFailureEntries = 10

const dateLayout = "2006-01-02"

// Build aggregates page results into a sorted report: stale pages first,
// oldest first within each group, URL path breaking ties.
func Build(results []models.PageResult, freshnessMonths int, generatedAt time.Time) *models.Report {
	pages := append([]models.PageResult(nil), results...)
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.IsFresh != b.IsFresh {
			return !a.IsFresh
		}
		if a.AgeInDays != b.AgeInDays {
			return a.AgeInDays > b.AgeInDays
		}
		return a.URLPath < b.URLPath
	})

	report := &models.Report{
		GeneratedAt:     generatedAt,
		FreshnessMonths: freshnessMonths,
		Pages:           pages,
		TotalPages:      len(pages),
	}
	for _, p := range pages {
		if !p.IsFresh {
			report.StaleCount++
		}
		if p.Injected {
			report.InjectedCount++
		}
	}
	return report
}

// StaleContentError is returned by Check when stale pages must fail the build
type StaleContentError struct {
	StaleCount      int
	FreshnessMonths int
	Entries         []models.PageResult
}

func (e *StaleContentError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d stale article(s) not updated in %d months:", e.StaleCount, e.FreshnessMonths)
	for _, p := range e.Entries {
		fmt.Fprintf(&b, "\n  %s (last updated %s)", p.URLPath, p.EffectiveDate.UTC().Format(dateLayout))
	}
	if more := e.StaleCount - len(e.Entries); more > 0 {
		fmt.Fprintf(&b, "\n  ...and %d more", more)
	}
	return b.String()
}

// Check returns a *StaleContentError when failOnStale is set and the report
// has stale pages. The report must come from Build so stale pages lead.
func Check(report *models.Report, failOnStale bool) error {
	if !failOnStale || report.StaleCount == 0 {
		return nil
	}
	var entries []models.PageResult
	for _, p := range report.Pages {
		if p.IsFresh {
			continue
		}
		entries = append(entries, p)
		if len(entries) == MaxFailureEntries {
			break
		}
	}
	return &StaleContentError{
		StaleCount:      report.StaleCount,
		FreshnessMonths: report.FreshnessMonths,
		Entries:         entries,
	}
}

// Render writes the report in the given format: table, json, markdown or html
func Render(w io.Writer, report *models.Report, format string) error {
	var (
		out string
		err error
	)
	switch format {
	case "", "table":
		return renderTable(w, report)
	case "json":
		out, err = generateJSON(report)
	case "html":
		out, err = generateHTML(report)
	case "markdown":
		out, err = generateMarkdown(report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func status(p models.PageResult) string {
	if p.IsFresh {
		return "fresh"
	}
	return "STALE"
}

// renderTable writes the per-page table followed by the counts
func renderTable(w io.Writer, report *models.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Content freshness (threshold %d months)", report.FreshnessMonths)

	t.AppendHeader(table.Row{"Status", "Age (days)", "Effective", "URL", "Title"})
	for _, p := range report.Pages {
		t.AppendRow(table.Row{
			status(p),
			p.AgeInDays,
			p.EffectiveDate.UTC().Format(dateLayout),
			p.URLPath,
			utils.TruncateText(p.Title, 48),
		})
	}
	t.AppendFooter(table.Row{
		"",
		"",
		"",
		fmt.Sprintf("%d pages, %d stale", report.TotalPages, report.StaleCount),
		fmt.Sprintf("%d updated", report.InjectedCount),
	})

	t.Render()
	return nil
}

// generateJSON creates a JSON formatted report
func generateJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date":   func(t time.Time) string { return t.UTC().Format(dateLayout) },
	"status": status,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Content Freshness Report</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 2rem;
            border-radius: 10px;
            margin-bottom: 2rem;
        }
        .score-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 1rem;
            margin: 1rem 0;
        }
        .score-item {
            text-align: center;
            padding: 1rem;
            background: white;
            border-radius: 8px;
        }
        .score-value {
            font-size: 2rem;
            font-weight: bold;
            color: #667eea;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 0.5rem;
            border-bottom: 1px solid #eee;
        }
        tr.stale td:first-child {
            color: #dc3545;
            font-weight: bold;
        }
        tr.fresh td:first-child {
            color: #28a745;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Content Freshness Report</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006"}} &middot; threshold {{.FreshnessMonths}} months</p>
    </div>

    <div class="score-grid">
        <div class="score-item"><div class="score-value">{{.TotalPages}}</div>Articles</div>
        <div class="score-item"><div class="score-value">{{.StaleCount}}</div>Stale</div>
        <div class="score-item"><div class="score-value">{{.InjectedCount}}</div>Updated pages</div>
    </div>

    <table>
        <tr><th>Status</th><th>Age (days)</th><th>Effective</th><th>Published</th><th>URL</th><th>Title</th></tr>
        {{range .Pages}}
        <tr class="{{if .IsFresh}}fresh{{else}}stale{{end}}">
            <td>{{status .}}</td>
            <td>{{.AgeInDays}}</td>
            <td>{{date .EffectiveDate}}</td>
            <td>{{date .PublishedDate}}</td>
            <td>{{.URLPath}}</td>
            <td>{{.Title}}</td>
        </tr>
        {{end}}
    </table>
</body>
</html>
`))

// generateHTML creates an HTML formatted report
func generateHTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// generateMarkdown creates a Markdown formatted report
func generateMarkdown(report *models.Report) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Content Freshness Report\n\n")
	fmt.Fprintf(&buf, "*Generated on %s, threshold %d months*\n\n",
		report.GeneratedAt.Format("January 2, 2006"),
		report.FreshnessMonths)

	fmt.Fprintf(&buf, "| Metric | Count |\n")
	fmt.Fprintf(&buf, "|--------|-------|\n")
	fmt.Fprintf(&buf, "| Articles | %d |\n", report.TotalPages)
	fmt.Fprintf(&buf, "| Stale | %d |\n", report.StaleCount)
	fmt.Fprintf(&buf, "| Updated pages | %d |\n\n", report.InjectedCount)

	if len(report.Pages) > 0 {
		fmt.Fprintf(&buf, "## Articles\n\n")
		fmt.Fprintf(&buf, "| Status | Age (days) | Effective | URL | Title |\n")
		fmt.Fprintf(&buf, "|--------|------------|-----------|-----|-------|\n")
		for _, p := range report.Pages {
			fmt.Fprintf(&buf, "| %s | %d | %s | %s | %s |\n",
				status(p),
				p.AgeInDays,
				p.EffectiveDate.UTC().Format(dateLayout),
				p.URLPath,
				strings.ReplaceAll(p.Title, "|", `\|`))
		}
	}

	return buf.String(), nil
}
