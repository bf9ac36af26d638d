package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/freshsmith/internal/config"
	"github.com/amosWeiskopf/freshsmith/internal/logger"
	"github.com/amosWeiskopf/freshsmith/internal/models"
	"github.com/amosWeiskopf/freshsmith/pkg/reporter"
	"github.com/amosWeiskopf/freshsmith/pkg/scanner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultBuildDir is the static site generator's output directory
const defaultBuildDir = "dist"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "freshsmith",
		Short: "FreshSmith - content freshness for static sites",
		Long: `FreshSmith runs after a static site build. It stamps article pages with
Article structured data and a freshness badge, and reports which articles
have not been updated within the freshness window.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file path (default ./freshsmith.yaml)")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "freshsmith", cmd.Root().Version)
		},
	})
	return rootCmd
}

func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [DIR]",
		Short: "Stamp and classify the article pages of a built site",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}

	d := config.Default()
	flags := scanCmd.Flags()

	// Scan flags override the config file and environment when set
	flags.Int("freshness-months", d.FreshnessMonths, "Months after which an article counts as stale")
	flags.String("site-name", d.SiteName, "Organization name used as author and publisher")
	flags.String("site-url", d.SiteURL, "Site base URL (falls back to $"+config.SiteURLEnv+", then $"+config.NetlifySiteURLEnv+")")
	flags.StringSlice("content-paths", d.ContentPathPrefixes, "URL path prefixes that hold articles")
	flags.StringSlice("ignore-paths", d.IgnorePathPrefixes, "URL path prefixes to skip")
	flags.Bool("inject-json-ld", d.InjectStructuredData, "Inject Article JSON-LD")
	flags.Bool("inject-badge", d.InjectBadge, "Inject the freshness badge")
	flags.String("badge-position", d.BadgePosition.String(), "Badge position (after-title, before-content)")
	flags.String("badge-anchor", d.BadgeAnchor, "Markup the before-content badge is placed in front of")
	flags.Bool("fail-on-stale", d.FailOnStale, "Exit non-zero when stale articles are found")
	flags.Int("workers", d.Workers, "Pages processed concurrently")
	flags.Bool("dry-run", d.DryRun, "Log the changes without writing pages")
	flags.String("log-level", d.Logging.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", d.Logging.Format, "Log format (console, json)")
	flags.String("log-file", d.Logging.File, "Also write JSON logs to this rotated file")

	// Output flags
	flags.String("format", "table", "Report format (table, json, html, markdown)")
	flags.String("output", "", "Output file for the report")
	flags.String("metrics-file", "", "Write Prometheus metrics in textfile format")

	return scanCmd
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := defaultBuildDir
	if len(args) == 1 {
		dir = args[0]
	}
	configPath, _ := cmd.Flags().GetString("config")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	log, logFile, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logFile.Close()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("build directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("build directory %s is not a directory", dir)
	}

	metrics := scanner.NewMetrics()
	s := scanner.New(cfg, scanner.WithLogger(log), scanner.WithMetrics(metrics))

	started := time.Now()
	results, err := s.Scan(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	report := reporter.Build(results, cfg.FreshnessMonths, time.Now())

	event := log.Info()
	if report.StaleCount > 0 {
		event = log.Warn()
	}
	event.
		Int("articles", report.TotalPages).
		Int("stale", report.StaleCount).
		Int("updated", report.InjectedCount).
		Bool("dry_run", cfg.DryRun).
		Dur("took", time.Since(started)).
		Msg("Freshness scan complete")

	if err := writeReport(cmd.OutOrStdout(), output, report, format); err != nil {
		return err
	}
	if output != "" {
		log.Info().Str("path", output).Msg("Report saved")
	}

	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return reporter.Check(report, cfg.FailOnStale)
}

// writeReport renders to the output file when one is given, otherwise to stdout
func writeReport(stdout io.Writer, output string, report *models.Report, format string) error {
	if output == "" {
		return reporter.Render(stdout, report, format)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Render(f, report, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
