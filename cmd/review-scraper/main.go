package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"review-scraper/pkg/config"
	"review-scraper/pkg/export"
	"review-scraper/pkg/models"
	"review-scraper/pkg/orchestrate"
	"review-scraper/pkg/utils"
)

const version = "1.0.0"

// dateLayout is how the CLI accepts window boundaries
const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scrape":
		runScrape(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("review-scraper %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `review-scraper - Storefront app review scraper

Usage:
  review-scraper <command> [options]

Commands:
  scrape      Collect reviews for an app or a developer's apps
  validate    Validate configuration file
  version     Show version info

Run 'review-scraper <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// setupLogger configures logrus for CLI use
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level %q, using info", level)
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// runScrape handles the scrape subcommand
func runScrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to config file (optional; defaults apply without one)")
	locator := fs.String("url", "", "Developer listing URL or app review-feed URL")
	fromStr := fs.String("from", "", "Newest date to include (YYYY-MM-DD)")
	untilStr := fs.String("until", "", "Oldest date to include (YYYY-MM-DD)")
	outDir := fs.String("out", "", "Output directory for the CSV export (overrides config)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	robots := fs.Bool("robots", false, "Consult robots.txt before scraping each app")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: review-scraper scrape [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  review-scraper scrape -url https://apps.shopify.com/partners/cedcommerce -from 2025-07-16 -until 2017-01-01\n")
		fmt.Fprintf(os.Stderr, "  review-scraper scrape -url https://apps.shopify.com/checkout-blocks/reviews -from 2025-07-16 -until 2024-01-01\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	if *locator == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		os.Exit(1)
	}
	if *fromStr == "" || *untilStr == "" {
		fmt.Fprintln(os.Stderr, "Error: -from and -until are required")
		fs.Usage()
		os.Exit(1)
	}

	from, err := time.Parse(dateLayout, *fromStr)
	if err != nil {
		log.Fatalf("Invalid -from date %q: expected YYYY-MM-DD", *fromStr)
	}
	until, err := time.Parse(dateLayout, *untilStr)
	if err != nil {
		log.Fatalf("Invalid -until date %q: expected YYYY-MM-DD", *untilStr)
	}
	window, err := models.NewDateWindow(from, until)
	if err != nil {
		log.Fatalf("Invalid date window: %v", err)
	}

	var cfg *config.AppConfig
	if *configFile != "" {
		cfg, err = loadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		cfg = &config.AppConfig{}
	}
	warnings, err := cfg.Validate()
	for _, warning := range warnings {
		log.Warnf("Config: %s", warning)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *robots {
		cfg.RespectRobots = true
	}

	// First Ctrl+C cancels at the next app/page boundary, second one kills
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := orchestrate.NewCoordinator(cfg, log)
	defer coordinator.Close()

	result, err := coordinator.Run(ctx, *locator, window)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	writer := export.NewWriter(cfg.OutputDir, log.WithField("component", "export"))
	path, err := writer.Write(result.FilePrefix(), result.Records)
	if err != nil {
		log.Errorf("CSV export failed: %v", err)
	}

	printSummary(os.Stdout, result, path)
}

// printSummary renders the per-app outcome table after a run
func printSummary(w io.Writer, result *orchestrate.RunResult, exportPath string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"App", "Pages", "Reviews", "Stop", "Error"})
	for _, app := range result.Apps {
		errCategory := ""
		if app.Err != nil {
			errCategory = utils.CategorizeError(app.Err)
		}
		t.AppendRow(table.Row{app.App.Name, app.Pages, app.Records, app.Stop.String(), errCategory})
	}
	t.AppendFooter(table.Row{"Total", "", len(result.Records), "", ""})
	t.Render()

	if exportPath != "" {
		fmt.Fprintf(w, "Exported to %s\n", exportPath)
	} else {
		fmt.Fprintln(w, "No reviews collected; nothing exported.")
	}
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	warnings, err := cfg.Validate()
	for _, warning := range warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration OK")
}
