package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/bloom"
	"github.com/pagesift/pagesift/classify"
	"github.com/pagesift/pagesift/gemini"
	psgoquery "github.com/pagesift/pagesift/goquery"
	"github.com/pagesift/pagesift/htmltomarkdown"
	pshttp "github.com/pagesift/pagesift/http"
	"github.com/pagesift/pagesift/ingest"
	"github.com/pagesift/pagesift/metrics"
	"github.com/pagesift/pagesift/readability"
	"github.com/pagesift/pagesift/rod"
	"github.com/pagesift/pagesift/score"
	psslog "github.com/pagesift/pagesift/slog"
	"github.com/pagesift/pagesift/sqlite"
	"github.com/pagesift/pagesift/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	BatchService   pagesift.BatchService
	ItemService    pagesift.ItemService
	ContentService pagesift.ContentService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagesift"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'pagesift --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set PAGESIFT_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.BatchService = sqlite.NewBatchService(m.DB)
	m.ItemService = sqlite.NewItemService(m.DB)
	m.ContentService = sqlite.NewContentService(m.DB)
	deps.DB = m.DB
	deps.Batches = m.BatchService
	deps.Items = m.ItemService
	deps.Contents = m.ContentService

	if cmd == "submit" {
		deps.Deduper = bloom.NewDeduper(100000, 0.001)
	}

	if cmd == "run" || cmd == "retry" {
		opts := pipelineOptions{
			render:    cli.Run.Render,
			slice:     cli.Run.Slice,
			rps:       cli.Run.RPS,
			rules:     cli.Run.Rules,
			extractor: cli.Run.Extractor,
		}
		if cmd == "retry" {
			opts = pipelineOptions{
				render:    cli.Retry.Render,
				slice:     cli.Retry.Slice,
				rps:       cli.Retry.RPS,
				rules:     cli.Retry.Rules,
				extractor: cli.Retry.Extractor,
			}
		}

		pipeline, cleanup, err := m.buildPipeline(ctx, stderr, opts)
		if err != nil {
			return err
		}
		defer cleanup()

		deps.Pipeline = pipeline
		deps.Metrics = pipeline.Metrics.(*metrics.Aggregator)
	}

	return kongCtx.Run(deps)
}

// pipelineOptions carries the CLI flags shared by run and retry.
type pipelineOptions struct {
	render    bool
	slice     int
	rps       float64
	rules     string
	extractor string
}

// buildPipeline wires the full ingestion pipeline. The returned cleanup
// releases the fetcher.
func (m *Main) buildPipeline(ctx context.Context, stderr io.Writer, opts pipelineOptions) (*ingest.Pipeline, func(), error) {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var fetcher pagesift.Fetcher
	if opts.render {
		rodFetcher, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = rodFetcher
	} else {
		fetcher = pshttp.NewFetcher(pshttp.WithUserAgent(userAgent))
	}
	fetcher = psslog.NewLoggingFetcher(fetcher, logger)
	cleanup := func() { _ = fetcher.Close() }

	ruleSets, err := loadRules(opts.rules)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleaner, err := psgoquery.NewCleaner(ruleSets, psgoquery.WithLogger(logger))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	classifier := &classify.Classifier{}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		classifier.Labels = gemini.NewLabelService(client)
	}

	var pdfs pagesift.PDFService
	if pdfURL := os.Getenv("PAGESIFT_PDF_URL"); pdfURL != "" {
		pdfs = pshttp.NewPDFService(pdfURL)
	}

	var extractor pagesift.Extractor = trafilatura.NewExtractor()
	if opts.extractor == "readability" {
		extractor = readability.NewExtractor()
	}

	pipeline := &ingest.Pipeline{
		Batches:     m.BatchService,
		Items:       m.ItemService,
		Contents:    m.ContentService,
		Classifier:  classifier,
		Fetcher:     fetcher,
		Cleaner:     psslog.NewLoggingCleaner(cleaner, logger),
		Extractor:   extractor,
		Metadata:    psgoquery.NewMetadataExtractor(),
		Normalizer:  htmltomarkdown.NewNormalizer(),
		Scorer:      score.NewDefaultScorer(),
		PDFs:        pdfs,
		Metrics:     metrics.NewAggregator(),
		RateLimiter: ingest.NewDomainLimiter(opts.rps),
		Logger:      logger,
		SliceSize:   opts.slice,
	}

	return pipeline, cleanup, nil
}

func loadRules(path string) ([]pagesift.RuleSet, error) {
	if path == "" {
		return psgoquery.DefaultRuleSets()
	}
	return psgoquery.LoadRuleSetsFile(path)
}

const userAgent = "pagesift/1.0 (+https://github.com/pagesift/pagesift)"

func defaultDBPath() string {
	if path := os.Getenv("PAGESIFT_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "pagesift.db"
	}
	dir := filepath.Join(home, ".pagesift")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "pagesift.db")
}
