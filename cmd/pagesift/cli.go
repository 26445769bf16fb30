package main

import (
	"context"
	"io"

	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/bloom"
	"github.com/pagesift/pagesift/ingest"
	"github.com/pagesift/pagesift/metrics"
	"github.com/pagesift/pagesift/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Batches  pagesift.BatchService
	Items    pagesift.ItemService
	Contents pagesift.ContentService
	Pipeline *ingest.Pipeline
	Metrics  *metrics.Aggregator
	Deduper  *bloom.Deduper
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Submit   SubmitCmd   `cmd:"" help:"Create a batch from a JSONL or OPML file of URLs"`
	Run      RunCmd      `cmd:"" help:"Process all pending items of a batch"`
	Retry    RetryCmd    `cmd:"" help:"Reset failed items of a batch and process them again"`
	Progress ProgressCmd `cmd:"" help:"Show per-status item counts for a batch"`
	List     ListCmd     `cmd:"" help:"List stored content records"`
	Show     ShowCmd     `cmd:"" help:"Show one content record in full"`
	Stats    StatsCmd    `cmd:"" help:"Show per-hostname statistics over stored content"`
}

// SubmitCmd is the "submit" subcommand.
type SubmitCmd struct {
	File   string `arg:"" help:"Input file: .jsonl with one {url,title,folder} object per line, or .opml"`
	Folder string `short:"f" help:"Folder assigned to items without one"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Batch     string  `arg:"" help:"Batch ID"`
	Render    bool    `short:"r" help:"Render pages in a headless browser before processing"`
	Slice     int     `short:"s" default:"5" help:"Items processed per slice"`
	RPS       float64 `default:"1" help:"Max requests per second per domain"`
	Rules     string  `help:"Path to a YAML rule set file (defaults to built-in rules)"`
	Extractor string  `enum:"trafilatura,readability" default:"trafilatura" help:"Article extraction engine"`
	ShowStats bool    `name:"show-stats" help:"Print cleaning and scoring statistics after the run"`
}

// RetryCmd is the "retry" subcommand.
type RetryCmd struct {
	Batch     string  `arg:"" help:"Batch ID"`
	Render    bool    `short:"r" help:"Render pages in a headless browser before processing"`
	Slice     int     `short:"s" default:"5" help:"Items processed per slice"`
	RPS       float64 `default:"1" help:"Max requests per second per domain"`
	Rules     string  `help:"Path to a YAML rule set file (defaults to built-in rules)"`
	Extractor string  `enum:"trafilatura,readability" default:"trafilatura" help:"Article extraction engine"`
	ShowStats bool    `name:"show-stats" help:"Print cleaning and scoring statistics after the run"`
}

// ProgressCmd is the "progress" subcommand.
type ProgressCmd struct {
	Batch string `arg:"" help:"Batch ID"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Hostname string `short:"H" help:"Only records from this hostname"`
	Type     string `short:"t" help:"Only records of this content type"`
	Limit    int    `short:"n" default:"20" help:"Maximum records to show"`
	Full     bool   `help:"Show full content instead of previews"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID string `arg:"" help:"Content record ID"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum hostnames to show"`
}
