package main

import (
	"fmt"
	"time"

	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/ingest"
	"github.com/pagesift/pagesift/metrics"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	progress, err := deps.Batches.Progress(deps.Ctx, c.Batch)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}
	if progress.Pending == 0 {
		fmt.Fprintf(deps.Stdout, "Batch %s has no pending items (%d completed, %d failed)\n",
			c.Batch, progress.Completed, progress.Failed)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Processing batch %s (%d pending items)\n", c.Batch, progress.Pending)

	start := time.Now()
	result, err := deps.Pipeline.ProcessBatch(deps.Ctx, c.Batch)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	printRunResult(deps, result, time.Since(start))
	if c.ShowStats {
		printStats(deps, deps.Metrics)
	}
	return nil
}

func printRunResult(deps *Dependencies, result *ingest.Result, elapsed time.Duration) {
	fmt.Fprintf(deps.Stdout, "Done in %s: %d completed, %d failed (%d slices)\n",
		elapsed.Round(time.Millisecond), result.Completed, result.Failed, result.Slices)
	if result.Failed > 0 {
		fmt.Fprintln(deps.Stdout, "Run 'pagesift retry' to reprocess failed items")
	}
}

func printStats(deps *Dependencies, agg *metrics.Aggregator) {
	if agg == nil {
		return
	}
	summary := agg.Summary()
	fmt.Fprintf(deps.Stdout, "\nCleaned %d pages across %d hosts: avg reduction %.1f%%, avg score %.1f, %d errors\n",
		summary.Cleanings, summary.Hosts, summary.AvgReduction, summary.AvgScore, summary.Errors)

	if hosts := agg.ProblemHosts(5); len(hosts) > 0 {
		fmt.Fprintln(deps.Stdout, "\nProblem hosts:")
		for _, h := range hosts {
			fmt.Fprintf(deps.Stdout, "  %-30s  %d errors (%.0f%%), avg reduction %.1f%%\n",
				h.Hostname, h.Errors, h.ErrorRate*100, h.AvgReduction)
		}
	}

	if rules := agg.TopRules(5); len(rules) > 0 {
		fmt.Fprintln(deps.Stdout, "\nMost effective rules:")
		for _, r := range rules {
			fmt.Fprintf(deps.Stdout, "  %-30s  %d applications, avg reduction %.1f%%\n",
				r.Rule, r.Applications, r.AvgReduction)
		}
	}
}
