package main

import (
	"fmt"
	"time"

	"github.com/pagesift/pagesift"
)

// Run executes the retry command.
func (c *RetryCmd) Run(deps *Dependencies) error {
	start := time.Now()
	reset, result, err := deps.Pipeline.RetryFailed(deps.Ctx, c.Batch)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	if reset == 0 {
		fmt.Fprintf(deps.Stdout, "Batch %s has no failed items\n", c.Batch)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Reset %d failed items\n", reset)
	printRunResult(deps, result, time.Since(start))
	if c.ShowStats {
		printStats(deps, deps.Metrics)
	}
	return nil
}
