package main

import (
	"fmt"

	"github.com/pagesift/pagesift"
)

// Run executes the progress command.
func (c *ProgressCmd) Run(deps *Dependencies) error {
	batch, err := deps.Batches.FindBatchByID(deps.Ctx, c.Batch)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	progress, err := deps.Batches.Progress(deps.Ctx, c.Batch)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Batch %s (%s)\n", batch.ID, batch.Status)
	fmt.Fprintf(deps.Stdout, "  imported:    %d of %d\n", progress.Imported, progress.Total)
	fmt.Fprintf(deps.Stdout, "  pending:     %d\n", progress.Pending)
	fmt.Fprintf(deps.Stdout, "  in progress: %d\n", progress.InProgress)
	fmt.Fprintf(deps.Stdout, "  completed:   %d\n", progress.Completed)
	fmt.Fprintf(deps.Stdout, "  failed:      %d\n", progress.Failed)
	fmt.Fprintf(deps.Stdout, "  %.0f%% complete\n", progress.PercentComplete)

	if progress.Failed > 0 {
		failed := pagesift.ItemFailed
		items, err := deps.Items.FindItems(deps.Ctx, pagesift.ItemFilter{
			BatchID: &c.Batch,
			Status:  &failed,
		})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, "\nFailed items:")
		for _, item := range items {
			fmt.Fprintf(deps.Stdout, "  %s\n    %s\n", item.URL, item.Error)
		}
	}

	return nil
}
