package main

import (
	"fmt"

	"github.com/pagesift/pagesift"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := pagesift.ContentFilter{Limit: c.Limit}
	if c.Hostname != "" {
		filter.Hostname = &c.Hostname
	}
	if c.Type != "" {
		if !pagesift.ValidContentType(c.Type) {
			fmt.Fprintf(deps.Stderr, "error: unknown content type %q\n", c.Type)
			return pagesift.Errorf(pagesift.EINVALID, "unknown content type %q", c.Type)
		}
		ct := pagesift.ContentType(c.Type)
		filter.ContentType = &ct
	}

	records, err := deps.Contents.FindContents(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No content found. Use 'pagesift submit' and 'pagesift run' to ingest some.")
		return nil
	}

	for _, r := range records {
		title := r.Title
		if title == "" {
			title = r.SourceURL
		}
		fmt.Fprintf(deps.Stdout, "%s  [%s]  %.0f  %s\n", r.ID, r.ContentType, r.Score, title)
		if c.Full {
			fmt.Fprintf(deps.Stdout, "%s\n\n", r.Content)
		} else if r.Preview != "" {
			fmt.Fprintf(deps.Stdout, "    %s\n", r.Preview)
		}
	}

	return nil
}
