package main

import (
	"fmt"
	"sort"

	"github.com/pagesift/pagesift"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	record, err := deps.Contents.FindContentByID(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "ID:      %s\n", record.ID)
	fmt.Fprintf(deps.Stdout, "Title:   %s\n", record.Title)
	fmt.Fprintf(deps.Stdout, "Type:    %s\n", record.ContentType)
	fmt.Fprintf(deps.Stdout, "URL:     %s\n", record.SourceURL)
	fmt.Fprintf(deps.Stdout, "Host:    %s\n", record.Hostname)
	if record.Byline != "" {
		fmt.Fprintf(deps.Stdout, "Byline:  %s\n", record.Byline)
	}
	if record.SiteName != "" {
		fmt.Fprintf(deps.Stdout, "Site:    %s\n", record.SiteName)
	}
	fmt.Fprintf(deps.Stdout, "Score:   %.1f\n", record.Score)
	fmt.Fprintf(deps.Stdout, "Hash:    %s\n", record.ContentHash)

	if len(record.Metadata) > 0 {
		keys := make([]string, 0, len(record.Metadata))
		for k := range record.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(deps.Stdout, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(deps.Stdout, "  %s: %s\n", k, record.Metadata[k])
		}
	}

	if record.Content != "" {
		fmt.Fprintf(deps.Stdout, "\n%s\n", record.Content)
	}

	return nil
}
