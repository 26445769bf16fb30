package main

import (
	"fmt"
	"sort"

	"github.com/pagesift/pagesift"
)

type hostSummary struct {
	hostname string
	count    int
	scoreSum float64
}

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	records, err := deps.Contents.FindContents(deps.Ctx, pagesift.ContentFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No content found. Use 'pagesift submit' and 'pagesift run' to ingest some.")
		return nil
	}

	byHost := make(map[string]*hostSummary)
	byType := make(map[pagesift.ContentType]int)
	for _, r := range records {
		h := byHost[r.Hostname]
		if h == nil {
			h = &hostSummary{hostname: r.Hostname}
			byHost[r.Hostname] = h
		}
		h.count++
		h.scoreSum += r.Score
		byType[r.ContentType]++
	}

	fmt.Fprintf(deps.Stdout, "%d content records from %d hosts\n\n", len(records), len(byHost))

	fmt.Fprintln(deps.Stdout, "By type:")
	for _, ct := range pagesift.ContentTypes {
		if n := byType[ct]; n > 0 {
			fmt.Fprintf(deps.Stdout, "  %-10s %d\n", ct, n)
		}
	}

	hosts := make([]*hostSummary, 0, len(byHost))
	for _, h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		if hosts[i].count != hosts[j].count {
			return hosts[i].count > hosts[j].count
		}
		return hosts[i].hostname < hosts[j].hostname
	})
	if c.Limit > 0 && len(hosts) > c.Limit {
		hosts = hosts[:c.Limit]
	}

	fmt.Fprintln(deps.Stdout, "\nBy host:")
	for _, h := range hosts {
		fmt.Fprintf(deps.Stdout, "  %-30s %4d records, avg score %.1f\n",
			h.hostname, h.count, h.scoreSum/float64(h.count))
	}

	return nil
}
