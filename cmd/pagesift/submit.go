package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/pagesift/pagesift"
)

// submitEntry is one line of a JSONL submission file.
type submitEntry struct {
	URL     string    `json:"url"`
	Title   string    `json:"title"`
	Folder  string    `json:"folder"`
	AddedAt time.Time `json:"addedAt"`
}

// Run executes the submit command.
func (c *SubmitCmd) Run(deps *Dependencies) error {
	entries, err := readEntries(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no URLs found in %q", c.File)
	}

	// Drop duplicate URLs within the submission.
	var items []pagesift.NewItem
	skipped := 0
	for _, e := range entries {
		if deps.Deduper != nil && deps.Deduper.Seen(e.URL) {
			skipped++
			continue
		}
		folder := e.Folder
		if folder == "" {
			folder = c.Folder
		}
		items = append(items, pagesift.NewItem{
			URL:     e.URL,
			Title:   e.Title,
			Folder:  folder,
			AddedAt: e.AddedAt,
		})
	}
	if len(items) == 0 {
		return fmt.Errorf("all %d URLs in %q are duplicates", len(entries), c.File)
	}

	batch := &pagesift.Batch{Total: len(items)}
	if err := deps.Batches.CreateBatch(deps.Ctx, batch); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	inserted, err := deps.Items.CreateItems(deps.Ctx, batch.ID, items)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	if err := deps.Batches.CompleteBatch(deps.Ctx, batch.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagesift.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Created batch %s with %d items", batch.ID, inserted)
	if skipped > 0 {
		fmt.Fprintf(deps.Stdout, " (%d duplicates skipped)", skipped)
	}
	fmt.Fprintln(deps.Stdout)
	fmt.Fprintf(deps.Stdout, "Run 'pagesift run %s' to process it\n", batch.ID)

	return nil
}

// readEntries reads a submission file. The format is decided by
// extension: .opml parses as OPML, everything else as JSONL.
func readEntries(path string) ([]submitEntry, error) {
	if strings.EqualFold(filepath.Ext(path), ".opml") {
		return readOPML(path)
	}
	return readJSONL(path)
}

func readJSONL(path string) ([]submitEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []submitEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var e submitEntry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return nil, pagesift.Errorf(pagesift.EINVALID, "line %d: %v", line, err)
		}
		if e.URL == "" {
			return nil, pagesift.Errorf(pagesift.EINVALID, "line %d: missing url", line)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// readOPML extracts URLs from OPML outlines, the export format of feed
// readers and bookmark managers. The page URL is taken from htmlUrl,
// falling back to url and xmlUrl attributes.
func readOPML(path string) ([]submitEntry, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, pagesift.Errorf(pagesift.EINVALID, "failed to parse OPML: %v", err)
	}

	var entries []submitEntry
	for _, outline := range doc.FindElements("//outline") {
		url := firstAttr(outline, "htmlUrl", "url", "xmlUrl")
		if url == "" {
			continue
		}
		title := firstAttr(outline, "title", "text")
		entries = append(entries, submitEntry{
			URL:    url,
			Title:  title,
			Folder: outlineFolder(outline),
		})
	}
	return entries, nil
}

// outlineFolder returns the text of the nearest ancestor outline, which
// OPML uses for grouping.
func outlineFolder(outline *etree.Element) string {
	parent := outline.Parent()
	if parent == nil || parent.Tag != "outline" {
		return ""
	}
	return firstAttr(parent, "title", "text")
}

func firstAttr(el *etree.Element, keys ...string) string {
	for _, key := range keys {
		if v := el.SelectAttrValue(key, ""); v != "" {
			return v
		}
	}
	return ""
}
