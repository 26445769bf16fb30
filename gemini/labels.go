// Package gemini implements the remote content-type label service using
// Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagesift/pagesift"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// Ensure LabelService implements pagesift.LabelService at compile time.
var _ pagesift.LabelService = (*LabelService)(nil)

// LabelService classifies page snippets into the fixed label vocabulary
// using Google Gemini.
type LabelService struct {
	client *genai.Client
}

// NewLabelService creates a new LabelService.
func NewLabelService(client *genai.Client) *LabelService {
	return &LabelService{client: client}
}

// ClassifySnippet returns a single label token for the snippet.
func (l *LabelService) ClassifySnippet(ctx context.Context, url string, snippet string) (string, error) {
	if snippet == "" {
		return "", pagesift.Errorf(pagesift.EINVALID, "snippet required")
	}

	result, err := l.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildClassifyPrompt(url, snippet)}},
		}},
		BuildClassifyConfig(),
	)
	if err != nil {
		return "", pagesift.Errorf(pagesift.EUNAVAILABLE, "gemini classification failed: %v", err)
	}
	if result == nil {
		return "", pagesift.Errorf(pagesift.EINTERNAL, "gemini returned nil result")
	}

	return ParseLabel(result.Text()), nil
}

// BuildClassifyConfig returns the GenerateContentConfig for classification
// calls. Temperature is zero: the label must be reproducible.
func BuildClassifyConfig() *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You classify web pages. Respond with exactly one word from this vocabulary: article, product, social, video, other. Respond with nothing else.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildClassifyPrompt builds the user prompt containing the URL and the
// bounded page snippet.
func BuildClassifyPrompt(url string, snippet string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<url>%s</url>\n", url)
	fmt.Fprintf(&sb, "<snippet>\n%s\n</snippet>\n\n", snippet)
	sb.WriteString("Classify this page.")
	return sb.String()
}

// ParseLabel normalizes a model response to a bare label token.
func ParseLabel(response string) string {
	response = strings.ToLower(strings.TrimSpace(response))
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;\"'`")
}
