package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pagesift/pagesift"
)

// DefaultPDFTimeout is the default timeout for PDF extraction requests.
// PDFs are slower than pages: downloads plus server-side text extraction.
const DefaultPDFTimeout = 60 * time.Second

// Ensure PDFService implements pagesift.PDFService at compile time.
var _ pagesift.PDFService = (*PDFService)(nil)

// PDFService delegates PDF text extraction to a remote extraction service
// over its JSON API.
type PDFService struct {
	client  *http.Client
	baseURL string
}

// PDFOption configures a PDFService.
type PDFOption func(*PDFService)

// WithPDFTimeout sets the timeout for extraction requests.
// Defaults to DefaultPDFTimeout (60s) if not specified.
func WithPDFTimeout(d time.Duration) PDFOption {
	return func(s *PDFService) {
		s.client.Timeout = d
	}
}

// NewPDFService creates a client for the PDF extraction service at baseURL.
func NewPDFService(baseURL string, opts ...PDFOption) *PDFService {
	s := &PDFService{
		client:  &http.Client{Timeout: DefaultPDFTimeout},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type pdfExtractRequest struct {
	URL string `json:"url"`
}

type pdfExtractResponse struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Bytes int    `json:"bytes"`
	Error string `json:"error,omitempty"`
}

// ExtractText asks the extraction service to download the PDF at url and
// return its text. Returns ENOTFOUND if the service reports no extractable
// text and EUNAVAILABLE on transport or service errors.
func (s *PDFService) ExtractText(ctx context.Context, url string) (*pagesift.PDFResult, error) {
	payload, err := json.Marshal(pdfExtractRequest{URL: url})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, pagesift.Errorf(pagesift.EINVALID, "invalid PDF service URL %q: %v", s.baseURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pagesift.Errorf(pagesift.EUNAVAILABLE, "pdf extraction for %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no PDF found at %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pagesift.Errorf(pagesift.EUNAVAILABLE, "pdf extraction for %s: HTTP %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out pdfExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pagesift.Errorf(pagesift.EUNAVAILABLE, "decode pdf extraction response for %s: %v", url, err)
	}
	if out.Error != "" {
		return nil, pagesift.Errorf(pagesift.EUNAVAILABLE, "pdf extraction for %s: %s", url, out.Error)
	}
	if out.Text == "" {
		return nil, pagesift.Errorf(pagesift.ENOTFOUND, "no extractable text in PDF at %s", url)
	}

	return &pagesift.PDFResult{
		Title: out.Title,
		Text:  out.Text,
		Pages: out.Pages,
		Bytes: out.Bytes,
	}, nil
}
