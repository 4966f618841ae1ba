package qrstamp

import (
	"bytes"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a config directory in the user's home
	pdfapi.DisableConfigDir()
}

// Page describes one page of the source PDF in points.
type Page struct {
	Index  int // Zero-based page position
	Width  float64
	Height float64
}

// ReadPages validates pdfData and returns the size of every page.
func ReadPages(pdfData []byte) ([]Page, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("input PDF data is empty")
	}

	conf := model.NewDefaultConfiguration()
	dims, err := pdfapi.PageDims(bytes.NewReader(pdfData), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF pages: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("PDF contains no pages")
	}

	pages := make([]Page, len(dims))
	for i, d := range dims {
		if d.Width <= 0 || d.Height <= 0 {
			return nil, fmt.Errorf("page %d has invalid size %.2fx%.2f", i+1, d.Width, d.Height)
		}
		pages[i] = Page{Index: i, Width: d.Width, Height: d.Height}
	}
	return pages, nil
}

// flattenObjectStreams rewrites pdfData with every object at the top level
// and a classic xref table. gofpdi cannot resolve objects stored inside
// object streams, which PDF 1.5+ producers write by default.
func flattenObjectStreams(pdfData []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var buf bytes.Buffer
	if err := pdfapi.Optimize(bytes.NewReader(pdfData), &buf, conf); err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return buf.Bytes(), nil
}
