package qrstamp

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/gardar/qrstamp/pkg/urlcsv"
)

// stampExistingPDF imports every page of an existing PDF and overlays a QR
// layer on the pages that have a matching row. Pages without a row are
// imported unchanged. Intermediate QR rasters are written to workDir.
func stampExistingPDF(
	inputPDFData []byte,
	pages []Page,
	rows []urlcsv.Row,
	workDir string,
	config Config,
) (out []byte, results []PageResult, err error) {
	// gofpdi panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			out, results = nil, nil
			err = processingError(fmt.Errorf("PDF import failed: %v", r))
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(inputPDFData))

	results = make([]PageResult, 0, len(pages))
	for i, page := range pages {
		// Overlay geometry follows the source page
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})

		tpl := importer.ImportPageFromStream(pdf, &rs, i+1, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, page.Width, page.Height)
		if err := pdf.Error(); err != nil {
			return nil, nil, &Error{Kind: KindProcessing, Page: i, Err: fmt.Errorf("failed to import page: %w", err)}
		}

		result := PageResult{Index: i}
		if i < len(rows) {
			result, err = stampPage(pdf, page, rows[i], workDir, config)
			if err != nil {
				return nil, nil, &Error{Kind: KindProcessing, Page: i, Err: err}
			}
		}
		results = append(results, result)

		if config.Progress != nil {
			config.Progress(float64(i+1) / float64(len(pages)))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, nil, processingError(fmt.Errorf("failed to generate PDF: %w", err))
	}
	return buf.Bytes(), results, nil
}

// stampPage renders the QR code for row and draws it onto the current page.
func stampPage(pdf *fpdf.Fpdf, page Page, row urlcsv.Row, workDir string, config Config) (PageResult, error) {
	payload := row.URL
	if payload == "" {
		return PageResult{}, fmt.Errorf("row %d has an empty %s value", row.Index+1, config.Column)
	}
	if config.NormalizeURLs {
		normalized, err := urlcsv.NormalizeURL(payload)
		if err != nil {
			return PageResult{}, fmt.Errorf("row %d: %w", row.Index+1, err)
		}
		payload = normalized
	}

	imagePath := filepath.Join(workDir, fmt.Sprintf("qr_%d.png", page.Index))
	if err := config.Renderer.RenderPNG(payload, imagePath); err != nil {
		return PageResult{}, fmt.Errorf("failed to render QR code for %q: %w", payload, err)
	}
	imageType, err := detectImageFileType(imagePath)
	if err != nil {
		return PageResult{}, err
	}

	rect := config.Placement.Rect(page.Width)
	err = drawQRLayer(pdf, page, rect, imagePath, imageType, config.LayerName,
		page.Index+1, config.Placement, config.Font, config.Debug)
	if err != nil {
		return PageResult{}, fmt.Errorf("failed to draw QR layer: %w", err)
	}

	return PageResult{
		Index:   page.Index,
		URL:     payload,
		Stamped: true,
		Rect:    rect,
		OnPage:  rect.Inside(page.Width, page.Height),
	}, nil
}
