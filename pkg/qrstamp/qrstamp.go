// Package qrstamp overlays a QR code on every page of an existing PDF.
//
// Each page i is paired with row i of a CSV document; the row's URL becomes
// the QR payload. The QR code (and an optional caption) is drawn on an
// optional content layer on top of the imported page, so the original page
// content stays intact beneath it.
//
// Placement is expressed in PDF points with the origin at the bottom-left of
// the page. With the right anchor the QR code's X coordinate is
// page width - size - offset; with the left anchor the offset is the X
// coordinate itself. Coordinates are never clamped.
//
// When the CSV has fewer rows than the PDF has pages, the remaining pages are
// copied through unchanged. Extra rows are ignored. Both cases are reported
// as a RowCountMismatch warning, not an error.
//
// Main Functions:
//
// - Stamp: validates the CSV and stamps the PDF
// - StampRows: stamps the PDF from already parsed rows
// - DetectStamp: checks whether a PDF already carries QR layers
// - RenderQR: renders a single QR code as PNG
package qrstamp

import (
	"errors"
	"fmt"
	"os"

	"github.com/gardar/qrstamp/pkg/urlcsv"
)

// OutputFilename is the name offered for stamped documents
const OutputFilename = "output_qr.pdf"

// Result holds a stamped document and what happened to each page
type Result struct {
	PDF      []byte            // Serialized output document
	Pages    []PageResult      // One entry per input page, in order
	Stamped  int               // Number of pages that received a QR code
	Mismatch *RowCountMismatch // Set when row and page counts differ
	Warnings []string          // Human-readable advisories
}

// PageResult describes the outcome for a single page
type PageResult struct {
	Index   int    // Zero-based page index
	URL     string // Encoded payload (empty when not stamped)
	Stamped bool   // False when the page was copied through unchanged
	Rect    Rect   // QR placement, bottom-left origin
	OnPage  bool   // False when Rect extends past the page edges
}

// Stamp is a high-level function for stamping QR codes from CSV rows onto
// an existing PDF. The CSV must contain config.Column; this is checked before
// the PDF is read.
func Stamp(pdfData, csvData []byte, config Config) (*Result, error) {
	config = withDefaults(config)
	if err := config.Placement.Validate(); err != nil {
		return nil, validationError(fmt.Errorf("invalid placement: %w", err))
	}

	table, err := urlcsv.Parse(csvData)
	if err != nil {
		return nil, validationError(err)
	}
	rows, err := table.Rows(config.Column)
	if err != nil {
		return nil, validationError(err)
	}

	return StampRows(pdfData, rows, config)
}

// StampRows stamps pdfData using rows[i] for page i.
func StampRows(pdfData []byte, rows []urlcsv.Row, config Config) (*Result, error) {
	config = withDefaults(config)
	if err := config.Placement.Validate(); err != nil {
		return nil, validationError(fmt.Errorf("invalid placement: %w", err))
	}
	if err := config.QR.Validate(); err != nil {
		return nil, validationError(fmt.Errorf("invalid QR settings: %w", err))
	}
	if len(pdfData) == 0 {
		return nil, validationError(errors.New("input PDF data is empty"))
	}

	// Display PDF structure debug if requested
	if config.DumpPDF {
		dumpPDFStructure(pdfData, 2000, getLogger(config))
	}

	flat, err := flattenObjectStreams(pdfData)
	if err != nil {
		return nil, processingError(err)
	}

	pages, err := ReadPages(flat)
	if err != nil {
		return nil, processingError(err)
	}

	// Layer names in the input may sit inside compressed object streams
	detection, err := DetectStamp(pdfData, config)
	if err == nil && !detection.HasStamp {
		detection, err = DetectStamp(flat, config)
	}
	if err != nil {
		return nil, processingError(fmt.Errorf("layer detection failed: %w", err))
	}
	for _, warning := range detection.Warnings {
		warnf(config, "%s", warning)
	}

	// Enforce safety check unless force override is requested
	if detection.HasStamp && !config.Force {
		return nil, validationError(fmt.Errorf("file already has QR codes (layer '%s'), use force to stamp again",
			detection.LayerInfo.QRLayerName))
	} else if detection.HasStamp {
		warnf(config, "file already has QR codes; stamping again due to force")
	}

	result := &Result{}
	if len(rows) != len(pages) {
		result.Mismatch = &RowCountMismatch{Pages: len(pages), Rows: len(rows)}
		result.Warnings = append(result.Warnings, result.Mismatch.String())
		warnf(config, "%s", result.Mismatch)
	}

	workDir, err := os.MkdirTemp(config.TempDir, "qrstamp-")
	if err != nil {
		return nil, processingError(fmt.Errorf("failed to create temp dir: %w", err))
	}
	defer os.RemoveAll(workDir)

	if config.Debug {
		fmt.Fprintf(getLogger(config), "Stamping %d pages from %d rows in %s\n", len(pages), len(rows), workDir)
	}

	out, pageResults, err := stampExistingPDF(flat, pages, rows, workDir, config)
	if err != nil {
		return nil, err
	}

	result.PDF = out
	result.Pages = pageResults
	for _, pr := range pageResults {
		if !pr.Stamped {
			continue
		}
		result.Stamped++
		if !pr.OnPage {
			msg := fmt.Sprintf("QR code on page %d extends past the page edge (x=%.2f, y=%.2f, size=%.2f)",
				pr.Index+1, pr.Rect.X, pr.Rect.Y, pr.Rect.Size)
			result.Warnings = append(result.Warnings, msg)
			warnf(config, "%s", msg)
		}
	}

	return result, nil
}

// withDefaults fills unset collaborators and names.
func withDefaults(config Config) Config {
	if config.Column == "" {
		config.Column = urlcsv.DefaultColumn
	}
	if config.LayerName == "" {
		config.LayerName = DefaultConfig().LayerName
	}
	if config.Font.Name == "" {
		config.Font = DefaultFont
	}
	if config.Renderer == nil {
		config.Renderer = QRCodeRenderer{Config: config.QR}
	}
	return config
}
