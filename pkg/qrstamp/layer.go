package qrstamp

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// drawQRLayer draws the QR image and optional caption onto a layer in the
// current pdf page. The pageNum parameter is used to create unique layer
// names for each page.
func drawQRLayer(
	pdf *fpdf.Fpdf,
	page Page,
	rect Rect,
	imagePath string,
	imageType string,
	layerName string,
	pageNum int,
	placement PlacementConfig,
	fontConfig FontConfig,
	debug bool,
) error {
	// Format layer name with page number if not already included
	formattedLayerName := layerName
	if pageNum > 0 {
		formattedLayerName = fmt.Sprintf("%s (Page %d)", layerName, pageNum)
	}

	layer := pdf.AddLayer(formattedLayerName, true)
	pdf.BeginLayer(layer)
	defer pdf.EndLayer()

	top := topLeft(rect.Y, rect.Size, page.Height)
	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false, AllowNegativePosition: true}
	pdf.ImageOptions(imagePath, rect.X, top, rect.Size, rect.Size, false, opts, 0, "")

	if debug {
		pdf.SetDrawColor(255, 0, 0) // outline placement in red
		pdf.Rect(rect.X, top, rect.Size, rect.Size, "D")
	}

	if placement.drawsCaption() {
		drawCaption(pdf, page, rect, placement, fontConfig)
	}

	return pdf.Error()
}

// drawCaption renders the caption centred below the QR code
func drawCaption(pdf *fpdf.Fpdf, page Page, rect Rect, placement PlacementConfig, fontConfig FontConfig) {
	pdf.SetFont(fontConfig.Name, fontConfig.Style, placement.CaptionFontSize)
	pdf.SetTextColor(0, 0, 0)

	// Core fonts are encoded as ISO-8859-1
	latin1, err := charmap.ISO8859_1.NewEncoder().String(placement.Caption)
	if err != nil {
		latin1 = placement.Caption // fallback to raw text
	}

	cx, cy := rect.CaptionOrigin()
	width := pdf.GetStringWidth(latin1)
	pdf.Text(cx-width/2, page.Height-cy, latin1)
}
