package qrstamp

import (
	"fmt"
	"regexp"
	"strings"
)

// pdfName matches a parenthesised PDF string, honouring backslash escapes.
const pdfName = `\(((?:\\.|[^\\)])*)\)`

var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)/Type\s*/OCG\s*/Name\s*` + pdfName),
	regexp.MustCompile(`(?s)/OCG\s*<<[^>]*?/Name\s*` + pdfName),
	regexp.MustCompile(`(?s)/Name\s*` + pdfName + `[\s\S]{0,50}/Type\s*/OCG`),
}

// detectPDFLayers attempts to find optional content group names in the raw PDF data.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	content := string(pdfData)
	var layers []string
	for _, re := range ocgPatterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			if len(match) >= 2 {
				layers = append(layers, decodeLayerName(match[1]))
			}
		}
	}

	// Deduplicate
	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, l := range layers {
		if l != "" && !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique, nil
}

// decodeLayerName unescapes a raw PDF string and decodes UTF-16BE when a BOM is present.
func decodeLayerName(raw string) string {
	name := unescapePDFString(raw)
	if len(name) >= 2 && name[0] == '\xfe' && name[1] == '\xff' {
		if decoded, err := decodeUTF16BE([]byte(name)); err == nil {
			return decoded
		}
	}
	return name
}

// LayerCheckResult contains the results of checking for QR layers
type LayerCheckResult struct {
	Layers      []string // All detected layers
	HasQRLayer  bool     // True if the specified QR layer exists
	QRLayerName string   // Name of the detected QR layer (if any)
	Warnings    []string // Any warnings about potential QR layers
}

// CheckExistingQRLayers checks for QR layers left by a previous stamping run
func CheckExistingQRLayers(pdfData []byte, qrLayerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+.*`, regexp.QuoteMeta(qrLayerName)))

	for _, layer := range layers {
		if layer == qrLayerName || pageLayerPattern.MatchString(layer) {
			result.HasQRLayer = true
			result.QRLayerName = layer
			break
		}

		if strings.Contains(strings.ToLower(layer), "qr") &&
			!strings.HasPrefix(layer, qrLayerName) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Existing layer detected that might contain a QR code: %s", layer))
		}
	}

	return result, nil
}

// DetectionResult reports whether a PDF already carries QR stamps
type DetectionResult struct {
	HasStamp  bool             // True if a QR layer with the configured name exists
	LayerInfo LayerCheckResult // Details from layer detection
	Warnings  []string         // Warnings from any detection method
}

// DetectStamp checks pdfData for QR layers named after config.LayerName
func DetectStamp(pdfData []byte, config Config) (DetectionResult, error) {
	result := DetectionResult{}

	layerResult, err := CheckExistingQRLayers(pdfData, config.LayerName)
	if err != nil {
		return result, err
	}
	result.LayerInfo = layerResult
	result.HasStamp = layerResult.HasQRLayer
	result.Warnings = append(result.Warnings, layerResult.Warnings...)

	return result, nil
}
