package qrstamp

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gardar/qrstamp/pkg/urlcsv"
)

// Anchor is the page edge the horizontal offset is measured from
type Anchor int

const (
	AnchorRight Anchor = iota // Offset measured leftwards from the right edge
	AnchorLeft                // Offset used directly as the X coordinate
)

func (a Anchor) String() string {
	switch a {
	case AnchorRight:
		return "right"
	case AnchorLeft:
		return "left"
	default:
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
}

// ParseAnchor accepts "right", "left" and the long UI labels
// "From Right Edge" / "From Left Edge", case-insensitively.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right", "from right edge", "":
		return AnchorRight, nil
	case "left", "from left edge":
		return AnchorLeft, nil
	default:
		return AnchorRight, fmt.Errorf("unknown anchor %q (want right or left)", s)
	}
}

// PlacementConfig describes where the QR code and its caption go on every page.
// All lengths are PDF points with the origin at the bottom-left of the page.
type PlacementConfig struct {
	Anchor          Anchor  // Reference edge for Offset
	Offset          float64 // Distance from the anchor edge (right) or absolute X (left)
	Y               float64 // Distance of the QR code's bottom edge from the page bottom
	Size            float64 // Width and height of the QR code
	ShowCaption     bool    // Draw Caption below the QR code
	Caption         string  // Caption text
	CaptionFontSize float64 // Caption font size
}

// Validate checks that all values are finite and usable. It does not impose
// upper bounds; placements outside the page are permitted.
func (p PlacementConfig) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"offset", p.Offset},
		{"y", p.Y},
		{"size", p.Size},
		{"caption font size", p.CaptionFontSize},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", f.name, f.v)
		}
	}
	if p.Anchor != AnchorRight && p.Anchor != AnchorLeft {
		return fmt.Errorf("unknown anchor %v", p.Anchor)
	}
	if p.Size <= 0 {
		return fmt.Errorf("size must be positive, got %v", p.Size)
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative, got %v", p.Offset)
	}
	if p.Y < 0 {
		return fmt.Errorf("y must not be negative, got %v", p.Y)
	}
	if p.drawsCaption() && p.CaptionFontSize <= 0 {
		return fmt.Errorf("caption font size must be positive, got %v", p.CaptionFontSize)
	}
	return nil
}

func (p PlacementConfig) drawsCaption() bool {
	return p.ShowCaption && p.Caption != ""
}

// DefaultPlacement matches the defaults of the upload form
var DefaultPlacement = PlacementConfig{
	Anchor:          AnchorRight,
	Offset:          40,
	Y:               83,
	Size:            70,
	ShowCaption:     true,
	Caption:         "Scan your custom QR code to enroll",
	CaptionFontSize: 7,
}

// QRConfig holds knobs passed to the QR encoder. Zero values keep the
// library defaults.
type QRConfig struct {
	ErrorCorrection string // "L", "M", "Q" or "H"; empty = library default
	ModuleWidth     uint8  // Pixels per module in the raster; 0 = library default
	BorderWidth     int    // Quiet zone in pixels; 0 = library default
}

// Config holds user options for stamping QR codes onto a PDF
type Config struct {
	Placement     PlacementConfig
	QR            QRConfig
	Font          FontConfig
	Column        string        // CSV column holding payloads
	LayerName     string        // Base name of QR layer (page number will be appended)
	Force         bool          // Stamp even if QR layers already exist
	NormalizeURLs bool          // Run payloads through urlcsv.NormalizeURL
	TempDir       string        // Parent for the scratch directory ("" = os.TempDir)
	Renderer      Renderer      // QR raster collaborator (nil = QRCodeRenderer)
	Progress      func(float64) // Called with (i+1)/pages after each page
	Debug         bool          // Outline QR placements in red
	DumpPDF       bool          // Dump PDF structure for debugging
	LogWarnings   bool          // Whether to print warnings
	Logger        io.Writer     // Custom logger for warnings (nil = stdout)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Placement:   DefaultPlacement,
		Font:        DefaultFont,
		Column:      urlcsv.DefaultColumn,
		LayerName:   "QR Code", // Will be formatted as "QR Code (Page X)" in the final PDF
		LogWarnings: true,
		Logger:      nil, // stdout
	}
}

// FontConfig contains font settings for the caption
type FontConfig struct {
	Name  string // Font name (e.g., "Helvetica")
	Style string // Font style ("", "B", "I", "BI")
}

// DefaultFont sets the caption font to Helvetica
var DefaultFont = FontConfig{
	Name:  "Helvetica",
	Style: "",
}
