package qrstamp

// captionGap is the distance from the QR code's bottom edge to the caption baseline.
const captionGap = 10

// Rect is a square QR placement in PDF user space (origin bottom-left).
type Rect struct {
	X    float64
	Y    float64
	Size float64
}

// Rect computes the QR rectangle for a page of the given width.
// Values are not clamped to the page.
func (p PlacementConfig) Rect(pageWidth float64) Rect {
	var x float64
	switch p.Anchor {
	case AnchorLeft:
		x = p.Offset
	default:
		x = pageWidth - p.Size - p.Offset
	}
	return Rect{X: x, Y: p.Y, Size: p.Size}
}

// CaptionOrigin is the point the caption is centred on, its baseline
// sitting captionGap below the QR code.
func (r Rect) CaptionOrigin() (float64, float64) {
	return r.X + r.Size/2, r.Y - captionGap
}

// Inside reports whether r lies entirely on a w×h page.
func (r Rect) Inside(w, h float64) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Size <= w && r.Y+r.Size <= h
}

// topLeft converts a bottom-left y coordinate of a box with height h into
// the top-left y fpdf expects on a page of height pageH.
func topLeft(y, h, pageH float64) float64 {
	return pageH - y - h
}
