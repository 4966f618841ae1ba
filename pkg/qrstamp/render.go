package qrstamp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// Renderer turns a payload into a raster image file.
type Renderer interface {
	RenderPNG(payload, path string) error
}

// QRCodeRenderer renders QR codes with go-qrcode.
type QRCodeRenderer struct {
	Config QRConfig
}

// RenderPNG encodes payload and writes the QR image as PNG to path.
func (r QRCodeRenderer) RenderPNG(payload, path string) error {
	if payload == "" {
		return fmt.Errorf("empty payload")
	}

	var encOpts []qrcode.EncodeOption
	if r.Config.ErrorCorrection != "" {
		opt, err := errorCorrectionOption(r.Config.ErrorCorrection)
		if err != nil {
			return err
		}
		encOpts = append(encOpts, opt)
	}

	qrc, err := qrcode.NewWith(payload, encOpts...)
	if err != nil {
		return fmt.Errorf("failed to create QR code: %w", err)
	}

	imgOpts := []standard.ImageOption{
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	}
	if r.Config.ModuleWidth > 0 {
		imgOpts = append(imgOpts, standard.WithQRWidth(r.Config.ModuleWidth))
	}
	if r.Config.BorderWidth > 0 {
		imgOpts = append(imgOpts, standard.WithBorderWidth(r.Config.BorderWidth))
	}

	w, err := standard.New(path, imgOpts...)
	if err != nil {
		return fmt.Errorf("failed to create QR writer: %w", err)
	}

	// Save closes the writer
	if err := qrc.Save(w); err != nil {
		return fmt.Errorf("failed to generate QR code image: %w", err)
	}
	return nil
}

// Validate reports settings the QR encoder would reject.
func (c QRConfig) Validate() error {
	if c.ErrorCorrection != "" {
		if _, err := errorCorrectionOption(c.ErrorCorrection); err != nil {
			return err
		}
	}
	if c.BorderWidth < 0 {
		return fmt.Errorf("border width must not be negative, got %d", c.BorderWidth)
	}
	return nil
}

func errorCorrectionOption(s string) (qrcode.EncodeOption, error) {
	switch strings.ToUpper(s) {
	case "L":
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow), nil
	case "M":
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium), nil
	case "Q":
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart), nil
	case "H":
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest), nil
	default:
		return nil, fmt.Errorf("unknown error correction level %q (want L, M, Q or H)", s)
	}
}

// RenderQR returns the PNG bytes of a single QR code. The intermediate
// file lives in a scratch directory that is removed before returning.
func RenderQR(payload string, cfg QRConfig) ([]byte, error) {
	return renderQRWith(QRCodeRenderer{Config: cfg}, payload, "")
}

func renderQRWith(r Renderer, payload, parent string) ([]byte, error) {
	dir, err := os.MkdirTemp(parent, "qrstamp-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "qr.png")
	if err := r.RenderPNG(payload, path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("generated QR image is empty")
	}
	return data, nil
}
