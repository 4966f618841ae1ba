// Package config loads qrstamp settings from a YAML file.
//
// Example:
//
//	listen: ":8080"
//	max_upload_mb: 32
//	column: URL
//	layer_name: QR Code
//	normalize_urls: false
//	placement:
//	  anchor: right
//	  offset: 40
//	  y: 83
//	  size: 70
//	  show_caption: true
//	  caption: Scan your custom QR code to enroll
//	  caption_font_size: 7
//	qr:
//	  error_correction: ""
//	  module_width: 0
//	  border_width: 0
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gardar/qrstamp/pkg/qrstamp"
)

// Placement mirrors qrstamp.PlacementConfig in YAML form
type Placement struct {
	Anchor          string  `yaml:"anchor"`
	Offset          float64 `yaml:"offset"`
	Y               float64 `yaml:"y"`
	Size            float64 `yaml:"size"`
	ShowCaption     bool    `yaml:"show_caption"`
	Caption         string  `yaml:"caption"`
	CaptionFontSize float64 `yaml:"caption_font_size"`
}

// QR mirrors qrstamp.QRConfig in YAML form
type QR struct {
	ErrorCorrection string `yaml:"error_correction"`
	ModuleWidth     uint8  `yaml:"module_width"`
	BorderWidth     int    `yaml:"border_width"`
}

// File is the on-disk configuration
type File struct {
	Listen        string    `yaml:"listen"`
	MaxUploadMB   int64     `yaml:"max_upload_mb"`
	Column        string    `yaml:"column"`
	LayerName     string    `yaml:"layer_name"`
	NormalizeURLs bool      `yaml:"normalize_urls"`
	Placement     Placement `yaml:"placement"`
	QR            QR        `yaml:"qr"`
}

// Default returns the settings used when no file is given
func Default() *File {
	p := qrstamp.DefaultPlacement
	d := qrstamp.DefaultConfig()
	return &File{
		Listen:      ":8080",
		MaxUploadMB: 32,
		Column:      d.Column,
		LayerName:   d.LayerName,
		Placement: Placement{
			Anchor:          p.Anchor.String(),
			Offset:          p.Offset,
			Y:               p.Y,
			Size:            p.Size,
			ShowCaption:     p.ShowCaption,
			Caption:         p.Caption,
			CaptionFontSize: p.CaptionFontSize,
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns
// the defaults. PORT in the environment overrides Listen.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the file for values the stamper would reject
func (f *File) Validate() error {
	if f.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", f.MaxUploadMB)
	}
	p, err := f.Placement.toPlacement()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid placement: %w", err)
	}
	if err := f.QR.toQRConfig().Validate(); err != nil {
		return fmt.Errorf("invalid qr settings: %w", err)
	}
	return nil
}

func (q QR) toQRConfig() qrstamp.QRConfig {
	return qrstamp.QRConfig{
		ErrorCorrection: q.ErrorCorrection,
		ModuleWidth:     q.ModuleWidth,
		BorderWidth:     q.BorderWidth,
	}
}

func (p Placement) toPlacement() (qrstamp.PlacementConfig, error) {
	anchor, err := qrstamp.ParseAnchor(p.Anchor)
	if err != nil {
		return qrstamp.PlacementConfig{}, err
	}
	return qrstamp.PlacementConfig{
		Anchor:          anchor,
		Offset:          p.Offset,
		Y:               p.Y,
		Size:            p.Size,
		ShowCaption:     p.ShowCaption,
		Caption:         p.Caption,
		CaptionFontSize: p.CaptionFontSize,
	}, nil
}

// StampConfig converts the file into a stamper configuration
func (f *File) StampConfig() (qrstamp.Config, error) {
	placement, err := f.Placement.toPlacement()
	if err != nil {
		return qrstamp.Config{}, err
	}
	c := qrstamp.DefaultConfig()
	c.Placement = placement
	c.QR = f.QR.toQRConfig()
	if f.Column != "" {
		c.Column = f.Column
	}
	if f.LayerName != "" {
		c.LayerName = f.LayerName
	}
	c.NormalizeURLs = f.NormalizeURLs
	return c, nil
}

// MaxUploadBytes is the request body limit for uploads
func (f *File) MaxUploadBytes() int64 {
	return f.MaxUploadMB << 20
}
