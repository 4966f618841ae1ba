package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gardar/qrstamp/pkg/qrstamp"
)

// StampHandler stamps an uploaded PDF with QR codes built from an uploaded
// CSV and returns the result as a download. Nothing is returned but an
// error message when stamping fails.
func (h *Handler) StampHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	pdfData, err := readFormFile(c, "pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	csvData, err := readFormFile(c, "csv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := h.defaults
	cfg.Placement, err = placementFromForm(c, h.defaults.Placement)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg.Force = isChecked(c.PostFormArray("force"))

	log.Printf("[stamp] request start: pdf=%dB csv=%dB anchor=%s offset=%.1f y=%.1f size=%.1f caption=%v",
		len(pdfData), len(csvData), cfg.Placement.Anchor, cfg.Placement.Offset, cfg.Placement.Y,
		cfg.Placement.Size, cfg.Placement.ShowCaption)

	result, err := qrstamp.Stamp(pdfData, csvData, cfg)
	if err != nil {
		log.Printf("[stamp] failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	for _, w := range result.Warnings {
		c.Writer.Header().Add("X-QRStamp-Warning", w)
	}
	c.Header("X-QRStamp-Stamped", strconv.Itoa(result.Stamped))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", qrstamp.OutputFilename))
	c.Data(http.StatusOK, "application/pdf", result.PDF)
	log.Printf("[stamp] sent %d pages, %d stamped, %d warnings", len(result.Pages), result.Stamped, len(result.Warnings))
}

// statusFor maps stamping errors onto HTTP status codes.
func statusFor(err error) int {
	var se *qrstamp.Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Kind {
	case qrstamp.KindValidation:
		return http.StatusBadRequest
	case qrstamp.KindProcessing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func readFormFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s file is required", strings.ToUpper(field))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %v", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload: %v", field, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s file is empty", strings.ToUpper(field))
	}
	return data, nil
}

// placementFromForm overlays submitted form values onto defaults.
func placementFromForm(c *gin.Context, defaults qrstamp.PlacementConfig) (qrstamp.PlacementConfig, error) {
	p := defaults

	if v, ok := c.GetPostForm("anchor"); ok {
		anchor, err := qrstamp.ParseAnchor(v)
		if err != nil {
			return p, err
		}
		p.Anchor = anchor
	}

	numbers := []struct {
		field string
		dst   *float64
	}{
		{"offset", &p.Offset},
		{"y", &p.Y},
		{"size", &p.Size},
		{"caption_font_size", &p.CaptionFontSize},
	}
	for _, n := range numbers {
		v, ok := c.GetPostForm(n.field)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return p, fmt.Errorf("%s must be a number, got %q", n.field, v)
		}
		*n.dst = f
	}

	if values := c.PostFormArray("show_caption"); len(values) > 0 {
		p.ShowCaption = isChecked(values)
	}
	if v, ok := c.GetPostForm("caption"); ok {
		p.Caption = v
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// isChecked reports whether any submitted checkbox value is truthy.
func isChecked(values []string) bool {
	for _, v := range values {
		switch strings.ToLower(v) {
		case "on", "true", "1", "yes":
			return true
		}
	}
	return false
}
