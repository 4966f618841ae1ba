package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gardar/qrstamp/pkg/qrstamp"
	"github.com/gardar/qrstamp/pkg/urlcsv"
)

// QRCodeHandler renders a preview PNG of the QR code for a single URL
func (h *Handler) QRCodeHandler(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL parameter is required"})
		return
	}

	normalizedURL, err := urlcsv.NormalizeURL(rawURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := qrstamp.RenderQR(normalizedURL, h.defaults.QR)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate QR code image: %v", err)})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600") // Cache for 1 hour
	c.Data(http.StatusOK, "image/png", data)
}
