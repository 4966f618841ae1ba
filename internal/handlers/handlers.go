package handlers

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gardar/qrstamp/internal/config"
	"github.com/gardar/qrstamp/pkg/qrstamp"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Handler holds the stamping defaults shared by the HTTP handlers.
type Handler struct {
	defaults  qrstamp.Config
	maxUpload int64
}

// New returns a Handler configured from cfg.
func New(cfg *config.File) (*Handler, error) {
	defaults, err := cfg.StampConfig()
	if err != nil {
		return nil, err
	}
	defaults.LogWarnings = false
	return &Handler{defaults: defaults, maxUpload: cfg.MaxUploadBytes()}, nil
}

// Register mounts the page and API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Index)
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/stamp", h.StampHandler)
		api.GET("/qr", h.QRCodeHandler)
	}
}

// Index serves the upload form pre-filled with the configured placement.
func (h *Handler) Index(c *gin.Context) {
	p := h.defaults.Placement
	data := map[string]interface{}{
		"Anchor":          p.Anchor.String(),
		"Offset":          p.Offset,
		"Y":               p.Y,
		"Size":            p.Size,
		"ShowCaption":     p.ShowCaption,
		"Caption":         p.Caption,
		"CaptionFontSize": p.CaptionFontSize,
		"Column":          h.defaults.Column,
		"Filename":        qrstamp.OutputFilename,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTemplate.Execute(c.Writer, data); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
