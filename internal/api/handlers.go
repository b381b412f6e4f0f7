// Package api exposes the stateless HTTP surface: upload-and-extract,
// generate-from-transcript, and the history listing. Each call is
// self-contained; no session continuity exists between calls.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meetscribe/internal/extract"
	"meetscribe/internal/generate"
	"meetscribe/internal/history"
)

// Handler wires HTTP routes to the extraction, generation, and history
// components. generator may be nil when no credential is configured; the
// generate endpoint then reports a configuration error.
type Handler struct {
	store     *history.Store
	generator *generate.Client
	logger    *slog.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(store *history.Store, generator *generate.Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, generator: generator, logger: logger}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine, allowedOrigins []string) {
	router.Use(CORSMiddleware(allowedOrigins), MetricsMiddleware())
	router.GET("/", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/history", h.getHistory)
	router.POST("/upload", h.uploadFile)
	router.POST("/generate", h.generateContent)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getHistory(c *gin.Context) {
	records, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) uploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open upload failed"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read upload failed"})
		return
	}

	transcript, err := extract.Text(data, file.Filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transcript": transcript,
		"filename":   file.Filename,
	})
}

type generateRequest struct {
	Transcript string `json:"transcript"`
	Filename   string `json:"filename"`
}

func (h *Handler) generateContent(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Filename == "" {
		req.Filename = "Unknown File"
	}

	// A missing credential is a hard configuration error on this surface,
	// unlike the interactive UI which degrades to the demo fallback.
	if h.generator == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API key not found. Please set GEMINI_API_KEY in .env file."})
		return
	}

	result := h.generator.Generate(c.Request.Context(), req.Transcript)

	// Persistence is best-effort: a save failure is logged and never blocks
	// returning the generation result.
	if _, err := h.store.Append(c.Request.Context(), req.Filename, req.Transcript, result.Summary, result.Emails); err != nil {
		h.logger.Error("persist meeting record failed",
			slog.String("filename", req.Filename),
			slog.String("error", err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": result.Summary,
		"emails":  result.Emails,
	})
}
