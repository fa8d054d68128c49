package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-service/internal/config"
	"plate-service/internal/http/middleware"
	"plate-service/internal/plate"
	"plate-service/internal/service"
	"plate-service/internal/storage"
)

// ObjectStore fetches photos by key when callers do not upload them inline.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

type Handler struct {
	recognition *service.RecognitionService
	config      *config.Config
	log         zerolog.Logger
	objects     ObjectStore
}

func NewHandler(
	recognition *service.RecognitionService,
	cfg *config.Config,
	log zerolog.Logger,
	objects ObjectStore,
) *Handler {
	return &Handler{
		recognition: recognition,
		config:      cfg,
		log:         log,
		objects:     objects,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	public := r.Group("/api/v1")
	{
		public.GET("/regions", h.listRegions)
		public.GET("/regions/:code", h.getRegion)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware, middleware.RequireRecognize())
	{
		protected.POST("/recognize", h.recognize)
		protected.POST("/plates/parse", h.parsePlate)
	}
}

func (h *Handler) recognize(c *gin.Context) {
	maxBytes := h.config.HTTP.UploadMaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	if err := c.Request.ParseMultipartForm(maxBytes); err != nil {
		h.log.Warn().Err(err).Msg("failed to parse multipart request")
		c.JSON(http.StatusBadRequest, errorResponse("invalid multipart payload"))
		return
	}

	photo, source, err := h.readPhoto(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Str("source", source).
		Int("size", len(photo)).
		Str("remote_addr", c.ClientIP()).
		Msg("processing recognition request")

	result, err := h.recognition.Recognize(c.Request.Context(), photo)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) readPhoto(c *gin.Context) ([]byte, string, error) {
	if fh, err := c.FormFile("image"); err == nil {
		data, err := readFormFile(fh, h.config.HTTP.UploadMaxBytes)
		return data, "upload", err
	}

	key := strings.TrimSpace(c.Request.FormValue("object_key"))
	if key == "" {
		return nil, "", fmt.Errorf("%w: image file or object_key is required", service.ErrInvalidInput)
	}
	if h.objects == nil {
		return nil, "", storage.ErrNotConfigured
	}
	data, err := h.objects.Download(c.Request.Context(), key)
	return data, "object", err
}

func readFormFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("%w: image is too large", service.ErrInvalidInput)
	}
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxBytes))
}

type parseRequest struct {
	Text      *string          `json:"text"`
	Fragments []plate.Fragment `json:"fragments"`
}

func (h *Handler) parsePlate(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	var result service.PlateText
	switch {
	case req.Text != nil && req.Fragments != nil:
		c.JSON(http.StatusBadRequest, errorResponse("send either text or fragments, not both"))
		return
	case req.Text != nil:
		result = h.recognition.ParseText(*req.Text)
	case req.Fragments != nil:
		result = h.recognition.ParseFragments(req.Fragments)
	default:
		c.JSON(http.StatusBadRequest, errorResponse("text or fragments is required"))
		return
	}

	h.log.Debug().
		Str("raw_text", result.RawText).
		Str("plate", result.NormalizedPlate).
		Str("outcome", string(result.Outcome)).
		Msg("parsed plate text")

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) listRegions(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.recognition.Regions()))
}

func (h *Handler) getRegion(c *gin.Context) {
	lookup, err := h.recognition.LookupRegion(c.Param("code"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(lookup))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.As(err, &maxBytesErr), errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("image is too large"))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDetectionUnavailable), errors.Is(err, storage.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
