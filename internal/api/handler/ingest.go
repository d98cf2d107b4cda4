package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/imgsearch/internal/service"
)

// IngestHandler serves POST /push_image.
type IngestHandler struct {
	ingestService *service.IngestService
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// PushImage stores and indexes the uploaded image
// @Summary Ingest an image
// @Tags ingesting
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPEG or PNG image"
// @Success 200 {object} service.PushResult
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /push_image [post]
func (h *IngestHandler) PushImage(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.ingestService.PushImage(c.Request.Context(), up.Filename, up.ContentType, up.Data)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, result)
}
