package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/imgsearch/internal/service"
)

// EmbedHandler serves POST /embed.
type EmbedHandler struct {
	embeddingService *service.EmbeddingService
}

// NewEmbedHandler creates a new embed handler.
func NewEmbedHandler(embeddingService *service.EmbeddingService) *EmbedHandler {
	return &EmbedHandler{embeddingService: embeddingService}
}

// Embed returns the feature vector of the uploaded image
// @Summary Compute image embedding
// @Tags embedding
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 200 {array} number
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /embed [post]
func (h *EmbedHandler) Embed(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}

	vector, err := h.embeddingService.Embed(c.Request.Context(), up.Data)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, vector)
}
