package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/imgsearch/internal/service"
)

// SearchHandler serves POST /search_image.
type SearchHandler struct {
	retrievalService *service.RetrievalService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - retrievalService: retrieval service instance.
//
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(retrievalService *service.RetrievalService) *SearchHandler {
	return &SearchHandler{retrievalService: retrievalService}
}

// SearchImage returns signed URLs of the most similar stored images
// @Summary Search similar images
// @Tags retriever
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Query image"
// @Success 200 {array} string
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /search_image [post]
func (h *SearchHandler) SearchImage(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}

	urls, err := h.retrievalService.SearchImage(c.Request.Context(), up.Data)
	if err != nil {
		// Retrieval reports every failure as a client error.
		respondError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, urls)
}
