package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/imgsearch/internal/api/middleware"
	"github.com/timmy/imgsearch/internal/domain"
)

// FileField is the multipart field every upload endpoint reads.
const FileField = "file"

// MsgFileRequired is returned with 422 when the upload has no file part.
const MsgFileRequired = "Field required: file"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// upload is one multipart file read into memory.
type upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// readUpload reads the file field. It writes the 422 response itself and
// returns false when the field is missing or unreadable.
func readUpload(c *gin.Context) (*upload, bool) {
	header, err := c.FormFile(FileField)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: MsgFileRequired})
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: MsgFileRequired})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: fmt.Sprintf("Failed to read file: %v", err)})
		return nil, false
	}

	return &upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// respondError maps a pipeline error kind to a status code.
// dependencyStatus is the code used for ErrDependencyFailure, which differs
// per endpoint.
func respondError(c *gin.Context, err error, dependencyStatus int) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDependencyFailure):
		status = dependencyStatus
	}

	log := middleware.GetLogger(c).WithError(err).WithField("http_status", status)
	if status >= http.StatusInternalServerError || errors.Is(err, domain.ErrDependencyFailure) {
		log.Error("Request failed")
	} else {
		log.Info("Request rejected")
	}

	c.JSON(status, ErrorResponse{Detail: domain.PublicMessage(err, "Internal server error")})
}
