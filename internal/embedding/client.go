package embedding

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/imgsearch/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// ClientConfig configures a Client.
type ClientConfig struct {
	URL     string // full URL of the POST /embed endpoint
	Timeout time.Duration
}

// Client calls the embedding service's POST /embed endpoint.
type Client struct {
	client *resty.Client
	url    string
}

// NewClient creates a Client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Client{client: client, url: cfg.URL}
}

type detailResponse struct {
	Detail interface{} `json:"detail"`
}

// Vectorize uploads data as multipart field "file" and returns the vector.
func (c *Client) Vectorize(ctx context.Context, data []byte) ([]float32, error) {
	var vector []float32
	var apiErr detailResponse
	req := c.client.R().SetContext(ctx)
	if id := logger.GetRequestID(ctx); id != "" {
		req.SetHeader(requestIDHeader, id)
	}
	httpResp, err := req.
		SetMultipartField("file", "image.jpg", "image/jpeg", bytes.NewReader(data)).
		ForceContentType("application/json").
		SetResult(&vector).
		SetError(&apiErr).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	if httpResp.StatusCode() != http.StatusOK {
		if apiErr.Detail != nil {
			return nil, fmt.Errorf("embedding service error: status %d: %v", httpResp.StatusCode(), apiErr.Detail)
		}
		return nil, fmt.Errorf("embedding service error: status %d", httpResp.StatusCode())
	}
	return vector, nil
}
