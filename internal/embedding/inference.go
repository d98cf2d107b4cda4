package embedding

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/imgsearch/internal/imaging"
)

const (
	inferenceInputName  = "pixel_values"
	inferenceOutputName = "last_hidden_state"
)

// InferenceConfig configures an InferenceEncoder.
type InferenceConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	Dimensions int
	Timeout    time.Duration
	Preprocess imaging.PreprocessConfig
}

// InferenceEncoder runs a vision transformer hosted on a model server that
// speaks the KServe v2 REST protocol (Triton, KServe, Seldon MLServer).
// Images are preprocessed locally; the encoder returns the CLS row of
// last_hidden_state.
type InferenceEncoder struct {
	client     *resty.Client
	model      string
	dimensions int
	pre        imaging.PreprocessConfig
}

// NewInferenceEncoder creates an InferenceEncoder.
func NewInferenceEncoder(cfg *InferenceConfig) *InferenceEncoder {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &InferenceEncoder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		pre:        cfg.Preprocess,
	}
}

func (e *InferenceEncoder) Dimension() int { return e.dimensions }

func (e *InferenceEncoder) Model() string { return e.model }

// KServe v2 inference request/response structures
type inferTensor struct {
	Name     string    `json:"name"`
	Shape    []int64   `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

type inferOutputRequest struct {
	Name string `json:"name"`
}

type inferRequest struct {
	Inputs  []inferTensor        `json:"inputs"`
	Outputs []inferOutputRequest `json:"outputs,omitempty"`
}

type inferResponse struct {
	ModelName string        `json:"model_name"`
	Outputs   []inferTensor `json:"outputs"`
}

type inferError struct {
	Error string `json:"error"`
}

// Encode preprocesses img, runs the model and returns the CLS token.
func (e *InferenceEncoder) Encode(ctx context.Context, img image.Image) ([]float32, error) {
	tensor, err := imaging.Preprocess(img, e.pre)
	if err != nil {
		return nil, err
	}

	req := inferRequest{
		Inputs: []inferTensor{{
			Name:     inferenceInputName,
			Shape:    tensor.Shape,
			Datatype: "FP32",
			Data:     tensor.Data,
		}},
		Outputs: []inferOutputRequest{{Name: inferenceOutputName}},
	}

	var resp inferResponse
	var apiErr inferError
	httpResp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		ForceContentType("application/json").
		SetResult(&resp).
		SetError(&apiErr).
		Post(fmt.Sprintf("/v2/models/%s/infer", e.model))
	if err != nil {
		return nil, fmt.Errorf("failed to call inference server: %w", err)
	}
	if httpResp.StatusCode() != http.StatusOK {
		if apiErr.Error != "" {
			return nil, fmt.Errorf("inference server error: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("inference server error: status %d", httpResp.StatusCode())
	}

	return clsToken(&resp, e.dimensions)
}

// clsToken extracts last_hidden_state[0, 0, :] from a [1, T, D] output.
func clsToken(resp *inferResponse, dim int) ([]float32, error) {
	for _, out := range resp.Outputs {
		if out.Name != inferenceOutputName {
			continue
		}
		if len(out.Shape) != 3 || out.Shape[0] < 1 || out.Shape[1] < 1 {
			return nil, fmt.Errorf("unexpected %s shape %v", inferenceOutputName, out.Shape)
		}
		hidden := int(out.Shape[2])
		if hidden != dim {
			return nil, fmt.Errorf("model hidden size %d does not match configured dimension %d", hidden, dim)
		}
		if len(out.Data) < hidden {
			return nil, fmt.Errorf("%s has %d values, need at least %d", inferenceOutputName, len(out.Data), hidden)
		}
		vec := make([]float32, hidden)
		copy(vec, out.Data[:hidden])
		return vec, nil
	}
	return nil, fmt.Errorf("inference response has no %s output", inferenceOutputName)
}

// Ready reports whether the model server has the model loaded.
func (e *InferenceEncoder) Ready(ctx context.Context) error {
	httpResp, err := e.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v2/models/%s/ready", e.model))
	if err != nil {
		return fmt.Errorf("failed to reach inference server: %w", err)
	}
	if httpResp.StatusCode() != http.StatusOK {
		return fmt.Errorf("model %s not ready: status %d", e.model, httpResp.StatusCode())
	}
	return nil
}
