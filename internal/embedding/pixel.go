package embedding

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/timmy/imgsearch/internal/imaging"
)

// PixelEncoder is a deterministic in-process encoder. It preprocesses the
// image like the ViT processor, folds the normalized pixels into Dimension
// buckets with a fixed pseudo-random sign per position, and L2-normalizes the
// result. Similar images land close under cosine distance, which is enough
// for local runs and tests; it is not a learned representation.
type PixelEncoder struct {
	dim   int
	pre   imaging.PreprocessConfig
	signs []float32
}

// NewPixelEncoder creates a PixelEncoder producing dim-length vectors.
func NewPixelEncoder(dim int, pre imaging.PreprocessConfig) (*PixelEncoder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("pixel encoder: dimension must be positive")
	}
	if pre.Size <= 0 {
		return nil, fmt.Errorf("pixel encoder: image size must be positive")
	}

	n := 3 * pre.Size * pre.Size
	signs := make([]float32, n)
	for i := range signs {
		if splitmix64(uint64(i))&1 == 0 {
			signs[i] = 1
		} else {
			signs[i] = -1
		}
	}

	return &PixelEncoder{dim: dim, pre: pre, signs: signs}, nil
}

func (e *PixelEncoder) Dimension() int { return e.dim }

func (e *PixelEncoder) Model() string { return "pixel" }

func (e *PixelEncoder) Encode(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tensor, err := imaging.Preprocess(img, e.pre)
	if err != nil {
		return nil, err
	}

	acc := make([]float64, e.dim)
	for i, v := range tensor.Data {
		acc[i%e.dim] += float64(v * e.signs[i])
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dim)
	for i, v := range acc {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out, nil
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
