package imaging

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// PreprocessConfig mirrors a ViT image processor: resize to Size x Size,
// rescale to [0,1], then normalize each RGB channel with Mean and Std.
type PreprocessConfig struct {
	Size int
	Mean [3]float32
	Std  [3]float32
}

// Tensor is a CHW float32 image tensor with a batch dimension of one.
type Tensor struct {
	Shape []int64 // [1, 3, H, W]
	Data  []float32
}

// Preprocess converts img into a normalized [1,3,Size,Size] tensor.
func Preprocess(img image.Image, cfg PreprocessConfig) (*Tensor, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("preprocess: size must be positive")
	}
	for c := 0; c < 3; c++ {
		if cfg.Std[c] == 0 {
			return nil, fmt.Errorf("preprocess: std[%d] is zero", c)
		}
	}

	rgb := ToRGB(img)
	resized := image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size))
	draw.BiLinear.Scale(resized, resized.Bounds(), rgb, rgb.Bounds(), draw.Src, nil)

	plane := cfg.Size * cfg.Size
	data := make([]float32, 3*plane)
	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			off := resized.PixOffset(x, y)
			idx := y*cfg.Size + x
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[off+c]) / 255
				data[c*plane+idx] = (v - cfg.Mean[c]) / cfg.Std[c]
			}
		}
	}

	return &Tensor{
		Shape: []int64{1, 3, int64(cfg.Size), int64(cfg.Size)},
		Data:  data,
	}, nil
}

// ToRGB flattens img onto an opaque white background.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
