package scanning

import (
	"image"

	"github.com/disintegration/imaging"
)

// Binarizer selects how gray levels are split into dark and light modules
type Binarizer int

const (
	// HybridBinarizer thresholds 8x8 blocks against their neighbourhood
	HybridBinarizer Binarizer = iota
	// GlobalBinarizer cuts the whole image at one histogram valley. It copes better
	// with small symbols on an even background.
	GlobalBinarizer
)

// Profile is one decoder parameter set. Zero values disable a setting.
type Profile struct {
	Name string
	// Threshold clamps pixels within this percent of black or white to pure black or white
	Threshold int
	// Sharpen is the number of sharpening passes run before decoding
	Sharpen int
	// MinEdge skips images whose short side is below this many pixels
	MinEdge int
	// MaxEdge downscales images whose long side exceeds this many pixels
	MaxEdge   int
	Binarizer Binarizer
}

// DefaultProfiles are tried in order for every variant, cheapest first
var DefaultProfiles = []Profile{
	{Name: "fast"},
	{Name: "threshold-5", Threshold: 5},
	{Name: "threshold-10", Threshold: 10},
	{Name: "sharpen-1", Sharpen: 1, Binarizer: GlobalBinarizer},
	{Name: "sharpen-2", Sharpen: 2, Binarizer: GlobalBinarizer},
	{Name: "relaxed-edges", MinEdge: 10, MaxEdge: 512, Binarizer: GlobalBinarizer},
}

// Apply prepares img for decoding under p. It returns nil when the image should be skipped.
func (p Profile) Apply(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if p.MinEdge > 0 && min(b.Dx(), b.Dy()) < p.MinEdge {
		return nil
	}

	out := img
	if p.MaxEdge > 0 && max(b.Dx(), b.Dy()) > p.MaxEdge {
		out = toGray(imaging.Fit(out, p.MaxEdge, p.MaxEdge, imaging.Lanczos))
	}

	if p.Threshold > 0 {
		cut := float64(p.Threshold) * 255 / 100
		var lut [256]uint8
		for i := range lut {
			lut[i] = clampNoise(uint8(i), cut)
		}
		out = applyLUT(out, &lut)
	}

	for i := 0; i < p.Sharpen; i++ {
		out = toGray(imaging.Sharpen(out, 1))
	}
	return out
}

func clampNoise(v uint8, cut float64) uint8 {
	switch {
	case float64(v) <= cut:
		return 0
	case float64(v) >= 255-cut:
		return 255
	}
	return v
}
