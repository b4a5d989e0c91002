package scanning

import (
	"image"
	"iter"

	"github.com/disintegration/imaging"
)

// Toolkit produces the extended, binarization based variant family for one rotated image
type Toolkit interface {
	Variants(img *image.Gray) iter.Seq[Variant]
}

// NoToolkit contributes no variants
type NoToolkit struct{}

func (NoToolkit) Variants(*image.Gray) iter.Seq[Variant] {
	return func(func(Variant) bool) {}
}

// Thresholds binarizes with Otsu and local gaussian thresholds
type Thresholds struct{}

const (
	adaptiveSigma  = 5.0
	adaptiveOffset = 2
	preBlurSigma   = 0.8
)

func (Thresholds) Variants(src *image.Gray) iter.Seq[Variant] {
	return func(yield func(Variant) bool) {
		steps := []struct {
			name  string
			apply func() *image.Gray
		}{
			{"otsu", func() *image.Gray { return binarize(src, otsuLevel(src), false) }},
			{"otsu-inv", func() *image.Gray { return binarize(src, otsuLevel(src), true) }},
			{"adaptive", func() *image.Gray { return adaptiveThreshold(src, adaptiveSigma, adaptiveOffset) }},
			{"blur-otsu", func() *image.Gray {
				blurred := toGray(imaging.Blur(src, preBlurSigma))
				return binarize(blurred, otsuLevel(blurred), false)
			}},
		}
		for _, s := range steps {
			if !yield(Variant{Name: s.name, Image: s.apply()}) {
				return
			}
		}

		for _, scale := range []int{2, 3} {
			scaled, ok := upscale(src, scale)
			if !ok {
				continue
			}
			name := scaleName(scale)
			if !yield(Variant{Name: name, Image: scaled}) {
				return
			}
			if !yield(Variant{Name: name + "/otsu", Image: binarize(scaled, otsuLevel(scaled), false)}) {
				return
			}
		}
	}
}

// otsuLevel picks the level maximising between-class variance. Pixels above it are white.
func otsuLevel(img *image.Gray) uint8 {
	hist := grayHistogram(img)
	total := 0
	sum := 0.0
	for i, n := range hist {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 127
	}

	var (
		best     float64
		level    int
		weightBg int
		sumBg    float64
	)
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sum - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

func binarize(img *image.Gray, level uint8, inverted bool) *image.Gray {
	var lut [256]uint8
	for i := range lut {
		white := i > int(level)
		if white != inverted {
			lut[i] = 255
		}
	}
	return applyLUT(img, &lut)
}

// adaptiveThreshold compares every pixel with its gaussian weighted neighbourhood mean minus offset
func adaptiveThreshold(img *image.Gray, sigma float64, offset int) *image.Gray {
	local := toGray(imaging.Blur(img, sigma))
	out := applyLUT(img, identityLUT())
	for i, v := range out.Pix {
		if int(v) > int(local.Pix[i])-offset {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}
