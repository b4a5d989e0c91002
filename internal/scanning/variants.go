package scanning

import (
	"image"
	"image/color"
	"image/draw"
	"iter"
	"strconv"

	"github.com/disintegration/imaging"
)

const (
	// photos are scaled down to this long side before the sweep
	maxWorkingEdge = 2048
	// upscaled variants whose long side would exceed this are skipped
	maxUpscaledEdge = 2048
)

type rotation struct {
	name  string
	apply func(*image.Gray) *image.Gray
}

// Rotations are counter-clockwise with the canvas expanded. The symbol's own finder
// pattern is not trusted to recover orientation on poor photos.
var rotations = []rotation{
	{"rot0", func(img *image.Gray) *image.Gray { return img }},
	{"rot90", func(img *image.Gray) *image.Gray { return toGray(imaging.Rotate90(img)) }},
	{"rot180", func(img *image.Gray) *image.Gray { return toGray(imaging.Rotate180(img)) }},
	{"rot270", func(img *image.Gray) *image.Gray { return toGray(imaging.Rotate270(img)) }},
}

// Variants lazily yields every variant of img in sweep order: the basic family for each
// rotation, then the toolkit family for each rotation.
func (e *Engine) Variants(img image.Image) iter.Seq[Variant] {
	return func(yield func(Variant) bool) {
		base := normalize(img)

		rotated := make([]*image.Gray, len(rotations))
		rotate := func(i int) *image.Gray {
			if rotated[i] == nil {
				rotated[i] = rotations[i].apply(base)
			}
			return rotated[i]
		}

		families := []func(*image.Gray) iter.Seq[Variant]{basicVariants, e.toolkit.Variants}
		for _, family := range families {
			for i, rot := range rotations {
				for v := range family(rotate(i)) {
					v.Name = rot.name + "/" + v.Name
					if !yield(v) {
						return
					}
				}
			}
		}
	}
}

// normalize flattens transparency onto white, caps the resolution and converts to 8-bit grayscale
func normalize(img image.Image) *image.Gray {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(bg, img, image.Point{}, 1.0)
	if max(b.Dx(), b.Dy()) > maxWorkingEdge {
		flat = imaging.Fit(flat, maxWorkingEdge, maxWorkingEdge, imaging.Lanczos)
	}
	return toGray(flat)
}

// toGray returns img as a compact *image.Gray with a zero origin
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		if b.Min == (image.Point{}) && src.Stride == b.Dx() {
			return src
		}
	case *image.NRGBA:
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < b.Dx(); x++ {
				r, g, bl := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
				dst[x] = uint8((299*r + 587*g + 114*bl + 500) / 1000)
			}
		}
		return out
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// basicVariants is the photometric family every deployment has
func basicVariants(src *image.Gray) iter.Seq[Variant] {
	return func(yield func(Variant) bool) {
		steps := []struct {
			name  string
			apply func() *image.Gray
		}{
			{"raw", func() *image.Gray { return src }},
			{"autocontrast", func() *image.Gray { return autocontrast(src) }},
			{"equalize", func() *image.Gray { return equalize(src) }},
			{"invert", func() *image.Gray { return invert(src) }},
			{"sharpen", func() *image.Gray { return toGray(imaging.Sharpen(src, 1)) }},
			{"unsharp", func() *image.Gray { return unsharpMask(src, 2, 150, 3) }},
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
			if !yield(Variant{Name: name + "/autocontrast", Image: autocontrast(scaled)}) {
				return
			}
		}
	}
}

func scaleName(scale int) string {
	return "x" + strconv.Itoa(scale)
}

// upscale resizes img by scale with bicubic filtering. It reports false when the
// result would be larger than maxUpscaledEdge.
func upscale(img *image.Gray, scale int) (*image.Gray, bool) {
	b := img.Bounds()
	if max(b.Dx(), b.Dy())*scale > maxUpscaledEdge {
		return nil, false
	}
	return toGray(imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.CatmullRom)), true
}

func grayHistogram(img *image.Gray) [256]int {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for _, v := range img.Pix[i : i+b.Dx()] {
			hist[v]++
		}
	}
	return hist
}

func applyLUT(img *image.Gray, lut *[256]uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = lut[src[x]]
		}
	}
	return out
}

func identityLUT() *[256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(i)
	}
	return &lut
}

func invert(img *image.Gray) *image.Gray {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(255 - i)
	}
	return applyLUT(img, &lut)
}

// autocontrast stretches the darkest present level to 0 and the brightest to 255
func autocontrast(img *image.Gray) *image.Gray {
	hist := grayHistogram(img)
	lo, hi := 0, 255
	for lo < 255 && hist[lo] == 0 {
		lo++
	}
	for hi > 0 && hist[hi] == 0 {
		hi--
	}
	if hi <= lo {
		return applyLUT(img, identityLUT())
	}

	var lut [256]uint8
	scale := 255.0 / float64(hi-lo)
	for i := range lut {
		v := (float64(i-lo) * scale) + 0.5
		lut[i] = clamp(v)
	}
	return applyLUT(img, &lut)
}

// equalize flattens the histogram the way PIL's ImageOps.equalize does
func equalize(img *image.Gray) *image.Gray {
	hist := grayHistogram(img)
	last := 255
	for last > 0 && hist[last] == 0 {
		last--
	}
	total := 0
	for _, n := range hist {
		total += n
	}
	step := (total - hist[last]) / 255
	if step == 0 {
		return applyLUT(img, identityLUT())
	}

	var lut [256]uint8
	n := step / 2
	for i := range lut {
		lut[i] = uint8(min(n/step, 255))
		n += hist[i]
	}
	return applyLUT(img, &lut)
}

// unsharpMask adds percent% of the difference from a gaussian blur wherever that
// difference reaches threshold
func unsharpMask(img *image.Gray, radius float64, percent, threshold int) *image.Gray {
	blurred := toGray(imaging.Blur(img, radius))
	out := applyLUT(img, identityLUT())
	for i, v := range out.Pix {
		orig := int(v)
		diff := orig - int(blurred.Pix[i])
		if diff >= threshold || -diff >= threshold {
			out.Pix[i] = clamp(float64(orig + diff*percent/100))
		}
	}
	return out
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
