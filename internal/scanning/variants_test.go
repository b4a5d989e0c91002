package scanning

import (
	"image"
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func variantNames(e *Engine, img image.Image) []string {
	var names []string
	for v := range e.Variants(img) {
		names = append(names, v.Name)
	}
	return names
}

func bimodal(w, h int, dark, light uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			level := light
			if x < w/2 {
				level = dark
			}
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

var _ = Describe("Variants", func() {
	img := bimodal(12, 8, 40, 200)

	When("no toolkit is available", func() {
		var names []string

		BeforeEach(func() {
			names = variantNames(NewEngine(WithToolkit(NoToolkit{})), img)
		})

		It("should yield the basic family for each rotation", func() {
			Expect(names).To(HaveLen(40))
		})

		It("should keep the basic order within a rotation", func() {
			Expect(names[:10]).To(Equal([]string{
				"rot0/raw", "rot0/autocontrast", "rot0/equalize", "rot0/invert", "rot0/sharpen",
				"rot0/unsharp", "rot0/x2", "rot0/x2/autocontrast", "rot0/x3", "rot0/x3/autocontrast",
			}))
		})

		It("should walk the rotations in order", func() {
			Expect(names[10]).To(Equal("rot90/raw"))
			Expect(names[20]).To(Equal("rot180/raw"))
			Expect(names[39]).To(Equal("rot270/x3/autocontrast"))
		})
	})

	When("the threshold toolkit is available", func() {
		var names []string

		BeforeEach(func() {
			names = variantNames(NewEngine(WithToolkit(Thresholds{})), img)
		})

		It("should append the toolkit family after every basic variant", func() {
			Expect(names).To(HaveLen(72))
			Expect(names[39]).To(Equal("rot270/x3/autocontrast"))
			Expect(names[40:48]).To(Equal([]string{
				"rot0/otsu", "rot0/otsu-inv", "rot0/adaptive", "rot0/blur-otsu",
				"rot0/x2", "rot0/x2/otsu", "rot0/x3", "rot0/x3/otsu",
			}))
			Expect(names[71]).To(Equal("rot270/x3/otsu"))
		})
	})

	It("should expand the canvas when rotating", func() {
		for v := range NewEngine().Variants(img) {
			if v.Name == "rot90/raw" {
				Expect(v.Image.Bounds().Dx()).To(Equal(8))
				Expect(v.Image.Bounds().Dy()).To(Equal(12))
				return
			}
		}
		Fail("rot90/raw was not generated")
	})

	It("should scale the upscaled variants", func() {
		for v := range NewEngine().Variants(img) {
			if v.Name == "rot0/x3" {
				Expect(v.Image.Bounds().Dx()).To(Equal(36))
				return
			}
		}
		Fail("rot0/x3 was not generated")
	})

	When("the photo is large", func() {
		var variants []Variant

		BeforeEach(func() {
			variants = nil
			for v := range NewEngine(WithToolkit(NoToolkit{})).Variants(flatImage(3000, 1000, 128)) {
				variants = append(variants, v)
			}
		})

		It("should work on a capped resolution", func() {
			Expect(variants[0].Name).To(Equal("rot0/raw"))
			Expect(variants[0].Image.Bounds().Dx()).To(Equal(maxWorkingEdge))
		})

		It("should skip upscales beyond the cap", func() {
			Expect(variants).To(HaveLen(24))
			for _, v := range variants {
				Expect(v.Name).NotTo(ContainSubstring("/x"))
			}
		})

		It("should hand out single byte grayscale images", func() {
			for _, v := range variants {
				Expect(v.Image).To(BeAssignableToTypeOf(&image.Gray{}))
			}
		})
	})

	It("should stop generating when the consumer stops", func() {
		count := 0
		for range NewEngine().Variants(img) {
			count++
			if count == 3 {
				break
			}
		}
		Expect(count).To(Equal(3))
	})
})

var _ = Describe("photometric transforms", func() {
	It("should stretch autocontrast to the full range", func() {
		out := autocontrast(normalize(bimodal(4, 2, 100, 150)))
		hist := grayHistogram(out)
		Expect(hist[0]).To(Equal(4))
		Expect(hist[255]).To(Equal(4))
	})

	It("should leave a flat image unchanged under autocontrast", func() {
		out := autocontrast(normalize(flatImage(4, 4, 77)))
		Expect(grayHistogram(out)[77]).To(Equal(16))
	})

	It("should spread an equalized two level image", func() {
		out := equalize(normalize(bimodal(100, 10, 100, 150)))
		hist := grayHistogram(out)
		Expect(hist[100]).To(BeZero())
		Expect(hist[0]).To(Equal(500))
		Expect(hist[255]).To(Equal(500))
	})

	It("should flatten transparency onto white", func() {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		out := normalize(img)
		Expect(grayHistogram(out)[255]).To(Equal(4))
	})
})

var _ = Describe("thresholds", func() {
	It("should place the Otsu level between the two modes", func() {
		level := otsuLevel(normalize(bimodal(10, 10, 30, 220)))
		Expect(level).To(BeNumerically(">=", 30))
		Expect(level).To(BeNumerically("<", 220))
	})

	It("should binarize and invert", func() {
		src := normalize(bimodal(10, 10, 30, 220))
		level := otsuLevel(src)
		Expect(grayHistogram(binarize(src, level, false))[255]).To(Equal(50))
		Expect(grayHistogram(binarize(src, level, true))[255]).To(Equal(50))
		Expect(binarize(src, level, true).Pix[0]).To(Equal(uint8(255)))
	})

	It("should only produce black and white adaptively", func() {
		hist := grayHistogram(adaptiveThreshold(normalize(bimodal(20, 20, 60, 180)), adaptiveSigma, adaptiveOffset))
		Expect(hist[0] + hist[255]).To(Equal(400))
	})
})
