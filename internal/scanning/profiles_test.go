package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Profile", func() {
	It("should list the profiles cheapest first", func() {
		var names []string
		for _, p := range DefaultProfiles {
			names = append(names, p.Name)
		}
		Expect(names).To(Equal([]string{"fast", "threshold-5", "threshold-10", "sharpen-1", "sharpen-2", "relaxed-edges"}))
	})

	It("should use the global binarizer where sharpening and edge limits apply", func() {
		binarizers := map[string]Binarizer{}
		for _, p := range DefaultProfiles {
			binarizers[p.Name] = p.Binarizer
		}
		Expect(binarizers["fast"]).To(Equal(HybridBinarizer))
		Expect(binarizers["threshold-10"]).To(Equal(HybridBinarizer))
		Expect(binarizers["sharpen-1"]).To(Equal(GlobalBinarizer))
		Expect(binarizers["relaxed-edges"]).To(Equal(GlobalBinarizer))
	})

	It("should pass images through the fast profile untouched", func() {
		img := flatImage(8, 8, 100)
		Expect(Profile{Name: "fast"}.Apply(img)).To(BeIdenticalTo(img))
	})

	It("should skip images below the minimum edge", func() {
		Expect(Profile{MinEdge: 10}.Apply(flatImage(9, 40, 100))).To(BeNil())
	})

	It("should downscale the long side to the maximum edge", func() {
		out := Profile{MaxEdge: 512}.Apply(flatImage(1024, 256, 100))
		Expect(out.Bounds().Dx()).To(Equal(512))
		Expect(out.Bounds().Dy()).To(Equal(128))
	})

	It("should clamp near-black and near-white pixels", func() {
		dark := Profile{Threshold: 10}.Apply(flatImage(2, 2, 20))
		light := Profile{Threshold: 10}.Apply(flatImage(2, 2, 240))
		mid := Profile{Threshold: 10}.Apply(flatImage(2, 2, 128))
		Expect(grayHistogram(dark)[0]).To(Equal(4))
		Expect(grayHistogram(light)[255]).To(Equal(4))
		Expect(grayHistogram(mid)[128]).To(Equal(4))
	})
})
