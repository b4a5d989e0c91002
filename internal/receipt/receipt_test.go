package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Analyze", func() {
	page := &Page{
		Width:  200,
		Height: 400,
		Words: []Word{
			{Text: "14.03.2024", X0: 120, Top: 20},
			{Text: "15.03.2024", X0: 160, Top: 20},
			{Text: "16.03.24", X0: 10, Top: 20},
			{Text: "17.03.2024", X0: 180, Top: 300},
		},
		Lines: []string{
			"ООО Ромашка 16.03.24",
			"Товар 2 х 199,00 398,00",
			"ИТОГО 398,00",
		},
	}

	It("should ignore dates outside the top right region", func() {
		Expect(Analyze(page).Date).To(Equal("15.03.2024"))
	})

	It("should accept a date exactly on the region edges", func() {
		edge := &Page{
			Width:  200,
			Height: 400,
			Words:  []Word{{Text: "15.03.2024", X0: 0.55 * 200, Top: 0.25 * 400}},
			Lines:  []string{"ООО Ромашка 16.03.24"},
		}
		Expect(Analyze(edge).Date).To(Equal("15.03.2024"))
	})

	It("should fall back to the text when the region has no date", func() {
		bare := &Page{Width: 200, Height: 400, Lines: page.Lines}
		Expect(Analyze(bare).Date).To(Equal("16.03.24"))
	})

	It("should skip total lines", func() {
		data := Analyze(page)
		Expect(data.Items).To(Equal([]Item{
			{Name: "Товар", Quantity: 2, Amount: 398, RawLine: "Товар 2 х 199,00 398,00"},
		}))
	})

	It("should join the lines into the raw text", func() {
		Expect(Analyze(page).RawText).To(Equal("ООО Ромашка 16.03.24\nТовар 2 х 199,00 398,00\nИТОГО 398,00"))
	})
})

var _ = Describe("groupWords", func() {
	line := func(text string, left, top float64) segment {
		return segment{text: text, left: left, top: top, size: 10}
	}

	It("should join lines sharing a top and order rows top down", func() {
		words, lines := groupWords([]segment{
			line("be", 200, 142),
			line("d", 100, 43),
			line("ab c", 10, 42),
		})

		Expect(lines).To(Equal([]string{"ab c d", "be"}))
		Expect(words).To(HaveLen(4))
		Expect(words[0]).To(Equal(Word{Text: "ab", X0: 10, X1: 20, Top: 42, Bottom: 52}))
		Expect(words[1].Text).To(Equal("c"))
		Expect(words[1].X0).To(Equal(25.0))
		Expect(words[2].X0).To(Equal(100.0))
	})

	It("should keep lines more than half a line apart in separate rows", func() {
		_, lines := groupWords([]segment{line("x", 10, 100), line("y", 10, 106)})
		Expect(lines).To(Equal([]string{"x", "y"}))
	})

	It("should return nothing without lines", func() {
		words, lines := groupWords(nil)
		Expect(words).To(BeEmpty())
		Expect(lines).To(BeEmpty())
	})
})

var _ = Describe("parseLayout", func() {
	It("should read the page size and positioned lines", func() {
		markup := `<div id="page0" style="width:595.3pt;height:841.9pt">
<p style="top:42.5pt;left:467.7pt;line-height:12.0pt"><span style="font-family:Helvetica,serif;font-size:12.0pt">15.03.2024</span></p>
<p style="top:127.6pt;left:28.3pt;line-height:12.0pt"><span style="font-family:GoRegular,serif;font-size:11.0pt">&#x422;&#x43e;&#x432;&#x430;&#x440; 2 x 199,00</span></p>
<p style="top:130.0pt;left:10pt;line-height:12.0pt"><span style="font-size:11.0pt">  </span></p>
</div>`

		width, height, segments := parseLayout(markup)
		Expect(width).To(Equal(595.3))
		Expect(height).To(Equal(841.9))
		Expect(segments).To(Equal([]segment{
			{text: "15.03.2024", left: 467.7, top: 42.5, size: 12},
			{text: "Товар 2 x 199,00", left: 28.3, top: 127.6, size: 11},
		}))
	})

	It("should return nothing for empty markup", func() {
		width, height, segments := parseLayout("")
		Expect(width).To(BeZero())
		Expect(height).To(BeZero())
		Expect(segments).To(BeEmpty())
	})
})
