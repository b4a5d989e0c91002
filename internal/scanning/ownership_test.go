package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseTokens", func() {
	It("should split on commas and semicolons", func() {
		Expect(ParseTokens("04601234, 04609999;ABC")).To(Equal([]string{"04601234", "04609999", "ABC"}))
	})

	It("should drop blanks", func() {
		Expect(ParseTokens(" ; ,,x, ")).To(Equal([]string{"x"}))
	})

	It("should return nothing for an empty setting", func() {
		Expect(ParseTokens("")).To(BeEmpty())
	})
})

var _ = Describe("IsOurs", func() {
	tokens := []string{"04601234"}

	It("should match a substring", func() {
		Expect(IsOurs([]string{"foreign", payload}, tokens)).To(BeTrue())
	})

	It("should be case sensitive", func() {
		Expect(IsOurs([]string{"abcdef"}, []string{"ABC"})).To(BeFalse())
	})

	It("should ignore empty tokens", func() {
		Expect(IsOurs([]string{"anything"}, []string{""})).To(BeFalse())
	})

	It("should be false without tokens", func() {
		Expect(IsOurs([]string{payload}, nil)).To(BeFalse())
	})
})

var _ = Describe("Classify", func() {
	tokens := []string{"04601234"}

	It("should report no codes as not found", func() {
		Expect(Classify(nil, tokens)).To(Equal(NotFound))
	})

	It("should report unmatched codes as foreign", func() {
		Expect(Classify([]string{"0109999999"}, tokens)).To(Equal(Foreign))
	})

	It("should report a matching code as ours", func() {
		Expect(Classify([]string{"0109999999", payload}, tokens)).To(Equal(Ours))
	})
})
