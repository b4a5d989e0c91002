package assist

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-pdf/fpdf"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

func receiptPDF() []byte {
	doc := fpdf.New("P", "mm", "A6", "")
	doc.SetFont("Helvetica", "", 10)
	doc.AddPage()
	doc.Text(10, 20, "Receipt")
	var buf bytes.Buffer
	Expect(doc.Output(&buf)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		reader *Ollama
		hint   *Hint
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		reader, err = NewOllama(server.URL(), "llava")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		hint, err = reader.ReadReceipt(context.Background(), receiptPDF())
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: `{"date": "2024-03-15", "total": 398}`},
					Done:    true,
				}),
			))
		})

		It("should return the hint", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(hint.Date).To(Equal("2024-03-15"))
			Expect(hint.Total).To(Equal(398.0))
		})

		It("should send the rendered page", func() {
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return the status and body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})
})
