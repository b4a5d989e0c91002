// Package assist asks a vision model for the purchase date of a receipt the text layer could not date.
package assist

import (
	"context"
	"fmt"
	"strings"
)

// Hint is what a model could read from a receipt
type Hint struct {
	Date  string  `json:"date"` // YYYY-MM-DD, empty when unknown
	Total float64 `json:"total"`
}

// Reader reads a receipt PDF with a vision model
type Reader interface {
	ReadReceipt(ctx context.Context, pdf []byte) (*Hint, error)
	// Close releases the model client
	Close() error
}

// New returns the reader for provider, or nil when provider is "none" or empty
func New(provider, model, apiKey, baseURL string) (Reader, error) {
	switch strings.ToLower(provider) {
	case "", "none":
		return nil, nil
	case "gemini":
		return NewGemini(apiKey, model)
	case "ollama":
		return NewOllama(baseURL, model)
	}
	return nil, fmt.Errorf("unknown assist provider %q", provider)
}

// receiptPrompt is shared by all providers
const receiptPrompt = `You are reading a Russian retail receipt (кассовый чек). Carefully read all text in the image and extract:

1. **Date**: the date of the purchase. It is usually printed in the top right corner or next to the fiscal data at the bottom. Convert it to ISO 8601 format (YYYY-MM-DD). Russian receipts print dates as DD.MM.YYYY or DD.MM.YY.

2. **Total**: the final amount paid, usually labelled "ИТОГ" or "К ОПЛАТЕ". Extract only the numeric value (e.g., 1299.00).

Return ONLY valid JSON in this exact format:
{
  "date": "YYYY-MM-DD",
  "total": 0.00
}

Important:
- If you cannot find a field, use null for that field
- Do not guess a date that is not printed on the receipt
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
