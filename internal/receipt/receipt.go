// Package receipt reads the purchase date and line items from the text layer of a fiscal receipt PDF.
package receipt

import (
	"errors"
	"strings"
)

// ErrUnreadable is returned for PDFs that cannot be opened or have no pages
var ErrUnreadable = errors.New("unreadable receipt PDF")

// Item is one purchased line
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`
	RawLine  string  `json:"raw_line"`
}

// Data is everything read from a receipt
type Data struct {
	Date    string `json:"date"` // as printed, empty when none was found
	Items   []Item `json:"items"`
	RawText string `json:"raw_text"`
}

// Analyze extracts the date and items from an already laid out page
func Analyze(p *Page) *Data {
	text := p.Text()
	return &Data{
		Date:    findDate(p, text),
		Items:   parseItems(text),
		RawText: text,
	}
}

func (p *Page) Text() string {
	return strings.Join(p.Lines, "\n")
}
