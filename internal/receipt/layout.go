package receipt

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/net/html"
)

const (
	// lines whose tops differ by less than this fraction of the font size share a row
	rowTolerance = 0.5
	// average glyph advance as a fraction of the font size, used to place words inside a line
	glyphAdvance = 0.5
)

// Word is a whitespace separated token with its box in top-left origin page coordinates
type Word struct {
	Text   string
	X0, X1 float64
	Top    float64
	Bottom float64
}

// Page is the text layout of one PDF page
type Page struct {
	Width, Height float64
	Words         []Word
	Lines         []string
}

// segment is one positioned text line as laid out by MuPDF
type segment struct {
	text      string
	left, top float64
	size      float64
}

// readFirstPage opens the PDF and lays out its first page
func readFirstPage(data []byte) (page *Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			page, err = nil, fmt.Errorf("opening PDF: %v: %w", rec, ErrUnreadable)
		}
	}()

	head := data[:min(len(data), 1024)]
	if !bytes.Contains(head, []byte("%PDF-")) {
		return nil, fmt.Errorf("opening PDF: no PDF header: %w", ErrUnreadable)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %v: %w", err, ErrUnreadable)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("opening PDF: no pages: %w", ErrUnreadable)
	}

	markup, err := doc.HTML(0, false)
	if errors.Is(err, fitz.ErrPageMissing) || errors.Is(err, fitz.ErrLoadPage) {
		return nil, fmt.Errorf("opening PDF: %v: %w", err, ErrUnreadable)
	}
	if err != nil {
		slog.Warn("Reading page content failed", "error", err)
		markup = ""
	}

	width, height, segments := parseLayout(markup)
	if width <= 0 || height <= 0 {
		width, height = 595.28, 841.89
		if bounds, err := doc.Bound(0); err == nil && !bounds.Empty() {
			width, height = float64(bounds.Dx()), float64(bounds.Dy())
		}
	}

	words, lines := groupWords(segments)
	return &Page{
		Width:  width,
		Height: height,
		Words:  words,
		Lines:  lines,
	}, nil
}

// parseLayout reads the page size and the positioned lines from MuPDF's HTML rendering
// of a structured text page
func parseLayout(markup string) (width, height float64, segments []segment) {
	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		current *segment
		text    strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return width, height, segments

		case html.StartTagToken:
			tok := z.Token()
			style := attr(tok, "style")
			switch tok.Data {
			case "div":
				if width == 0 {
					width, height = styleValue(style, "width"), styleValue(style, "height")
				}
			case "p":
				current = &segment{
					left: styleValue(style, "left"),
					top:  styleValue(style, "top"),
					size: styleValue(style, "line-height"),
				}
				text.Reset()
			case "span":
				if size := styleValue(style, "font-size"); current != nil && size > 0 {
					current.size = size
				}
			}

		case html.TextToken:
			if current != nil {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "p" && current != nil {
				current.text = strings.TrimSpace(text.String())
				if current.text != "" {
					segments = append(segments, *current)
				}
				current = nil
			}
		}
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// styleValue returns a point valued property from an inline style, or 0
func styleValue(style, key string) float64 {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(name) != key {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "pt"), 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}

// groupWords arranges lines into rows by their tops and splits them into words.
// Words after the first in a line are placed by an average glyph advance.
func groupWords(segments []segment) ([]Word, []string) {
	segments = slices.Clone(segments)
	slices.SortStableFunc(segments, func(a, b segment) int {
		return cmp.Compare(a.top, b.top)
	})

	var rows [][]segment
	for _, s := range segments {
		if n := len(rows); n > 0 {
			base := rows[n-1][0]
			if math.Abs(base.top-s.top) <= rowTolerance*max(base.size, s.size, 1) {
				rows[n-1] = append(rows[n-1], s)
				continue
			}
		}
		rows = append(rows, []segment{s})
	}

	var (
		words []Word
		lines []string
	)
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b segment) int {
			return cmp.Compare(a.left, b.left)
		})

		var rowWords []string
		for _, s := range row {
			advance := glyphAdvance * max(s.size, 1)
			offset := 0
			rest := s.text
			for _, field := range strings.Fields(s.text) {
				i := strings.Index(rest, field)
				offset += utf8.RuneCountInString(rest[:i])
				n := utf8.RuneCountInString(field)
				x0 := s.left + float64(offset)*advance
				words = append(words, Word{
					Text:   field,
					X0:     x0,
					X1:     x0 + float64(n)*advance,
					Top:    s.top,
					Bottom: s.top + max(s.size, 1),
				})
				rowWords = append(rowWords, field)
				offset += n
				rest = rest[i+len(field):]
			}
		}
		if len(rowWords) > 0 {
			lines = append(lines, strings.Join(rowWords, " "))
		}
	}
	return words, lines
}
