package receipt

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Parse reads the first page of the receipt PDF in r
func Parse(r io.ReaderAt, size int64) (*Data, error) {
	raw, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("reading receipt: %w", err)
	}
	return ParseBytes(raw)
}

// ParseBytes parses a receipt PDF held in memory
func ParseBytes(raw []byte) (*Data, error) {
	page, err := readFirstPage(raw)
	if err != nil {
		return nil, err
	}
	data := Analyze(page)
	slog.Debug("Receipt parsed", "date", data.Date, "items", len(data.Items), "words", len(page.Words))
	return data, nil
}

// ParseFile parses the receipt PDF at path
func ParseFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening receipt: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading receipt size: %w", err)
	}
	return Parse(f, info.Size())
}
