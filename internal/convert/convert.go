// Package convert turns uploaded photos and documents into upright images.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// ErrUnsupported is returned for bytes no registered decoder recognises.
var ErrUnsupported = errors.New("unsupported image format")

// Decode decodes a photo or the first page of a PDF.
// JPEG EXIF orientation is applied so the result is upright as the camera saw it.
func Decode(data []byte) (image.Image, error) {
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("decoding image: %w", ErrUnsupported)
	case IsPDF(data):
		return renderFirstPage(data)
	case IsHEIC(data):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("decoding image: %w", ErrUnsupported)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// ToPNG converts PDFs and non-PNG images to PNG.
// PNG input is returned as-is.
func ToPNG(data []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "image/png" && !IsHEIC(data) && !IsPDF(data) {
		return data, nil
	}

	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// IsHEIC checks for an ftyp box with a HEIC/HEIF brand at offset 4.
func IsHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// renderFirstPage renders page one of a PDF. Labels are usually single page.
func renderFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("rendering PDF page: document has no pages")
	}

	img, err := doc.ImageDPI(0, 300)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}
