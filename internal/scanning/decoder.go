package scanning

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
)

// DataMatrix decodes ECC 200 DataMatrix symbols
type DataMatrix struct{}

func (DataMatrix) Decode(img image.Image, p Profile) ([]string, error) {
	prepared := p.Apply(toGray(img))
	if prepared == nil {
		return nil, nil
	}

	b := prepared.Bounds()
	source, err := gozxing.NewPlanarYUVLuminanceSource(prepared.Pix, prepared.Stride, b.Dy(), 0, 0, b.Dx(), b.Dy(), false)
	if err != nil {
		return nil, fmt.Errorf("reading luminance: %w", err)
	}

	var binarizer gozxing.Binarizer
	switch p.Binarizer {
	case GlobalBinarizer:
		binarizer = gozxing.NewGlobalHistgramBinarizer(source)
	default:
		binarizer = gozxing.NewHybridBinarizer(source)
	}

	bmp, err := gozxing.NewBinaryBitmap(binarizer)
	if err != nil {
		return nil, fmt.Errorf("binarizing image: %w", err)
	}

	result, err := datamatrix.NewDataMatrixReader().Decode(bmp, nil)
	if err != nil {
		return nil, fmt.Errorf("decoding datamatrix: %w", err)
	}
	if result.GetText() == "" {
		return nil, nil
	}
	return []string{result.GetText()}, nil
}
