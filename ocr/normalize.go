package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnknownImage is returned for data no registered decoder recognizes.
var ErrUnknownImage = errors.New("ocr: unknown image format")

// Normalize returns data unchanged when it is PNG or JPEG, and otherwise
// decodes it (GIF, BMP, TIFF, WebP) and re-encodes it as PNG.
func Normalize(data []byte) ([]byte, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownImage, err)
	}
	if name == "png" || name == "jpeg" {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ocr: decode %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("ocr: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
