//go:build !ocr

// Package ocr recognizes text in images. This build has no OCR engine: New
// returns ErrNotEnabled. Rebuild with the "ocr" build tag to enable
// Tesseract:
//
//	go build -tags ocr ./...
package ocr

import (
	"errors"

	"github.com/xenolexia/xenolexia-go/model"
)

// ErrNotEnabled is returned when OCR support was not compiled in.
var ErrNotEnabled = errors.New("ocr: support not enabled; rebuild with -tags ocr")

// Client is a stub that fails every recognition.
type Client struct{}

// Available reports whether OCR support was compiled in.
func Available() bool { return false }

// New returns ErrNotEnabled.
func New(langs ...model.Language) (*Client, error) {
	return nil, ErrNotEnabled
}

// Close is a no-op. It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// RecognizeImage returns ErrNotEnabled.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	return "", ErrNotEnabled
}
