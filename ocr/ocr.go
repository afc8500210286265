//go:build ocr

// Package ocr recognizes text in images with the Tesseract engine through
// gosseract. It is compiled only with the "ocr" build tag and needs
// Tesseract installed. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-spa
package ocr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/xenolexia/xenolexia-go/model"
)

// Client wraps a Tesseract handle. It is safe for concurrent use; calls are
// serialized.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// Available reports whether OCR support was compiled in.
func Available() bool { return true }

// New creates a client recognizing the given book languages. With no
// languages Tesseract's default (English) is used. The client should be
// closed when no longer needed.
func New(langs ...model.Language) (*Client, error) {
	client := gosseract.NewClient()
	if codes := Languages(langs...); codes != "" {
		if err := client.SetLanguage(strings.Split(codes, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("ocr: set language %q: %w", codes, err)
		}
	}
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// RecognizeImage performs OCR on encoded image data. Formats Tesseract cannot
// read directly are converted to PNG first. The text is returned with
// leading and trailing whitespace trimmed.
func (c *Client) RecognizeImage(data []byte) (string, error) {
	img, err := Normalize(data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}
