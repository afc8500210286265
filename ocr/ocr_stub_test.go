//go:build !ocr

package ocr

import (
	"errors"
	"testing"
)

func TestNewReturnsError(t *testing.T) {
	client, err := New("es")
	if !errors.Is(err, ErrNotEnabled) {
		t.Errorf("New() err = %v, want ErrNotEnabled", err)
	}
	if client != nil {
		t.Error("expected nil client when OCR is disabled")
	}
	if Available() {
		t.Error("Available() = true in stub build")
	}
}

func TestCloseOnNilClient(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestStubRecognize(t *testing.T) {
	var c Client
	if _, err := c.RecognizeImage([]byte("x")); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("RecognizeImage err = %v", err)
	}
}
