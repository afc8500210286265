package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/xenolexia/xenolexia-go/model"
)

func testImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.Set(x, 1, color.White)
	}
	return img
}

func TestNormalize(t *testing.T) {
	var pngBuf, bmpBuf, gifBuf bytes.Buffer
	if err := png.Encode(&pngBuf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := gif.Encode(&gifBuf, testImage(), nil); err != nil {
		t.Fatal(err)
	}

	got, err := Normalize(pngBuf.Bytes())
	if err != nil {
		t.Fatalf("Normalize(png): %v", err)
	}
	if !bytes.Equal(got, pngBuf.Bytes()) {
		t.Error("png input was re-encoded")
	}

	for name, in := range map[string][]byte{"bmp": bmpBuf.Bytes(), "gif": gifBuf.Bytes()} {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%s): %v", name, err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(got))
		if err != nil || format != "png" {
			t.Fatalf("Normalize(%s) output format = %q, err = %v", name, format, err)
		}
		if cfg.Width != 8 || cfg.Height != 4 {
			t.Errorf("Normalize(%s) size = %dx%d", name, cfg.Width, cfg.Height)
		}
	}

	if _, err := Normalize([]byte("not an image")); !errors.Is(err, ErrUnknownImage) {
		t.Errorf("Normalize(garbage) err = %v", err)
	}
}

func TestLanguages(t *testing.T) {
	tests := []struct {
		in   []model.Language
		want string
	}{
		{nil, ""},
		{[]model.Language{model.Spanish}, "spa"},
		{[]model.Language{"es-MX", model.English, model.Spanish}, "spa+eng"},
		{[]model.Language{"xx"}, ""},
		{[]model.Language{model.Chinese}, "chi_sim"},
	}
	for _, tt := range tests {
		if got := Languages(tt.in...); got != tt.want {
			t.Errorf("Languages(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
