// Package format identifies e-book container formats and defines the error
// every format adapter reports when a book cannot be opened.
package format

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported book container format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// EPUB indicates an EPUB 2 or 3 package.
	EPUB
	// FB2 indicates a FictionBook 2 XML document.
	FB2
	// MOBI indicates a Mobipocket / PalmDOC book.
	MOBI
	// PDF indicates a PDF document.
	PDF
	// TXT indicates a plain text file.
	TXT
)

// All lists the supported formats in detection order.
var All = []Format{EPUB, FB2, MOBI, PDF, TXT}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case EPUB:
		return "EPUB"
	case FB2:
		return "FB2"
	case MOBI:
		return "MOBI"
	case PDF:
		return "PDF"
	case TXT:
		return "TXT"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case EPUB:
		return ".epub"
	case FB2:
		return ".fb2"
	case MOBI:
		return ".mobi"
	case PDF:
		return ".pdf"
	case TXT:
		return ".txt"
	default:
		return ""
	}
}

// Parse returns the format named by s ("epub", "PDF", ".fb2"...).
func Parse(s string) Format {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	return Detect("x." + s)
}

// Detect determines the format from the filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".epub":
		return EPUB
	case ".fb2":
		return FB2
	case ".mobi", ".prc", ".azw":
		return MOBI
	case ".pdf":
		return PDF
	case ".txt", ".text":
		return TXT
	default:
		return Unknown
	}
}

// ErrBrokenArchive is returned by DetectFromReader when the content starts
// with a ZIP signature but the archive cannot be opened.
var ErrBrokenArchive = errors.New("format: unreadable ZIP archive")

// mobiMagicOffset is where a PalmDB header stores type and creator.
const mobiMagicOffset = 60

var (
	pdfMagic  = []byte("%PDF")
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	mobiMagic = []byte("BOOKMOBI")
	textMagic = []byte("TEXtREAd")
	fb2Magic  = []byte("<FictionBook")
)

// DetectFromMagic checks file magic bytes to determine the format.
// ZIP archives return Unknown here; use DetectFromReader to look inside.
// Plain text has no signature and is never reported.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return PDF
	}

	if len(data) >= mobiMagicOffset+8 {
		sig := data[mobiMagicOffset : mobiMagicOffset+8]
		if bytes.Equal(sig, mobiMagic) || bytes.Equal(sig, textMagic) {
			return MOBI
		}
	}

	if detectFB2Magic(data) {
		return FB2
	}

	return Unknown
}

// detectFB2Magic looks for the FictionBook root element near the start of
// the document, after an optional BOM and XML declaration.
func detectFB2Magic(data []byte) bool {
	head := data[:min(len(data), 1024)]
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeft(head, " \t\r\n")
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(head, fb2Magic)
}

// DetectFromReader inspects the content to determine the format.
// It recognizes EPUB by the mimetype entry of a ZIP archive.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 1024)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, zipMagic) {
		return detectZIPFormat(r, size)
	}

	return DetectFromMagic(magic), nil
}

// detectZIPFormat inspects a ZIP archive to determine if it is an EPUB.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %w", ErrBrokenArchive, err)
	}

	for _, f := range zr.File {
		switch f.Name {
		case "mimetype":
			rc, err := f.Open()
			if err != nil {
				continue
			}
			data := make([]byte, 64)
			n, _ := io.ReadFull(rc, data)
			rc.Close()
			if strings.TrimSpace(string(data[:n])) == "application/epub+zip" {
				return EPUB, nil
			}
		case "META-INF/container.xml":
			// Some packagers omit the mimetype entry.
			return EPUB, nil
		}
	}

	return Unknown, nil
}
