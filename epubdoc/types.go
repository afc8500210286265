// Package epubdoc opens EPUB 2 and EPUB 3 packages and normalizes them into
// a model.ParsedBook.
package epubdoc

import (
	"log/slog"
	"time"
)

// Package represents the parsed OPF document.
type Package struct {
	Metadata Metadata
	Manifest map[string]ManifestItem // keyed by ID
	Spine    []SpineItem
	Version  string // "2.0" or "3.0"
	NCX      string // manifest ID named by spine@toc
	CoverID  string // manifest ID named by <meta name="cover">
}

// Metadata contains EPUB metadata (Dublin Core).
type Metadata struct {
	Title       string
	Creator     []string // Multiple authors possible
	Language    string
	Identifier  string // ISBN, UUID, etc.
	ISBN        string
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	Rights      string
	Modified    time.Time
}

// ManifestItem represents a file in the EPUB.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string // "nav", "cover-image", etc.
}

// HasProperty reports whether the item carries the manifest property p.
func (m ManifestItem) HasProperty(p string) bool {
	for _, prop := range m.Properties {
		if prop == p {
			return true
		}
	}
	return false
}

// SpineItem represents a content document in reading order.
type SpineItem struct {
	IDRef  string
	Linear bool // true if part of main reading order
}

// Recognizer turns an image into text. *ocr.Client satisfies it.
type Recognizer interface {
	RecognizeImage(data []byte) (string, error)
}

// Options configures how a package is read.
type Options struct {
	// OCR, when set, is used for spine documents that hold images but no
	// text. Without it such documents are kept as-is and a warning is
	// recorded.
	OCR Recognizer
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}
