// Package parser opens book files of any supported format and returns the
// format-independent model. It picks the adapter from the file signature,
// falling back to the extension, and fills in what every adapter leaves to
// it: word counts, the title fallback and cover dimensions.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/xenolexia/xenolexia-go/epubdoc"
	"github.com/xenolexia/xenolexia-go/fb2doc"
	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/mobidoc"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/pdfdoc"
	"github.com/xenolexia/xenolexia-go/segment"
	"github.com/xenolexia/xenolexia-go/txtdoc"
)

// ErrUnknownFormat is wrapped when neither signature nor extension names a
// supported format.
var ErrUnknownFormat = errors.New("parser: unrecognized book format")

// Recognizer turns an image into text. *ocr.Client satisfies it.
type Recognizer interface {
	RecognizeImage(data []byte) (string, error)
}

// Options configures parsing.
type Options struct {
	Logger *slog.Logger
	// OCR is used for image-only EPUB documents. Nil leaves them as they are.
	OCR Recognizer
	// Format skips detection when not format.Unknown.
	Format format.Format
}

// Option configures Options.
type Option func(*Options)

// WithLogger sets the logger. Nil uses slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOCR sets the recognizer used for image-only pages.
func WithOCR(r Recognizer) Option {
	return func(o *Options) { o.OCR = r }
}

// WithFormat forces the format instead of detecting it.
func WithFormat(f format.Format) Option {
	return func(o *Options) { o.Format = f }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Detect identifies the format of the content in ra by its signature, then
// by the extension of name. Plain text has no signature and is recognized by
// extension only.
func Detect(ra io.ReaderAt, size int64, name string) (format.Format, error) {
	f, err := format.DetectFromReader(ra, size)
	if err != nil {
		ext := format.Detect(name)
		if errors.Is(err, format.ErrBrokenArchive) {
			// Only EPUB is zipped; its adapter reports the damage.
			if ext == format.EPUB {
				return ext, nil
			}
			return format.Unknown, err
		}
		if ext != format.Unknown {
			return ext, nil
		}
		return format.Unknown, err
	}
	if f != format.Unknown {
		return f, nil
	}
	return format.Detect(name), nil
}

// ParseBook opens path on fs and parses it.
func ParseBook(ctx context.Context, fs afero.Fs, path string, opts ...Option) (*model.ParsedBook, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &format.Error{Kind: format.IO, Format: format.Detect(path), Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &format.Error{Kind: format.IO, Format: format.Detect(path), Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &format.Error{Kind: format.IO, Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	return Parse(ctx, f, info.Size(), path, opts...)
}

// Parse parses the book in ra. name is used for detection by extension, the
// title fallback and error messages.
func Parse(ctx context.Context, ra io.ReaderAt, size int64, name string, opts ...Option) (*model.ParsedBook, error) {
	o := buildOptions(opts)
	logger := o.Logger.With(slog.String("component", "parser"), slog.String("path", name))

	f := o.Format
	if f == format.Unknown {
		var err error
		f, err = Detect(ra, size, name)
		if err != nil {
			kind := format.IO
			if errors.Is(err, format.ErrBrokenArchive) {
				kind = format.Corrupt
			}
			return nil, &format.Error{Kind: kind, Format: format.Detect(name), Path: name, Err: err}
		}
	}

	var (
		book *model.ParsedBook
		err  error
	)
	switch f {
	case format.EPUB:
		book, err = epubdoc.Parse(ctx, ra, size, epubdoc.Options{Logger: o.Logger, OCR: o.OCR})
	case format.FB2:
		book, err = fb2doc.Parse(ctx, ra, size, fb2doc.Options{Logger: o.Logger})
	case format.MOBI:
		book, err = mobidoc.Parse(ctx, ra, size, mobidoc.Options{Logger: o.Logger})
	case format.PDF:
		book, err = pdfdoc.Parse(ctx, ra, size, pdfdoc.Options{Logger: o.Logger})
	case format.TXT:
		book, err = txtdoc.Parse(ctx, ra, size, txtdoc.Options{Logger: o.Logger})
	default:
		return nil, &format.Error{Kind: format.UnsupportedFormat, Path: name, Err: ErrUnknownFormat}
	}
	if err != nil {
		var fe *format.Error
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = name
		}
		return nil, err
	}

	finish(book, name)

	for _, w := range book.Warnings {
		logger.Warn("book warning", slog.String("href", w.Href), slog.String("message", w.Message))
	}
	logger.Debug("parsed book",
		slog.String("format", book.Format.String()),
		slog.Int("chapters", len(book.Chapters)),
		slog.Int("words", book.TotalWordCount))

	return book, nil
}

// finish fills word counts, the title fallback and the cover dimensions.
func finish(book *model.ParsedBook, name string) {
	book.TotalWordCount = 0
	for i := range book.Chapters {
		ch := &book.Chapters[i]
		mode := segment.HTML
		if ch.ContentType == model.ContentText {
			mode = segment.Text
		}
		ch.WordCount = segment.CountWords(ch.Content, mode)
		book.TotalWordCount += ch.WordCount
	}

	if strings.TrimSpace(book.Metadata.Title) == "" {
		base := filepath.Base(name)
		book.Metadata.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if book.Cover != nil {
		inspectCover(book)
	}
}

// inspectCover sets the cover dimensions and media type from the image
// header. Vector and unknown images keep zero dimensions.
func inspectCover(book *model.ParsedBook) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(book.Cover.Data))
	if err != nil {
		if !strings.Contains(book.Cover.MediaType, "svg") {
			book.Warnings = append(book.Warnings, model.Warning{
				Message: fmt.Sprintf("cover image dimensions unknown: %v", err),
			})
		}
		return
	}
	book.Cover.Width = cfg.Width
	book.Cover.Height = cfg.Height
	if book.Cover.MediaType == "" {
		book.Cover.MediaType = "image/" + name
	}
}
