// Package pdfdoc extracts the text layer of PDF documents. Each page that
// carries text becomes one chapter; image-only documents are rejected.
package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/htmldoc"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/segment"
)

// Errors reported inside a *format.Error.
var (
	ErrEncrypted = errors.New("pdf: encrypted document")
	ErrNoText    = errors.New("pdf: no extractable text (image-only document)")
	ErrDecoder   = errors.New("pdf: decoder failure")
)

// Options configures parsing.
type Options struct {
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Parse reads the document in ra.
func Parse(ctx context.Context, ra io.ReaderAt, size int64, opts Options) (book *model.ParsedBook, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "pdfdoc"))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The decoder panics on some malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			book = nil
			err = format.NewError(format.Corrupt, format.PDF, fmt.Errorf("%w: %v", ErrDecoder, r))
		}
	}()

	r, err := pdf.NewReader(ra, size)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(err.Error(), "encrypt") {
			return nil, format.NewError(format.UnsupportedFormat, format.PDF, fmt.Errorf("%w: %v", ErrEncrypted, err))
		}
		return nil, format.NewError(format.Corrupt, format.PDF, err)
	}

	book = &model.ParsedBook{
		Format:   format.PDF,
		Metadata: metadata(r.Trailer().Key("Info")),
	}

	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			book.Warnings = append(book.Warnings, model.Warning{
				Href:    pageHref(i),
				Message: fmt.Sprintf("page %d: %v", i, err),
			})
			continue
		}
		paras := htmldoc.Paragraphs(text)
		content := htmldoc.Render("", paras)
		if segment.CountWords(content, segment.HTML) == 0 {
			continue
		}

		title := "Page " + strconv.Itoa(i)
		book.Chapters = append(book.Chapters, model.Chapter{
			ID:          "page-" + strconv.Itoa(i),
			Title:       title,
			Index:       len(book.Chapters),
			Content:     content,
			ContentType: model.ContentHTML,
			Href:        pageHref(i),
		})
		book.TOC = append(book.TOC, model.TOCItem{
			ID:    "page-" + strconv.Itoa(i),
			Title: title,
			Href:  pageHref(i),
		})
	}

	if len(book.Chapters) == 0 {
		return nil, format.NewError(format.UnsupportedFormat, format.PDF,
			fmt.Errorf("%w: %d pages", ErrNoText, pages))
	}

	logger.Debug("parsed pdf",
		slog.Int("pages", pages),
		slog.Int("text_pages", len(book.Chapters)))

	return book, nil
}

func pageHref(i int) string {
	return "#page=" + strconv.Itoa(i)
}

// pageText returns the plain text of a page using its own font resources.
func pageText(page pdf.Page) (string, error) {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	return page.GetPlainText(fonts)
}

func metadata(info pdf.Value) model.Metadata {
	var meta model.Metadata
	if info.IsNull() {
		return meta
	}
	meta.Title = strings.TrimSpace(info.Key("Title").Text())
	if author := strings.TrimSpace(info.Key("Author").Text()); author != "" {
		for _, a := range strings.FieldsFunc(author, func(r rune) bool { return r == ';' || r == '&' }) {
			if a = strings.TrimSpace(a); a != "" {
				meta.Authors = append(meta.Authors, a)
			}
		}
	}
	meta.Description = strings.TrimSpace(info.Key("Subject").Text())
	if kw := strings.TrimSpace(info.Key("Keywords").Text()); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				meta.Subjects = append(meta.Subjects, k)
			}
		}
	}
	return meta
}
