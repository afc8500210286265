// Package mobidoc reads Mobipocket and PalmDOC books. Text compressed with
// PalmDOC LZ77 is decoded; HUFF/CDIC compression and encrypted books are
// rejected.
package mobidoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/htmldoc"
	"github.com/xenolexia/xenolexia-go/internal/filters"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/segment"
)

// Errors reported inside a *format.Error.
var (
	ErrTruncated          = errors.New("mobi: truncated file")
	ErrNotMOBI            = errors.New("mobi: not a Mobipocket or PalmDOC file")
	ErrHuffCDIC           = errors.New("mobi: HUFF/CDIC compression is not supported")
	ErrUnknownCompression = errors.New("mobi: unknown compression")
	ErrEncrypted          = errors.New("mobi: encrypted book")
	ErrNoText             = errors.New("mobi: book has no text")
)

// Options configures parsing.
type Options struct {
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

func classify(err error) error {
	kind := format.Corrupt
	switch {
	case errors.Is(err, ErrHuffCDIC), errors.Is(err, ErrEncrypted), errors.Is(err, ErrUnknownCompression):
		kind = format.UnsupportedFormat
	case errors.Is(err, ErrNoText):
		kind = format.MissingRequiredPart
	}
	return format.NewError(kind, format.MOBI, err)
}

// Parse reads the book in ra.
func Parse(ctx context.Context, ra io.ReaderAt, size int64, opts Options) (*model.ParsedBook, error) {
	data, err := io.ReadAll(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return nil, format.NewError(format.IO, format.MOBI, err)
	}
	return ParseBytes(ctx, data, opts)
}

// ParseBytes reads a book held in memory.
func ParseBytes(ctx context.Context, data []byte, opts Options) (*model.ParsedBook, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "mobidoc"))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recs, name, typ, err := records(data)
	if err != nil {
		return nil, classify(err)
	}
	if typ != "BOOKMOBI" && typ != "TEXtREAd" {
		return nil, classify(fmt.Errorf("%w: type %q", ErrNotMOBI, typ))
	}

	h, err := parseHeader(recs[0], name, typ)
	if err != nil {
		return nil, classify(err)
	}
	if h.Encryption != 0 {
		return nil, classify(fmt.Errorf("%w: scheme %d", ErrEncrypted, h.Encryption))
	}

	raw, err := readText(ctx, h, recs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, classify(err)
	}

	content, err := decodeText(raw, h.Encoding)
	if err != nil {
		return nil, classify(err)
	}

	book := &model.ParsedBook{
		Format:   format.MOBI,
		Metadata: metadata(h),
	}
	if h.IsMOBI() {
		book.Chapters = splitChapters(content)
	} else if segment.CountWords(content, segment.Text) > 0 {
		book.Chapters = []model.Chapter{{
			ID:          "text",
			Index:       0,
			Content:     content,
			ContentType: model.ContentText,
		}}
	}
	if len(book.Chapters) == 0 {
		return nil, classify(ErrNoText)
	}
	for i, ch := range book.Chapters {
		title := ch.Title
		if title == "" {
			title = "Part " + strconv.Itoa(i+1)
		}
		book.TOC = append(book.TOC, model.TOCItem{ID: ch.ID, Title: title, Href: ch.Href})
	}
	book.Cover = cover(h, recs, book)

	logger.Debug("parsed mobi",
		slog.String("type", h.Type),
		slog.Int("compression", h.Compression),
		slog.Int("records", h.TextRecords),
		slog.Int("chapters", len(book.Chapters)))

	return book, nil
}

// readText decompresses and joins the text records.
func readText(ctx context.Context, h *Header, recs [][]byte) ([]byte, error) {
	switch h.Compression {
	case CompressionNone, CompressionPalmDOC:
	case CompressionHuffCDC:
		return nil, ErrHuffCDIC
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, h.Compression)
	}

	if h.TextRecords >= len(recs) {
		return nil, fmt.Errorf("%w: header names %d text records, file has %d records", ErrTruncated, h.TextRecords, len(recs)-1)
	}

	var out bytes.Buffer
	for i := 1; i <= h.TextRecords; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := recs[i]
		if h.IsMOBI() && h.ExtraFlags != 0 {
			rec = rec[:max(len(rec)-trailingSize(rec, h.ExtraFlags), 0)]
		}
		if h.Compression == CompressionPalmDOC {
			dec, err := filters.PalmDOCDecode(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			rec = dec
		}
		out.Write(rec)
	}

	b := out.Bytes()
	if h.TextLength > 0 && h.TextLength < len(b) {
		b = b[:h.TextLength]
	}
	return b, nil
}

func decodeText(raw []byte, encoding int) (string, error) {
	if encoding == EncodingUTF8 {
		return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
	}
	return charmap.Windows1252.NewDecoder().String(string(raw))
}

var pageBreak = regexp.MustCompile(`(?i)<mbp:pagebreak\s*/?>`)

// splitChapters splits MOBI markup at page breaks. Parts without words are
// dropped.
func splitChapters(content string) []model.Chapter {
	var chapters []model.Chapter
	for _, part := range pageBreak.Split(content, -1) {
		if segment.CountWords(part, segment.HTML) == 0 {
			continue
		}
		id := "part-" + strconv.Itoa(len(chapters)+1)
		chapters = append(chapters, model.Chapter{
			ID:          id,
			Title:       htmldoc.Heading(part),
			Index:       len(chapters),
			Content:     part,
			ContentType: model.ContentHTML,
			Href:        "#" + id,
		})
	}
	return chapters
}

func metadata(h *Header) model.Metadata {
	meta := model.Metadata{
		Title:       h.exthString(exthTitle),
		Authors:     h.exthStrings(exthAuthor),
		Publisher:   h.exthString(exthPublisher),
		Description: h.exthString(exthDescription),
		ISBN:        h.exthString(exthISBN),
		PublishDate: h.exthString(exthPubDate),
		Language:    model.ParseLanguage(h.exthString(exthLanguage)),
		Subjects:    h.exthStrings(exthSubject),
	}
	if meta.Title == "" {
		meta.Title = h.FullName
	}
	if meta.Title == "" {
		meta.Title = h.Name
	}
	return meta
}

// cover returns the image record named by EXTH 201, relative to the first
// image record.
func cover(h *Header, recs [][]byte, book *model.ParsedBook) *model.Cover {
	off, ok := h.exthUint32(exthCoverOffset)
	if !ok || h.FirstImage < 0 {
		return nil
	}
	idx := h.FirstImage + int(off)
	if idx <= 0 || idx >= len(recs) {
		book.Warnings = append(book.Warnings, model.Warning{
			Message: fmt.Sprintf("cover record %d out of range", idx),
		})
		return nil
	}
	data := recs[idx]
	mediaType := sniffImage(data)
	if mediaType == "" {
		book.Warnings = append(book.Warnings, model.Warning{
			Message: fmt.Sprintf("cover record %d is not a known image type", idx),
		})
		return nil
	}
	return &model.Cover{Data: data, MediaType: mediaType}
}

func sniffImage(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	}
	return ""
}
