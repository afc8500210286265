// Package txtdoc reads plain text books. The encoding is taken from a byte
// order mark, else UTF-8 when the bytes are valid UTF-8, else guessed. Lines
// that look like chapter headings start new chapters.
package txtdoc

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
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/htmldoc"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/segment"
)

// Errors reported inside a *format.Error.
var (
	ErrEmpty    = errors.New("txt: file has no text")
	ErrEncoding = errors.New("txt: cannot decode text")
)

// maxHeadingLen bounds the length of a line treated as a chapter heading.
const maxHeadingLen = 80

var (
	headingPattern = regexp.MustCompile(`(?i)^(chapter|chapitre|cap[ií]tulo|capitolo|kapitel|hoofdstuk|part|partie|parte|teil|book|livre|libro|buch)\s+([0-9]+|[ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|first|second|third|fourth|fifth|last)[.:]?(\s.*)?$`)
	namedHeading   = regexp.MustCompile(`(?i)^(prologue|prolog|prólogo|epilogue|epilog|epílogo|preface|préface|prefacio|introduction|introducción|einleitung)[.:]?$`)
	headerField    = regexp.MustCompile(`^(Title|Author|Language|Release Date):\s*(.+)$`)
)

// headerLines is how far into the file metadata fields are looked for.
const headerLines = 60

// Options configures parsing.
type Options struct {
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Parse reads the text in ra.
func Parse(ctx context.Context, ra io.ReaderAt, size int64, opts Options) (*model.ParsedBook, error) {
	data, err := io.ReadAll(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return nil, format.NewError(format.IO, format.TXT, err)
	}
	return ParseBytes(ctx, data, opts)
}

// ParseBytes reads text held in memory.
func ParseBytes(ctx context.Context, data []byte, opts Options) (*model.ParsedBook, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "txtdoc"))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, enc, err := Decode(data)
	if err != nil {
		return nil, format.NewError(format.Corrupt, format.TXT, err)
	}

	lines := strings.Split(strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text), "\n")

	book := &model.ParsedBook{
		Format:   format.TXT,
		Metadata: metadata(lines),
	}
	book.Chapters = split(lines)
	if len(book.Chapters) == 0 {
		return nil, format.NewError(format.MissingRequiredPart, format.TXT, ErrEmpty)
	}
	for _, ch := range book.Chapters {
		book.TOC = append(book.TOC, model.TOCItem{ID: ch.ID, Title: ch.Title, Href: ch.Href})
	}

	logger.Debug("parsed text",
		slog.String("encoding", enc),
		slog.Int("lines", len(lines)),
		slog.Int("chapters", len(book.Chapters)))

	return book, nil
}

// Decode converts data to a UTF-8 string and reports the encoding used.
func Decode(data []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}),
		bytes.HasPrefix(data, []byte{0xFF, 0xFE}),
		bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return string(out), "bom", nil
	case utf8.Valid(data):
		return string(data), "utf-8", nil
	}

	enc, name, _ := charset.DetermineEncoding(data, "text/plain")
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("%w as %s: %v", ErrEncoding, name, err)
	}
	return string(out), name, nil
}

// IsHeading reports whether a line reads as a chapter heading.
func IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > maxHeadingLen {
		return false
	}
	return headingPattern.MatchString(line) || namedHeading.MatchString(line)
}

type section struct {
	heading string
	lines   []string
}

// split groups lines into chapters. A heading only counts when it follows a
// blank line or the start of the file. Sections without words are dropped.
func split(lines []string) []model.Chapter {
	var sections []section
	cur := section{}
	prevBlank := true
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if prevBlank && IsHeading(line) {
			sections = append(sections, cur)
			cur = section{heading: strings.Join(strings.Fields(line), " ")}
			prevBlank = false
			continue
		}
		cur.lines = append(cur.lines, line)
		prevBlank = blank
	}
	sections = append(sections, cur)

	var chapters []model.Chapter
	for _, s := range sections {
		paras := htmldoc.Paragraphs(strings.Join(s.lines, "\n"))
		content := htmldoc.Render(s.heading, paras)
		if len(paras) == 0 || segment.CountWords(content, segment.HTML) == 0 {
			continue
		}
		n := len(chapters) + 1
		title := s.heading
		if title == "" {
			title = "Part " + strconv.Itoa(n)
		}
		id := "chapter-" + strconv.Itoa(n)
		chapters = append(chapters, model.Chapter{
			ID:          id,
			Title:       title,
			Index:       n - 1,
			Content:     content,
			ContentType: model.ContentHTML,
			Href:        "#" + id,
		})
	}
	return chapters
}

// metadata reads "Title:", "Author:" and "Language:" fields from the top of
// the file, as found in Project Gutenberg headers.
func metadata(lines []string) model.Metadata {
	var meta model.Metadata
	for i, line := range lines {
		if i >= headerLines {
			break
		}
		m := headerField.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		val := strings.TrimSpace(m[2])
		switch m[1] {
		case "Title":
			if meta.Title == "" {
				meta.Title = val
			}
		case "Author":
			for _, a := range strings.Split(val, " and ") {
				if a = strings.TrimSpace(a); a != "" {
					meta.Authors = append(meta.Authors, a)
				}
			}
		case "Language":
			meta.Language = model.ParseLanguage(val)
		case "Release Date":
			meta.PublishDate = val
		}
	}
	return meta
}
