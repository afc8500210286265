// Package fb2doc reads FictionBook 2 documents. Top-level sections of the
// main body become chapters rendered as XHTML; nested sections become table
// of contents children.
package fb2doc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/model"
)

// Errors reported inside a *format.Error.
var (
	ErrNotFictionBook = errors.New("fb2: root element is not FictionBook")
	ErrNoBody         = errors.New("fb2: document has no body")
)

// Options configures parsing.
type Options struct {
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

func fail(kind format.Kind, err error) error {
	return format.NewError(kind, format.FB2, err)
}

// Parse reads the FictionBook document in ra.
func Parse(ctx context.Context, ra io.ReaderAt, size int64, opts Options) (*model.ParsedBook, error) {
	return ParseReader(ctx, io.NewSectionReader(ra, 0, size), opts)
}

// ParseReader reads a FictionBook document from r.
func ParseReader(ctx context.Context, r io.Reader, opts Options) (*model.ParsedBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "fb2doc"))

	root, err := decode(r)
	if err != nil {
		return nil, fail(format.Corrupt, err)
	}
	if root.name != "FictionBook" {
		return nil, fail(format.Corrupt, fmt.Errorf("%w: <%s>", ErrNotFictionBook, root.name))
	}

	body := mainBody(root)
	if body == nil {
		return nil, fail(format.MissingRequiredPart, ErrNoBody)
	}

	book := &model.ParsedBook{
		Format:   format.FB2,
		Metadata: metadata(root.child("description")),
	}

	p := &bookParser{
		book:     book,
		anchors:  make(map[*node]string),
		binaries: binaries(root),
	}
	if err := p.chapters(ctx, body); err != nil {
		return nil, err
	}
	if len(book.Chapters) == 0 {
		return nil, fail(format.MissingRequiredPart, fmt.Errorf("%w: body has no sections", ErrNoBody))
	}
	book.Cover = p.cover(root.path("description", "title-info", "coverpage"))

	logger.Debug("parsed fictionbook",
		slog.String("title", book.Metadata.Title),
		slog.Int("chapters", len(book.Chapters)),
		slog.Int("binaries", len(p.binaries)))

	return book, nil
}

// mainBody returns the first body that is not a notes or comments body.
func mainBody(root *node) *node {
	bodies := root.all("body")
	for _, b := range bodies {
		switch b.attr("name") {
		case "notes", "comments", "footnotes":
			continue
		}
		return b
	}
	if len(bodies) > 0 {
		return bodies[0]
	}
	return nil
}

func metadata(desc *node) model.Metadata {
	info := desc.child("title-info")
	publish := desc.child("publish-info")

	meta := model.Metadata{
		Title:       info.child("book-title").textContent(),
		Description: info.child("annotation").textContent(),
		Language:    model.ParseLanguage(info.child("lang").textContent()),
		Publisher:   publish.child("publisher").textContent(),
		PublishDate: info.child("date").textContent(),
		ISBN:        publish.child("isbn").textContent(),
		Identifier:  desc.path("document-info", "id").textContent(),
	}
	if meta.PublishDate == "" {
		meta.PublishDate = publish.child("year").textContent()
	}

	for _, a := range info.all("author") {
		if name := authorName(a); name != "" {
			meta.Authors = append(meta.Authors, name)
		}
	}
	for _, g := range info.all("genre") {
		if s := g.textContent(); s != "" {
			meta.Subjects = append(meta.Subjects, s)
		}
	}
	return meta
}

func authorName(a *node) string {
	var parts []string
	for _, field := range []string{"first-name", "middle-name", "last-name"} {
		if s := a.child(field).textContent(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return a.child("nickname").textContent()
	}
	return strings.Join(parts, " ")
}

type binary struct {
	contentType string
	data        string
}

func binaries(root *node) map[string]binary {
	out := make(map[string]binary)
	for _, b := range root.all("binary") {
		if id := b.attr("id"); id != "" {
			out[id] = binary{contentType: b.attr("content-type"), data: b.textContent()}
		}
	}
	return out
}

type bookParser struct {
	book     *model.ParsedBook
	anchors  map[*node]string
	binaries map[string]binary
}

func (p *bookParser) warn(href, msg string, args ...any) {
	p.book.Warnings = append(p.book.Warnings, model.Warning{Href: href, Message: fmt.Sprintf(msg, args...)})
}

// preambleSkip lists body children that never form a chapter of their own.
var preambleSkip = map[string]bool{"section": true, "title": true, "epigraph": true, "image": true}

// chapters turns the body into chapters and the table of contents.
func (p *bookParser) chapters(ctx context.Context, body *node) error {
	sections := body.all("section")
	if len(sections) == 0 {
		// A body without sections is a single chapter.
		p.addChapter(body, body.child("title").textContent(), "body")
		return nil
	}

	pre := &node{name: "section"}
	for _, c := range body.children {
		if !c.isText() && !preambleSkip[c.name] {
			pre.children = append(pre.children, c)
		}
	}
	if pre.textContent() != "" {
		p.addChapter(pre, body.child("title").textContent(), "preamble")
	}

	for i, s := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		anchor := p.assignAnchors(s, "section-"+strconv.Itoa(i+1))
		title := s.child("title").textContent()
		if title == "" {
			title = "Section " + strconv.Itoa(i+1)
		}
		ch := p.addChapter(s, title, anchor)

		item := model.TOCItem{ID: anchor, Title: title, Href: ch.Href}
		item.Children = p.tocChildren(s, 1)
		p.book.TOC = append(p.book.TOC, item)
	}
	return nil
}

// assignAnchors gives s and its nested sections an id, keeping ids present
// in the document.
func (p *bookParser) assignAnchors(s *node, fallback string) string {
	anchor := s.attr("id")
	if anchor == "" {
		anchor = fallback
	}
	p.anchors[s] = anchor
	for i, c := range s.all("section") {
		p.assignAnchors(c, fallback+"-"+strconv.Itoa(i+1))
	}
	return anchor
}

func (p *bookParser) addChapter(n *node, title, anchor string) model.Chapter {
	if _, ok := p.anchors[n]; !ok {
		p.anchors[n] = anchor
	}
	r := &renderer{anchors: p.anchors}
	if n.name == "section" {
		r.section(n, 0)
	} else {
		r.blocks(n, 0)
	}

	ch := model.Chapter{
		ID:          anchor,
		Title:       title,
		Index:       len(p.book.Chapters),
		Content:     r.String(),
		ContentType: model.ContentHTML,
		Href:        "#" + anchor,
	}
	p.book.Chapters = append(p.book.Chapters, ch)
	return ch
}

// tocChildren lists titled nested sections. Untitled sections are skipped
// and their children promoted.
func (p *bookParser) tocChildren(s *node, level int) []model.TOCItem {
	var items []model.TOCItem
	for _, c := range s.all("section") {
		title := c.child("title").textContent()
		if title == "" {
			items = append(items, p.tocChildren(c, level)...)
			continue
		}
		items = append(items, model.TOCItem{
			ID:       p.anchors[c],
			Title:    title,
			Href:     "#" + p.anchors[c],
			Level:    level,
			Children: p.tocChildren(c, level+1),
		})
	}
	return items
}

// cover decodes the binary referenced by coverpage/image.
func (p *bookParser) cover(coverpage *node) *model.Cover {
	img := coverpage.child("image")
	if img == nil {
		return nil
	}
	id := strings.TrimPrefix(img.attr("href"), "#")
	bin, ok := p.binaries[id]
	if !ok {
		p.warn("#"+id, "cover binary not found")
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(bin.data), ""))
	if err != nil {
		p.warn("#"+id, "cover binary is not valid base64: %v", err)
		return nil
	}
	return &model.Cover{Data: data, MediaType: bin.contentType}
}
