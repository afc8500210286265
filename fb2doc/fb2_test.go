package fb2doc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/model"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:l="http://www.w3.org/1999/xlink">
  <description>
    <title-info>
      <genre>prose_classic</genre>
      <author><first-name>Anton</first-name><last-name>Chekhov</last-name></author>
      <author><nickname>anon</nickname></author>
      <book-title>The Steppe</book-title>
      <annotation><p>A journey   across</p><p>the steppe.</p></annotation>
      <date>1888</date>
      <coverpage><image l:href="#cover.png"/></coverpage>
      <lang>en</lang>
    </title-info>
    <document-info><id>doc-42</id></document-info>
    <publish-info><publisher>Penguin</publisher><isbn>978-1</isbn></publish-info>
  </description>
  <body>
    <title><p>The Steppe</p></title>
    <section id="one">
      <title><p>Chapter I</p></title>
      <p>Early one <emphasis>morning</emphasis> in July &amp; later.</p>
      <empty-line/>
      <section>
        <title><p>Part A</p></title>
        <p>Nested text.</p>
        <section><title><p>Deeper</p></title><p>x</p></section>
      </section>
      <section><p>untitled</p><section><title><p>Promoted</p></title><p>y</p></section></section>
    </section>
    <section>
      <p>Second <a l:href="#n1">chapter</a> without a title.</p>
      <poem><stanza><v>A line of verse</v></stanza></poem>
    </section>
  </body>
  <body name="notes">
    <section id="n1"><p>A note.</p></section>
  </body>
  <binary id="cover.png" content-type="image/png">iVBO
  Rw==</binary>
</FictionBook>`

func parse(t *testing.T, data []byte) (*model.ParsedBook, error) {
	t.Helper()
	return Parse(context.Background(), bytes.NewReader(data), int64(len(data)), Options{})
}

func TestParseMetadata(t *testing.T) {
	book, err := parse(t, []byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	meta := book.Metadata
	if meta.Title != "The Steppe" {
		t.Errorf("Title = %q", meta.Title)
	}
	if got := strings.Join(meta.Authors, "|"); got != "Anton Chekhov|anon" {
		t.Errorf("Authors = %q", got)
	}
	if meta.Description != "A journey across the steppe." {
		t.Errorf("Description = %q", meta.Description)
	}
	if meta.Language != model.English {
		t.Errorf("Language = %q", meta.Language)
	}
	if meta.Publisher != "Penguin" || meta.ISBN != "978-1" || meta.Identifier != "doc-42" || meta.PublishDate != "1888" {
		t.Errorf("publish info = %+v", meta)
	}
	if len(meta.Subjects) != 1 || meta.Subjects[0] != "prose_classic" {
		t.Errorf("Subjects = %v", meta.Subjects)
	}
	if book.Format != format.FB2 {
		t.Errorf("Format = %v", book.Format)
	}
}

func TestParseChapters(t *testing.T) {
	book, err := parse(t, []byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(book.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(book.Chapters))
	}

	first := book.Chapters[0]
	if first.Title != "Chapter I" || first.ID != "one" || first.Href != "#one" || first.Index != 0 {
		t.Errorf("first chapter = %+v", first)
	}
	if first.ContentType != model.ContentHTML {
		t.Errorf("ContentType = %v", first.ContentType)
	}
	for _, want := range []string{
		`<div class="section" id="one">`,
		"<h1>Chapter I</h1>",
		"<p>Early one <em>morning</em> in July &amp; later.</p>",
		"<br/>",
		`<div class="section" id="section-1-1">`,
		"<h2>Part A</h2>",
		"<h3>Deeper</h3>",
	} {
		if !strings.Contains(first.Content, want) {
			t.Errorf("first chapter missing %q in:\n%s", want, first.Content)
		}
	}

	second := book.Chapters[1]
	if second.Title != "Section 2" || second.ID != "section-2" || second.Index != 1 {
		t.Errorf("second chapter = %+v", second)
	}
	if !strings.Contains(second.Content, `<a href="#n1">chapter</a>`) {
		t.Errorf("link not rendered: %s", second.Content)
	}
	if !strings.Contains(second.Content, `<p class="v">A line of verse</p>`) {
		t.Errorf("verse not rendered: %s", second.Content)
	}
	if strings.Contains(second.Content, "A note.") {
		t.Error("notes body leaked into chapters")
	}
}

func TestParseTOC(t *testing.T) {
	book, err := parse(t, []byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	toc := book.TOC
	if len(toc) != 2 {
		t.Fatalf("TOC roots = %d, want 2", len(toc))
	}
	kids := toc[0].Children
	if len(kids) != 2 {
		t.Fatalf("children = %+v, want Part A and promoted entry", kids)
	}
	if kids[0].Title != "Part A" || kids[0].Level != 1 || kids[0].Href != "#section-1-1" {
		t.Errorf("kids[0] = %+v", kids[0])
	}
	if len(kids[0].Children) != 1 || kids[0].Children[0].Level != 2 {
		t.Errorf("grandchildren = %+v", kids[0].Children)
	}
	if kids[1].Title != "Promoted" || kids[1].Level != 1 {
		t.Errorf("kids[1] = %+v", kids[1])
	}
}

func TestParseCover(t *testing.T) {
	book, err := parse(t, []byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if book.Cover == nil {
		t.Fatal("Cover = nil")
	}
	if book.Cover.MediaType != "image/png" {
		t.Errorf("MediaType = %q", book.Cover.MediaType)
	}
	if want := []byte{0x89, 0x50, 0x4E, 0x47}; !bytes.Equal(book.Cover.Data, want) {
		t.Errorf("Data = %x, want %x", book.Cover.Data, want)
	}
}

func TestParseBodyWithoutSections(t *testing.T) {
	doc := `<FictionBook><description><title-info><book-title>Short</book-title></title-info></description>
<body><title><p>Only</p></title><p>Just one paragraph.</p></body></FictionBook>`

	book, err := parse(t, []byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(book.Chapters) != 1 {
		t.Fatalf("chapters = %d, want 1", len(book.Chapters))
	}
	if book.Chapters[0].Title != "Only" {
		t.Errorf("Title = %q", book.Chapters[0].Title)
	}
	if !strings.Contains(book.Chapters[0].Content, "<p>Just one paragraph.</p>") {
		t.Errorf("Content = %q", book.Chapters[0].Content)
	}
	if book.Cover != nil {
		t.Error("unexpected cover")
	}
}

func TestParseWindows1251(t *testing.T) {
	doc := `<?xml version="1.0" encoding="windows-1251"?>
<FictionBook><description><title-info><book-title>Степь</book-title></title-info></description>
<body><section><title><p>Глава</p></title><p>Текст.</p></section></body></FictionBook>`

	encoded, err := charmap.Windows1251.NewEncoder().String(doc)
	if err != nil {
		t.Fatal(err)
	}

	book, err := parse(t, []byte(encoded))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if book.Metadata.Title != "Степь" {
		t.Errorf("Title = %q", book.Metadata.Title)
	}
	if book.Chapters[0].Title != "Глава" {
		t.Errorf("chapter Title = %q", book.Chapters[0].Title)
	}
}

func TestParseBOM(t *testing.T) {
	doc := "\xef\xbb\xbf" + `<FictionBook><body><section><p>Hi.</p></section></body></FictionBook>`
	if _, err := parse(t, []byte(doc)); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind format.Kind
	}{
		{"malformed", `<FictionBook><body><section><p>open`, format.Corrupt},
		{"mismatched", `<FictionBook><body></section></FictionBook>`, format.Corrupt},
		{"wrong root", `<html><body/></html>`, format.Corrupt},
		{"empty", ``, format.Corrupt},
		{"no body", `<FictionBook><description/></FictionBook>`, format.MissingRequiredPart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, []byte(tt.doc))
			kind, ok := format.KindOf(err)
			if !ok || kind != tt.kind {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if !errors.Is(err, tt.kind.Sentinel()) {
				t.Errorf("errors.Is(err, %v) = false", tt.kind.Sentinel())
			}
		})
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseReader(ctx, strings.NewReader(sample), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
