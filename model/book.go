package model

import (
	"strings"
	"time"

	"github.com/xenolexia/xenolexia-go/format"
)

// ContentType tells how Chapter.Content is encoded.
type ContentType int

const (
	// ContentHTML is (X)HTML markup.
	ContentHTML ContentType = iota
	// ContentText is plain text.
	ContentText
)

func (c ContentType) String() string {
	if c == ContentText {
		return "text"
	}
	return "html"
}

// Metadata describes a book independently of its container format.
type Metadata struct {
	Title       string
	Authors     []string
	Description string
	Language    Language
	Publisher   string
	PublishDate string
	ISBN        string
	Identifier  string
	Subjects    []string
}

// Author returns the authors joined with ", ".
func (m Metadata) Author() string {
	return strings.Join(m.Authors, ", ")
}

// Chapter is one unit of reading order.
type Chapter struct {
	ID          string
	Title       string
	Index       int
	Content     string
	ContentType ContentType
	WordCount   int
	Href        string
}

// TOCItem is a node in the table of contents. Roots have level 0 and each
// child is exactly one level deeper than its parent.
type TOCItem struct {
	ID       string
	Title    string
	Href     string
	Level    int
	Children []TOCItem
}

// Walk visits the item and all descendants depth first. Returning false from
// fn stops the walk.
func (t TOCItem) Walk(fn func(TOCItem) bool) bool {
	if !fn(t) {
		return false
	}
	for _, c := range t.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Cover is the raw cover image of a book.
type Cover struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
}

// ParsedBook is the normalized result of parsing one book file.
type ParsedBook struct {
	Format         format.Format
	Metadata       Metadata
	Chapters       []Chapter
	TOC            []TOCItem
	Cover          *Cover
	TotalWordCount int
	Warnings       []Warning
}

// Book is the library record persisted for an imported file.
type Book struct {
	ID             string
	Title          string
	Author         string
	FilePath       string
	Format         format.Format
	FileSize       int64
	AddedAt        time.Time
	LastReadAt     *time.Time
	Pair           LanguagePair
	Level          ProficiencyLevel
	WordDensity    float64
	Progress       float64
	CurrentChapter int
	TotalChapters  int
}
