// Package segment splits chapter content into markup, whitespace, word and
// punctuation spans.
//
// Segmentation is lossless: concatenating the Text of every span yields the
// input exactly, and each span's Start/End are byte offsets into it. The
// sequence returned by [Spans] is lazy and may be ranged over any number of
// times; each range starts again from the beginning of the content.
//
//	for sp := range segment.Spans(html, segment.HTML) {
//		if sp.Kind == segment.Word {
//			fmt.Println(sp.Start, sp.Text)
//		}
//	}
package segment

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Kind tags a span.
type Kind int

const (
	// Markup is tags, comments, doctypes, entities and text that is not
	// reader-visible prose (script, style, title and head contents).
	Markup Kind = iota
	// Whitespace is a run of Unicode white space.
	Whitespace
	// Word is a maximal run of letters, numbers and combining marks.
	Word
	// Punct is a run of any other visible characters.
	Punct
)

func (k Kind) String() string {
	switch k {
	case Markup:
		return "markup"
	case Whitespace:
		return "whitespace"
	case Word:
		return "word"
	case Punct:
		return "punct"
	default:
		return "unknown"
	}
}

// Span is one segment of the content.
type Span struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// Mode selects how content is interpreted.
type Mode int

const (
	// HTML treats content as (X)HTML markup.
	HTML Mode = iota
	// Text treats content as plain text; no span is Markup.
	Text
)

// opaqueElements hold text that is never reader-visible prose.
var opaqueElements = map[string]bool{
	"head":     true,
	"title":    true,
	"script":   true,
	"style":    true,
	"svg":      true,
	"math":     true,
	"noscript": true,
	"textarea": true,
	"template": true,
	"iframe":   true,
	"noembed":  true,
	"noframes": true,
	"xmp":      true,
}

// Spans returns the spans of content in order.
func Spans(content string, mode Mode) iter.Seq[Span] {
	if mode == Text {
		return func(yield func(Span) bool) {
			splitText(content, 0, false, yield)
		}
	}
	return func(yield func(Span) bool) {
		splitHTML(content, yield)
	}
}

// Words returns only the Word spans of content.
func Words(content string, mode Mode) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		for sp := range Spans(content, mode) {
			if sp.Kind == Word && !yield(sp) {
				return
			}
		}
	}
}

// CountWords returns the number of Word spans in content.
func CountWords(content string, mode Mode) int {
	n := 0
	for range Words(content, mode) {
		n++
	}
	return n
}

func splitHTML(content string, yield func(Span) bool) bool {
	z := html.NewTokenizer(strings.NewReader(content))
	offset := 0
	opaque := map[string]int{}
	depth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		n := len(z.Raw())
		if n == 0 {
			continue
		}
		end := min(offset+n, len(content))
		raw := content[offset:end]

		switch tt {
		case html.TextToken:
			if depth > 0 {
				if !yield(Span{Kind: Markup, Text: raw, Start: offset, End: end}) {
					return false
				}
			} else if !splitText(raw, offset, true, yield) {
				return false
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); opaqueElements[tag] {
				opaque[tag]++
				depth++
			}
			if !yield(Span{Kind: Markup, Text: raw, Start: offset, End: end}) {
				return false
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); opaque[tag] > 0 {
				opaque[tag]--
				depth--
			}
			if !yield(Span{Kind: Markup, Text: raw, Start: offset, End: end}) {
				return false
			}
		case html.SelfClosingTagToken:
			// XHTML allows <script/>; the tokenizer would otherwise read
			// the rest of the document as script text.
			z.NextIsNotRawText()
			if !yield(Span{Kind: Markup, Text: raw, Start: offset, End: end}) {
				return false
			}
		default:
			if !yield(Span{Kind: Markup, Text: raw, Start: offset, End: end}) {
				return false
			}
		}
		offset = end
	}

	if offset < len(content) {
		return yield(Span{Kind: Markup, Text: content[offset:], Start: offset, End: len(content)})
	}
	return true
}

// splitText splits s, which starts at byte base of the original content,
// into whitespace, word and punctuation runs. When entities is set,
// character references such as &amp; are emitted as Markup.
func splitText(s string, base int, entities bool, yield func(Span) bool) bool {
	i := 0
	for i < len(s) {
		if entities && s[i] == '&' {
			if n := entityLen(s[i:]); n > 0 {
				if !yield(Span{Kind: Markup, Text: s[i : i+n], Start: base + i, End: base + i + n}) {
					return false
				}
				i += n
				continue
			}
		}

		r, w := utf8.DecodeRuneInString(s[i:])
		kind := classify(r)
		j := i + w
		for j < len(s) {
			if entities && s[j] == '&' && entityLen(s[j:]) > 0 {
				break
			}
			r, w := utf8.DecodeRuneInString(s[j:])
			if classify(r) != kind {
				break
			}
			j += w
		}
		if !yield(Span{Kind: kind, Text: s[i:j], Start: base + i, End: base + j}) {
			return false
		}
		i = j
	}
	return true
}

func classify(r rune) Kind {
	switch {
	case r == utf8.RuneError:
		return Punct
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r):
		return Word
	case unicode.IsSpace(r):
		return Whitespace
	default:
		return Punct
	}
}

// entityLen returns the length of the character reference at the start of
// s, or 0 if s does not start with one.
func entityLen(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	i := 1
	if s[i] == '#' {
		i++
		if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
			i++
		}
	}
	start := i
	for i < len(s) && i < 40 && isAlnum(s[i]) {
		i++
	}
	if i == start || i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
