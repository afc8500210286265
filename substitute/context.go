package substitute

import (
	"html"
	"strings"

	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/segment"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true, "pre": true,
	"dt": true, "dd": true, "hr": true,
}

// ContextSentence returns the sentence around the i-th foreign word of pc,
// as plain text with the original words restored. It returns "" when i is
// out of range.
func ContextSentence(pc *model.ProcessedChapter, i int) string {
	if pc == nil || i < 0 || i >= len(pc.ForeignWords) {
		return ""
	}

	var (
		b        strings.Builder
		prev     int
		from, to int
	)
	content := pc.ProcessedContent
	mode := Mode(pc.ContentType)
	for n, fw := range pc.ForeignWords {
		if fw.StartIndex < prev || fw.EndIndex < fw.StartIndex || fw.EndIndex > len(content) {
			return ""
		}
		writePlain(&b, content[prev:fw.StartIndex], mode)
		if n == i {
			from = b.Len()
		}
		b.WriteString(fw.OriginalWord)
		if n == i {
			to = b.Len()
		}
		prev = fw.EndIndex
	}
	writePlain(&b, content[prev:], mode)

	text := b.String()
	start := strings.LastIndexAny(text[:from], ".!?\n") + 1
	end := len(text)
	if j := strings.IndexAny(text[to:], ".!?\n"); j >= 0 {
		end = to + j
		if text[end] != '\n' {
			end++
		}
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

// writePlain appends the text of content to b. Entities are decoded, block
// elements become line breaks and other markup is dropped.
func writePlain(b *strings.Builder, content string, mode segment.Mode) {
	for sp := range segment.Spans(content, mode) {
		switch sp.Kind {
		case segment.Markup:
			switch {
			case strings.HasPrefix(sp.Text, "&"):
				b.WriteString(html.UnescapeString(sp.Text))
			case blockElements[tagName(sp.Text)]:
				b.WriteByte('\n')
			}
		default:
			b.WriteString(sp.Text)
		}
	}
}

// tagName returns the lower-cased element name of a start or end tag.
func tagName(raw string) string {
	if !strings.HasPrefix(raw, "<") {
		return ""
	}
	s := strings.TrimPrefix(raw[1:], "/")
	n := 0
	for n < len(s) && (s[n] >= 'a' && s[n] <= 'z' || s[n] >= 'A' && s[n] <= 'Z' || s[n] >= '0' && s[n] <= '9') {
		n++
	}
	return strings.ToLower(s[:n])
}
