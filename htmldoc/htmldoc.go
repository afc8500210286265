// Package htmldoc holds the small HTML helpers shared by the format
// adapters: rendering plain-text paragraphs as chapter markup, finding a
// chapter heading and flattening chapter markup back to text.
package htmldoc

import (
	"html"
	"strings"

	"github.com/antchfx/htmlquery"
	xhtml "golang.org/x/net/html"
)

// Paragraphs splits text at blank lines and joins the lines of each
// paragraph with single spaces. Empty paragraphs are dropped.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []string
	var cur []string
	flush := func() {
		if p := strings.Join(cur, " "); p != "" {
			out = append(out, p)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			flush()
			continue
		}
		cur = append(cur, strings.Join(fields, " "))
	}
	flush()
	return out
}

// Render returns an XHTML document with heading (if not empty) as an <h2>
// followed by one <p> per paragraph. Text is escaped.
func Render(heading string, paras []string) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	if heading != "" {
		b.WriteString("<h2>")
		b.WriteString(html.EscapeString(heading))
		b.WriteString("</h2>\n")
	}
	for _, p := range paras {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(p))
		b.WriteString("</p>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

// DefaultHeadings are the queries Heading tries when none are given.
var DefaultHeadings = []string{"//h1", "//h2", "//h3"}

// Heading returns the whitespace-collapsed text of the first node matched by
// queries, tried in order. It returns "" when nothing matches.
func Heading(content string, queries ...string) string {
	if len(queries) == 0 {
		queries = DefaultHeadings
	}
	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	for _, expr := range queries {
		if n := htmlquery.FindOne(doc, expr); n != nil {
			if t := strings.Join(strings.Fields(htmlquery.InnerText(n)), " "); t != "" {
				return t
			}
		}
	}
	return ""
}

// Text flattens markup to plain text. Block elements end a line; script,
// style and the document head are skipped.
func Text(content string) string {
	doc, err := xhtml.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	var b strings.Builder
	text(doc, &b)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if l := strings.Join(strings.Fields(line), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

func text(n *xhtml.Node, b *strings.Builder) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(lineBreaks.Replace(n.Data))
		return
	case xhtml.ElementNode:
		if skipElement(n.Data) {
			return
		}
		if n.Data == "br" {
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text(c, b)
	}
	if n.Type == xhtml.ElementNode && isBlock(n.Data) {
		b.WriteString("\n")
	}
}

func skipElement(tag string) bool {
	switch tag {
	case "head", "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed":
		return true
	}
	return false
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "blockquote", "pre", "section", "article":
		return true
	}
	return false
}
