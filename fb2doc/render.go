package fb2doc

import (
	"html"
	"strconv"
	"strings"
)

// inlineTags maps FictionBook inline elements to their XHTML equivalent.
var inlineTags = map[string]string{
	"emphasis":      "em",
	"strong":        "strong",
	"strikethrough": "del",
	"sub":           "sub",
	"sup":           "sup",
	"code":          "code",
	"style":         "span",
}

// blockClasses maps FictionBook containers rendered as classed <div>s.
var blockClasses = map[string]string{
	"poem":       "poem",
	"stanza":     "stanza",
	"annotation": "annotation",
}

// renderer writes a section tree as an XHTML fragment. anchors holds the
// id given to each section element.
type renderer struct {
	b       strings.Builder
	anchors map[*node]string
}

func heading(depth int) string {
	return "h" + strconv.Itoa(min(depth+1, 6))
}

// section renders a section and its nested sections. depth 0 is a chapter.
func (r *renderer) section(n *node, depth int) {
	id := r.anchors[n]
	r.b.WriteString(`<div class="section"`)
	if id != "" {
		r.b.WriteString(` id="`)
		r.b.WriteString(html.EscapeString(id))
		r.b.WriteString(`"`)
	}
	r.b.WriteString(">\n")
	r.blocks(n, depth)
	r.b.WriteString("</div>\n")
}

// blocks renders the block-level children of n.
func (r *renderer) blocks(n *node, depth int) {
	for _, c := range n.children {
		if c.isText() {
			continue
		}
		r.block(c, depth)
	}
}

func (r *renderer) block(n *node, depth int) {
	switch n.name {
	case "title":
		h := heading(depth)
		r.b.WriteString("<" + h + ">")
		first := true
		for _, p := range n.all("p") {
			if !first {
				r.b.WriteString("<br/>")
			}
			r.inline(p)
			first = false
		}
		r.b.WriteString("</" + h + ">\n")
	case "section":
		r.section(n, depth+1)
	case "p":
		r.element("p", n, "")
	case "v":
		r.element("p", n, "v")
	case "subtitle":
		r.element("p", n, "subtitle")
	case "text-author":
		r.element("p", n, "text-author")
	case "empty-line":
		r.b.WriteString("<br/>\n")
	case "epigraph", "cite":
		r.b.WriteString(`<blockquote class="` + n.name + `">` + "\n")
		r.blocks(n, depth)
		r.b.WriteString("</blockquote>\n")
	case "image":
		r.image(n)
	case "table":
		r.table(n)
	default:
		if class, ok := blockClasses[n.name]; ok {
			r.b.WriteString(`<div class="` + class + `">` + "\n")
			r.blocks(n, depth)
			r.b.WriteString("</div>\n")
			return
		}
		r.blocks(n, depth)
	}
}

// element renders n as a block element tag with inline content.
func (r *renderer) element(tag string, n *node, class string) {
	r.b.WriteString("<" + tag)
	if class != "" {
		r.b.WriteString(` class="` + class + `"`)
	}
	if id := n.attr("id"); id != "" {
		r.b.WriteString(` id="` + html.EscapeString(id) + `"`)
	}
	r.b.WriteString(">")
	r.inline(n)
	r.b.WriteString("</" + tag + ">\n")
}

func (r *renderer) inline(n *node) {
	for _, c := range n.children {
		if c.isText() {
			r.b.WriteString(html.EscapeString(c.text))
			continue
		}
		switch c.name {
		case "a":
			r.b.WriteString(`<a href="` + html.EscapeString(c.attr("href")) + `">`)
			r.inline(c)
			r.b.WriteString("</a>")
		case "image":
			r.image(c)
		default:
			tag, ok := inlineTags[c.name]
			if !ok {
				r.inline(c)
				continue
			}
			r.b.WriteString("<" + tag + ">")
			r.inline(c)
			r.b.WriteString("</" + tag + ">")
		}
	}
}

// image renders a reference to a <binary> as an <img> pointing at its id.
func (r *renderer) image(n *node) {
	href := n.attr("href")
	if href == "" {
		return
	}
	r.b.WriteString(`<img src="` + html.EscapeString(href) + `" alt="` + html.EscapeString(n.attr("alt")) + `"/>`)
}

func (r *renderer) table(n *node) {
	r.b.WriteString("<table>\n")
	for _, tr := range n.all("tr") {
		r.b.WriteString("<tr>")
		for _, cell := range tr.children {
			if cell.name != "td" && cell.name != "th" {
				continue
			}
			r.b.WriteString("<" + cell.name + ">")
			r.inline(cell)
			r.b.WriteString("</" + cell.name + ">")
		}
		r.b.WriteString("</tr>\n")
	}
	r.b.WriteString("</table>\n")
}

func (r *renderer) String() string { return r.b.String() }
