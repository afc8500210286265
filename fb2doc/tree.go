package fb2doc

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is an element or, when name is empty, a run of character data.
type node struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*node
}

func (n *node) isText() bool { return n.name == "" }

// attr returns the value of the attribute with the given local name,
// whatever its namespace.
func (n *node) attr(local string) string {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// child returns the first child element with the given name.
func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// all returns the child elements with the given name.
func (n *node) all(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// path follows child elements by name.
func (n *node) path(names ...string) *node {
	for _, name := range names {
		n = n.child(name)
	}
	return n
}

// textContent returns the descendant text with white space collapsed.
func (n *node) textContent() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*node)
	walk = func(n *node) {
		if n.isText() {
			b.WriteString(n.text)
			b.WriteByte(' ')
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

var errNoRoot = errors.New("fb2: document has no root element")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode reads the whole document into a tree and returns the root element.
// Encodings other than UTF-8 are converted according to the XML declaration.
func decode(r io.Reader) (*node, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	d := xml.NewDecoder(br)
	d.CharsetReader = charset.NewReaderLabel
	d.Entity = xml.HTMLEntity

	doc := &node{}
	stack := []*node{doc}
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Attr}
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 1 {
				parent.children = append(parent.children, &node{text: string(t)})
			}
		}
	}

	for _, c := range doc.children {
		if !c.isText() {
			return c, nil
		}
	}
	return nil, errNoRoot
}
