package epubdoc

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/xenolexia/xenolexia-go/model"
)

// ncxDocument represents an EPUB 2 NCX navigation document.
type ncxDocument struct {
	XMLName xml.Name  `xml:"ncx"`
	Title   string    `xml:"docTitle>text"`
	NavMap  ncxNavMap `xml:"navMap"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	ID        string        `xml:"id,attr"`
	PlayOrder string        `xml:"playOrder,attr"`
	Label     string        `xml:"navLabel>text"`
	Content   ncxContent    `xml:"content"`
	Children  []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// parseNavigation builds the table of contents from the EPUB 3 nav document,
// then the EPUB 2 NCX, then the spine.
func (r *Reader) parseNavigation() []model.TOCItem {
	if navItem, ok := r.findNavDocument(); ok {
		href := resolveHref(r.baseDir, navItem.Href)
		if content, err := r.readEntry(href); err == nil {
			if toc := parseNavXHTML(content, path.Dir(href)); len(toc) > 0 {
				return toc
			}
		}
		r.warn(href, "navigation document has no table of contents")
	}

	if ncxItem, ok := r.findNCX(); ok {
		href := resolveHref(r.baseDir, ncxItem.Href)
		content, err := r.readEntry(href)
		if err == nil {
			var toc []model.TOCItem
			if toc, err = parseNCX(content, path.Dir(href)); err == nil && len(toc) > 0 {
				return toc
			}
		}
		if err != nil {
			r.warn(href, "unreadable NCX: %v", err)
		}
	}

	return r.generateTOCFromSpine()
}

func (r *Reader) readEntry(name string) ([]byte, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, ErrMissingContent
	}
	return readZipFile(f)
}

// findNavDocument finds the EPUB 3 nav document in the manifest.
func (r *Reader) findNavDocument() (ManifestItem, bool) {
	for _, item := range r.pkg.Manifest {
		if item.HasProperty("nav") {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// findNCX finds the NCX document named by the spine, or any NCX in the
// manifest.
func (r *Reader) findNCX() (ManifestItem, bool) {
	if item, ok := r.pkg.Manifest[r.pkg.NCX]; ok && r.pkg.NCX != "" {
		return item, true
	}
	for _, item := range r.pkg.Manifest {
		if item.MediaType == "application/x-dtbncx+xml" {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// parseNavXHTML parses the <nav epub:type="toc"> list of an EPUB 3 nav
// document. Hrefs are resolved against dir.
func parseNavXHTML(content []byte, dir string) []model.TOCItem {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil
	}

	nav := findNode(doc, func(n *html.Node) bool {
		if n.Data != "nav" {
			return false
		}
		for _, attr := range n.Attr {
			if (attr.Key == "epub:type" || attr.Key == "type" || attr.Key == "role") && strings.Contains(attr.Val, "toc") {
				return true
			}
		}
		return false
	})
	if nav == nil {
		return nil
	}

	ol := findNode(nav, func(n *html.Node) bool { return n.Data == "ol" })
	if ol == nil {
		return nil
	}
	return parseOLEntries(ol, dir, 0)
}

// findNode returns the first element below n, depth first, matching fn.
func findNode(n *html.Node, fn func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && fn(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// parseOLEntries parses TOC entries from an <ol> element.
func parseOLEntries(ol *html.Node, dir string, level int) []model.TOCItem {
	var entries []model.TOCItem

	for c := ol.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			entry := parseLIEntry(c, dir, level)
			if entry.Title != "" || entry.Href != "" || len(entry.Children) > 0 {
				entries = append(entries, entry)
			}
		}
	}

	return entries
}

// parseLIEntry parses a single TOC entry from an <li> element.
func parseLIEntry(li *html.Node, dir string, level int) model.TOCItem {
	entry := model.TOCItem{Level: level}

	for _, attr := range li.Attr {
		if attr.Key == "id" {
			entry.ID = attr.Val
		}
	}

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			entry.Title = extractText(c)
			for _, attr := range c.Attr {
				if attr.Key == "href" {
					entry.Href = resolveTOCHref(dir, attr.Val)
				}
			}
		case "span":
			if entry.Title == "" {
				entry.Title = extractText(c)
			}
		case "ol":
			entry.Children = parseOLEntries(c, dir, level+1)
		}
	}

	return entry
}

// resolveTOCHref resolves href against dir and keeps its fragment.
func resolveTOCHref(dir, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	target, frag, hasFrag := strings.Cut(href, "#")
	if target == "" {
		return href
	}
	resolved := resolveHref(dir, target)
	if hasFrag {
		resolved += "#" + frag
	}
	return resolved
}

// parseNCX parses an EPUB 2 NCX document.
func parseNCX(content []byte, dir string) ([]model.TOCItem, error) {
	var ncx ncxDocument
	if err := xml.Unmarshal(content, &ncx); err != nil {
		return nil, err
	}
	return convertNCXNavPoints(ncx.NavMap.NavPoints, dir, 0), nil
}

// convertNCXNavPoints converts NCX navPoints to TOC items.
func convertNCXNavPoints(points []ncxNavPoint, dir string, level int) []model.TOCItem {
	entries := make([]model.TOCItem, 0, len(points))

	for _, p := range points {
		entries = append(entries, model.TOCItem{
			ID:       p.ID,
			Title:    strings.Join(strings.Fields(p.Label), " "),
			Href:     resolveTOCHref(dir, p.Content.Src),
			Level:    level,
			Children: convertNCXNavPoints(p.Children, dir, level+1),
		})
	}

	return entries
}

// generateTOCFromSpine creates a flat TOC from the chapters when the package
// has no usable navigation.
func (r *Reader) generateTOCFromSpine() []model.TOCItem {
	toc := make([]model.TOCItem, 0, len(r.chapters))

	for _, ch := range r.chapters {
		title := extractChapterTitle(ch.Content)
		if title == "" {
			title = ch.ID
		}
		toc = append(toc, model.TOCItem{
			ID:    ch.ID,
			Title: title,
			Href:  ch.Href,
		})
	}

	return toc
}

// extractText extracts all text content from an HTML node.
func extractText(n *html.Node) string {
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(text.String()), " ")
}
