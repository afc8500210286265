package epubdoc

import (
	"path"
	"strings"

	"github.com/antchfx/htmlquery"
	xhtml "golang.org/x/net/html"

	"github.com/xenolexia/xenolexia-go/htmldoc"
	"github.com/xenolexia/xenolexia-go/segment"
)

// imageOnly reports whether a content document has no words but references
// images, and returns the image sources in document order.
func imageOnly(content string) ([]string, bool) {
	if segment.CountWords(content, segment.HTML) > 0 {
		return nil, false
	}
	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, false
	}

	var srcs []string
	for _, n := range htmlquery.Find(doc, "//img | //image") {
		if src := imageSource(n); src != "" {
			srcs = append(srcs, src)
		}
	}
	return srcs, len(srcs) > 0
}

// imageSource returns src for <img> and href or xlink:href for SVG <image>.
func imageSource(n *xhtml.Node) string {
	for _, a := range n.Attr {
		switch a.Key {
		case "src", "href", "xlink:href":
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// recognize replaces an image-only document with the OCR text of its images.
// Without a recognizer the document is kept and a warning recorded.
func (r *Reader) recognize(href, content string, srcs []string) string {
	if r.opts.OCR == nil {
		r.warn(href, "document contains only images and OCR is not available")
		return content
	}

	dir := path.Dir(href)
	var paras []string
	for _, src := range srcs {
		imgPath := resolveHref(dir, src)
		f, ok := r.files[imgPath]
		if !ok {
			r.warn(imgPath, "image not found")
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			r.warn(imgPath, "image unreadable: %v", err)
			continue
		}
		text, err := r.opts.OCR.RecognizeImage(data)
		if err != nil {
			r.warn(imgPath, "ocr failed: %v", err)
			continue
		}
		paras = append(paras, htmldoc.Paragraphs(text)...)
	}

	if len(paras) == 0 {
		return content
	}
	r.logger.Debug("recognized image-only document",
		"href", href,
		"images", len(srcs),
		"paragraphs", len(paras))

	return htmldoc.Render("", paras)
}
