package epubdoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/xenolexia/xenolexia-go/model"
)

// OPF-related errors.
var (
	ErrNoOPF              = errors.New("epub: missing package document (OPF)")
	ErrInvalidOPF         = errors.New("epub: invalid package document")
	ErrEmptySpine         = errors.New("epub: no content in spine")
	ErrUnsupportedVersion = errors.New("epub: unsupported package version")
)

// opfPackage represents the OPF package document.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Title       []dcElement `xml:"title"`
	Creator     []dcElement `xml:"creator"`
	Language    []dcElement `xml:"language"`
	Identifier  []dcElement `xml:"identifier"`
	Publisher   []dcElement `xml:"publisher"`
	Date        []dcElement `xml:"date"`
	Description []dcElement `xml:"description"`
	Subject     []dcElement `xml:"subject"`
	Rights      []dcElement `xml:"rights"`
	Meta        []opfMeta   `xml:"meta"`
}

type dcElement struct {
	ID      string `xml:"id,attr"`
	Scheme  string `xml:"scheme,attr"` // EPUB 2 opf:scheme
	Content string `xml:",chardata"`
}

type opfMeta struct {
	Property string `xml:"property,attr"`
	Refines  string `xml:"refines,attr"`
	Name     string `xml:"name,attr"`    // EPUB 2 style
	Content  string `xml:"content,attr"` // EPUB 2 style
	Value    string `xml:",chardata"`    // EPUB 3 style
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"` // NCX ID for EPUB 2
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// parseOPF parses the OPF file and returns the package and the directory
// hrefs are relative to.
func parseOPF(files map[string]*zip.File, opfPath string) (*Package, string, error) {
	f, ok := files[opfPath]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNoOPF, opfPath)
	}

	baseDir := path.Dir(opfPath)
	if baseDir == "." {
		baseDir = ""
	}

	data, err := readZipFile(f)
	if err != nil {
		return nil, "", err
	}

	var opf opfPackage
	if err := xml.Unmarshal(data, &opf); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidOPF, err)
	}

	if !supportedVersion(opf.Version) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedVersion, opf.Version)
	}

	pkg := &Package{
		Version:  strings.TrimSpace(opf.Version),
		Metadata: convertMetadata(&opf.Metadata),
		Manifest: convertManifest(&opf.Manifest),
		Spine:    convertSpine(&opf.Spine),
		NCX:      opf.Spine.Toc,
	}
	for _, mt := range opf.Metadata.Meta {
		if mt.Name == "cover" && mt.Content != "" {
			pkg.CoverID = mt.Content
		}
	}

	if len(pkg.Spine) == 0 {
		return nil, "", ErrEmptySpine
	}

	return pkg, baseDir, nil
}

// supportedVersion accepts 2.x and 3.x package versions.
func supportedVersion(v string) bool {
	v = strings.TrimSpace(v)
	major, _, _ := strings.Cut(v, ".")
	return major == "2" || major == "3"
}

func first(els []dcElement) string {
	for _, e := range els {
		if s := strings.TrimSpace(e.Content); s != "" {
			return s
		}
	}
	return ""
}

func convertMetadata(m *opfMetadata) Metadata {
	meta := Metadata{
		Title:       first(m.Title),
		Language:    first(m.Language),
		Identifier:  first(m.Identifier),
		Publisher:   first(m.Publisher),
		Date:        first(m.Date),
		Description: first(m.Description),
		Rights:      first(m.Rights),
	}

	for _, c := range m.Creator {
		if s := strings.TrimSpace(c.Content); s != "" {
			meta.Creator = append(meta.Creator, s)
		}
	}

	for _, s := range m.Subject {
		if subj := strings.TrimSpace(s.Content); subj != "" {
			meta.Subjects = append(meta.Subjects, subj)
		}
	}

	for _, id := range m.Identifier {
		if isbn := isbnOf(id); isbn != "" {
			meta.ISBN = isbn
			break
		}
	}

	// EPUB 3 modification date
	for _, mt := range m.Meta {
		if mt.Property == "dcterms:modified" {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(mt.Value)); err == nil {
				meta.Modified = t
			}
		}
	}

	return meta
}

func isbnOf(id dcElement) string {
	v := strings.TrimSpace(id.Content)
	if strings.EqualFold(id.Scheme, "isbn") {
		return v
	}
	if len(v) > len("urn:isbn:") && strings.EqualFold(v[:len("urn:isbn:")], "urn:isbn:") {
		return v[len("urn:isbn:"):]
	}
	return ""
}

func convertManifest(m *opfManifest) map[string]ManifestItem {
	manifest := make(map[string]ManifestItem, len(m.Items))

	for _, item := range m.Items {
		manifest[item.ID] = ManifestItem{
			ID:         item.ID,
			Href:       item.Href,
			MediaType:  item.MediaType,
			Properties: strings.Fields(item.Properties),
		}
	}

	return manifest
}

func convertSpine(s *opfSpine) []SpineItem {
	spine := make([]SpineItem, 0, len(s.ItemRefs))

	for _, ref := range s.ItemRefs {
		spine = append(spine, SpineItem{
			IDRef:  ref.IDRef,
			Linear: ref.Linear != "no", // Default is true
		})
	}

	return spine
}

// ModelMetadata converts the Dublin Core metadata into the format-neutral
// form.
func (m Metadata) ModelMetadata() model.Metadata {
	return model.Metadata{
		Title:       m.Title,
		Authors:     m.Creator,
		Description: m.Description,
		Language:    model.ParseLanguage(m.Language),
		Publisher:   m.Publisher,
		PublishDate: m.Date,
		ISBN:        m.ISBN,
		Identifier:  m.Identifier,
		Subjects:    m.Subjects,
	}
}
