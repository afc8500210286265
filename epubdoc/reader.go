package epubdoc

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/xenolexia/xenolexia-go/format"
	"github.com/xenolexia/xenolexia-go/htmldoc"
	"github.com/xenolexia/xenolexia-go/model"
)

// Reader-related errors.
var (
	ErrInvalidArchive = errors.New("epub: invalid or corrupted archive")
	ErrMissingContent = errors.New("epub: referenced content file not found")
)

// Reader provides access to EPUB content.
type Reader struct {
	files    map[string]*zip.File
	pkg      *Package
	baseDir  string // Directory containing OPF (for resolving relative paths)
	opts     Options
	logger   *slog.Logger
	chapters []model.Chapter
	toc      []model.TOCItem
	cover    *model.Cover
	warnings []model.Warning
}

// Parse reads the EPUB in ra and returns the normalized book.
func Parse(ctx context.Context, ra io.ReaderAt, size int64, opts Options) (*model.ParsedBook, error) {
	r, err := OpenReader(ctx, ra, size, opts)
	if err != nil {
		return nil, err
	}
	return r.Book(), nil
}

// OpenReader opens an EPUB from an io.ReaderAt. Every error is a
// *format.Error, except context cancellation which is returned as is.
func OpenReader(ctx context.Context, ra io.ReaderAt, size int64, opts Options) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, classify(fmt.Errorf("%w: %v", ErrInvalidArchive, err))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reader{
		files:  make(map[string]*zip.File, len(zr.File)),
		opts:   opts,
		logger: logger.With(slog.String("component", "epubdoc")),
	}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if err := r.init(ctx); err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// classify wraps err in a *format.Error of the matching kind.
func classify(err error) error {
	var fe *format.Error
	if errors.As(err, &fe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	kind := format.Corrupt
	switch {
	case errors.Is(err, ErrNoContainer), errors.Is(err, ErrNoRootfile),
		errors.Is(err, ErrNoOPF), errors.Is(err, ErrEmptySpine):
		kind = format.MissingRequiredPart
	case errors.Is(err, ErrUnsupportedVersion):
		kind = format.UnsupportedVersion
	case errors.Is(err, ErrDRMProtected):
		kind = format.UnsupportedFormat
	}
	return format.NewError(kind, format.EPUB, err)
}

// init parses the package structure and loads every spine document.
func (r *Reader) init(ctx context.Context) error {
	// Check for DRM - REJECT if found
	if err := checkForDRM(r.files); err != nil {
		return err
	}

	opfPath, err := parseContainer(r.files)
	if err != nil {
		return err
	}

	pkg, baseDir, err := parseOPF(r.files, opfPath)
	if err != nil {
		return err
	}
	r.pkg = pkg
	r.baseDir = baseDir
	r.logger.Debug("package parsed",
		slog.String("opf", opfPath),
		slog.String("version", pkg.Version),
		slog.Int("spine", len(pkg.Spine)))

	if err := r.loadChapters(ctx); err != nil {
		return err
	}

	r.toc = r.parseNavigation()
	r.assignTitles()
	r.cover = r.findCover()

	return nil
}

func (r *Reader) warn(href, msg string, args ...any) {
	r.warnings = append(r.warnings, model.Warning{Href: href, Message: fmt.Sprintf(msg, args...)})
}

// loadChapters loads all spine items as chapters.
func (r *Reader) loadChapters(ctx context.Context) error {
	r.chapters = make([]model.Chapter, 0, len(r.pkg.Spine))

	for _, spineItem := range r.pkg.Spine {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, ok := r.pkg.Manifest[spineItem.IDRef]
		if !ok {
			r.warn("", "spine item %q is not in the manifest", spineItem.IDRef)
			continue
		}

		href := resolveHref(r.baseDir, item.Href)
		if !isContentDocument(item.MediaType) {
			r.warn(href, "skipped spine item of type %s", item.MediaType)
			continue
		}

		f, ok := r.files[href]
		if !ok {
			r.warn(href, "%v", ErrMissingContent)
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return err
		}

		content := string(data)
		if srcs, ok := imageOnly(content); ok {
			content = r.recognize(href, content, srcs)
		}

		r.chapters = append(r.chapters, model.Chapter{
			ID:          item.ID,
			Index:       len(r.chapters),
			Href:        href,
			Content:     content,
			ContentType: model.ContentHTML,
		})
	}

	if len(r.chapters) == 0 {
		return ErrEmptySpine
	}

	return nil
}

func isContentDocument(mediaType string) bool {
	switch mediaType {
	case "", "application/xhtml+xml", "text/html", "application/xml", "text/xml":
		return true
	}
	return false
}

// resolveHref resolves a relative href against a directory inside the
// archive. Fragments are dropped.
func resolveHref(baseDir, href string) string {
	href, _, _ = strings.Cut(href, "#")
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	if baseDir == "" || baseDir == "." {
		return path.Clean(href)
	}
	return path.Join(baseDir, href)
}

// readZipFile reads a file from the ZIP archive.
func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
	}
	return data, nil
}

// assignTitles names each chapter after its table of contents entry, falling
// back to the document's own title or first heading.
func (r *Reader) assignTitles() {
	titles := make(map[string]string)
	for _, root := range r.toc {
		root.Walk(func(item model.TOCItem) bool {
			key, _, _ := strings.Cut(item.Href, "#")
			if _, seen := titles[key]; !seen && item.Title != "" {
				titles[key] = item.Title
			}
			return true
		})
	}

	for i := range r.chapters {
		ch := &r.chapters[i]
		if t := titles[ch.Href]; t != "" {
			ch.Title = t
			continue
		}
		ch.Title = extractChapterTitle(ch.Content)
	}
}

var titleQueries = []string{"//title", "//h1", "//h2", "//h3"}

// extractChapterTitle extracts a title from the chapter content.
func extractChapterTitle(content string) string {
	return htmldoc.Heading(content, titleQueries...)
}

// findCover locates the cover image through the EPUB 3 cover-image property
// or the EPUB 2 cover meta element.
func (r *Reader) findCover() *model.Cover {
	var item ManifestItem
	var found bool
	for _, it := range r.pkg.Manifest {
		if it.HasProperty("cover-image") {
			item, found = it, true
			break
		}
	}
	if !found && r.pkg.CoverID != "" {
		item, found = r.pkg.Manifest[r.pkg.CoverID]
	}
	if !found || !strings.HasPrefix(item.MediaType, "image/") {
		return nil
	}

	href := resolveHref(r.baseDir, item.Href)
	f, ok := r.files[href]
	if !ok {
		r.warn(href, "cover image not found")
		return nil
	}
	data, err := readZipFile(f)
	if err != nil {
		r.warn(href, "cover image unreadable: %v", err)
		return nil
	}
	return &model.Cover{Data: data, MediaType: item.MediaType}
}

// Package returns the parsed OPF package.
func (r *Reader) Package() *Package {
	return r.pkg
}

// Metadata returns the book metadata.
func (r *Reader) Metadata() model.Metadata {
	return r.pkg.Metadata.ModelMetadata()
}

// ChapterCount returns the number of chapters.
func (r *Reader) ChapterCount() int {
	return len(r.chapters)
}

// Chapters returns all chapters in spine order.
func (r *Reader) Chapters() []model.Chapter {
	return r.chapters
}

// TableOfContents returns the navigation tree.
func (r *Reader) TableOfContents() []model.TOCItem {
	return r.toc
}

// Cover returns the cover image, or nil.
func (r *Reader) Cover() *model.Cover {
	return r.cover
}

// Warnings returns the non-fatal problems found while reading.
func (r *Reader) Warnings() []model.Warning {
	return r.warnings
}

// Book returns the normalized book.
func (r *Reader) Book() *model.ParsedBook {
	return &model.ParsedBook{
		Format:   format.EPUB,
		Metadata: r.Metadata(),
		Chapters: r.chapters,
		TOC:      r.toc,
		Cover:    r.cover,
		Warnings: r.warnings,
	}
}
