package format

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{EPUB, "EPUB"},
		{FB2, "FB2"},
		{MOBI, "MOBI"},
		{PDF, "PDF"},
		{TXT, "TXT"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_Extension(t *testing.T) {
	for _, f := range All {
		if got := Detect("book" + f.Extension()); got != f {
			t.Errorf("Detect(book%s) = %v, want %v", f.Extension(), got, f)
		}
	}
	if Unknown.Extension() != "" {
		t.Errorf("Unknown.Extension() = %q, want empty", Unknown.Extension())
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"book.epub", EPUB},
		{"book.EPUB", EPUB},
		{"book.fb2", FB2},
		{"book.Fb2", FB2},
		{"book.mobi", MOBI},
		{"book.prc", MOBI},
		{"book.azw", MOBI},
		{"book.pdf", PDF},
		{"book.txt", TXT},
		{"book.TXT", TXT},
		{"book.docx", Unknown},
		{"book", Unknown},
		{"", Unknown},
		{"/path/to/file.epub", EPUB},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"epub", EPUB},
		{".PDF", PDF},
		{" fb2 ", FB2},
		{"mobi", MOBI},
		{"docx", Unknown},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func mobiHeader(sig string) []byte {
	data := make([]byte, 78)
	copy(data, "Some Title")
	copy(data[60:], sig)
	return data
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{
			name: "PDF magic bytes",
			data: []byte("%PDF-1.4"),
			want: PDF,
		},
		{
			name: "ZIP magic bytes",
			data: []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00},
			want: Unknown,
		},
		{
			name: "MOBI signature",
			data: mobiHeader("BOOKMOBI"),
			want: MOBI,
		},
		{
			name: "PalmDOC signature",
			data: mobiHeader("TEXtREAd"),
			want: MOBI,
		},
		{
			name: "FB2 with declaration",
			data: []byte(`<?xml version="1.0" encoding="utf-8"?>` + "\n" + `<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0">`),
			want: FB2,
		},
		{
			name: "FB2 with BOM",
			data: []byte("\xef\xbb\xbf<FictionBook>"),
			want: FB2,
		},
		{
			name: "XHTML is not FB2",
			data: []byte(`<?xml version="1.0"?><html>`),
			want: Unknown,
		},
		{
			name: "empty data",
			data: []byte{},
			want: Unknown,
		},
		{
			name: "text file",
			data: []byte("Hello, World!"),
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFromReader_EPUB(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Format
	}{
		{"mimetype", map[string]string{"mimetype": "application/epub+zip"}, EPUB},
		{"container only", map[string]string{"META-INF/container.xml": "<container/>"}, EPUB},
		{"other zip", map[string]string{"word/document.xml": "<w/>"}, Unknown},
	}

	for _, tt := range tests {
		data := buildZip(t, tt.files)
		got, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("%s: DetectFromReader() error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: DetectFromReader() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectFromReader_BrokenZip(t *testing.T) {
	data := buildZip(t, map[string]string{"mimetype": "application/epub+zip", "chapter.xhtml": "<p>text</p>"})
	data = data[:len(data)/2]

	got, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrBrokenArchive) {
		t.Fatalf("DetectFromReader() error = %v, want ErrBrokenArchive", err)
	}
	if got != Unknown {
		t.Errorf("DetectFromReader() = %v, want Unknown", got)
	}
}

func TestDetectFromReader_PDF(t *testing.T) {
	data := []byte("%PDF-1.4\n%%EOF")
	r := bytes.NewReader(data)

	format, err := DetectFromReader(r, int64(len(data)))
	if err != nil {
		t.Fatalf("DetectFromReader() error = %v", err)
	}
	if format != PDF {
		t.Errorf("DetectFromReader() = %v, want PDF", format)
	}
}

func TestDetectFromReader_Unknown(t *testing.T) {
	data := []byte("Hello, World! This is plain text.")
	r := bytes.NewReader(data)

	format, err := DetectFromReader(r, int64(len(data)))
	if err != nil {
		t.Fatalf("DetectFromReader() error = %v", err)
	}
	if format != Unknown {
		t.Errorf("DetectFromReader() = %v, want Unknown", format)
	}
}

func TestDetectFromReader_TruncatedZip(t *testing.T) {
	data := buildZip(t, map[string]string{"mimetype": "application/epub+zip"})
	data = data[:len(data)/2]

	if _, err := DetectFromReader(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("DetectFromReader() on truncated zip: expected error")
	}
}
