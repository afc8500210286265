// Package export writes saved vocabulary to CSV, JSON, Anki TSV or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/xenolexia/xenolexia-go/model"
)

// Format is an export file format.
type Format int

const (
	CSV Format = iota
	JSON
	Anki
	XLSX
)

// ErrUnknownFormat is returned for unrecognized format names.
var ErrUnknownFormat = errors.New("export: unknown format")

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case JSON:
		return "json"
	case Anki:
		return "anki"
	case XLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// Extension returns the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case Anki:
		return ".txt"
	case CSV, JSON, XLSX:
		return "." + f.String()
	default:
		return ""
	}
}

// ParseFormat parses a format name or extension ("csv", "json", "anki", "tsv",
// "txt", "xlsx").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "anki", "tsv", "txt":
		return Anki, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

var header = []string{
	"source_word", "target_word", "source_lang", "target_lang", "context_sentence",
	"book_title", "status", "review_count", "ease_factor", "interval", "added_at", "last_reviewed_at",
}

func record(it model.VocabularyItem) []string {
	last := ""
	if it.LastReviewedAt != nil {
		last = it.LastReviewedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		it.SourceWord,
		it.TargetWord,
		string(it.Pair.Source),
		string(it.Pair.Target),
		it.ContextSentence,
		it.BookTitle,
		string(it.Status),
		strconv.Itoa(it.ReviewCount),
		strconv.FormatFloat(it.EaseFactor, 'f', 2, 64),
		strconv.Itoa(it.Interval),
		it.AddedAt.UTC().Format(time.RFC3339),
		last,
	}
}

// Write encodes items to w in format f.
func Write(w io.Writer, f Format, items []model.VocabularyItem) error {
	switch f {
	case CSV:
		return writeCSV(w, items)
	case JSON:
		return writeJSON(w, items)
	case Anki:
		return writeAnki(w, items)
	case XLSX:
		return writeXLSX(w, items)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
}

// ToFile writes items to path on fs.
func ToFile(fs afero.Fs, path string, f Format, items []model.VocabularyItem) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	out, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close export file: %w", cerr)
		}
	}()
	return Write(out, f, items)
}

func writeCSV(w io.Writer, items []model.VocabularyItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write(record(it)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, items []model.VocabularyItem) error {
	if items == nil {
		items = []model.VocabularyItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// writeAnki writes a tab-separated file Anki can import as Basic notes:
// front, back (translation and context), tags.
func writeAnki(w io.Writer, items []model.VocabularyItem) error {
	if _, err := io.WriteString(w, "#separator:tab\n#html:true\n#tags column:3\n"); err != nil {
		return err
	}
	for _, it := range items {
		back := html.EscapeString(it.TargetWord)
		if it.ContextSentence != "" {
			back += "<br><i>" + html.EscapeString(it.ContextSentence) + "</i>"
		}
		line := ankiField(html.EscapeString(it.SourceWord)) + "\t" + ankiField(back) + "\t" + ankiTags(it) + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func ankiField(s string) string {
	return strings.NewReplacer("\t", " ", "\r\n", "<br>", "\n", "<br>", "\r", "<br>").Replace(s)
}

func ankiTags(it model.VocabularyItem) string {
	tags := []string{"xenolexia"}
	if it.Pair.Valid() {
		tags = append(tags, it.Pair.String())
	}
	if it.BookTitle != "" {
		tags = append(tags, strings.Join(strings.Fields(strings.ToLower(it.BookTitle)), "_"))
	}
	if it.Status != "" {
		tags = append(tags, string(it.Status))
	}
	return strings.Join(tags, " ")
}

const sheetName = "Sheet1"

func writeXLSX(w io.Writer, items []model.VocabularyItem) error {
	f := excelize.NewFile()
	defer f.Close()

	cell, err := excelize.CoordinatesToCellName(1, 1)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return err
	}

	for n, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		rec := record(it)
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		// Numeric columns stay numeric in the sheet.
		row[7] = it.ReviewCount
		row[8] = it.EaseFactor
		row[9] = it.Interval
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}
