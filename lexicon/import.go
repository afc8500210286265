package lexicon

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/xenolexia/xenolexia-go/model"
)

// ErrUnsupportedFile is returned for lexicon files that are neither CSV nor XLSX.
var ErrUnsupportedFile = errors.New("lexicon: unsupported file type")

// ImportConfig describes the layout of a frequency list. Column indexes are
// zero based; a negative index means the column is absent.
type ImportConfig struct {
	Pair         model.LanguagePair
	SheetName    string // XLSX only; empty selects the first sheet
	WordColumn   int
	RankColumn   int
	TargetColumn int
	POSColumn    int
	// StartRow is the first row to import (1-based). Rows whose rank column
	// is not a number are skipped, so a header row is tolerated either way.
	StartRow int
}

// DefaultImportConfig returns the layout word,rank,target,pos.
func DefaultImportConfig(pair model.LanguagePair) ImportConfig {
	return ImportConfig{
		Pair:         pair,
		WordColumn:   0,
		RankColumn:   1,
		TargetColumn: 2,
		POSColumn:    3,
		StartRow:     1,
	}
}

// ImportResult summarizes an import.
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// ImportFile imports a CSV or XLSX file chosen by extension.
func (m *Memory) ImportFile(fs afero.Fs, path string, cfg ImportConfig) (*ImportResult, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return m.ImportCSV(f, cfg)
	case ".xlsx":
		return m.ImportXLSX(f, cfg)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
}

// ImportCSV imports rows from comma separated data. Tab separated data is
// detected from the first line.
func (m *Memory) ImportCSV(r io.Reader, cfg ImportConfig) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read csv: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := strings.Cut(string(data), "\n"); strings.Contains(first, "\t") && !strings.Contains(first, ",") {
		cr.Comma = '\t'
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("lexicon: parse csv: %w", err)
	}
	return m.importRows(rows, cfg), nil
}

// ImportXLSX imports rows from an Excel workbook.
func (m *Memory) ImportXLSX(r io.Reader, cfg ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open workbook: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &ImportResult{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read sheet %q: %w", sheet, err)
	}
	return m.importRows(rows, cfg), nil
}

func (m *Memory) importRows(rows [][]string, cfg ImportConfig) *ImportResult {
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		if i < cfg.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		entry, err := parseRow(row, cfg)
		if err != nil {
			result.Skipped++
			if i > 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			}
			continue
		}
		m.Add(entry)
		result.Imported++
	}

	return result
}

func parseRow(row []string, cfg ImportConfig) (model.WordEntry, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	word := cell(cfg.WordColumn)
	if word == "" {
		return model.WordEntry{}, errors.New("empty word")
	}
	rank, err := strconv.Atoi(cell(cfg.RankColumn))
	if err != nil || rank <= 0 {
		return model.WordEntry{}, fmt.Errorf("invalid rank %q", cell(cfg.RankColumn))
	}

	return model.WordEntry{
		SourceWord:    word,
		TargetWord:    cell(cfg.TargetColumn),
		Pair:          cfg.Pair,
		FrequencyRank: rank,
		PartOfSpeech:  cell(cfg.POSColumn),
	}, nil
}
