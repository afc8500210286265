package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const book = "Chapter 1\n\nThe dog saw the cat near the house.\n\nChapter 2\n\nA dog sleeps.\n"

const words = "word,rank,translation,pos\ndog,1,perro,noun\ncat,2,gato,noun\nhouse,3,casa,noun\n"

// newFS returns a file system holding a config, a book and a lexicon. The
// database lives on disk because the SQLite driver does not use afero.
func newFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := fmt.Sprintf(`log:
  level: error
  format: text
storage:
  driver: sqlite3
  dsn: %s
translation:
  backend: lexicon
  source_lang: en
  target_lang: es
policy:
  level: beginner
  density: 1
  min_token_spacing: 1
lexicon:
  path: /lexicon.csv
`, filepath.Join(t.TempDir(), "xenolexia.db"))
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte(cfg), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/book.txt", []byte(book), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/lexicon.csv", []byte(words), 0o644))
	return fs
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(fs)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", "/config.yaml"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	fs := newFS(t)

	out, err := run(t, fs, "parse", "/book.txt")
	require.NoError(t, err)

	var got bookSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "TXT", got.Format)
	assert.Equal(t, "book", got.Title)
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "Chapter 2", got.Chapters[1].Title)
	assert.Empty(t, got.ID)

	out, err = run(t, fs, "parse", "/book.txt", "--text", "1")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2\nA dog sleeps.\n", out)

	_, err = run(t, fs, "parse", "/book.txt", "--text", "7")
	assert.ErrorContains(t, err, "out of range")

	out, err = run(t, fs, "parse", "/book.txt", "--add")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.ID)
}

func TestProcessCommand(t *testing.T) {
	fs := newFS(t)

	out, err := run(t, fs, "process", "/book.txt", "--words")
	require.NoError(t, err)

	var list []foreignWord
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	require.NotEmpty(t, list)
	for _, fw := range list {
		assert.Contains(t, []string{"perro", "gato", "casa"}, fw.Foreign)
		assert.NotEmpty(t, fw.Context)
	}

	out, err = run(t, fs, "process", "/book.txt", "--chapter", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "perro")

	_, err = run(t, fs, "process", "/book.txt", "--chapter", "2")
	assert.ErrorContains(t, err, "out of range")
}

func TestReviewFlow(t *testing.T) {
	fs := newFS(t)

	out, err := run(t, fs, "due")
	require.NoError(t, err)
	var due []itemSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &due))
	assert.Empty(t, due)

	_, err = run(t, fs, "process", "/book.txt", "--save")
	require.NoError(t, err)
	// Saving the same chapter twice adds nothing new.
	_, err = run(t, fs, "process", "/book.txt", "--save")
	require.NoError(t, err)

	out, err = run(t, fs, "due")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &due))
	require.NotEmpty(t, due)
	seen := make(map[string]bool)
	for _, it := range due {
		assert.False(t, seen[it.Source], "duplicate %q", it.Source)
		seen[it.Source] = true
		assert.Equal(t, "book", it.Book)
	}
	total := len(due)

	out, err = run(t, fs, "review", due[0].ID, "5")
	require.NoError(t, err)
	var reviewed itemSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &reviewed))
	assert.Equal(t, due[0].ID, reviewed.ID)
	assert.Equal(t, 1, reviewed.Reviews)
	assert.Equal(t, 1, reviewed.Interval)
	assert.NotEmpty(t, reviewed.Reviewed)

	out, err = run(t, fs, "due")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &due))
	assert.Len(t, due, total-1)

	out, err = run(t, fs, "review", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("total: %d", total))
	assert.Contains(t, out, fmt.Sprintf("due: %d", total-1))

	out, err = run(t, fs, "remind", "--once")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d of %d words due for review\n", total-1, total), out)

	_, err = run(t, fs, "review", due[0].ID, "five")
	assert.ErrorContains(t, err, "not a number")
}

func TestExportCommand(t *testing.T) {
	fs := newFS(t)

	_, err := run(t, fs, "process", "/book.txt", "--save")
	require.NoError(t, err)

	out, err := run(t, fs, "export", "/out/vocab.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "/out/vocab.csv")

	data, err := afero.ReadFile(fs, "/out/vocab.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "source_word,target_word")

	_, err = run(t, fs, "export", "/out/vocab.dat", "--format", "json")
	require.NoError(t, err)
	ok, err := afero.Exists(fs, "/out/vocab.dat")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = run(t, fs, "export", "/out/vocab.dat")
	assert.Error(t, err)
}

func TestLexiconImportCommand(t *testing.T) {
	fs := newFS(t)

	out, err := run(t, fs, "lexicon", "import", "/lexicon.csv")
	require.NoError(t, err)

	var res struct {
		Processed int `yaml:"processed"`
		Imported  int `yaml:"imported"`
		Skipped   int `yaml:"skipped"`
		Entries   int `yaml:"entries"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Entries)
}

func TestInvalidConfig(t *testing.T) {
	fs := newFS(t)
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("log:\n  level: loud\n"), 0o644))

	cmd := newRootCmd(fs)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", "/bad.yaml", "due"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "Log.Level")
}
