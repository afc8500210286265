package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xenolexia/xenolexia-go/htmldoc"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/parser"
)

type chapterSummary struct {
	Index int    `yaml:"index"`
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Words int    `yaml:"words"`
}

type bookSummary struct {
	ID       string           `yaml:"id,omitempty"`
	Title    string           `yaml:"title"`
	Authors  []string         `yaml:"authors,omitempty"`
	Language string           `yaml:"language,omitempty"`
	Format   string           `yaml:"format"`
	Words    int              `yaml:"words"`
	Cover    string           `yaml:"cover,omitempty"`
	Chapters []chapterSummary `yaml:"chapters"`
	Warnings []string         `yaml:"warnings,omitempty"`
}

func summarize(book *model.ParsedBook) bookSummary {
	s := bookSummary{
		Title:    book.Metadata.Title,
		Authors:  book.Metadata.Authors,
		Language: string(book.Metadata.Language),
		Format:   book.Format.String(),
		Words:    book.TotalWordCount,
	}
	if c := book.Cover; c != nil {
		s.Cover = fmt.Sprintf("%s %dx%d", c.MediaType, c.Width, c.Height)
	}
	for _, ch := range book.Chapters {
		s.Chapters = append(s.Chapters, chapterSummary{Index: ch.Index, ID: ch.ID, Title: ch.Title, Words: ch.WordCount})
	}
	for _, w := range book.Warnings {
		s.Warnings = append(s.Warnings, w.String())
	}
	return s
}

func newParseCmd(a *app) *cobra.Command {
	var (
		useOCR bool
		text   string
		add    bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a book and print its metadata and chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, done, err := a.parseOptions(useOCR)
			if err != nil {
				return err
			}
			defer done()

			book, err := parser.ParseBook(cmd.Context(), a.fs, args[0], opts...)
			if err != nil {
				return err
			}

			if text != "" {
				i, err := strconv.Atoi(text)
				if err != nil || i < 0 || i >= len(book.Chapters) {
					return fmt.Errorf("chapter %q out of range [0, %d)", text, len(book.Chapters))
				}
				ch := book.Chapters[i]
				out := ch.Content
				if ch.ContentType == model.ContentHTML {
					out = htmldoc.Text(ch.Content)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}

			summary := summarize(book)
			if add {
				id, err := a.addBook(cmd, args[0], book)
				if err != nil {
					return err
				}
				summary.ID = id
			}
			return writeYAML(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "recognize image-only pages (requires a build with -tags ocr)")
	cmd.Flags().StringVar(&text, "text", "", "print the plain text of the chapter with this index instead of the summary")
	cmd.Flags().BoolVar(&add, "add", false, "add the book to the library")
	return cmd
}

// addBook records a parsed book in the library and returns its id.
func (a *app) addBook(cmd *cobra.Command, path string, book *model.ParsedBook) (string, error) {
	s, err := a.openStore(cmd.Context())
	if err != nil {
		return "", err
	}
	defer s.Close()

	var size int64
	if info, err := a.fs.Stat(path); err == nil {
		size = info.Size()
	}
	pol, err := a.cfg.Policy.Policy(a.pair())
	if err != nil {
		return "", err
	}

	b := &model.Book{
		ID:            uuid.NewString(),
		Title:         book.Metadata.Title,
		Author:        book.Metadata.Author(),
		FilePath:      path,
		Format:        book.Format,
		FileSize:      size,
		AddedAt:       time.Now().UTC(),
		Pair:          a.pair(),
		Level:         pol.Level,
		WordDensity:   pol.Density,
		TotalChapters: len(book.Chapters),
	}
	if err := s.AddBook(cmd.Context(), b); err != nil {
		return "", err
	}
	return b.ID, nil
}
