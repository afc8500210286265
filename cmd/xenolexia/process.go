package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/parser"
	"github.com/xenolexia/xenolexia-go/substitute"
)

type foreignWord struct {
	Original string `yaml:"original"`
	Foreign  string `yaml:"foreign"`
	Start    int    `yaml:"start"`
	End      int    `yaml:"end"`
	Context  string `yaml:"context,omitempty"`
}

func newProcessCmd(a *app) *cobra.Command {
	var (
		chapter int
		useOCR  bool
		words   bool
		save    bool
		bookID  string
	)
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Substitute foreign words into one chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, done, err := a.parseOptions(useOCR)
			if err != nil {
				return err
			}
			defer done()

			book, err := parser.ParseBook(ctx, a.fs, args[0], opts...)
			if err != nil {
				return err
			}
			if chapter < 0 || chapter >= len(book.Chapters) {
				return fmt.Errorf("chapter %d out of range [0, %d)", chapter, len(book.Chapters))
			}

			lex, err := a.loadLexicon()
			if err != nil {
				return err
			}
			tr, err := a.translator(ctx, lex)
			if err != nil {
				return err
			}
			pol, err := a.cfg.Policy.Policy(a.pair())
			if err != nil {
				return err
			}

			sopts := substitute.DefaultOptions(pol)
			sopts.Concurrency = a.cfg.Translation.Concurrency
			sopts.Timeout = a.cfg.Translation.Timeout

			pc, err := substitute.NewEngine(lex, tr, a.logger).Process(ctx, book.Chapters[chapter], sopts)
			if err != nil {
				return err
			}

			if save || bookID != "" {
				if err := a.saveChapter(cmd, book, pc, bookID, save); err != nil {
					return err
				}
			}

			if !words {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), pc.ProcessedContent)
				return err
			}
			list := make([]foreignWord, len(pc.ForeignWords))
			for i, fw := range pc.ForeignWords {
				list[i] = foreignWord{
					Original: fw.OriginalWord,
					Foreign:  fw.ForeignWord,
					Start:    fw.StartIndex,
					End:      fw.EndIndex,
					Context:  substitute.ContextSentence(pc, i),
				}
			}
			return writeYAML(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVar(&chapter, "chapter", 0, "chapter index (0-based)")
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "recognize image-only pages (requires a build with -tags ocr)")
	cmd.Flags().BoolVar(&words, "words", false, "print the substituted words instead of the chapter")
	cmd.Flags().BoolVar(&save, "save", false, "save the substituted words to the vocabulary")
	cmd.Flags().StringVar(&bookID, "book-id", "", "library book id; records reading progress and links saved words")
	return cmd
}

// saveChapter stores the chapter's substituted words, once per word, and
// advances the reading position of bookID when set.
func (a *app) saveChapter(cmd *cobra.Command, book *model.ParsedBook, pc *model.ProcessedChapter, bookID string, save bool) error {
	ctx := cmd.Context()
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now().UTC()
	if bookID != "" {
		progress := 100 * float64(pc.Index+1) / float64(len(book.Chapters))
		if err := s.UpdateProgress(ctx, bookID, progress, pc.Index, now); err != nil {
			return err
		}
	}
	if !save {
		return nil
	}

	existing, err := s.ListVocabulary(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, it := range existing {
		seen[lexicon.Fold(it.SourceWord)+"\x00"+string(it.Pair.Target)] = true
	}

	pair := a.pair()
	added := 0
	for i, fw := range pc.ForeignWords {
		key := lexicon.Fold(fw.OriginalWord) + "\x00" + string(pair.Target)
		if seen[key] {
			continue
		}
		seen[key] = true

		item, err := model.NewVocabularyItem(lexicon.Fold(fw.OriginalWord), fw.ForeignWord, pair, now)
		if err != nil {
			return err
		}
		item.ContextSentence = substitute.ContextSentence(pc, i)
		item.BookID = bookID
		item.BookTitle = book.Metadata.Title
		if err := s.AddVocabulary(ctx, item); err != nil {
			return err
		}
		added++
	}
	a.logger.Info("vocabulary saved",
		slog.Int("added", added),
		slog.Int("substituted", len(pc.ForeignWords)))
	return nil
}
