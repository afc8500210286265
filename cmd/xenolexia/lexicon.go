package main

import (
	"github.com/spf13/cobra"

	"github.com/xenolexia/xenolexia-go/lexicon"
)

func newLexiconCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect frequency word lists",
	}
	cmd.AddCommand(newLexiconImportCmd(a))
	return cmd
}

func newLexiconImportCmd(a *app) *cobra.Command {
	var (
		wordCol   int
		rankCol   int
		targetCol int
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Check a CSV or XLSX word list and report what would be imported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := lexicon.DefaultImportConfig(a.pair())
			cfg.WordColumn = wordCol
			cfg.RankColumn = rankCol
			cfg.TargetColumn = targetCol

			lex := lexicon.NewMemory()
			res, err := lex.ImportFile(a.fs, args[0], cfg)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), struct {
				Processed int      `yaml:"processed"`
				Imported  int      `yaml:"imported"`
				Skipped   int      `yaml:"skipped"`
				Entries   int      `yaml:"entries"`
				Errors    []string `yaml:"errors,omitempty"`
			}{res.TotalProcessed, res.Imported, res.Skipped, lex.Len(cfg.Pair), res.Errors})
		},
	}
	cmd.Flags().IntVar(&wordCol, "word-column", 0, "column holding the source word")
	cmd.Flags().IntVar(&rankCol, "rank-column", 1, "column holding the frequency rank")
	cmd.Flags().IntVar(&targetCol, "target-column", 2, "column holding the translation (-1 when absent)")
	return cmd
}
