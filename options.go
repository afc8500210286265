package xenolexia

import (
	"log/slog"

	"github.com/xenolexia/xenolexia-go/lexicon"
	"github.com/xenolexia/xenolexia-go/model"
	"github.com/xenolexia/xenolexia-go/parser"
	"github.com/xenolexia/xenolexia-go/policy"
	"github.com/xenolexia/xenolexia-go/translate"
)

// readOptions holds the configuration of a Reader.
type readOptions struct {
	// Chapter selection (0-based); nil means all chapters
	chapters []int

	policy     policy.Policy
	lexicon    lexicon.Lexicon
	translator translate.Translator
	parse      []parser.Option
	logger     *slog.Logger
}

// defaultReadOptions selects every chapter at the beginner level with the
// default density.
func defaultReadOptions() readOptions {
	return readOptions{
		policy: policy.Policy{Level: model.Beginner, Density: policy.DefaultDensity},
		logger: slog.Default(),
	}
}

// clone creates a deep copy of readOptions.
func (o readOptions) clone() readOptions {
	n := o
	if o.chapters != nil {
		n.chapters = append([]int(nil), o.chapters...)
	}
	if o.parse != nil {
		n.parse = append([]parser.Option(nil), o.parse...)
	}
	if o.policy.Exclude != nil {
		n.policy.Exclude = append([]string(nil), o.policy.Exclude...)
	}
	return n
}
