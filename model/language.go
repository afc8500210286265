package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProficiency is returned when a proficiency level cannot be parsed.
var ErrUnknownProficiency = errors.New("model: unknown proficiency level")

// Language is a lowercase ISO 639-1 code such as "en" or "es".
type Language string

// Languages with built-in names. Any other code is accepted as-is.
const (
	English    Language = "en"
	Spanish    Language = "es"
	French     Language = "fr"
	German     Language = "de"
	Italian    Language = "it"
	Portuguese Language = "pt"
	Russian    Language = "ru"
	Greek      Language = "el"
	Dutch      Language = "nl"
	Polish     Language = "pl"
	Swedish    Language = "sv"
	Turkish    Language = "tr"
	Japanese   Language = "ja"
	Chinese    Language = "zh"
	Korean     Language = "ko"
	Arabic     Language = "ar"
)

var languageNames = map[Language]string{
	English:    "English",
	Spanish:    "Spanish",
	French:     "French",
	German:     "German",
	Italian:    "Italian",
	Portuguese: "Portuguese",
	Russian:    "Russian",
	Greek:      "Greek",
	Dutch:      "Dutch",
	Polish:     "Polish",
	Swedish:    "Swedish",
	Turkish:    "Turkish",
	Japanese:   "Japanese",
	Chinese:    "Chinese",
	Korean:     "Korean",
	Arabic:     "Arabic",
}

// ParseLanguage normalizes a language code. Region suffixes are dropped,
// so "en-US" and "EN_gb" both become English. Built-in English names such as
// "Spanish" are accepted too.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	for lang, name := range languageNames {
		if strings.ToLower(name) == code {
			return lang
		}
	}
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return Language(code)
}

// Name returns the English name of the language, or the code itself.
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

func (l Language) String() string { return string(l) }

// LanguagePair is the direction of substitution: words of Source are
// replaced by words of Target.
type LanguagePair struct {
	Source Language `json:"source" yaml:"source"`
	Target Language `json:"target" yaml:"target"`
}

// String renders the pair as "en-es".
func (p LanguagePair) String() string {
	return string(p.Source) + "-" + string(p.Target)
}

// Valid reports whether both languages are set and differ.
func (p LanguagePair) Valid() bool {
	return p.Source != "" && p.Target != "" && p.Source != p.Target
}

// ProficiencyLevel is the learner's coarse skill tier. It selects the
// frequency band used when choosing words to substitute.
type ProficiencyLevel int

const (
	Beginner ProficiencyLevel = iota
	Intermediate
	Advanced
)

func (p ProficiencyLevel) String() string {
	switch p {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	default:
		return "unknown"
	}
}

// CEFR returns the range of CEFR levels the tier covers.
func (p ProficiencyLevel) CEFR() string {
	switch p {
	case Beginner:
		return "A1-A2"
	case Intermediate:
		return "B1-B2"
	case Advanced:
		return "C1-C2"
	default:
		return ""
	}
}

// ParseProficiency accepts a tier name or a CEFR level (A1..C2).
func ParseProficiency(s string) (ProficiencyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "a1", "a2":
		return Beginner, nil
	case "intermediate", "b1", "b2":
		return Intermediate, nil
	case "advanced", "c1", "c2":
		return Advanced, nil
	}
	return Beginner, fmt.Errorf("%w: %q", ErrUnknownProficiency, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p ProficiencyLevel) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ProficiencyLevel) UnmarshalText(b []byte) error {
	v, err := ParseProficiency(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
