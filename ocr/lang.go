package ocr

import (
	"strings"

	"github.com/xenolexia/xenolexia-go/model"
)

// tesseractCodes maps ISO 639-1 codes to Tesseract traineddata names.
var tesseractCodes = map[model.Language]string{
	model.English:    "eng",
	model.Spanish:    "spa",
	model.French:     "fra",
	model.German:     "deu",
	model.Italian:    "ita",
	model.Portuguese: "por",
	model.Russian:    "rus",
	model.Greek:      "ell",
	model.Dutch:      "nld",
	model.Polish:     "pol",
	model.Swedish:    "swe",
	model.Turkish:    "tur",
	model.Japanese:   "jpn",
	model.Chinese:    "chi_sim",
	model.Korean:     "kor",
	model.Arabic:     "ara",
}

// Languages returns the "+"-joined Tesseract language string for langs.
// Unknown and repeated languages are skipped.
func Languages(langs ...model.Language) string {
	var codes []string
	seen := make(map[string]bool)
	for _, l := range langs {
		code, ok := tesseractCodes[model.ParseLanguage(string(l))]
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return strings.Join(codes, "+")
}
