package speech

import (
	"strings"
	"unicode"
)

type language struct {
	name string
	code string
}

var languageTable = []language{
	{"english", "en"}, {"hindi", "hi"}, {"punjabi", "pa"}, {"spanish", "es"},
	{"french", "fr"}, {"german", "de"}, {"italian", "it"}, {"portuguese", "pt"},
	{"russian", "ru"}, {"japanese", "ja"}, {"korean", "ko"}, {"chinese", "zh-CN"},
	{"arabic", "ar"}, {"urdu", "ur"}, {"bengali", "bn"}, {"tamil", "ta"},
	{"telugu", "te"}, {"marathi", "mr"}, {"gujarati", "gu"}, {"kannada", "kn"},
	{"malayalam", "ml"}, {"thai", "th"}, {"vietnamese", "vi"}, {"indonesian", "id"},
	{"dutch", "nl"}, {"polish", "pl"}, {"turkish", "tr"}, {"ukrainian", "uk"},
	{"swedish", "sv"}, {"danish", "da"}, {"norwegian", "no"}, {"finnish", "fi"},
	{"hebrew", "he"}, {"greek", "el"}, {"hungarian", "hu"}, {"czech", "cs"},
	{"romanian", "ro"}, {"bulgarian", "bg"}, {"croatian", "hr"}, {"serbian", "sr"},
	{"slovak", "sk"}, {"slovenian", "sl"}, {"estonian", "et"}, {"latvian", "lv"},
	{"lithuanian", "lt"}, {"maltese", "mt"}, {"afrikaans", "af"}, {"swahili", "sw"},
	{"zulu", "zu"}, {"xhosa", "xh"}, {"hausa", "ha"}, {"yoruba", "yo"}, {"igbo", "ig"},
}

type script struct {
	code   string
	tables []*unicode.RangeTable
}

// checked in order; Han comes before kana, so kanji-only text reads as Chinese
var scripts = []script{
	{"hi", []*unicode.RangeTable{unicode.Devanagari}},
	{"pa", []*unicode.RangeTable{unicode.Gurmukhi}},
	{"ar", []*unicode.RangeTable{unicode.Arabic}},
	{"zh-CN", []*unicode.RangeTable{unicode.Han}},
	{"ja", []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana}},
	{"ko", []*unicode.RangeTable{unicode.Hangul}},
	{"ru", []*unicode.RangeTable{unicode.Cyrillic}},
	{"th", []*unicode.RangeTable{unicode.Thai}},
	{"el", []*unicode.RangeTable{unicode.Greek}},
	{"he", []*unicode.RangeTable{unicode.Hebrew}},
}

// Languages maps spoken language names to codes and guesses a text's
// language from its script.
type Languages struct{}

// Code returns the code for name, or "en" when unknown.
func (Languages) Code(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, l := range languageTable {
		if l.name == name {
			return l.code
		}
	}
	return "en"
}

func (Languages) Names() []string {
	out := make([]string, len(languageTable))
	for i, l := range languageTable {
		out[i] = l.name
	}
	return out
}

// Detect returns the first script found in text, or "en".
func (Languages) Detect(text string) string {
	for _, s := range scripts {
		for _, r := range text {
			if unicode.In(r, s.tables...) {
				return s.code
			}
		}
	}
	return "en"
}
