// Package help maps MQL keywords to the vendor documentation.
package help

import (
	"net/url"
	"strings"
	"unicode"

	"mqltools/internal/dialect"
)

// locales maps a language setting to the suffix used by the help files.
// Both editor locale codes and English language names are accepted.
var locales = map[string]string{
	"ru":         "_russian",
	"russian":    "_russian",
	"русский":    "_russian",
	"zh-cn":      "_chinese",
	"zh-tw":      "_chinese",
	"chinese":    "_chinese",
	"fr":         "_french",
	"french":     "_french",
	"de":         "_german",
	"german":     "_german",
	"it":         "_italian",
	"italian":    "_italian",
	"es":         "_spanish",
	"spanish":    "_spanish",
	"ja":         "_japanese",
	"japanese":   "_japanese",
	"pt-br":      "_portuguese",
	"portuguese": "_portuguese",
	"tr":         "_turkish",
	"turkish":    "_turkish",
}

var webLang = map[string]string{
	"":            "en",
	"_russian":    "ru",
	"_german":     "de",
	"_spanish":    "es",
	"_french":     "fr",
	"_chinese":    "zh",
	"_italian":    "it",
	"_japanese":   "ja",
	"_portuguese": "pt",
	"_turkish":    "tr",
}

// Locale returns the help-file suffix for lang ("" for English). MQL4 help
// exists only in English and Russian.
func Locale(kind dialect.Kind, lang string) string {
	loc := locales[strings.ToLower(strings.TrimSpace(lang))]
	if kind == dialect.MQL4 && loc != "_russian" {
		return ""
	}
	return loc
}

// WebURL returns the documentation search URL for keyword.
func WebURL(kind dialect.Kind, keyword, loc string) string {
	lang, ok := webLang[loc]
	if !ok {
		lang = "en"
	}
	q := url.QueryEscape(keyword)
	if kind == dialect.MQL4 {
		if lang != "ru" {
			lang = "en"
		}
		return "https://docs.mql4.com/" + lang + "/search?keyword=" + q
	}
	return "https://www.mql5.com/" + lang + "/docs/search?keyword=" + q
}

// CHMName returns the offline help file name, e.g. "mql5_german.chm".
func CHMName(kind dialect.Kind, loc string) string {
	n := "5"
	if kind == dialect.MQL4 {
		n = "4"
	}
	return "mql" + n + loc + ".chm"
}

// Topic is a resolved documentation lookup.
type Topic struct {
	Keyword string
	Dialect dialect.Kind
	Locale  string
	URL     string
	CHM     string
}

// Resolve builds the lookup for keyword. Unknown dialects resolve as MQL5.
func Resolve(kind dialect.Kind, keyword, lang string) Topic {
	if kind == dialect.Unknown {
		kind = dialect.MQL5
	}
	loc := Locale(kind, lang)
	return Topic{
		Keyword: keyword,
		Dialect: kind,
		Locale:  loc,
		URL:     WebURL(kind, keyword, loc),
		CHM:     CHMName(kind, loc),
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// KeywordAt returns the identifier under col (a rune offset) in line,
// including a leading '#' for preprocessor directives. It returns "" when
// col is not on a word.
func KeywordAt(line string, col int) string {
	rs := []rune(line)
	if col < 0 || col > len(rs) {
		return ""
	}
	if col+1 < len(rs) && rs[col] == '#' && isWordRune(rs[col+1]) {
		col++
	}
	start, end := col, col
	for start > 0 && isWordRune(rs[start-1]) {
		start--
	}
	for end < len(rs) && isWordRune(rs[end]) {
		end++
	}
	if start == end {
		return ""
	}
	if start > 0 && rs[start-1] == '#' {
		start--
	}
	return string(rs[start:end])
}
