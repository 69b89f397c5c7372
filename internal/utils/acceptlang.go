package utils

import (
	"golang.org/x/text/language"
)

// DefaultLocale is used when neither the query nor the header names a supported language.
const DefaultLocale = "pt"

// SupportedLocales lists the message catalogs, default first.
var SupportedLocales = []string{"pt", "en"}

var matcher = language.NewMatcher([]language.Tag{language.Portuguese, language.English})

// DetermineLocale resolves the locale from an explicit query param, then the
// Accept-Language header (q-values honored), falling back to DefaultLocale.
// Regional variants collapse to their base language (pt-BR -> pt).
func DetermineLocale(queryLang, acceptLang string) string {
	if queryLang != "" {
		if tag, err := language.Parse(queryLang); err == nil {
			if l, ok := supported(tag); ok {
				return l
			}
		}
	}
	if acceptLang == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return SupportedLocales[idx]
}

func supported(tag language.Tag) (string, bool) {
	base, _ := tag.Base()
	for _, l := range SupportedLocales {
		if base.String() == l {
			return l, true
		}
	}
	return "", false
}
