package services

import (
	"strings"

	"golang.org/x/text/language"
)

// supportedLangs are the answer languages the prompt templates are tuned
// for. The first entry is the fallback for unmatched tags.
var supportedLangs = []language.Tag{
	language.Korean,
	language.English,
	language.Japanese,
	language.SimplifiedChinese,
	language.Spanish,
}

var langMatcher = language.NewMatcher(supportedLangs)

// normalizeLang canonicalizes a client-supplied language value ("ko",
// "ko-KR", "en_US", ...) to the base code of the closest supported language.
// Empty or unparseable input falls back to Korean.
func normalizeLang(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", "-"))
	if s == "" {
		return "ko"
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "ko"
	}
	_, idx, _ := langMatcher.Match(tag)
	base, _ := supportedLangs[idx].Base()
	return base.String()
}
