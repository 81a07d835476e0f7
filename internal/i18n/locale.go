// Package i18n holds the locale model shared by content records and the
// preference stores: the closed locale set, bilingual text values, date
// formatting and the UI message catalogs.
package i18n

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale is a UI language. Only the members of Supported are valid.
type Locale string

const (
	ZH Locale = "zh"
	EN Locale = "en"

	// Default is the locale used before any persisted preference is read and
	// for every non-interactive rendering.
	Default = ZH
)

// Supported lists the valid locales in display order.
var Supported = []Locale{ZH, EN}

var (
	supportedTags = []language.Tag{language.Chinese, language.English}
	matcher       = language.NewMatcher(supportedTags)
)

// Valid reports whether l is a member of the locale set.
func (l Locale) Valid() bool {
	return l == ZH || l == EN
}

// Tag returns the BCP 47 tag for l.
func (l Locale) Tag() language.Tag {
	if l == EN {
		return language.English
	}
	return language.Chinese
}

func (l Locale) String() string {
	return string(l)
}

// ParseLocale maps a BCP 47 tag such as "en-US" or "zh-Hans-CN" onto the
// locale set. It reports false when the tag does not match any member.
func ParseLocale(s string) (Locale, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if l := Locale(strings.ToLower(s)); l.Valid() {
		return l, true
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	return match(tag)
}

// FromAcceptLanguage picks the best locale for an Accept-Language header.
func FromAcceptLanguage(header string) (Locale, bool) {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	return match(tags...)
}

func match(tags ...language.Tag) (Locale, bool) {
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return Locale(supportedTags[index].String()), true
}

// Title returns s in display casing for locale l, e.g. "projects" becomes
// "Projects" in English. Chinese text is returned unchanged by the caser.
func Title(l Locale, s string) string {
	return cases.Title(l.Tag()).String(s)
}
