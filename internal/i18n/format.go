package i18n

import (
	"fmt"
	"time"
)

// DateLayouts are the accepted record date formats, most specific first.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"2006",
}

// ParseDate parses s with the first matching layout in DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an ISO date for display: "2024年1月15日" for zh and
// "January 15, 2024" for en. Unparseable input is returned unchanged.
func FormatDate(date string, l Locale) string {
	t, ok := ParseDate(date)
	if !ok {
		return date
	}
	if l == EN {
		return t.Format("January 2, 2006")
	}
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}
