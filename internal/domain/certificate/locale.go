package certificate

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedLocales = []language.Tag{language.Spanish, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// ParseLocale maps a BCP 47 string onto a supported locale, defaulting to Spanish
func ParseLocale(s string) language.Tag {
	if s == "" {
		return language.Spanish
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Spanish
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return language.Spanish
	}
	return supportedLocales[idx]
}

// FormatIssuedDate renders a long-form date in the given locale
func FormatIssuedDate(t time.Time, tag language.Tag) string {
	if t.IsZero() {
		return ""
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return t.Format("January 2, 2006")
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// FormatHours renders an integer hour count with locale digit grouping
func FormatHours(hours int, tag language.Tag) string {
	if hours < 0 {
		hours = 0
	}
	return message.NewPrinter(tag).Sprintf("%d", hours)
}
