package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/obentoo/project-summary/internal/summary"
)

var printer = message.NewPrinter(language.English)

// NiceDate describes a `git log %ai` timestamp relative to now, e.g.
// "3 months ago". Unparseable dates are returned unchanged.
func NiceDate(date string) string {
	return NiceDateAt(date, time.Now())
}

// NiceDateAt is NiceDate with an explicit reference time
func NiceDateAt(date string, now time.Time) string {
	t, err := time.Parse(summary.TagDateLayout, date)
	if err != nil {
		return date
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Pluralize formats a count with a plural noun, dropping the trailing s
// for exactly one
func Pluralize(n int, noun string) string {
	if n == 1 {
		noun = strings.TrimSuffix(noun, "s")
	}
	return fmt.Sprintf("%d %s", n, noun)
}

// Commas formats n with thousands separators
func Commas(n int) string {
	return printer.Sprintf("%d", n)
}
