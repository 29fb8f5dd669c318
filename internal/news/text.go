package news

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var reTags = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup, decodes entities and collapses whitespace.
// Tags are stripped again after decoding so escaped markup cannot survive.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	s = reTags.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = reTags.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

// CleanSummary strips markup and applies the summary budget.
func CleanSummary(s string) string {
	return Truncate(StripHTML(s), SummaryLimit)
}
