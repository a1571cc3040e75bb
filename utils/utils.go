package utils

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

func UrlQuery(s string) string { return url.QueryEscape(s) }

// Truncate caps s at max characters, never cutting inside a multibyte rune.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
