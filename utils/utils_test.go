package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateASCII(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abcd" {
		t.Fatalf("Truncate = %q, want abcd", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Fatalf("short input must pass through, got %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("non-positive max must pass through, got %q", got)
	}
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	s := strings.Repeat("é", 2000) // 4000 bytes
	if got := Truncate(s, 3001); got != s {
		t.Fatalf("2000 characters must fit a cap of 3001")
	}
	got := Truncate(s, 1500)
	if utf8.RuneCountInString(got) != 1500 {
		t.Fatalf("expected 1500 characters, got %d", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation must never split a rune")
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	s := "日本語のテキスト" // 3-byte runes
	for max := 1; max < 10; max++ {
		got := Truncate(s, max)
		if !utf8.ValidString(got) {
			t.Fatalf("invalid UTF-8 at max=%d: %q", max, got)
		}
		if n := utf8.RuneCountInString(got); n > max {
			t.Fatalf("got %d characters at max=%d", n, max)
		}
	}
}
