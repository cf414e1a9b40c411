// Package utils provides shared utilities for text handling and logging.
//
// Offsets in this module are counted in runes (Unicode code points), which is
// what the temporal expression parser reports for Japanese text.
package utils

import (
	"strings"
	"unicode/utf8"
)

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// RuneIndex returns the rune offset of the first occurrence of substr in s, or -1.
func RuneIndex(s, substr string) int {
	i := strings.Index(s, substr)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

// RuneSlice returns the runes of s in [start, end). Offsets are clamped to the
// string, and an inverted range yields "".
func RuneSlice(s string, start, end int) string {
	r := []rune(s)
	start = clamp(start, 0, len(r))
	end = clamp(end, 0, len(r))
	if start >= end {
		return ""
	}
	return string(r[start:end])
}

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
