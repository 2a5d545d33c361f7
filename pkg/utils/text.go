// Package utils provides shared text and logging helpers.
package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s cut to at most maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// SplitTerms splits a comma- or space-separated list of terms, dropping blanks.
func SplitTerms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// ReplaceMarkers swaps every open/close marker pair in s for newOpen/newClose.
func ReplaceMarkers(s, open, close, newOpen, newClose string) string {
	if open == "" || close == "" {
		return s
	}
	return strings.NewReplacer(open, newOpen, close, newClose).Replace(s)
}
