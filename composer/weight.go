package composer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CharWeight returns the display cost of r: 1 for ASCII, 2 for everything else.
func CharWeight(r rune) int {
	if r <= 0x7F {
		return 1
	}
	return 2
}

// WeightedLength sums CharWeight over the code points of s.
func WeightedLength(s string) int {
	n := 0
	for _, r := range s {
		n += CharWeight(r)
	}
	return n
}

// TruncateToWeight keeps the longest prefix of s whose weight is <= max.
func TruncateToWeight(s string, max int) string {
	if max <= 0 {
		return ""
	}
	total := 0
	for i, r := range s {
		w := CharWeight(r)
		if total+w > max {
			return s[:i]
		}
		total += w
	}
	return s
}

// ClipTail keeps the longest suffix of s whose weight is <= max.
func ClipTail(s string, max int) string {
	if max <= 0 {
		return ""
	}
	total := 0
	end := len(s)
	for end > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		w := CharWeight(r)
		if total+w > max {
			break
		}
		total += w
		end -= size
	}
	return s[end:]
}

// TrimWords truncates s to max weight. When s is space-delimited and the last
// space of the cut falls past 60% of max, the cut moves back to that space.
func TrimWords(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if WeightedLength(s) <= max {
		return s
	}
	cut := TruncateToWeight(s, max)
	if i := strings.LastIndexByte(cut, ' '); i >= 0 && WeightedLength(cut[:i])*10 > max*6 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace)
}

// Normalize collapses every whitespace run, newlines included, to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
