package composer

import (
	"strings"
	"unicode"
)

// Ellipsis marks a fragment that was cut short.
const Ellipsis = "..."

// Limit bounds the weight a single fragment may occupy. Max is the ceiling
// even when the budget is abundant; a truncated fragment lighter than Min is
// dropped instead of shown as a stub.
type Limit struct {
	Max int `json:"max" yaml:"max"`
	Min int `json:"min" yaml:"min"`
}

// FitLine fits one fragment into lim, appending Ellipsis when it had to cut.
func FitLine(text string, lim Limit) string {
	text = strings.TrimRightFunc(text, unicode.IsSpace)
	if text == "" || lim.Max <= 0 {
		return ""
	}
	if WeightedLength(text) <= lim.Max {
		return text
	}

	var out string
	if lim.Max <= len(Ellipsis) {
		out = TruncateToWeight(text, lim.Max)
	} else {
		kept := TrimWords(text, lim.Max-len(Ellipsis))
		if kept == "" {
			return ""
		}
		out = kept + Ellipsis
	}
	if out == "" || WeightedLength(out) < lim.Min {
		return ""
	}
	return out
}

// FitHashtags accepts tags in order while the space-joined result stays
// within max. It stops at the first tag that does not fit.
func FitHashtags(tags []string, max int) string {
	var b strings.Builder
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		candidate := tag
		if b.Len() > 0 {
			candidate = b.String() + " " + tag
		}
		if WeightedLength(candidate) > max {
			break
		}
		b.Reset()
		b.WriteString(candidate)
	}
	return b.String()
}

// ComposeLines right-trims each line, skips blank ones and joins the rest
// with newlines.
func ComposeLines(lines ...string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
