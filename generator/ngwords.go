package generator

import "strings"

// DefaultNGWords are rejected anywhere in a generated post.
var DefaultNGWords = []string{
	"死ね",
	"殺す",
	"自殺",
	"差別",
	"ヘイト",
	"選挙",
	"政党",
}

// ContainsNGWords reports whether text contains any of words, ignoring case.
func ContainsNGWords(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// screenText joins every field of c for NG-word screening.
func screenText(c Content) string {
	return strings.TrimSpace(strings.Join([]string{
		c.FigureName,
		c.Quote,
		c.Source,
		c.ShortExplain,
		c.Trivia,
		strings.Join(c.Hashtags, " "),
	}, "\n"))
}
