package generator

import "time"

// Theme describes what kind of post to generate.
type Theme struct {
	Theme       string
	Subtheme    string
	Constraints []string
}

// Content is one model-produced post candidate, already normalized.
type Content struct {
	FigureName   string   `json:"figure_name"`
	Quote        string   `json:"quote"`
	Source       string   `json:"source"`
	ShortExplain string   `json:"short_explain"`
	Trivia       string   `json:"trivia"`
	Hashtags     []string `json:"hashtags"`
	RiskFlags    []string `json:"risk_flags,omitempty"`
}

// Recent is a previously posted figure/quote pair the model should avoid.
type Recent struct {
	FigureName string
	Quote      string
}

// Turn records one comment-driven revision.
type Turn struct {
	Comment   string    `json:"comment"`
	Content   Content   `json:"content"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
