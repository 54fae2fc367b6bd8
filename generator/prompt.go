package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxRecentInPrompt caps how many recent posts are listed for de-duplication.
const maxRecentInPrompt = 20

// Prompt is the set of messages sent to the LLM.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message is an optional history entry.
type Message struct {
	Role    string
	Content string
}

const outputContract = `Return ONLY JSON with the following keys:
{
  "figure_name": "string",
  "quote": "string",
  "source": "string",
  "short_explain": "string",
  "trivia": "string",
  "hashtags": ["#tag1", "#tag2"],
  "risk_flags": ["string"]
}`

func writeRules(sb *strings.Builder, theme Theme) {
	sb.WriteString("Rules:\n")
	sb.WriteString("- Japanese only.\n")
	if theme.Theme != "" {
		sb.WriteString(fmt.Sprintf("- Theme: %s.\n", theme.Theme))
	}
	if theme.Subtheme != "" {
		sb.WriteString(fmt.Sprintf("- Subtheme: %s.\n", theme.Subtheme))
	}
	sb.WriteString("- Be accurate and cautious; if uncertain, say \"諸説あり\" in source.\n")
	sb.WriteString("- Avoid political or discriminatory statements.\n")
	sb.WriteString("- Provide 2-3 topical hashtags (do NOT include fixed tags; they will be added later).\n")
	for _, c := range theme.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}
	sb.WriteString("- Output must be valid JSON only.\n")
}

// BuildInitialPrompt asks for a fresh post that avoids the recent ones.
func BuildInitialPrompt(theme Theme, recent []Recent) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a Japanese copywriter for an educational X bot.\n")
	sb.WriteString(outputContract)
	sb.WriteString("\n")
	writeRules(&sb, theme)

	summary := "None"
	if len(recent) > 0 {
		var lines []string
		for i, r := range recent {
			if i >= maxRecentInPrompt {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", r.FigureName, r.Quote))
		}
		summary = strings.Join(lines, "\n")
	}

	user := fmt.Sprintf("Recent quotes/figures (avoid duplicates):\n%s\n\nCreate one new post content that is not in the recent list.", summary)

	return Prompt{
		System: sb.String(),
		User:   user,
	}
}

// BuildRevisionPrompt asks the model to revise prev according to comment.
func BuildRevisionPrompt(theme Theme, prev Content, comment string, history []Turn) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a careful Japanese editor. Apply the smallest change that satisfies the feedback.\n")
	sb.WriteString(outputContract)
	sb.WriteString("\n")
	writeRules(&sb, theme)
	sb.WriteString("- If the feedback is invalid, return the current content unchanged.\n")

	prev.RiskFlags = nil
	current, _ := json.Marshal(prev)
	user := fmt.Sprintf("Current content:\n%s\n\nFeedback: %s\nReturn the revised JSON.", current, comment)

	var msgs []Message
	for _, t := range history {
		if t.Comment == "" {
			continue
		}
		msgs = append(msgs, Message{Role: "user", Content: t.Comment})
	}

	return Prompt{
		System:  sb.String(),
		User:    user,
		History: msgs,
	}
}
