package generator

import (
	"context"
	"strings"
)

const mockContent = `{
  "figure_name": "夏目漱石",
  "quote": "智に働けば角が立つ。情に棹させば流される。",
  "source": "草枕",
  "short_explain": "理屈だけでも感情だけでも生きにくい、という人の世の難しさを表した一節。",
  "trivia": "『草枕』は1906年発表。漱石自身が「俳句的小説」と呼んだ。",
  "hashtags": ["#夏目漱石", "#草枕"],
  "risk_flags": []
}`

// MockLLM is a placeholder for local runs; it never calls a model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if strings.Contains(prompt.User, "Feedback:") {
		// Revisions come back unchanged.
		return mockContent, nil
	}
	return "```json\n" + mockContent + "\n```", nil
}
