package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM replays responses in order and records prompts.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []Prompt
}

func (s *scriptedLLM) Complete(_ context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no more responses")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func contentJSON(figure, quote string) string {
	return fmt.Sprintf(`{"figure_name":%q,"quote":%q,"source":"s","short_explain":"explain","trivia":"trivia","hashtags":["#t"]}`, figure, quote)
}

func TestNewAgent_RequiresLLM(t *testing.T) {
	_, err := NewAgent(nil, nil, nil)
	require.Error(t, err)
}

func TestAgent_Generate(t *testing.T) {
	llm := &scriptedLLM{responses: []string{contentJSON("A", "quote a")}}
	agent, err := NewAgent(llm, DefaultNGWords, nil)
	require.NoError(t, err)

	c, err := agent.Generate(context.Background(), Theme{Theme: "名言", Subtheme: "文学"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A", c.FigureName)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].System, "Subtheme: 文学")
	assert.Contains(t, llm.prompts[0].User, "None")
}

func TestAgent_Generate_SkipsNGAndDuplicates(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		contentJSON("A", "差別 quote"),
		contentJSON("Dup", "fresh quote"),
		contentJSON("B", "quote b"),
	}}
	agent, err := NewAgent(llm, DefaultNGWords, nil)
	require.NoError(t, err)

	recent := []Recent{{FigureName: "Dup", Quote: "old"}}
	c, err := agent.Generate(context.Background(), Theme{}, recent)
	require.NoError(t, err)
	assert.Equal(t, "B", c.FigureName)
	assert.Contains(t, llm.prompts[0].User, "- Dup: old")
}

func TestAgent_Generate_FallsBackToLastDuplicate(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		contentJSON("Dup", "q1"),
		"not json",
		contentJSON("X", "old"),
	}}
	agent, err := NewAgent(llm, nil, nil)
	require.NoError(t, err)

	recent := []Recent{{FigureName: "Dup", Quote: "old"}}
	c, err := agent.Generate(context.Background(), Theme{}, recent)
	require.NoError(t, err)
	assert.Equal(t, "X", c.FigureName)
}

func TestAgent_Generate_NoUsableCandidate(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"{}", "{}", "{}"}}
	agent, err := NewAgent(llm, nil, nil)
	require.NoError(t, err)

	_, err = agent.Generate(context.Background(), Theme{}, nil)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestAgent_Generate_LLMError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("boom")}
	agent, err := NewAgent(llm, nil, nil)
	require.NoError(t, err)

	_, err = agent.Generate(context.Background(), Theme{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildInitialPrompt_CapsRecent(t *testing.T) {
	var recent []Recent
	for i := 0; i < 30; i++ {
		recent = append(recent, Recent{FigureName: fmt.Sprintf("F%d", i), Quote: "q"})
	}
	p := BuildInitialPrompt(Theme{}, recent)
	assert.Equal(t, maxRecentInPrompt, strings.Count(p.User, "\n- "))
	assert.NotContains(t, p.User, "F20")
}

func TestSession_ProposeAndRevise(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		contentJSON("A", "first"),
		contentJSON("A", "second"),
	}}
	agent, err := NewAgent(llm, nil, nil)
	require.NoError(t, err)

	s := NewSession("s1", Theme{}, nil, agent)
	_, err = s.Revise(context.Background(), "too early")
	require.Error(t, err)

	_, err = s.Propose(context.Background())
	require.NoError(t, err)
	c, err := s.Revise(context.Background(), "make it shorter")
	require.NoError(t, err)
	assert.Equal(t, "second", c.Quote)

	current, history := s.Snapshot()
	assert.Equal(t, "second", current.Quote)
	require.Len(t, history, 2)
	assert.Equal(t, "make it shorter", history[1].Comment)

	last := llm.prompts[len(llm.prompts)-1]
	assert.Contains(t, last.User, `"quote":"first"`)
	assert.Contains(t, last.User, "Feedback: make it shorter")
}

func TestMockLLM(t *testing.T) {
	agent, err := NewAgent(MockLLM{}, DefaultNGWords, nil)
	require.NoError(t, err)
	c, err := agent.Generate(context.Background(), Theme{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "夏目漱石", c.FigureName)
	assert.Equal(t, "草枕", c.Source)
}
