package generator

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Session holds one multi-turn generate/revise conversation.
type Session struct {
	ID    string
	Theme Theme

	mu      sync.Mutex
	content Content
	history []Turn
	recent  []Recent
	agent   *Agent
}

// NewSession creates a session; nothing is generated yet.
func NewSession(id string, theme Theme, recent []Recent, agent *Agent) *Session {
	return &Session{
		ID:     id,
		Theme:  theme,
		recent: recent,
		agent:  agent,
	}
}

// Propose generates the first candidate.
func (s *Session) Propose(ctx context.Context) (Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.agent.Generate(ctx, s.Theme, s.recent)
	if err != nil {
		return Content{}, err
	}
	s.content = c
	s.appendTurn("", c, "initial")
	return c, nil
}

// Revise rewrites the current candidate from a user comment.
func (s *Session) Revise(ctx context.Context, comment string) (Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return Content{}, errors.New("session has no content to revise")
	}
	c, err := s.agent.Revise(ctx, s.Theme, s.content, s.history, comment)
	if err != nil {
		return Content{}, err
	}
	s.content = c
	s.appendTurn(comment, c, "revision")
	return c, nil
}

// Snapshot returns the current content and a copy of the history.
func (s *Session) Snapshot() (Content, []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Turn, len(s.history))
	copy(history, s.history)
	return s.content, history
}

func (s *Session) appendTurn(comment string, c Content, summary string) {
	s.history = append(s.history, Turn{
		Comment:   comment,
		Content:   c,
		Summary:   summary,
		CreatedAt: time.Now(),
	})
}
