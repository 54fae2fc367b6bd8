package generator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// MaxGenerationAttempts bounds how often Generate asks the model for a
// usable candidate.
const MaxGenerationAttempts = 3

// ErrNoContent is returned when every candidate was rejected.
var ErrNoContent = errors.New("failed to generate content")

// Agent generates post content and revises it from feedback.
type Agent struct {
	llm     LLMClient
	ngWords []string
	logger  *zap.Logger
}

func NewAgent(llm LLMClient, ngWords []string, logger *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{llm: llm, ngWords: ngWords, logger: logger}, nil
}

// Generate asks for a new post, rejecting candidates that contain NG words or
// repeat a recent figure or quote. When only duplicates come back, the last
// clean one is used.
func (a *Agent) Generate(ctx context.Context, theme Theme, recent []Recent) (Content, error) {
	prompt := BuildInitialPrompt(theme, recent)

	var last *Content
	for attempt := 1; attempt <= MaxGenerationAttempts; attempt++ {
		raw, err := a.llm.Complete(ctx, prompt)
		if err != nil {
			return Content{}, fmt.Errorf("llm complete: %w", err)
		}
		candidate, err := PostProcess(raw)
		if err != nil {
			a.logger.Warn("Discarding unparsable candidate", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if ContainsNGWords(screenText(candidate), a.ngWords) {
			a.logger.Warn("NG word detected", zap.Int("attempt", attempt))
			continue
		}
		last = &candidate
		if IsDuplicate(recent, candidate) {
			a.logger.Warn("Duplicate detected",
				zap.Int("attempt", attempt),
				zap.String("figure", candidate.FigureName))
			continue
		}
		return candidate, nil
	}

	if last != nil {
		a.logger.Warn("Falling back to last candidate after duplicates")
		return *last, nil
	}
	return Content{}, ErrNoContent
}

// Revise applies comment to prev. A revision containing NG words is an error.
func (a *Agent) Revise(ctx context.Context, theme Theme, prev Content, history []Turn, comment string) (Content, error) {
	raw, err := a.llm.Complete(ctx, BuildRevisionPrompt(theme, prev, comment, history))
	if err != nil {
		return Content{}, fmt.Errorf("llm complete: %w", err)
	}
	revised, err := PostProcess(raw)
	if err != nil {
		return Content{}, err
	}
	if ContainsNGWords(screenText(revised), a.ngWords) {
		return Content{}, errors.New("revised content contains NG words")
	}
	return revised, nil
}

// IsDuplicate reports whether c repeats the figure or the quote of a recent post.
func IsDuplicate(recent []Recent, c Content) bool {
	for _, r := range recent {
		if r.FigureName == c.FigureName || r.Quote == c.Quote {
			return true
		}
	}
	return false
}
