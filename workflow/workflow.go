// Package workflow ties generation, composition, storage and publishing
// together.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"auto_x_quote_publisher/composer"
	"auto_x_quote_publisher/generator"
	"auto_x_quote_publisher/store"
)

// recentLimit caps how many recent posts are loaded for de-duplication.
const recentLimit = 50

// ErrNoDraft is returned by PostLatestDraft when nothing is waiting.
var ErrNoDraft = errors.New("no draft available")

// Generator produces post content.
type Generator interface {
	Generate(ctx context.Context, theme generator.Theme, recent []generator.Recent) (generator.Content, error)
}

// Publisher delivers composed text and returns the platform id.
type Publisher interface {
	Post(ctx context.Context, text string) (string, error)
}

// Store is the persistence the workflow needs.
type Store interface {
	InsertDraft(ctx context.Context, p store.Post) (int64, error)
	Recent(ctx context.Context, since time.Time, limit int) ([]store.Post, error)
	LatestDraft(ctx context.Context) (*store.Post, error)
	MarkPosted(ctx context.Context, id int64, tweetID string) error
	MarkFailed(ctx context.Context, id int64, msg string) error
}

// Options configures a Workflow.
type Options struct {
	Theme         generator.Theme
	FixedHashtags []string
	HashtagLimit  int
	DuplicateDays int
	Composer      *composer.Composer
	Now           func() time.Time
}

// Workflow creates drafts and publishes them.
type Workflow struct {
	gen       Generator
	store     Store
	publisher Publisher
	opts      Options
	logger    *zap.Logger
}

// New builds a Workflow. publisher may be nil, in which case drafts can be
// created but not posted.
func New(gen Generator, st Store, pub Publisher, opts Options, logger *zap.Logger) (*Workflow, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if opts.Composer == nil {
		opts.Composer = composer.New(composer.DefaultBudget)
	}
	if opts.HashtagLimit == 0 {
		opts.HashtagLimit = generator.DefaultHashtagLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{gen: gen, store: st, publisher: pub, opts: opts, logger: logger}, nil
}

// Compose lays c out as post text. The composer's last stage can leave the
// text over budget when attribution and hashtags alone exceed it, so the
// result is clipped as a final guarantee.
func (w *Workflow) Compose(c generator.Content) (string, []string) {
	hashtags := generator.MergeHashtags(
		w.opts.FixedHashtags,
		append([]string{generator.SubthemeHashtag(w.opts.Theme.Subtheme)}, c.Hashtags...),
		w.opts.HashtagLimit,
	)
	res := w.opts.Composer.Compose(composer.Post{
		FigureName:   c.FigureName,
		Quote:        c.Quote,
		Source:       c.Source,
		ShortExplain: c.ShortExplain,
		Trivia:       c.Trivia,
		Hashtags:     hashtags,
	})
	text := res.Text
	if !res.Fits {
		w.logger.Warn("Composed post over budget, clipping",
			zap.Int("weight", res.Weight),
			zap.Int("budget", w.opts.Composer.Budget))
		text = composer.ClipTail(text, w.opts.Composer.Budget)
	}
	w.logger.Debug("Composed post",
		zap.Int("weight", composer.WeightedLength(text)),
		zap.String("stage", res.Stage))
	return text, hashtags
}

// Recent lists the posts inside the duplicate window, newest first, as the
// generator's avoid list.
func (w *Workflow) Recent(ctx context.Context) ([]generator.Recent, error) {
	since := w.opts.Now().Add(-time.Duration(w.opts.DuplicateDays) * 24 * time.Hour)
	posts, err := w.store.Recent(ctx, since, recentLimit)
	if err != nil {
		return nil, err
	}
	recent := make([]generator.Recent, len(posts))
	for i, p := range posts {
		recent[i] = generator.Recent{FigureName: p.FigureName, Quote: p.Quote}
	}
	return recent, nil
}

// CreateDraft generates new content, composes it and stores it as a draft.
func (w *Workflow) CreateDraft(ctx context.Context, scheduledFor *time.Time) (*store.Post, error) {
	now := w.opts.Now()
	recent, err := w.Recent(ctx)
	if err != nil {
		return nil, err
	}

	content, err := w.gen.Generate(ctx, w.opts.Theme, recent)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(content.RiskFlags) > 0 {
		w.logger.Warn("Model raised risk flags", zap.Strings("flags", content.RiskFlags))
	}

	text, hashtags := w.Compose(content)
	draft := store.Post{
		CreatedAt:    now,
		ScheduledFor: scheduledFor,
		Subtheme:     w.opts.Theme.Subtheme,
		FigureName:   content.FigureName,
		Quote:        content.Quote,
		Source:       content.Source,
		ShortExplain: content.ShortExplain,
		Trivia:       content.Trivia,
		Hashtags:     strings.Join(hashtags, " "),
		PostText:     text,
		Status:       store.StatusDraft,
	}
	id, err := w.store.InsertDraft(ctx, draft)
	if err != nil {
		return nil, err
	}
	draft.ID = id
	w.logger.Info("Draft created", zap.Int64("id", id), zap.String("figure", draft.FigureName))
	return &draft, nil
}

// PostLatestDraft publishes the newest draft and records the outcome.
func (w *Workflow) PostLatestDraft(ctx context.Context) (*store.Post, error) {
	if w.publisher == nil {
		return nil, errors.New("publishing is not configured")
	}
	draft, err := w.store.LatestDraft(ctx)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrNoDraft
	}

	tweetID, err := w.publisher.Post(ctx, draft.PostText)
	if err != nil {
		w.logger.Error("Publishing failed", zap.Int64("id", draft.ID), zap.Error(err))
		if markErr := w.store.MarkFailed(ctx, draft.ID, err.Error()); markErr != nil {
			w.logger.Error("Failed to record failure", zap.Int64("id", draft.ID), zap.Error(markErr))
		}
		return nil, fmt.Errorf("post draft %d: %w", draft.ID, err)
	}
	if err := w.store.MarkPosted(ctx, draft.ID, tweetID); err != nil {
		return nil, err
	}
	draft.Status = store.StatusPosted
	draft.TweetID = tweetID
	draft.Error = ""
	w.logger.Info("Draft posted", zap.Int64("id", draft.ID), zap.String("tweet_id", tweetID))
	return draft, nil
}

// CreateAndPost creates a draft and publishes it immediately.
func (w *Workflow) CreateAndPost(ctx context.Context) (*store.Post, error) {
	if _, err := w.CreateDraft(ctx, nil); err != nil {
		return nil, err
	}
	return w.PostLatestDraft(ctx)
}
