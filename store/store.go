// Package store persists generated posts in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// Post statuses.
const (
	StatusDraft  = "draft"
	StatusPosted = "posted"
	StatusFailed = "failed"
)

// schema is executed on every open (idempotent via IF NOT EXISTS).
const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at    TEXT NOT NULL,
    scheduled_for TEXT,
    subtheme      TEXT NOT NULL,
    figure_name   TEXT NOT NULL,
    quote         TEXT NOT NULL,
    source        TEXT NOT NULL,
    short_explain TEXT NOT NULL,
    trivia        TEXT NOT NULL,
    hashtags      TEXT NOT NULL,
    post_text     TEXT NOT NULL,
    status        TEXT NOT NULL,
    tweet_id      TEXT,
    error         TEXT
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
`

// Post is one persisted post record.
type Post struct {
	ID           int64      `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	Subtheme     string     `json:"subtheme"`
	FigureName   string     `json:"figure_name"`
	Quote        string     `json:"quote"`
	Source       string     `json:"source"`
	ShortExplain string     `json:"short_explain"`
	Trivia       string     `json:"trivia"`
	Hashtags     string     `json:"hashtags"`
	PostText     string     `json:"post_text"`
	Status       string     `json:"status"`
	TweetID      string     `json:"tweet_id,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Store wraps the posts database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertDraft stores p with status draft and returns its id.
func (s *Store) InsertDraft(ctx context.Context, p Post) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts
			(created_at, scheduled_for, subtheme, figure_name, quote, source,
			 short_explain, trivia, hashtags, post_text, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(p.CreatedAt),
		nullTime(p.ScheduledFor),
		p.Subtheme,
		p.FigureName,
		p.Quote,
		p.Source,
		p.ShortExplain,
		p.Trivia,
		p.Hashtags,
		p.PostText,
		StatusDraft,
	)
	if err != nil {
		return 0, fmt.Errorf("insert draft: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns posts created at or after since, newest first.
func (s *Store) Recent(ctx context.Context, since time.Time, limit int) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, selectPosts+`
		WHERE created_at >= ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("load recent posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// LatestDraft returns the newest draft, or nil when there is none.
func (s *Store) LatestDraft(ctx context.Context) (*Post, error) {
	row := s.db.QueryRowContext(ctx, selectPosts+`
		WHERE status = ? ORDER BY created_at DESC, id DESC LIMIT 1`, StatusDraft)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get loads one post by id.
func (s *Store) Get(ctx context.Context, id int64) (*Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, selectPosts+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPosted records a successful publish.
func (s *Store) MarkPosted(ctx context.Context, id int64, tweetID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE posts SET status = ?, tweet_id = ?, error = NULL WHERE id = ?`,
		StatusPosted, tweetID, id)
	if err != nil {
		return fmt.Errorf("mark post %d posted: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed publish.
func (s *Store) MarkFailed(ctx context.Context, id int64, msg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE posts SET status = ?, error = ? WHERE id = ?`,
		StatusFailed, msg, id)
	if err != nil {
		return fmt.Errorf("mark post %d failed: %w", id, err)
	}
	return nil
}

const selectPosts = `
	SELECT id, created_at, scheduled_for, subtheme, figure_name, quote, source,
	       short_explain, trivia, hashtags, post_text, status, tweet_id, error
	FROM posts`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(sc scanner) (Post, error) {
	var (
		p            Post
		createdAt    string
		scheduledFor sql.NullString
		tweetID      sql.NullString
		errMsg       sql.NullString
	)
	err := sc.Scan(&p.ID, &createdAt, &scheduledFor, &p.Subtheme, &p.FigureName,
		&p.Quote, &p.Source, &p.ShortExplain, &p.Trivia, &p.Hashtags, &p.PostText,
		&p.Status, &tweetID, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, err
		}
		return Post{}, fmt.Errorf("scan post: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if scheduledFor.Valid {
		if t, err := time.Parse(time.RFC3339Nano, scheduledFor.String); err == nil {
			p.ScheduledFor = &t
		}
	}
	p.TweetID = tweetID.String
	p.Error = errMsg.String
	return p, nil
}

// formatTime uses a fixed-width UTC layout so that stored values sort as text.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
