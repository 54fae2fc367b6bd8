package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

const (
	defaultXBaseURL = "https://api.twitter.com"
	createTweetPath = "/2/tweets"
)

// APIError is a non-2xx reply from the X API.
type APIError struct {
	Status int
	Title  string
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("x api: request failed with code %d", e.Status)
	if e.Title != "" {
		msg += ": " + e.Title
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Publisher posts composed text to X.
type Publisher struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Publisher for cfg.
func New(cfg XConfig, client *http.Client, logger *zap.Logger) (*Publisher, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("X OAuth2 access token is not set")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultXBaseURL
	}
	return &Publisher{
		token:   cfg.AccessToken,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}, nil
}

// Post publishes text verbatim and returns the new tweet id.
func (p *Publisher) Post(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("post text is empty")
	}
	body, err := sjson.Set("", "text", text)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+createTweetPath, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status: resp.StatusCode,
			Title:  gjson.GetBytes(data, "title").String(),
			Detail: gjson.GetBytes(data, "detail").String(),
			Body:   string(bytes.TrimSpace(data)),
		}
		p.logger.Error("Failed to post",
			zap.Int("status", apiErr.Status),
			zap.String("title", apiErr.Title),
			zap.String("body", apiErr.Body))
		return "", apiErr
	}

	tweetID := gjson.GetBytes(data, "data.id").String()
	if tweetID == "" {
		return "", errors.New("tweet posted but no id returned")
	}
	p.logger.Info("Posted to X", zap.String("tweet_id", tweetID))
	return tweetID, nil
}
