package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"auto_x_quote_publisher/composer"
)

// Config holds everything the workflow needs: content theme, limits, the
// model backend and X credentials.
type Config struct {
	MaxTweetLength int              `json:"max_tweet_length,omitempty" yaml:"max_tweet_length,omitempty"`
	Theme          string           `json:"theme,omitempty" yaml:"theme,omitempty"`
	Subtheme       string           `json:"subtheme,omitempty" yaml:"subtheme,omitempty"`
	FixedHashtags  []string         `json:"fixed_hashtags,omitempty" yaml:"fixed_hashtags,omitempty"`
	HashtagLimit   int              `json:"hashtag_limit,omitempty" yaml:"hashtag_limit,omitempty"`
	DuplicateDays  int              `json:"duplicate_days,omitempty" yaml:"duplicate_days,omitempty"`
	NGWords        []string         `json:"ng_words,omitempty" yaml:"ng_words,omitempty"`
	Limits         *composer.Limits `json:"limits,omitempty" yaml:"limits,omitempty"`
	DatabasePath   string           `json:"database_path,omitempty" yaml:"database_path,omitempty"`
	ServerAddr     string           `json:"server_addr,omitempty" yaml:"server_addr,omitempty"`
	CronSecret     string           `json:"cron_secret,omitempty" yaml:"cron_secret,omitempty"`
	Schedule       string           `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	LLM            *LLMConfig       `json:"llm,omitempty" yaml:"llm,omitempty"`
	X              XConfig          `json:"x" yaml:"x"`
}

// LLMConfig configures the content model.
type LLMConfig struct {
	Provider    string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// XConfig holds the X API v2 credentials.
type XConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

const (
	defaultTheme         = "世界の偉人と名言"
	defaultSubtheme      = "文学"
	defaultModel         = "gpt-4.1-mini"
	defaultDuplicateDays = 30
	defaultDatabasePath  = "data/posts.db"
	defaultServerAddr    = ":8080"
)

var defaultFixedHashtags = []string{"#名言", "#今日の偉人"}

// LoadConfig loads .env files, reads path (JSON, or YAML by extension) when
// given, falls back to the first config file found in the usual places, then
// applies environment overrides and defaults.
func LoadConfig(path string) (Config, error) {
	loadEnvFiles()

	var cfg Config
	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := decodeConfig(path, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// FindConfigFile returns the first existing candidate config path, or "".
func FindConfigFile() string {
	candidates := []string{
		"config/config.json",
		"config/config.yaml",
		"config.json",
		"config.yaml",
		"config.yml",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// loadEnvFiles loads .env files; existing variables win.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MAX_TWEET_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_TWEET_LENGTH: %w", err)
		}
		cfg.MaxTweetLength = n
	}
	if v := os.Getenv("DUPLICATE_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DUPLICATE_DAYS: %w", err)
		}
		cfg.DuplicateDays = n
	}
	setString(&cfg.Theme, "THEME")
	setString(&cfg.Subtheme, "SUBTHEME")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.ServerAddr, "SERVER_ADDR")
	setString(&cfg.CronSecret, "CRON_SECRET")
	setString(&cfg.Schedule, "SCHEDULE")
	if v := os.Getenv("FIXED_HASHTAGS"); v != "" {
		cfg.FixedHashtags = strings.Fields(v)
	}

	if key, model := os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"); key != "" || model != "" {
		if cfg.LLM == nil {
			cfg.LLM = &LLMConfig{Provider: "openai"}
		}
		setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		setString(&cfg.LLM.Model, "OPENAI_MODEL")
	}

	setString(&cfg.X.AccessToken, "X_OAUTH2_ACCESS_TOKEN")
	if v := os.Getenv("X_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("X_ENABLED: %w", err)
		}
		cfg.X.Enabled = enabled
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MaxTweetLength == 0 {
		cfg.MaxTweetLength = composer.DefaultBudget
	}
	if cfg.Theme == "" {
		cfg.Theme = defaultTheme
	}
	if cfg.Subtheme == "" {
		cfg.Subtheme = defaultSubtheme
	}
	if cfg.FixedHashtags == nil {
		cfg.FixedHashtags = append([]string(nil), defaultFixedHashtags...)
	}
	if cfg.DuplicateDays == 0 {
		cfg.DuplicateDays = defaultDuplicateDays
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = defaultServerAddr
	}
	cfg.Limits = mergeLimits(cfg.Limits)
	if cfg.LLM != nil && cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel
	}
}

// mergeLimits fills every role left unset in a partial limits block from
// composer.DefaultLimits. A role with Max 0 would otherwise never render.
func mergeLimits(l *composer.Limits) *composer.Limits {
	merged := composer.DefaultLimits()
	if l == nil {
		return &merged
	}
	for _, r := range []struct{ dst, src *composer.Limit }{
		{&merged.Quote, &l.Quote},
		{&merged.Attribution, &l.Attribution},
		{&merged.ShortExplain, &l.ShortExplain},
		{&merged.Trivia, &l.Trivia},
	} {
		if r.src.Max != 0 {
			r.dst.Max = r.src.Max
		}
		if r.src.Min != 0 {
			r.dst.Min = r.src.Min
		}
	}
	if l.Hashtags != 0 {
		merged.Hashtags = l.Hashtags
	}
	return &merged
}

// Validate checks what publishing needs.
func (c Config) Validate() error {
	if c.MaxTweetLength < 0 {
		return errors.New("max_tweet_length must not be negative")
	}
	if c.Limits != nil {
		for name, lim := range map[string]composer.Limit{
			"quote":         c.Limits.Quote,
			"attribution":   c.Limits.Attribution,
			"short_explain": c.Limits.ShortExplain,
			"trivia":        c.Limits.Trivia,
		} {
			if lim.Max < 0 || lim.Min < 0 || lim.Min > lim.Max {
				return fmt.Errorf("limits.%s: need 0 <= min <= max, got min %d max %d", name, lim.Min, lim.Max)
			}
		}
		if c.Limits.Hashtags < 0 {
			return errors.New("limits.hashtags must not be negative")
		}
	}
	if c.X.Enabled && c.X.AccessToken == "" {
		return errors.New("x is enabled but no access token is set (X_OAUTH2_ACCESS_TOKEN)")
	}
	return nil
}
