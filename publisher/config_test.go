package publisher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_x_quote_publisher/composer"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MAX_TWEET_LENGTH", "DUPLICATE_DAYS", "THEME", "SUBTHEME", "DATABASE_PATH",
		"SERVER_ADDR", "CRON_SECRET", "SCHEDULE", "FIXED_HASHTAGS", "OPENAI_API_KEY",
		"OPENAI_MODEL", "X_OAUTH2_ACCESS_TOKEN", "X_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"max_tweet_length": 140,
		"subtheme": "哲学",
		"llm": {"provider": "openai", "api_key": "sk-test"},
		"x": {"enabled": true, "access_token": "tok"}
	}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 140, cfg.MaxTweetLength)
	assert.Equal(t, "哲学", cfg.Subtheme)
	assert.Equal(t, defaultTheme, cfg.Theme)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, []string{"#名言", "#今日の偉人"}, cfg.FixedHashtags)
	assert.Equal(t, composer.DefaultLimits(), *cfg.Limits)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
theme: 名言
fixed_hashtags: ["#a"]
limits:
  quote: {max: 100, min: 10}
  hashtags: 30
`), 0o600))
	t.Setenv("MAX_TWEET_LENGTH", "200")
	t.Setenv("FIXED_HASHTAGS", "#x #y")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("X_ENABLED", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.MaxTweetLength)
	assert.Equal(t, "名言", cfg.Theme)
	assert.Equal(t, []string{"#x", "#y"}, cfg.FixedHashtags)
	assert.Equal(t, composer.Limit{Max: 100, Min: 10}, cfg.Limits.Quote)
	assert.Equal(t, 30, cfg.Limits.Hashtags)
	defaults := composer.DefaultLimits()
	assert.Equal(t, defaults.Attribution, cfg.Limits.Attribution)
	assert.Equal(t, defaults.ShortExplain, cfg.Limits.ShortExplain)
	assert.Equal(t, defaults.Trivia, cfg.Limits.Trivia)
	require.NotNil(t, cfg.LLM)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Error(t, cfg.Validate(), "x enabled without a token")
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	t.Setenv("MAX_TWEET_LENGTH", "lots")
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "MAX_TWEET_LENGTH")
}

func TestLoadConfig_PartialLimitsKeepAttribution(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
limits:
  trivia: {max: 40}
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, composer.Limit{Max: 40, Min: 16}, cfg.Limits.Trivia)

	c := composer.Composer{Budget: cfg.MaxTweetLength, Limits: *cfg.Limits}
	got := c.BuildTweet(composer.Post{Quote: "Know thyself.", FigureName: "Socrates"})
	assert.Equal(t, "Know thyself.\nSocrates", got)
}

func TestValidate_Limits(t *testing.T) {
	cfg := Config{Limits: &composer.Limits{
		Quote:       composer.Limit{Max: 10, Min: 20},
		Attribution: composer.Limit{Max: 60},
	}}
	assert.ErrorContains(t, cfg.Validate(), "limits.quote")

	cfg.Limits.Quote = composer.Limit{Max: 100, Min: 20}
	cfg.Limits.Hashtags = -1
	assert.ErrorContains(t, cfg.Validate(), "limits.hashtags")
}
