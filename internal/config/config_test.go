package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeedsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFeedsFile(t, `feeds:
  - url: https://example.com/rss
    label: Example
`)
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "@chan")
	t.Setenv("FEEDS_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.CheckInterval)
	assert.Equal(t, 24*time.Hour, cfg.MaxArticleAge)
	assert.Equal(t, 5, cfg.MaxPostsPerCycle)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, []string{"uz", "ru"}, cfg.TargetLanguages)
	assert.Equal(t, []string{"google", "openai", "gemini"}, cfg.TranslationBackends)
	assert.Equal(t, 3, cfg.PublishRetryAttempts)
	assert.Equal(t, 15*time.Second, cfg.PostDelay)
	assert.Equal(t, "file", cfg.StoreDriver)
	require.Len(t, cfg.FeedSources, 1)
	assert.Equal(t, "Example", cfg.FeedSources[0].Label)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFeedsFile(t, `feeds:
  - url: https://example.com/rss
    label: Example
`)
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "@chan")
	t.Setenv("FEEDS_CONFIG_PATH", path)
	t.Setenv("CHECK_INTERVAL_MINUTES", "30")
	t.Setenv("MAX_ARTICLE_AGE_HOURS", "6")
	t.Setenv("KEYWORDS", "ai, cloud , ")
	t.Setenv("TARGET_LANGUAGES", "ru,uk")
	t.Setenv("MAX_POSTS_PER_CYCLE", "2")
	t.Setenv("POST_DELAY_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 6*time.Hour, cfg.MaxArticleAge)
	assert.Equal(t, []string{"ai", "cloud"}, cfg.Keywords)
	assert.Equal(t, []string{"ru", "uk"}, cfg.TargetLanguages)
	assert.Equal(t, 2, cfg.MaxPostsPerCycle)
	assert.Equal(t, time.Duration(0), cfg.PostDelay)
}

func TestLoadRequiresTelegramCredentials(t *testing.T) {
	path := writeFeedsFile(t, `feeds:
  - url: https://example.com/rss
`)
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("FEEDS_CONFIG_PATH", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}

func TestLoadPostgresRequiresDatabaseURL(t *testing.T) {
	path := writeFeedsFile(t, `feeds:
  - url: https://example.com/rss
`)
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "@chan")
	t.Setenv("FEEDS_CONFIG_PATH", path)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadFeedsRejectsEmptyURL(t *testing.T) {
	path := writeFeedsFile(t, `feeds:
  - url: ""
    label: Broken
`)
	_, err := LoadFeeds(path)
	assert.Error(t, err)
}

func TestLoadFeedsMissingFile(t *testing.T) {
	_, err := LoadFeeds(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		TelegramToken:        "tok",
		TelegramChatID:       "@chan",
		FeedSources:          []FeedSource{{URL: "https://example.com/rss"}},
		StoreDriver:          "file",
		PublishRetryAttempts: 3,
		MaxPostsPerCycle:     5,
	}
}

func TestValidateRejectsUnknownStoreDriver(t *testing.T) {
	cfg := validConfig()
	cfg.StoreDriver = "redis"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveRetryAttempts(t *testing.T) {
	for _, attempts := range []int{0, -1} {
		cfg := validConfig()
		cfg.PublishRetryAttempts = attempts
		err := cfg.Validate()
		require.Error(t, err, "attempts=%d", attempts)
		assert.Contains(t, err.Error(), "PUBLISH_RETRY_ATTEMPTS")
	}
}

func TestValidateRejectsNonPositivePostCap(t *testing.T) {
	cfg := validConfig()
	cfg.MaxPostsPerCycle = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_POSTS_PER_CYCLE")
}
