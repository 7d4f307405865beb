package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedSource is one RSS source from the feeds config file.
// The label identifies the source in logs and hashtags.
type FeedSource struct {
	URL   string `yaml:"url"`
	Label string `yaml:"label"`
}

type feedsFile struct {
	Feeds []FeedSource `yaml:"feeds"`
}

type Config struct {
	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// Pipeline settings
	CheckInterval    time.Duration
	MaxArticleAge    time.Duration
	Keywords         []string
	MaxPostsPerCycle int
	FetchConcurrency int
	FeedsConfigPath  string
	FeedSources      []FeedSource

	// Enrichment settings
	EnableTranslation   bool
	EnableImageFetching bool
	TargetLanguages     []string // ordered, e.g. ["uz", "ru"]
	TranslationBackends []string // ordered fallback chain
	TranslationBudget   int      // requests per paid backend per day (0 = unlimited)
	OpenAIAPIKey        string
	GeminiAPIKey        string

	// Publisher settings
	PublishRetryAttempts int
	PublishRetryDelay    time.Duration
	PostDelay            time.Duration // minimum spacing between posts in one cycle
	ChannelLink          string        // footer link, e.g. https://t.me/pressleaf

	// Store settings
	StoreDriver   string // "file" or "postgres"
	StoreFilePath string
	DatabaseURL   string
	StoreTTLHours int

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	MonitoringPort string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		CheckInterval:        time.Hour,
		MaxArticleAge:        24 * time.Hour,
		MaxPostsPerCycle:     5,
		FetchConcurrency:     4,
		FeedsConfigPath:      "configs/feeds.yaml",
		EnableTranslation:    true,
		EnableImageFetching:  true,
		TargetLanguages:      []string{"uz", "ru"},
		TranslationBackends:  []string{"google", "openai", "gemini"},
		PublishRetryAttempts: 3,
		PublishRetryDelay:    time.Second,
		PostDelay:            15 * time.Second,
		StoreDriver:          "file",
		StoreFilePath:        "posted_articles.json",
		StoreTTLHours:        14 * 24,
		RequestTimeout:       15 * time.Second,
		MonitoringPort:       "8080",
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.ChannelLink = os.Getenv("CHANNEL_LINK")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.StoreDriver = getEnvOrDefault("STORE_DRIVER", cfg.StoreDriver)
	cfg.StoreFilePath = getEnvOrDefault("STORE_FILE_PATH", cfg.StoreFilePath)
	cfg.StoreTTLHours = getEnvIntOrDefault("STORE_TTL_HOURS", cfg.StoreTTLHours)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	if v := os.Getenv("CHECK_INTERVAL_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.CheckInterval = time.Duration(val) * time.Minute
		}
	}
	if v := os.Getenv("MAX_ARTICLE_AGE_HOURS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxArticleAge = time.Duration(val) * time.Hour
		}
	}
	if v := os.Getenv("KEYWORDS"); v != "" {
		cfg.Keywords = splitList(v)
	}
	if v := os.Getenv("TARGET_LANGUAGES"); v != "" {
		cfg.TargetLanguages = splitList(v)
	}
	if v := os.Getenv("TRANSLATION_BACKENDS"); v != "" {
		cfg.TranslationBackends = splitList(v)
	}
	cfg.TranslationBudget = getEnvIntOrDefault("TRANSLATION_DAILY_BUDGET", 0)

	if v := os.Getenv("ENABLE_TRANSLATION"); v != "" {
		cfg.EnableTranslation = v == "true"
	}
	if v := os.Getenv("ENABLE_IMAGE_FETCHING"); v != "" {
		cfg.EnableImageFetching = v == "true"
	}

	cfg.MaxPostsPerCycle = getEnvIntOrDefault("MAX_POSTS_PER_CYCLE", cfg.MaxPostsPerCycle)
	cfg.FetchConcurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.PublishRetryAttempts = getEnvIntOrDefault("PUBLISH_RETRY_ATTEMPTS", cfg.PublishRetryAttempts)

	if v := os.Getenv("PUBLISH_RETRY_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.PublishRetryDelay = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("POST_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.PostDelay = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	sources, err := LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load feeds config: %w", err)
	}
	cfg.FeedSources = sources

	return cfg, cfg.Validate()
}

// LoadFeeds reads the RSS source list from a YAML file.
func LoadFeeds(path string) ([]FeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ff feedsFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&ff); err != nil {
		return nil, err
	}

	for i, src := range ff.Feeds {
		if src.URL == "" {
			return nil, fmt.Errorf("feed %d has empty url", i)
		}
	}
	return ff.Feeds, nil
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	if len(c.FeedSources) == 0 {
		return fmt.Errorf("at least one feed source is required")
	}
	if c.PublishRetryAttempts < 1 {
		return fmt.Errorf("PUBLISH_RETRY_ATTEMPTS must be at least 1")
	}
	if c.MaxPostsPerCycle < 1 {
		return fmt.Errorf("MAX_POSTS_PER_CYCLE must be at least 1")
	}
	if c.StoreDriver != "file" && c.StoreDriver != "postgres" {
		return fmt.Errorf("STORE_DRIVER must be 'file' or 'postgres'")
	}
	if c.StoreDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
