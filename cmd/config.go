package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pdc-bot/internal/cache"
	"pdc-bot/internal/integrations/paramstore"
	"pdc-bot/internal/integrations/search"
	"pdc-bot/internal/integrations/sheets"
	"pdc-bot/internal/summary"
)

// SSM keys read under PARAM_PREFIX when the matching variable is unset.
const (
	paramBotToken       = "discord-bot-token"
	paramAnthropicKey   = "anthropic-api-key"
	paramServiceAccount = "google-service-account"

	defaultUpstreamTimeout = 60 * time.Second
)

type botConfig struct {
	BotToken      string
	AppID         string
	GuildID       string
	SearchBaseURL string
	LocalSearch   bool

	SheetID            string
	SheetTab           string
	ServiceAccountJSON string
	FeedbackTable      string

	AnthropicKey   string
	AnthropicModel string

	ParamPrefix     string
	CacheTTL        time.Duration
	SummaryMaxChars int
	UpstreamTimeout time.Duration
	HealthAddr      string
	LogLevel        slog.Level
}

// loadEnvFiles loads dotenv files in order. Variables already set win, so
// earlier files take precedence over later ones.
func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("env file not loaded", "path", p, "err", err)
			}
			continue
		}
		slog.Debug("environment loaded", "path", p)
	}
}

func loadConfig(getenv func(string) string) botConfig {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := botConfig{
		BotToken:           env("DISCORD_BOT_TOKEN"),
		AppID:              env("DISCORD_APP_ID"),
		GuildID:            env("DISCORD_GUILD_ID"),
		SheetID:            env("DISCORD_FEEDBACK_SHEET_ID"),
		SheetTab:           env("DISCORD_FEEDBACK_SHEET_TAB"),
		ServiceAccountJSON: getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		FeedbackTable:      env("FEEDBACK_TABLE"),
		AnthropicKey:       env("ANTHROPIC_API_KEY"),
		AnthropicModel:     env("ANTHROPIC_MODEL"),
		ParamPrefix:        env("PARAM_PREFIX"),
		CacheTTL:           envDuration(getenv, "CACHE_TTL", cache.DefaultTTL),
		SummaryMaxChars:    envInt(getenv, "SUMMARY_MAX_CHARS", summary.DefaultMaxChars),
		UpstreamTimeout:    envDuration(getenv, "UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
		HealthAddr:         env("HEALTH_ADDR"),
		LogLevel:           envLevel(getenv, "LOG_LEVEL", slog.LevelInfo),
	}
	if cfg.SheetTab == "" {
		cfg.SheetTab = sheets.DefaultTab
	}

	cfg.SearchBaseURL = env("DISCORD_SEARCH_BASE_URL")
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = env("NEXT_PUBLIC_BASE_URL")
	}
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = search.DefaultBaseURL
	}
	cfg.SearchBaseURL = search.NormalizeBaseURL(cfg.SearchBaseURL)
	cfg.LocalSearch = strings.Contains(cfg.SearchBaseURL, "://localhost") ||
		strings.Contains(cfg.SearchBaseURL, "://127.0.0.1")
	return cfg
}

// usesParamStore reports whether an SSM client is needed.
func (c botConfig) usesParamStore() bool {
	return c.ParamPrefix != ""
}

func envInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envLevel(getenv func(string) string, key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return lvl
}

// secret returns value when set and otherwise reads key from the parameter
// store. An empty result with a nil error means the secret is not configured.
func secret(ctx context.Context, value string, params *paramstore.Client, key string) (string, error) {
	if value != "" {
		return value, nil
	}
	if params == nil {
		return "", nil
	}
	return params.Secret(ctx, key)
}
