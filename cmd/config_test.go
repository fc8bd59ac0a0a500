package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"pdc-bot/internal/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig(envMap(nil))

	require.Equal(t, "http://localhost:3000", cfg.SearchBaseURL)
	require.True(t, cfg.LocalSearch)
	require.Equal(t, "Feedback", cfg.SheetTab)
	require.Equal(t, 15*time.Minute, cfg.CacheTTL)
	require.Equal(t, 900, cfg.SummaryMaxChars)
	require.Equal(t, 60*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.False(t, cfg.usesParamStore())
}

func TestLoadConfig_BaseURLFallbackOrder(t *testing.T) {
	cfg := loadConfig(envMap(map[string]string{
		"DISCORD_SEARCH_BASE_URL": "https://pdc.example/ ",
		"NEXT_PUBLIC_BASE_URL":    "https://other.example",
	}))
	require.Equal(t, "https://pdc.example", cfg.SearchBaseURL)
	require.False(t, cfg.LocalSearch)

	cfg = loadConfig(envMap(map[string]string{"NEXT_PUBLIC_BASE_URL": "https://other.example/"}))
	require.Equal(t, "https://other.example", cfg.SearchBaseURL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg := loadConfig(envMap(map[string]string{
		"DISCORD_BOT_TOKEN":          " tok ",
		"DISCORD_FEEDBACK_SHEET_ID":  "sheet",
		"DISCORD_FEEDBACK_SHEET_TAB": "Votes",
		"CACHE_TTL":                  "5m",
		"SUMMARY_MAX_CHARS":          "400",
		"UPSTREAM_TIMEOUT":           "10s",
		"LOG_LEVEL":                  "debug",
		"PARAM_PREFIX":               "/pdc/prod",
	}))
	require.Equal(t, "tok", cfg.BotToken)
	require.Equal(t, "sheet", cfg.SheetID)
	require.Equal(t, "Votes", cfg.SheetTab)
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Equal(t, 400, cfg.SummaryMaxChars)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.True(t, cfg.usesParamStore())
}

func TestLoadConfig_InvalidNumbersFallBack(t *testing.T) {
	cfg := loadConfig(envMap(map[string]string{
		"CACHE_TTL":         "soon",
		"SUMMARY_MAX_CHARS": "-1",
		"UPSTREAM_TIMEOUT":  "0s",
		"LOG_LEVEL":         "loud",
	}))
	require.Equal(t, 15*time.Minute, cfg.CacheTTL)
	require.Equal(t, 900, cfg.SummaryMaxChars)
	require.Equal(t, 60*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvFiles_FirstFileWins(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	base := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(local, []byte("PDC_TEST_A=local\n"), 0o600))
	require.NoError(t, os.WriteFile(base, []byte("PDC_TEST_A=base\nPDC_TEST_B=base\n"), 0o600))
	t.Setenv("PDC_TEST_A", "")
	t.Setenv("PDC_TEST_B", "")
	os.Unsetenv("PDC_TEST_A")
	os.Unsetenv("PDC_TEST_B")

	loadEnvFiles(local, base, filepath.Join(dir, "missing"))

	require.Equal(t, "local", os.Getenv("PDC_TEST_A"))
	require.Equal(t, "base", os.Getenv("PDC_TEST_B"))
}

func TestSecret_PrefersValue(t *testing.T) {
	v, err := secret(context.Background(), "direct", nil, paramBotToken)
	require.NoError(t, err)
	require.Equal(t, "direct", v)

	v, err = secret(context.Background(), "", nil, paramBotToken)
	require.NoError(t, err)
	require.Empty(t, v)
}

func TestNewSummarizer_WithoutKeyIsUnavailable(t *testing.T) {
	s, err := newSummarizer(botConfig{}, nil)
	require.NoError(t, err)
	require.False(t, s.Available())

	s, err = newSummarizer(botConfig{AnthropicKey: "k"}, nil)
	require.NoError(t, err)
	require.True(t, s.Available())
}

func TestPrintFeedback(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, printFeedback(cmd, nil))
	require.Equal(t, "no feedback recorded\n", buf.String())

	buf.Reset()
	require.NoError(t, printFeedback(cmd, []domain.FeedbackRecord{{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Rating:    domain.RatingDown,
		UserTag:   "alice",
		Query:     "episode 4",
	}}))
	require.Contains(t, buf.String(), "RATING")
	require.Contains(t, buf.String(), "2025-03-01T12:00:00Z")
	require.Contains(t, buf.String(), "down")
	require.Contains(t, buf.String(), "episode 4")
}

func TestJanitorInterval(t *testing.T) {
	require.Equal(t, 7*time.Minute+30*time.Second, janitorInterval(15*time.Minute))
	require.Equal(t, time.Minute, janitorInterval(30*time.Second))
}
