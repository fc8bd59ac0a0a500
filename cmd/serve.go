package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"pdc-bot/handler"
	"pdc-bot/internal/api"
	"pdc-bot/internal/cache"
	"pdc-bot/internal/integrations/anthropic"
	"pdc-bot/internal/integrations/paramstore"
	"pdc-bot/internal/integrations/search"
	"pdc-bot/internal/integrations/sheets"
	"pdc-bot/internal/repository"
	"pdc-bot/internal/summary"
	"pdc-bot/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the Discord gateway and answer /pdc interactions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), loadConfig(os.Getenv))
	},
}

// awsClients holds the optional AWS-backed clients. Both are nil when the
// matching configuration is absent.
type awsClients struct {
	params   *paramstore.Client
	feedback *repository.Client
}

func newAWSClients(ctx context.Context, cfg botConfig) (awsClients, error) {
	var out awsClients
	if !cfg.usesParamStore() && cfg.FeedbackTable == "" {
		return out, nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return out, fmt.Errorf("load AWS config: %w", err)
	}
	if cfg.usesParamStore() {
		out.params, err = paramstore.New(awsssm.NewFromConfig(awsCfg), cfg.ParamPrefix)
		if err != nil {
			return out, err
		}
	}
	if cfg.FeedbackTable != "" {
		out.feedback, err = repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.FeedbackTable)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(ctx context.Context, cfg botConfig) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	aws, err := newAWSClients(ctx, cfg)
	if err != nil {
		return err
	}

	token, err := secret(ctx, cfg.BotToken, aws.params, paramBotToken)
	if err != nil {
		return fmt.Errorf("resolve bot token: %w", err)
	}
	if token == "" {
		return errors.New("DISCORD_BOT_TOKEN is required")
	}

	searchClient, err := search.NewClient(cfg.SearchBaseURL)
	if err != nil {
		return err
	}

	summarizer, err := newSummarizer(cfg, aws.params)
	if err != nil {
		return err
	}
	if !summarizer.Available() {
		logger.Warn("no model API key configured; results will use the trimmed answer")
	}

	resultCache := cache.New(cfg.CacheTTL)
	go runJanitor(ctx, logger, resultCache)

	sinks, err := feedbackSinks(ctx, logger, cfg, aws)
	if err != nil {
		return err
	}

	svc, err := usecase.NewService(searchClient, summarizer, resultCache, usecase.Config{
		SummaryMaxChars: cfg.SummaryMaxChars,
		UpstreamTimeout: cfg.UpstreamTimeout,
	}, usecase.WithLogger(logger), usecase.WithFeedbackSinks(sinks...))
	if err != nil {
		return err
	}
	if !svc.FeedbackConfigured() {
		logger.Warn("no feedback sink configured; votes will be acknowledged but not stored")
	}

	h, err := handler.NewHandler(svc, logger)
	if err != nil {
		return err
	}

	health, err := api.NewServer(resultCache, logger)
	if err != nil {
		return err
	}
	if cfg.HealthAddr != "" {
		srv := &http.Server{Addr: cfg.HealthAddr, Handler: health, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server stopped", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("discord bot ready",
			"user", r.User.Username,
			"search_base_url", cfg.SearchBaseURL,
			"feedback_sheet", cfg.SheetID,
			"feedback_table", cfg.FeedbackTable,
		)
		if cfg.LocalSearch {
			logger.Warn("search base URL points at localhost; share links will not work for other users",
				"search_base_url", cfg.SearchBaseURL)
		}
		health.SetReady(true)
	})
	session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		h.Handle(ctx, s, ic)
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	logger.Info("discord session open", "cache_ttl", cfg.CacheTTL.String())

	<-ctx.Done()
	logger.Info("shutting down")
	health.SetReady(false)
	return session.Close()
}

func newSummarizer(cfg botConfig, params *paramstore.Client) (*summary.Summarizer, error) {
	opts := []anthropic.Option{anthropic.WithModel(cfg.AnthropicModel)}
	switch {
	case cfg.AnthropicKey != "":
		opts = append(opts, anthropic.WithAPIKey(cfg.AnthropicKey))
	case params != nil:
		opts = append(opts, anthropic.WithSecretGetter(params, paramAnthropicKey))
	default:
		return summary.New(nil), nil
	}
	llm, err := anthropic.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return summary.New(llm), nil
}

func feedbackSinks(ctx context.Context, logger *slog.Logger, cfg botConfig, aws awsClients) ([]usecase.FeedbackSink, error) {
	var sinks []usecase.FeedbackSink
	if cfg.SheetID != "" {
		creds, err := secret(ctx, cfg.ServiceAccountJSON, aws.params, paramServiceAccount)
		if err != nil {
			return nil, fmt.Errorf("resolve service account: %w", err)
		}
		if creds == "" {
			logger.Warn("feedback sheet configured without GOOGLE_SERVICE_ACCOUNT_JSON; sheet sink disabled",
				"feedback_sheet", cfg.SheetID)
		} else {
			sheet, err := sheets.NewFromServiceAccount(ctx, creds, cfg.SheetID, cfg.SheetTab)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sheet)
		}
	}
	if aws.feedback != nil {
		sinks = append(sinks, aws.feedback)
	}
	return sinks, nil
}

// runJanitor drops expired results so the cache does not grow with entries
// nobody will press a button on again.
func runJanitor(ctx context.Context, logger *slog.Logger, c *cache.ShareCache) {
	ticker := time.NewTicker(janitorInterval(c.TTL()))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.PurgeExpired(); n > 0 {
				logger.Debug("purged expired results", "count", n, "remaining", c.Len())
			}
		}
	}
}

// janitorInterval is half the TTL, but never less than a minute.
func janitorInterval(ttl time.Duration) time.Duration {
	return max(ttl/2, time.Minute)
}
