package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"pdc-bot/handler"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the /pdc slash command",
	Long: `Overwrites the application's commands with /pdc. The command is
registered for DISCORD_GUILD_ID when set, globally otherwise.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := loadConfig(os.Getenv)
		if cfg.AppID == "" {
			return errors.New("DISCORD_APP_ID is required")
		}

		aws, err := newAWSClients(ctx, botConfig{ParamPrefix: cfg.ParamPrefix})
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

		session, err := discordgo.New("Bot " + token)
		if err != nil {
			return fmt.Errorf("create discord session: %w", err)
		}
		created, err := session.ApplicationCommandBulkOverwrite(cfg.AppID, cfg.GuildID, handler.Commands(), discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("register commands: %w", err)
		}

		scope := "globally"
		if cfg.GuildID != "" {
			scope = "for guild " + cfg.GuildID
		}
		for _, c := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "registered /%s %s (id %s)\n", c.Name, scope, c.ID)
		}
		return nil
	},
}
