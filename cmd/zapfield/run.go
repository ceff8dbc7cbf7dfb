package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zapfield/zapfield/internal/ai"
	"github.com/zapfield/zapfield/internal/config"
	"github.com/zapfield/zapfield/internal/db"
	"github.com/zapfield/zapfield/internal/engine"
	"github.com/zapfield/zapfield/internal/transport"
	discordadapter "github.com/zapfield/zapfield/internal/transport/discord"
	webhookadapter "github.com/zapfield/zapfield/internal/transport/webhook"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot daemon",
		Long:  "Connects to the configured chat platform and answers inbound messages until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "zapfield.yaml", "path to config file")
	return cmd
}

func runBot(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if _, err := db.EnsureBotConfig(gormDB); err != nil {
		return err
	}

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	var aiClient ai.Client
	if cfg.AI.Enabled {
		aiClient = ai.NewOpenAI(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	}

	daemon, err := engine.NewDaemon(engine.DaemonOpts{
		DB:      gormDB,
		Config:  cfg,
		Adapter: adapter,
		AI:      aiClient,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (transport.Adapter, error) {
	switch cfg.Transport.Platform {
	case "webhook":
		return webhookadapter.New(webhookadapter.AdapterOpts{
			Port:        cfg.Transport.Webhook.Port,
			OutboundURL: cfg.Transport.Webhook.OutboundURL,
			SharedToken: cfg.Transport.Webhook.SharedToken,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Transport.Discord.BotToken,
			ChannelID: cfg.Transport.Discord.ChannelID,
		})
	default:
		return nil, fmt.Errorf("transport: unsupported platform %q", cfg.Transport.Platform)
	}
}
