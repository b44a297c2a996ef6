package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reflectivejournal/internal/bot"
	"reflectivejournal/internal/config"
	"reflectivejournal/internal/database"
	"reflectivejournal/internal/importer"
	"reflectivejournal/internal/insights"
	"reflectivejournal/internal/journalapi"
	"reflectivejournal/internal/scheduler"
	"reflectivejournal/internal/summarizer"

	"github.com/spf13/cobra"
)

func newServeCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the weekly summary scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), log)
		},
	}
}

func runServe(parent context.Context, log *slog.Logger) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err = cfg.RequireToken(); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("initialize db %q: %w", cfg.DBPath, err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	client, err := journalapi.New(cfg.APIURL, cfg.APITimeout, log)
	if err != nil {
		return fmt.Errorf("create journal API client: %w", err)
	}
	log.InfoContext(ctx, "Journal API client is initialized",
		"apiURL", cfg.APIURL,
		"timeout", cfg.APITimeout.String())

	builder := insights.NewBuilder(client, db, initOpenAISummarizer(ctx, cfg.OpenAIAPIKey, log), log)

	botInst, err := bot.New(cfg.Token, bot.Options{
		DB:           db,
		Client:       client,
		Builder:      builder,
		Importer:     importer.New(client, nil, log),
		AllowedUsers: cfg.AllowedUsers,
		Location:     loc,
		InsightsDays: cfg.InsightsDays,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"timezone", loc.String(),
		"insightsDays", cfg.InsightsDays)

	sched := scheduler.New(ctx, db, builder, log)

	if err = sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", scheduler.WeeklySummarySpec,
		"timezone", scheduler.Timezone)

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
		log.InfoContext(ctx, "Context is done",
			"error", ctx.Err())
	}
	cancel()

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

func initOpenAISummarizer(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Summarizer {
	if apiKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so fallback will be used",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
