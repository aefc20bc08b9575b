package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"job-assistant/infrastructure"
)

var watchMatchesCmd = &cobra.Command{
	Use:   "watch-matches",
	Short: "Log match events published by the API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return watchMatches(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchMatchesCmd)
}

func watchMatches(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Queue.URL == "" {
		return errors.New("queue url is not configured")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rmq, err := infrastructure.NewRabbitMQ(cfg.Queue.URL, cfg.Queue.Name, logger)
	if err != nil {
		return err
	}
	defer rmq.Close()

	return rmq.ConsumeMatches(ctx, func(event infrastructure.MatchEvent) {
		logger.Info("match event",
			zap.String("event", event.Event),
			zap.Uint("match_id", event.Result.ID),
			zap.String("candidate", event.Result.CandidateName),
			zap.String("job_title", event.Result.JobTitle),
			zap.String("company", event.Result.Company),
			zap.Int("match_score", event.Result.MatchScore),
			zap.Strings("missing_skills", event.Result.MissingSkills),
		)
	})
}
