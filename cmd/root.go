package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"job-assistant/config"
	"job-assistant/infrastructure"
)

const app = config.AppName

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "job-assistant parses resumes and job descriptions, matches candidates to jobs and writes cover letters",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	if err := viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %v", err)
	}
	if err := viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %v", err)
	}
}

// loadDotEnv reads .env when present. Real environment variables win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	v := viper.GetViper()
	if err := config.SetDefaults(v); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logger, err := infrastructure.NewLogger(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, logger, nil
}
