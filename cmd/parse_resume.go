package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"job-assistant/infrastructure"
	"job-assistant/pipeline"
)

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume <file>",
	Short: "Parse a local resume and print the candidate profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return parseResume(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseResumeCmd)
}

func parseResume(ctx context.Context, path string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}

	// Read the file in place: its directory acts as the storage root.
	storage, err := infrastructure.NewLocalStorage(filepath.Dir(abs))
	if err != nil {
		return err
	}
	text, err := newTextExtractor(storage, cfg.PDF, logger)
	if err != nil {
		return err
	}
	extractor, err := newExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	parser := pipeline.NewResumeParser(text, extractor, pipeline.Options{Logger: logger, MaxLogLength: cfg.LLM.MaxLogLength})
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(abs), "."))
	profile, err := parser.Parse(ctx, filepath.Base(abs), format)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
