package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"job-assistant/config"
	"job-assistant/infrastructure"
	"job-assistant/interfaces"
	"job-assistant/pipeline"
)

type resumeStorage interface {
	interfaces.ResumeStorage
	infrastructure.DocumentOpener
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (resumeStorage, error) {
	switch cfg.Backend {
	case "s3":
		return infrastructure.NewS3Storage(ctx, cfg.S3)
	case "local", "":
		return infrastructure.NewLocalStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func newExtractor(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (pipeline.StructuredExtractor, error) {
	logger = logger.Named(cfg.Provider)
	switch cfg.Provider {
	case "gemini":
		return infrastructure.NewGeminiExtractor(ctx, cfg, logger)
	case "openai", "":
		return infrastructure.NewOpenAIExtractor(cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func newTextExtractor(storage infrastructure.DocumentOpener, cfg config.PDFConfig, logger *zap.Logger) (*infrastructure.DocumentTextExtractor, error) {
	if err := infrastructure.ConfigurePDFLicense(cfg.LicenseKey); err != nil {
		return nil, err
	}
	return infrastructure.NewDocumentTextExtractor(storage, cfg.Engine, logger.Named("text")), nil
}
