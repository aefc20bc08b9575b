package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"job-assistant/config"
	"job-assistant/domain"
)

// OpenDatabase connects with the configured dialect.
func OpenDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.Driver, err)
	}

	logger.Info("connected to database", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate creates or updates the schema and optionally seeds job postings.
func Migrate(ctx context.Context, db *gorm.DB, seed bool, logger *zap.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&domain.CandidateProfile{}, &domain.JobPosting{}, &domain.MatchResult{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database schema migrated")

	if !seed {
		return nil
	}
	return seedJobPostings(ctx, db, logger)
}

func seedJobPostings(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.JobPosting{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count job postings: %w", err)
	}
	if count > 0 {
		return nil
	}

	jobs := []domain.JobPosting{
		{
			Title:          "Backend Engineer",
			Company:        "Acme",
			RequiredSkills: datatypes.JSONSlice[string]{"Python", "Go", "PostgreSQL"},
			Description:    "Design and operate the HTTP services behind Acme's hiring platform.",
		},
		{
			Title:          "Product Engineer (Backend)",
			Company:        "Rakamin",
			RequiredSkills: datatypes.JSONSlice[string]{"Go", "PHP", "MySQL", "RabbitMQ", "LLM integration"},
			Description: "Build scalable backend systems with RESTful APIs, message queues and " +
				"AI-powered features on cloud infrastructure.",
		},
	}

	if err := db.WithContext(ctx).Create(&jobs).Error; err != nil {
		return fmt.Errorf("seed job postings: %w", err)
	}

	logger.Info("seeded job postings", zap.Int("count", len(jobs)))
	return nil
}
