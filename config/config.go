package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AppName   = "job-assistant"
	envPrefix = "JOBASSIST"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Storage  StorageConfig  `mapstructure:"storage"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BasePath        string        `mapstructure:"base-path"`
	Mode            string        `mapstructure:"mode"`
	MaxUploadMB     int64         `mapstructure:"max-upload-mb"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto-migrate"`
	Seed        bool   `mapstructure:"seed"`
}

type LLMConfig struct {
	Provider           string        `mapstructure:"provider"`
	Model              string        `mapstructure:"model"`
	APIKey             string        `mapstructure:"api-key"`
	APIKeyFile         string        `mapstructure:"api-key-file"`
	BaseURL            string        `mapstructure:"base-url"`
	Vertex             VertexConfig  `mapstructure:"vertex"`
	CoverLetterTimeout time.Duration `mapstructure:"cover-letter-timeout"`
	MaxLogLength       int           `mapstructure:"max-log-length"`
}

// VertexConfig switches the gemini provider to the Vertex AI backend when Project is set.
type VertexConfig struct {
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
}

type StorageConfig struct {
	Backend string   `mapstructure:"backend"`
	Dir     string   `mapstructure:"dir"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access-key"`
	SecretKey    string `mapstructure:"secret-key"`
	UsePathStyle bool   `mapstructure:"use-path-style"`
}

type PDFConfig struct {
	Engine     string `mapstructure:"engine"`
	LicenseKey string `mapstructure:"license-key"`
}

type QueueConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) error {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base-path", "")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max-upload-mb", 10)
	v.SetDefault("server.shutdown-timeout", 15*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.auto-migrate", true)
	v.SetDefault("database.seed", false)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api-key-file", "")
	v.SetDefault("llm.base-url", "")
	v.SetDefault("llm.vertex.project", "")
	v.SetDefault("llm.cover-letter-timeout", 60*time.Second)
	v.SetDefault("llm.max-log-length", 200)
	v.SetDefault("llm.vertex.location", "us-central1")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "media/resumes")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "resumes/")
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.use-path-style", false)

	v.SetDefault("pdf.engine", "ledongthuc")
	v.SetDefault("queue.name", "match_results")
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"database.dsn":          {"JOBASSIST_DATABASE_DSN", "DB_DSN"},
		"queue.url":             {"JOBASSIST_QUEUE_URL", "RABBITMQ_URL"},
		"llm.api-key":           {"JOBASSIST_LLM_API_KEY", "LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"},
		"pdf.license-key":       {"JOBASSIST_PDF_LICENSE_KEY", "UNIDOC_LICENSE_API_KEY"},
		"storage.s3.access-key": {"JOBASSIST_STORAGE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
		"storage.s3.secret-key": {"JOBASSIST_STORAGE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %s environment variables: %w", key, err)
		}
	}
	return nil
}

// Load reads the optional config file and unmarshals v into a Config.
// The API key is resolved from llm.api-key-file when that is set.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", file, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.LLM.APIKeyFile != "" || cfg.LLM.APIKey != "" {
		key, err := LoadSecret(Secret{Name: "llm api key", Value: cfg.LLM.APIKey, File: cfg.LLM.APIKeyFile})
		if err != nil {
			return nil, err
		}
		cfg.LLM.APIKey = key
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}

	return &cfg, nil
}

func defaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "gpt-4o-mini"
	}
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database dsn is not configured"))
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm api key is not configured"))
		}
	case "gemini":
		if c.LLM.APIKey == "" && c.LLM.Vertex.Project == "" {
			errs = append(errs, errors.New("gemini needs an api key or a vertex project"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported llm provider %q", c.LLM.Provider))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage dir is not configured"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage s3 bucket is not configured"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage backend %q", c.Storage.Backend))
	}

	switch c.PDF.Engine {
	case "ledongthuc":
	case "unipdf":
		if c.PDF.LicenseKey == "" {
			errs = append(errs, errors.New("pdf engine unipdf requires a license key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported pdf engine %q", c.PDF.Engine))
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unsupported server mode %q", c.Server.Mode))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server max-upload-mb must be positive"))
	}

	return errors.Join(errs...)
}
