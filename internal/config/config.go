package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Gateway   GatewayConfig   `mapstructure:"gateway" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Uploads   UploadConfig    `mapstructure:"uploads" validate:"required"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// GatewayConfig describes the upstream chat-completion endpoint. APIKey may be
// empty at load time; the generation pipeline refuses to run without it.
type GatewayConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Model   string        `mapstructure:"model" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// InMemoryDatabase as DATABASE_PATH keeps decks and sessions in process
// memory instead of SQLite.
const InMemoryDatabase = ":memory:"

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type UploadConfig struct {
	MaxPDFBytes          int64 `mapstructure:"max_pdf_bytes" validate:"gt=0"`
	FlashcardMaxPDFBytes int64 `mapstructure:"flashcard_max_pdf_bytes" validate:"gt=0"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"server.port":                     "PORT",
	"server.log_level":                "LOG_LEVEL",
	"gateway.api_key":                 "AI_GATEWAY_API_KEY",
	"gateway.base_url":                "AI_GATEWAY_BASE_URL",
	"gateway.model":                   "AI_GATEWAY_MODEL",
	"gateway.timeout":                 "AI_GATEWAY_TIMEOUT",
	"database.path":                   "DATABASE_PATH",
	"uploads.max_pdf_bytes":           "MAX_PDF_BYTES",
	"uploads.flashcard_max_pdf_bytes": "FLASHCARD_MAX_PDF_BYTES",
	"telemetry.enabled":               "OTEL_ENABLED",
	"telemetry.service_name":          "OTEL_SERVICE_NAME",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("gateway.base_url", "https://ai.gateway.lovable.dev/v1")
	v.SetDefault("gateway.model", "google/gemini-2.5-flash")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("database.path", "./data/quiz.db")
	v.SetDefault("uploads.max_pdf_bytes", 20<<20)
	v.SetDefault("uploads.flashcard_max_pdf_bytes", 5<<20)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "quiz-ai")
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() (Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Database.Path != InMemoryDatabase {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure database dir %s: %w", cfg.Database.Path, err)
		}
	}

	return cfg, nil
}
