package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Extractor ExtractorConfig
	Embedding EmbeddingConfig
	Matcher   MatcherConfig
	Queue     QueueConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for resume storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractorConfig holds resume extraction settings. APIKeys is the fixed
// credential pool: one entry per interchangeable key for the upstream LLM
// service. The pool size also bounds extraction concurrency.
type ExtractorConfig struct {
	APIKeys       []string `mapstructure:"api_keys"`
	DefaultModel  string   `mapstructure:"default_model"`
	Strategy      string   `mapstructure:"strategy"` // "shard" or "group"
	GroupSize     int      `mapstructure:"group_size"`
	MaxAttempts   int      `mapstructure:"max_attempts"`
	BaseDelaySecs int      `mapstructure:"base_delay_secs"`
	MaxDelaySecs  int      `mapstructure:"max_delay_secs"`
	TimeoutSecs   int      `mapstructure:"timeout_secs"`
}

// EmbeddingConfig holds embedding enrichment settings. The extractor's API
// keys are reused; rotation is independent of the extraction stage.
type EmbeddingConfig struct {
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// MatcherConfig holds candidate-scoring stream settings.
type MatcherConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// QueueConfig holds batch queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
}

// EmailConfig holds batch notification delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// Load reads configuration from environment variables with the TALENTOS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TALENTOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "talentos")
	v.SetDefault("db.password", "talentos_secret")
	v.SetDefault("db.name", "talentos_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "talentos-resumes")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Extractor defaults
	v.SetDefault("extractor.api_keys", "")
	v.SetDefault("extractor.default_model", "gemini-2.0-flash")
	v.SetDefault("extractor.strategy", "shard")
	v.SetDefault("extractor.group_size", 4)
	v.SetDefault("extractor.max_attempts", 3)
	v.SetDefault("extractor.base_delay_secs", 2)
	v.SetDefault("extractor.max_delay_secs", 30)
	v.SetDefault("extractor.timeout_secs", 120)

	// Embedding defaults
	v.SetDefault("embedding.model", "gemini-embedding-001")
	v.SetDefault("embedding.timeout_secs", 30)

	// Matcher defaults
	v.SetDefault("matcher.endpoint", "")
	v.SetDefault("matcher.api_key", "")
	v.SetDefault("matcher.timeout_secs", 600)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.concurrency", 2)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@talentos.app")
	v.SetDefault("email.from_name", "TALENTOS")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "TALENTOS_SERVER_PORT",
		"server.read_timeout":       "TALENTOS_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "TALENTOS_SERVER_WRITE_TIMEOUT",
		"server.environment":        "TALENTOS_SERVER_ENVIRONMENT",
		"db.host":                   "TALENTOS_DB_HOST",
		"db.port":                   "TALENTOS_DB_PORT",
		"db.user":                   "TALENTOS_DB_USER",
		"db.password":               "TALENTOS_DB_PASSWORD",
		"db.name":                   "TALENTOS_DB_NAME",
		"db.sslmode":                "TALENTOS_DB_SSLMODE",
		"db.max_open":               "TALENTOS_DB_MAX_OPEN",
		"db.max_idle":               "TALENTOS_DB_MAX_IDLE",
		"s3.region":                 "TALENTOS_S3_REGION",
		"s3.bucket":                 "TALENTOS_S3_BUCKET",
		"s3.endpoint":               "TALENTOS_S3_ENDPOINT",
		"s3.access_key":             "TALENTOS_S3_ACCESS_KEY",
		"s3.secret_key":             "TALENTOS_S3_SECRET_KEY",
		"s3.max_file_size_mb":       "TALENTOS_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":         "TALENTOS_S3_PRESIGN_EXPIRY",
		"log.level":                 "TALENTOS_LOG_LEVEL",
		"log.format":                "TALENTOS_LOG_FORMAT",
		"cors.allowed_origins":      "TALENTOS_CORS_ALLOWED_ORIGINS",
		"extractor.api_keys":        "TALENTOS_EXTRACTOR_API_KEYS",
		"extractor.default_model":   "TALENTOS_EXTRACTOR_DEFAULT_MODEL",
		"extractor.strategy":        "TALENTOS_EXTRACTOR_STRATEGY",
		"extractor.group_size":      "TALENTOS_EXTRACTOR_GROUP_SIZE",
		"extractor.max_attempts":    "TALENTOS_EXTRACTOR_MAX_ATTEMPTS",
		"extractor.base_delay_secs": "TALENTOS_EXTRACTOR_BASE_DELAY_SECS",
		"extractor.max_delay_secs":  "TALENTOS_EXTRACTOR_MAX_DELAY_SECS",
		"extractor.timeout_secs":    "TALENTOS_EXTRACTOR_TIMEOUT_SECS",
		"embedding.model":           "TALENTOS_EMBEDDING_MODEL",
		"embedding.timeout_secs":    "TALENTOS_EMBEDDING_TIMEOUT_SECS",
		"matcher.endpoint":          "TALENTOS_MATCHER_ENDPOINT",
		"matcher.api_key":           "TALENTOS_MATCHER_API_KEY",
		"matcher.timeout_secs":      "TALENTOS_MATCHER_TIMEOUT_SECS",
		"queue.poll_interval_secs":  "TALENTOS_QUEUE_POLL_INTERVAL_SECS",
		"queue.concurrency":         "TALENTOS_QUEUE_CONCURRENCY",
		"email.provider":            "TALENTOS_EMAIL_PROVIDER",
		"email.region":              "TALENTOS_EMAIL_REGION",
		"email.from_address":        "TALENTOS_EMAIL_FROM_ADDRESS",
		"email.from_name":           "TALENTOS_EMAIL_FROM_NAME",
		"email.frontend_url":        "TALENTOS_EMAIL_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TALENTOS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TALENTOS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitTrimmed(v.GetString("cors.allowed_origins")),
	}
	cfg.Extractor = ExtractorConfig{
		APIKeys:       splitTrimmed(v.GetString("extractor.api_keys")),
		DefaultModel:  v.GetString("extractor.default_model"),
		Strategy:      v.GetString("extractor.strategy"),
		GroupSize:     v.GetInt("extractor.group_size"),
		MaxAttempts:   v.GetInt("extractor.max_attempts"),
		BaseDelaySecs: v.GetInt("extractor.base_delay_secs"),
		MaxDelaySecs:  v.GetInt("extractor.max_delay_secs"),
		TimeoutSecs:   v.GetInt("extractor.timeout_secs"),
	}
	cfg.Embedding = EmbeddingConfig{
		Model:       v.GetString("embedding.model"),
		TimeoutSecs: v.GetInt("embedding.timeout_secs"),
	}
	cfg.Matcher = MatcherConfig{
		Endpoint:    v.GetString("matcher.endpoint"),
		APIKey:      v.GetString("matcher.api_key"),
		TimeoutSecs: v.GetInt("matcher.timeout_secs"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	return cfg, nil
}

// splitTrimmed splits a comma-separated string, dropping empty entries.
func splitTrimmed(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
