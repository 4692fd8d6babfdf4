package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/salesquery/salesquery/internal/warehouse"
)

const envPrefix = "SALESQUERY_"

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig       `envPrefix:"SERVICE_"`
	HTTP          HTTPConfig          `envPrefix:"API_"`
	DB            DBConfig            `envPrefix:"DB_"`
	AI            AIConfig            `envPrefix:"AI_"`
	ObjectStore   ObjectStoreConfig   `envPrefix:"S3_"`
	Observability ObservabilityConfig `envPrefix:"LOG_"`
}

type ServiceConfig struct {
	Name string `env:"NAME"`
}

type HTTPConfig struct {
	Address      string        `env:"ADDR"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT"`
}

type DBConfig struct {
	Driver          string        `env:"DRIVER"`
	DSN             string        `env:"DSN"`
	Schema          string        `env:"SCHEMA"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`
	QueryTimeout    time.Duration `env:"QUERY_TIMEOUT"`
}

// Warehouse converts the section into the warehouse package's config.
func (c DBConfig) Warehouse() warehouse.Config {
	return warehouse.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		Schema:          c.Schema,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		QueryTimeout:    c.QueryTimeout,
	}
}

type AIConfig struct {
	Provider           string        `env:"PROVIDER"`
	Model              string        `env:"MODEL"`
	Timeout            time.Duration `env:"TIMEOUT"`
	OllamaHost         string        `env:"OLLAMA_HOST"`
	OllamaProbeTimeout time.Duration `env:"OLLAMA_PROBE_TIMEOUT"`
	ExamplesFile       string        `env:"EXAMPLES_FILE"`

	// Provider keys are read without the service prefix.
	AnthropicAPIKey string
	GroqAPIKey      string
	OpenAIAPIKey    string
}

type ObjectStoreConfig struct {
	Endpoint         string `env:"ENDPOINT"`
	Region           string `env:"REGION"`
	Bucket           string `env:"BUCKET"`
	AccessKeyID      string `env:"ACCESS_KEY_ID"`
	SecretAccessKey  string `env:"SECRET_ACCESS_KEY"`
	UseSSL           bool   `env:"USE_SSL"`
	Prefix           string `env:"PREFIX"`
	AutoCreateBucket bool   `env:"AUTO_CREATE_BUCKET"`
	SnapshotKey      string `env:"SNAPSHOT_KEY"`
}

// Enabled reports whether an object store is configured at all.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

type ObservabilityConfig struct {
	LogLevel  slog.Level `env:"LEVEL"`
	LogFormat string     `env:"FORMAT"`
}

func (c ObservabilityConfig) JSON() bool {
	return c.LogFormat == LogFormatJSON
}

type unprefixed struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	DatabaseURL     string `env:"DATABASE_URL"`
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, env.ToMap(os.Environ()))
}

// Load builds the config from environ. Profile defaults are applied first and
// SALESQUERY_* variables override them.
func Load(serviceName string, environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}

	profile := ProfileDev
	if raw, ok := environ[envPrefix+"PROFILE"]; ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid %sPROFILE: %q", envPrefix, profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	var extra unprefixed
	if err := env.ParseWithOptions(&extra, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if url := strings.TrimSpace(extra.DatabaseURL); url != "" {
		driver, dsn, err := warehouse.ParseURL(url)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		cfg.DB.Driver = driver
		cfg.DB.DSN = dsn
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix, Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.AI.AnthropicAPIKey = strings.TrimSpace(extra.AnthropicAPIKey)
	cfg.AI.GroqAPIKey = strings.TrimSpace(extra.GroqAPIKey)
	cfg.AI.OpenAIAPIKey = strings.TrimSpace(extra.OpenAIAPIKey)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Service.Name = strings.TrimSpace(c.Service.Name)
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if strings.TrimSpace(c.HTTP.Address) == "" {
		return fmt.Errorf("invalid %sAPI_ADDR: address is required", envPrefix)
	}
	if _, err := warehouse.DialectFor(c.DB.Driver); err != nil {
		return fmt.Errorf("invalid %sDB_DRIVER: %w", envPrefix, err)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("invalid %sDB_DSN: dsn is required", envPrefix)
	}
	if c.DB.QueryTimeout <= 0 {
		return fmt.Errorf("invalid %sDB_QUERY_TIMEOUT: must be positive", envPrefix)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("invalid %sAI_TIMEOUT: must be positive", envPrefix)
	}
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case "auto", "anthropic", "groq", "openai", "ollama":
	default:
		return fmt.Errorf("invalid %sAI_PROVIDER: %q", envPrefix, c.AI.Provider)
	}
	c.Observability.LogFormat = strings.ToLower(strings.TrimSpace(c.Observability.LogFormat))
	switch c.Observability.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid %sLOG_FORMAT: %q", envPrefix, c.Observability.LogFormat)
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "salesquery-api"},
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		DB: DBConfig{
			Driver:          warehouse.DriverSQLite,
			DSN:             "data/sales.db",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    10 * time.Second,
		},
		AI: AIConfig{
			Provider:           "auto",
			Timeout:            30 * time.Second,
			OllamaHost:         "http://localhost:11434",
			OllamaProbeTimeout: 2 * time.Second,
		},
		ObjectStore: ObjectStoreConfig{
			Region:           "us-east-1",
			Bucket:           "salesquery",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:  slog.LevelDebug,
			LogFormat: LogFormatText,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18000"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogFormat = LogFormatJSON
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}
