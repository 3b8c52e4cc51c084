package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/souling-backend/internal/platform/envutil"
)

const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	HTTP       HTTPConfig       `yaml:"http"`
	Otel       OtelConfig       `yaml:"otel"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type StorageConfig struct {
	Backend          string `yaml:"backend"`
	SQLitePath       string `yaml:"sqlite_path"`
	PostgresDSN      string `yaml:"postgres_dsn"`
	RedisAddr        string `yaml:"redis_addr"`
	RedisPassword    string `yaml:"redis_password"`
	RedisDB          int    `yaml:"redis_db"`
	RedisPrefix      string `yaml:"redis_prefix"`
	FirestoreProject string `yaml:"firestore_project"`
	FirestorePrefix  string `yaml:"firestore_prefix"`
	AutoMigrate      bool   `yaml:"auto_migrate"`
}

type GenerationConfig struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	AnthropicAPIKey  string        `yaml:"anthropic_api_key"`
	AnthropicBaseURL string        `yaml:"anthropic_base_url"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	OpenAIBaseURL    string        `yaml:"openai_base_url"`
	GeminiAPIKey     string        `yaml:"gemini_api_key"`
	GeminiProject    string        `yaml:"gemini_project"`
	GeminiLocation   string        `yaml:"gemini_location"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxConcurrency   int           `yaml:"max_concurrency"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

type AuthConfig struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	BcryptCost     int           `yaml:"bcrypt_cost"`
}

type HTTPConfig struct {
	CORSOrigins []string `yaml:"cors_origins"`
}

type OtelConfig struct {
	Enabled     bool              `yaml:"enabled"`
	ServiceName string            `yaml:"service_name"`
	Environment string            `yaml:"environment"`
	Version     string            `yaml:"version"`
	SampleRatio float64           `yaml:"sample_ratio"`
	Endpoint    string            `yaml:"endpoint"`
	Headers     map[string]string `yaml:"headers"`
	Insecure    bool              `yaml:"insecure"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func DefaultConfig() Config {
	return Config{
		Port:    "3001",
		LogMode: "development",
		Storage: StorageConfig{
			Backend:     BackendMemory,
			SQLitePath:  "souling.db",
			RedisPrefix: "souling",
			AutoMigrate: true,
		},
		Generation: GenerationConfig{
			Provider:       "anthropic",
			Timeout:        120 * time.Second,
			MaxConcurrency: 8,
			RetryBackoff:   time.Second,
		},
		Auth: AuthConfig{
			JWTSecretKey:   "defaultsecret",
			AccessTokenTTL: time.Hour,
			BcryptCost:     10,
		},
		Otel: OtelConfig{
			ServiceName: "souling-backend",
			Environment: "development",
			SampleRatio: 1,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// LoadConfig layers defaults, then the YAML file at path (if any), then the
// environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envutil.String("PORT", c.Port)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)

	s := &c.Storage
	s.Backend = strings.ToLower(envutil.String("STORAGE_BACKEND", s.Backend))
	s.SQLitePath = envutil.String("SQLITE_PATH", s.SQLitePath)
	s.PostgresDSN = envutil.String("POSTGRES_DSN", s.PostgresDSN)
	s.RedisAddr = envutil.String("REDIS_ADDR", s.RedisAddr)
	s.RedisPassword = envutil.String("REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = envutil.Int("REDIS_DB", s.RedisDB)
	s.RedisPrefix = envutil.String("REDIS_PREFIX", s.RedisPrefix)
	s.FirestoreProject = envutil.String("FIRESTORE_PROJECT", s.FirestoreProject)
	s.FirestorePrefix = envutil.String("FIRESTORE_PREFIX", s.FirestorePrefix)
	s.AutoMigrate = envutil.Bool("STORAGE_AUTO_MIGRATE", s.AutoMigrate)

	g := &c.Generation
	g.Provider = strings.ToLower(envutil.String("GENERATION_PROVIDER", g.Provider))
	g.Model = envutil.String("GENERATION_MODEL", g.Model)
	g.AnthropicAPIKey = envutil.String("ANTHROPIC_API_KEY", g.AnthropicAPIKey)
	g.AnthropicBaseURL = envutil.String("ANTHROPIC_BASE_URL", g.AnthropicBaseURL)
	g.OpenAIAPIKey = envutil.String("OPENAI_API_KEY", g.OpenAIAPIKey)
	g.OpenAIBaseURL = envutil.String("OPENAI_BASE_URL", g.OpenAIBaseURL)
	g.GeminiAPIKey = envutil.String("GEMINI_API_KEY", g.GeminiAPIKey)
	g.GeminiProject = envutil.String("GEMINI_PROJECT", g.GeminiProject)
	g.GeminiLocation = envutil.String("GEMINI_LOCATION", g.GeminiLocation)
	g.Timeout = envutil.Duration("GENERATION_TIMEOUT", g.Timeout)
	g.MaxConcurrency = envutil.Int("GENERATION_MAX_CONCURRENCY", g.MaxConcurrency)
	g.MaxRetries = envutil.Int("GENERATION_MAX_RETRIES", g.MaxRetries)
	g.RetryBackoff = envutil.Duration("GENERATION_RETRY_BACKOFF", g.RetryBackoff)

	a := &c.Auth
	a.JWTSecretKey = envutil.String("JWT_SECRET_KEY", a.JWTSecretKey)
	a.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", a.AccessTokenTTL)
	a.BcryptCost = envutil.Int("BCRYPT_COST", a.BcryptCost)

	c.HTTP.CORSOrigins = envutil.List("CORS_ORIGINS", c.HTTP.CORSOrigins)

	o := &c.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Environment = envutil.String("OTEL_ENVIRONMENT", o.Environment)
	o.Version = envutil.String("OTEL_SERVICE_VERSION", o.Version)
	o.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", o.SampleRatio)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)

	c.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = envutil.String("METRICS_ADDR", c.Metrics.Addr)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendRedis, BackendFirestore:
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend))
	}
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port: required"))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, errors.New("generation.timeout: must be positive"))
	}
	if c.Generation.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("generation.max_concurrency: must be positive"))
	}
	if c.Generation.MaxRetries < 0 {
		errs = append(errs, errors.New("generation.max_retries: must not be negative"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.access_token_ttl: must be positive"))
	}
	return errors.Join(errs...)
}
