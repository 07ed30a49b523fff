package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/interview-coach/internal/data/db"
	"github.com/yungbote/interview-coach/internal/pkg/envutil"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	devJWTSecret = "interview-coach-dev-secret"
)

type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	URL          string        `yaml:"url"`
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Name         string        `yaml:"name"`
	SSLMode      string        `yaml:"sslMode"`
	SQLitePath   string        `yaml:"sqlitePath"`
	MaxOpenConns int           `yaml:"maxOpenConns"`
	SlowQuery    time.Duration `yaml:"slowQuery"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwtSecret"`
	TokenTTL   time.Duration `yaml:"tokenTTL"`
	BcryptCost int           `yaml:"bcryptCost"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

type AIConfig struct {
	Provider    string         `yaml:"provider"`
	Timeout     time.Duration  `yaml:"timeout"`
	Temperature float64        `yaml:"temperature"`
	Gemini      ProviderConfig `yaml:"gemini"`
	OpenAI      ProviderConfig `yaml:"openai"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lockTTL"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

type Config struct {
	Mode        string `yaml:"mode"`
	Port        string `yaml:"port"`
	ServiceName string `yaml:"serviceName"`
	Version     string `yaml:"version"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Redis    RedisConfig    `yaml:"redis"`
	Otel     OtelConfig     `yaml:"otel"`

	CORSOrigins        []string `yaml:"corsOrigins"`
	DeleteForbidden403 bool     `yaml:"deleteForbidden403"`
}

func defaultConfig() Config {
	return Config{
		Mode:        "development",
		Port:        "8080",
		ServiceName: "interview-coach",
		Database: DatabaseConfig{
			Port:       "5432",
			SSLMode:    "disable",
			SQLitePath: "interview-coach.db",
			SlowQuery:  200 * time.Millisecond,
		},
		Auth: AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		AI:   AIConfig{Timeout: 60 * time.Second, Temperature: 0.4},
		Redis: RedisConfig{
			LockTTL: 2 * time.Minute,
		},
		Otel: OtelConfig{SampleRatio: 0.1},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file named
// by CONFIG_FILE, then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Mode = envutil.String("LOG_MODE", cfg.Mode)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)
	cfg.Version = envutil.String("SERVICE_VERSION", cfg.Version)

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver)
	d.URL = envutil.String("DATABASE_URL", d.URL)
	d.Host = envutil.String("POSTGRES_HOST", d.Host)
	d.Port = envutil.String("POSTGRES_PORT", d.Port)
	d.User = envutil.String("POSTGRES_USER", d.User)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password)
	d.Name = envutil.String("POSTGRES_NAME", d.Name)
	d.SSLMode = envutil.String("POSTGRES_SSLMODE", d.SSLMode)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)
	d.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", d.MaxOpenConns)
	d.SlowQuery = envutil.Duration("DB_SLOW_QUERY", d.SlowQuery)

	a := &cfg.Auth
	a.JWTSecret = envutil.String("JWT_SECRET", a.JWTSecret)
	a.TokenTTL = envutil.Duration("TOKEN_TTL", a.TokenTTL)
	a.BcryptCost = envutil.Int("BCRYPT_COST", a.BcryptCost)

	ai := &cfg.AI
	ai.Provider = envutil.String("AI_PROVIDER", ai.Provider)
	ai.Timeout = envutil.Duration("AI_TIMEOUT", ai.Timeout)
	ai.Gemini.APIKey = envutil.String("GEMINI_API_KEY", ai.Gemini.APIKey)
	ai.Gemini.Model = envutil.String("GEMINI_MODEL", ai.Gemini.Model)
	ai.Gemini.BaseURL = envutil.String("GEMINI_BASE_URL", ai.Gemini.BaseURL)
	ai.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", ai.OpenAI.APIKey)
	ai.OpenAI.Model = envutil.String("OPENAI_MODEL", ai.OpenAI.Model)
	ai.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", ai.OpenAI.BaseURL)

	r := &cfg.Redis
	r.Addr = envutil.String("REDIS_ADDR", r.Addr)
	r.Password = envutil.String("REDIS_PASSWORD", r.Password)
	r.DB = envutil.Int("REDIS_DB", r.DB)
	r.LockTTL = envutil.Duration("REDIS_LOCK_TTL", r.LockTTL)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", o.Headers)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil {
			o.SampleRatio = ratio
		}
	}

	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.DeleteForbidden403 = envutil.Bool("DELETE_FORBIDDEN_403", cfg.DeleteForbidden403)
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "prod", "production":
		return true
	}
	return false
}

// UsesDevSecret reports whether tokens are signed with the built-in
// development secret.
func (c Config) UsesDevSecret() bool { return c.Auth.JWTSecret == devJWTSecret }

// finalize fills derived defaults and rejects unusable combinations.
func (c *Config) finalize() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = devJWTSecret
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		if c.Database.URL != "" || c.Database.Host != "" {
			c.Database.Driver = db.DriverPostgres
		} else {
			c.Database.Driver = db.DriverSQLite
		}
	}
	switch c.Database.Driver {
	case db.DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return errors.New("postgres driver needs DATABASE_URL or POSTGRES_HOST")
		}
	case db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		switch {
		case c.AI.Gemini.APIKey != "":
			c.AI.Provider = ProviderGemini
		case c.AI.OpenAI.APIKey != "":
			c.AI.Provider = ProviderOpenAI
		default:
			c.AI.Provider = ProviderMock
		}
	}
	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.Gemini.APIKey == "" {
			return errors.New("AI_PROVIDER=gemini needs GEMINI_API_KEY")
		}
	case ProviderOpenAI:
		if c.AI.OpenAI.APIKey == "" {
			return errors.New("AI_PROVIDER=openai needs OPENAI_API_KEY")
		}
	case ProviderMock:
		if c.IsProduction() {
			return errors.New("AI_PROVIDER=mock is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AI.Provider)
	}
	return nil
}

// DSN renders the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	switch c.Driver {
	case db.DriverPostgres:
		if c.URL != "" {
			return c.URL
		}
		return db.PostgresDSN(c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	default:
		return c.SQLitePath
	}
}
