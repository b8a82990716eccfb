package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	GeneratorCounter = "counter"
	GeneratorRedis   = "redis"
	GeneratorNanoid  = "nanoid"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Env          string    `yaml:"env" validate:"oneof=dev stage prod"`
	LogLevel     string    `yaml:"log_level" validate:"oneof=debug info warn error"`
	CustomDomain string    `yaml:"custom_domain"`
	ShortCode    ShortCode `yaml:"short_code"`
	Storage      Storage   `yaml:"storage"`
	Redirect     Redirect  `yaml:"redirect"`
	HTTPServer   `yaml:"http_server"`
	Postgres     `yaml:"postgres"`
	Redis        Redis `yaml:"redis"`
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// ShortCode configures how short codes are generated when no vanity code is
// requested.
type ShortCode struct {
	Generator   string `yaml:"generator" validate:"oneof=counter redis nanoid"`
	Length      int    `yaml:"length" validate:"min=1,max=64"`
	MaxAttempts int    `yaml:"max_attempts" validate:"min=1"`
}

var defaultShortCode = ShortCode{
	Generator:   GeneratorCounter,
	Length:      7,
	MaxAttempts: 5,
}

type Storage struct {
	Backend              string        `yaml:"backend" validate:"oneof=postgres memory"`
	Consistency          string        `yaml:"consistency" validate:"oneof=optimistic last_write_wins"`
	MaxRetries           uint64        `yaml:"max_retries"`
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `yaml:"retry_max_interval"`
}

var defaultStorage = Storage{
	Backend:              BackendPostgres,
	Consistency:          "optimistic",
	MaxRetries:           5,
	RetryInitialInterval: 10 * time.Millisecond,
	RetryMaxInterval:     200 * time.Millisecond,
}

type Redirect struct {
	FallbackURL string `yaml:"fallback_url" validate:"omitempty,url"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Redis is only used by the redis short code generator.
type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

var defaultRedis = Redis{
	Host: "localhost",
	Port: 6379,
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.LogLevel = "info"
	cfg.ShortCode = defaultShortCode
	cfg.Storage = defaultStorage
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
}
