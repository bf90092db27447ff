package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
		Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	} `yaml:"log"`
	Store struct {
		Driver     string `yaml:"driver" validate:"omitempty,oneof=memory postgres sqlite"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL      string `yaml:"ttl"`
		BankFile string `yaml:"bank_file"`
	} `yaml:"quiz"`
	Events EventConfig `yaml:"events"`
}

var validate = validator.New()

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file or .env is not an error.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Store.Driver == "postgres" && cfg.Postgres.URL == "" {
		return cfg, errors.New("invalid config: store driver postgres requires postgres.url")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Server.Port, "PORT")
	override(&cfg.Store.Driver, "QUIZ_STORE_DRIVER")
	override(&cfg.Store.SQLitePath, "QUIZ_SQLITE_PATH")
	override(&cfg.Postgres.URL, "QUIZ_POSTGRES_URL")
	override(&cfg.Redis.Addr, "QUIZ_REDIS_ADDR")
	override(&cfg.Log.Level, "QUIZ_LOG_LEVEL")
	override(&cfg.Events.Publisher, "QUIZ_EVENTS_PUBLISHER")
	if raw := os.Getenv("QUIZ_KAFKA_BROKERS"); raw != "" {
		cfg.Events.Brokers = strings.Split(raw, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		if cfg.Postgres.URL != "" {
			cfg.Store.Driver = "postgres"
		} else {
			cfg.Store.Driver = "memory"
		}
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/quiz.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Events.Publisher == "" {
		cfg.Events.Publisher = "none"
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "quiz.completed"
	}
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
