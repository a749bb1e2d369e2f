// Package config загружает настройки сервиса: YAML-файл поверх значений
// по умолчанию, затем переопределения из окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "in-memory"
	StoragePostgres = "postgres"

	// DefaultPageSize - сколько постов показывается на одной странице ленты.
	DefaultPageSize = 10
	// DefaultCacheTTL - время жизни закэшированной главной страницы.
	DefaultCacheTTL = 20 * time.Second
)

type Config struct {
	Addr     string        `yaml:"addr"`
	PageSize int           `yaml:"page_size"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Log      LogConfig     `yaml:"log"`
	Storage  StorageConfig `yaml:"storage"`
	Auth     AuthConfig    `yaml:"auth"`
	CORS     CORSConfig    `yaml:"cors"`
	Seed     SeedConfig    `yaml:"seed"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type StorageConfig struct {
	Type          string `yaml:"type"`
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SeedConfig - пользователи и группы, которые serve создаёт при старте.
// Уже существующие записи пропускаются.
type SeedConfig struct {
	Users  []SeedUser  `yaml:"users"`
	Groups []SeedGroup `yaml:"groups"`
}

type SeedUser struct {
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name"`
}

type SeedGroup struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

func Default() Config {
	return Config{
		Addr:     ":8080",
		PageSize: DefaultPageSize,
		CacheTTL: DefaultCacheTTL,
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Type:          StorageMemory,
			MigrationsDir: "migrations",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load читает конфигурацию из path. Пустой path означает только значения
// по умолчанию и окружение.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("BLOGFEED_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
}

func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL)
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return errors.New("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Auth.Secret == "" {
		return errors.New("auth secret is not set")
	}
	for i, u := range c.Seed.Users {
		if u.Username == "" {
			return fmt.Errorf("seed.users[%d]: username is required", i)
		}
	}
	for i, g := range c.Seed.Groups {
		if g.Slug == "" {
			return fmt.Errorf("seed.groups[%d]: slug is required", i)
		}
	}
	return nil
}
