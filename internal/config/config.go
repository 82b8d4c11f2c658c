// Package config assembles the service configuration from defaults, an
// optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/database"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Env      string           `yaml:"env"`
	Server   ServerConfig     `yaml:"server"`
	Auth     AuthConfig       `yaml:"auth"`
	Database database.Config  `yaml:"database"`
	Log      utilities.Config `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	FrontendURL     string        `yaml:"frontend_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// JWTSecretFile is read when JWTSecret is empty, e.g. a mounted secret.
	JWTSecretFile string `yaml:"jwt_secret_file"`
}

// Addr is the listen address for Server.Port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", s.Port)
}

// Production reports whether the service runs with production cookie and
// debug-endpoint settings.
func (c *Config) Production() bool { return c.Env == EnvProduction }

func Defaults() Config {
	return Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Port:            8081,
			FrontendURL:     "http://localhost:3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: database.DefaultConfig(),
	}
}

// Load layers, in order: defaults, the YAML file (path, CONFIG_FILE or
// ./config.yaml), environment variables, the JWT secret file. The result
// is validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if file := discoverConfigFile(path); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.JWTSecret == "" && cfg.Auth.JWTSecretFile != "" {
		data, err := os.ReadFile(cfg.Auth.JWTSecretFile)
		if err != nil {
			return nil, fmt.Errorf("auth.jwt_secret_file: %w", err)
		}
		cfg.Auth.JWTSecret = strings.TrimSpace(string(data))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func discoverConfigFile(path string) string {
	if path != "" {
		return path
	}
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		return v
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.Server.FrontendURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	cfg.Database.ApplyEnv()
	cfg.Log.ApplyEnv()
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("env must be one of development, production, test; got %q", c.Env))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	return errors.Join(errs...)
}
