package utilities

import (
	"fmt"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
	// File enables a daily-rotated copy of the log stream, e.g. logs/api.log.
	File string `yaml:"file"`
}

// ApplyEnv overrides c with LOG_LEVEL, LOG_DEV and LOG_FILE when set. A
// development logger without an explicit level logs at debug.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LOG_DEV"); v != "" {
		c.Dev = v == "1" || v == "true"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.File = v
	}
	if c.Level == "" {
		c.Level = "info"
		if c.Dev {
			c.Level = "debug"
		}
	}
}

// ConfigFromEnv reads minimal config from env vars.
func ConfigFromEnv() Config {
	var cfg Config
	cfg.ApplyEnv()
	return cfg
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes and returns a *zap.Logger
func Init(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev && cfg.File == "" {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)

	if cfg.File != "" {
		w, err := rotatingWriter(cfg.File)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl)
		core = zapcore.NewTee(core, fileCore)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	return zap.New(core, opts...), nil
}

// rotatingWriter rotates daily and keeps a week of files; path is kept as a
// symlink to the current file.
func rotatingWriter(path string) (*rotatelogs.RotateLogs, error) {
	w, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return w, nil
}
