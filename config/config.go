package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Бэкенды детектора.
const (
	DetectorGoCV   = "gocv"
	DetectorRemote = "remote"
)

type Config struct {
	Port    int
	Release bool
	// LogLevel задаёт уровень logrus (debug, info, warn, error).
	LogLevel string

	Detector      string
	ModelPath     string
	ModelWorkers  int
	InferenceURL  string
	OutputFormat  string
	OutputQuality int

	TelegramToken string
	SentryDSN     string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Detector:      strings.ToLower(getEnv("DETECTOR", DetectorGoCV)),
		ModelPath:     getEnv("MODEL_PATH", "./models/yolov8n.onnx"),
		InferenceURL:  getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		OutputFormat:  strings.ToLower(getEnv("OUTPUT_FORMAT", "png")),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ModelWorkers, err = getInt("MODEL_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.OutputQuality, err = getInt("OUTPUT_QUALITY", 90); err != nil {
		return nil, err
	}

	// RELEASE=true или GIN_MODE=release включают боевой режим
	cfg.Release = os.Getenv("GIN_MODE") == "release"
	if v := os.Getenv("RELEASE"); v != "" {
		if cfg.Release, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("RELEASE: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения после загрузки.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	switch c.Detector {
	case DetectorGoCV:
		if c.ModelPath == "" {
			errs = append(errs, errors.New("MODEL_PATH is required for gocv detector"))
		}
	case DetectorRemote:
		if c.InferenceURL == "" {
			errs = append(errs, errors.New("INFERENCE_URL is required for remote detector"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DETECTOR: %q", c.Detector))
	}
	if c.ModelWorkers <= 0 {
		errs = append(errs, fmt.Errorf("MODEL_WORKERS must be positive: %d", c.ModelWorkers))
	}
	switch c.OutputFormat {
	case "png", "jpeg", "jpg", "webp":
	default:
		errs = append(errs, fmt.Errorf("unknown OUTPUT_FORMAT: %q", c.OutputFormat))
	}
	if c.OutputQuality < 1 || c.OutputQuality > 100 {
		errs = append(errs, fmt.Errorf("OUTPUT_QUALITY must be in 1..100: %d", c.OutputQuality))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
