package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wall-inspector/internal/domain/entity"
)

const (
	BackendHTTP = "http"
	BackendGoCV = "gocv"
)

type Config struct {
	// Модель и детектор
	ModelPath           string
	DetectorBackend     string
	DetectorURL         string
	DetectorTimeout     time.Duration
	ModelClasses        []string
	ConfidenceThreshold float64

	// Загрузки и результат
	AcceptedExtensions []string
	OutputPath         string
	UploadTempDir      string
	MaxUploadBytes     int64
	MaxImagePixels     int64

	// Профиль рекомендаций
	Locale       string
	AdvisoryFile string

	// Интерфейсы
	HTTPAddr      string
	TelegramToken string

	// Необязательные интеграции
	JournalPath string
	NATSURL     string
	NATSSubject string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		ModelPath:          getEnvOrDefault("MODEL_PATH", "best.pt"),
		DetectorBackend:    strings.ToLower(getEnvOrDefault("DETECTOR_BACKEND", BackendHTTP)),
		DetectorURL:        getEnvOrDefault("DETECTOR_URL", "http://localhost:5005"),
		ModelClasses:       splitList(os.Getenv("MODEL_CLASSES")),
		AcceptedExtensions: splitList(getEnvOrDefault("ACCEPTED_EXTENSIONS", "jpg,jpeg,png")),
		OutputPath:         getEnvOrDefault("OUTPUT_PATH", "output.jpg"),
		UploadTempDir:      os.Getenv("UPLOAD_TEMP_DIR"),
		Locale:             getEnvOrDefault("LOCALE", "en"),
		AdvisoryFile:       os.Getenv("ADVISORY_FILE"),
		HTTPAddr:           getEnvOrDefault("HTTP_ADDR", ":8080"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		JournalPath:        os.Getenv("JOURNAL_PATH"),
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubject:        getEnvOrDefault("NATS_SUBJECT", "inspections.completed"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.ConfidenceThreshold, err = parseFloat("CONFIDENCE_THRESHOLD", 0.25); err != nil {
		return nil, err
	}
	if cfg.DetectorTimeout, err = parseDuration("DETECTOR_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = parseInt("MAX_UPLOAD_BYTES", 20<<20); err != nil {
		return nil, err
	}
	if cfg.MaxImagePixels, err = parseInt("MAX_IMAGE_PIXELS", 50_000_000); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию. Отсутствие файла весов модели является фатальной ошибкой.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return &entity.ConfigurationError{Setting: "MODEL_PATH", Reason: "is required"}
	}
	info, err := os.Stat(c.ModelPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &entity.ConfigurationError{Setting: "MODEL_PATH", Reason: fmt.Sprintf("model weights file %q not found", c.ModelPath)}
	}
	if err != nil {
		return &entity.ConfigurationError{Setting: "MODEL_PATH", Reason: err.Error()}
	}
	if info.IsDir() {
		return &entity.ConfigurationError{Setting: "MODEL_PATH", Reason: fmt.Sprintf("%q is a directory", c.ModelPath)}
	}

	if c.DetectorBackend != BackendHTTP && c.DetectorBackend != BackendGoCV {
		return &entity.ConfigurationError{Setting: "DETECTOR_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.DetectorBackend)}
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return &entity.ConfigurationError{Setting: "CONFIDENCE_THRESHOLD", Reason: "must be in (0, 1]"}
	}
	if len(c.AcceptedExtensions) == 0 {
		return &entity.ConfigurationError{Setting: "ACCEPTED_EXTENSIONS", Reason: "is empty"}
	}
	if c.OutputPath == "" {
		return &entity.ConfigurationError{Setting: "OUTPUT_PATH", Reason: "is required"}
	}
	if c.MaxUploadBytes <= 0 {
		return &entity.ConfigurationError{Setting: "MAX_UPLOAD_BYTES", Reason: "must be positive"}
	}
	if c.MaxImagePixels <= 0 {
		return &entity.ConfigurationError{Setting: "MAX_IMAGE_PIXELS", Reason: "must be positive"}
	}

	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &entity.ConfigurationError{Setting: key, Reason: err.Error()}
	}
	return f, nil
}

func parseInt(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &entity.ConfigurationError{Setting: key, Reason: err.Error()}
	}
	return n, nil
}

func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &entity.ConfigurationError{Setting: key, Reason: err.Error()}
	}
	return d, nil
}
