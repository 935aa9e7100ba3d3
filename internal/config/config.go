package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string
	LogLevel    string // пусто = уровень по умолчанию для окружения
	HTTPAddr    string
	Storage     string
	DBDSN       string
	JWTSecret   string

	TelegramToken string // пусто = Telegram-уведомления выключены
	PublicBaseURL string // префикс ссылок в уведомлениях, например https://jam.example.com

	CORSOrigins        []string
	RateLimitPerMinute int
	NotifyQueueSize    int

	// EnvFileLoaded false, если .env не найден и используются только переменные окружения
	EnvFileLoaded bool
}

func Load(envFile string) (*Config, error) {
	// Пытаемся загрузить .env файл (отсутствие файла не ошибка)
	loaded := false
	if envFile != "" {
		loaded = godotenv.Load(envFile) == nil
	}

	cfg := &Config{
		Environment:   os.Getenv("ENV"),
		LogLevel:      strings.ToLower(os.Getenv("LOG_LEVEL")),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		Storage:       strings.ToLower(os.Getenv("STORAGE")),
		DBDSN:         os.Getenv("DB_DSN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
		EnvFileLoaded: loaded,
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}

	var err error
	if cfg.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.NotifyQueueSize, err = intEnv("NOTIFY_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE %q (want %s or %s)", cfg.Storage, StoragePostgres, StorageMemory)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
