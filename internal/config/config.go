// Package config загружает конфигурацию сервера из переменных окружения
// и необязательного .env файла.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultDatabaseURL SQLite файл в рабочем каталоге
	DefaultDatabaseURL = "sqlite:///app.db"
	// DevelopmentSecretKey используется, если SECRET_KEY не задан. Только для разработки.
	DevelopmentSecretKey = "dev-secret-key-change-in-production"
	// DefaultHTTPAddr адрес HTTP сервера по умолчанию
	DefaultHTTPAddr = ":8080"

	supabaseDirectPort = "5432"
	supabasePoolerPort = "6543"
)

// Config конфигурация сервера
type Config struct {
	HTTPAddr  string
	SecretKey string
	// SecretKeyIsDefault true, если SECRET_KEY не задан и используется DevelopmentSecretKey
	SecretKeyIsDefault bool
	// TrustProxyHeaders учитывать X-Forwarded-For/X-Real-IP при определении IP клиента
	TrustProxyHeaders bool
	Database          DatabaseConfig
	Session           SessionConfig
	Log               LogConfig
}

// DatabaseConfig параметры подключения к БД и пула соединений
type DatabaseConfig struct {
	URL            string
	PoolSize       int
	PoolRecycle    time.Duration
	ConnectTimeout time.Duration
}

// SessionConfig параметры cookie сессии
type SessionConfig struct {
	CookieSecure bool
	TTL          time.Duration
	RememberTTL  time.Duration
}

// LogConfig параметры логирования
type LogConfig struct {
	Level  string
	Format string
}

// Load читает .env (если файл существует) и переменные окружения.
// Уже заданные переменные окружения имеют приоритет над .env.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		HTTPAddr: httpAddr(),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	cfg.SecretKey = os.Getenv("SECRET_KEY")
	if cfg.SecretKey == "" {
		cfg.SecretKey = DevelopmentSecretKey
		cfg.SecretKeyIsDefault = true
	}

	rawURL := getEnv("DATABASE_URL", getEnv("SUPABASE_DB_URL", DefaultDatabaseURL))
	cfg.Database.URL = NormalizeDatabaseURL(rawURL)

	var err error
	if cfg.Database.PoolSize, err = getEnvInt("DB_POOL_SIZE", 5); err != nil {
		return nil, err
	}
	if cfg.Database.PoolRecycle, err = getEnvDuration("DB_POOL_RECYCLE", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.Database.ConnectTimeout, err = getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Session.CookieSecure, err = getEnvBool("SESSION_COOKIE_SECURE", true); err != nil {
		return nil, err
	}
	if cfg.Session.TTL, err = getEnvDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Session.RememberTTL, err = getEnvDuration("REMEMBER_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TrustProxyHeaders, err = getEnvBool("TRUST_PROXY_HEADERS", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if c.Database.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("DB_POOL_SIZE must be positive, got %d", c.Database.PoolSize))
	}
	if c.Database.PoolRecycle < 0 {
		errs = append(errs, errors.New("DB_POOL_RECYCLE must not be negative"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.RememberTTL < c.Session.TTL {
		errs = append(errs, errors.New("REMEMBER_TTL must not be shorter than SESSION_TTL"))
	}

	return errors.Join(errs...)
}

// NormalizeDatabaseURL переводит прямое подключение Supabase (порт 5432)
// на connection pooler (порт 6543). Остальные URL возвращаются без изменений.
func NormalizeDatabaseURL(raw string) string {
	if !strings.Contains(raw, "supabase.co:"+supabaseDirectPort) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Port() != supabaseDirectPort {
		return raw
	}
	u.Host = net.JoinHostPort(u.Hostname(), supabasePoolerPort)
	return u.String()
}

// httpAddr возвращает HTTP_ADDR, либо ":$PORT" для платформ, задающих только PORT
func httpAddr() string {
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return DefaultHTTPAddr
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getEnvDuration принимает Go duration ("5m") или целое число секунд ("300")
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
