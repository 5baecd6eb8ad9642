package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr       = ":8082"
	defaultTitle      = "My App"
	defaultPrefix     = "appshell"
	defaultSessionTTL = time.Hour
	defaultAPIBaseURL = "http://localhost:8082"
)

type Config struct {
	Addr       string
	Env        string
	AppTitle   string
	APIBaseURL string

	JWTSecret   string
	ToastSecret string
	MySQLDSN    string
	RedisURL    string

	SessionTTL    time.Duration
	CookiePrefix  string
	CookieSecure  bool
	BootstrapAuth bool

	LogLevel  string
	LogFormat string
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the env file named by START (".env" when unset) and then the
// process environment. A missing env file is not an error.
func Load() (*Config, error) {
	file := os.Getenv("START")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", file, err)
	}

	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:         getenv("ADDR", defaultAddr),
		Env:          getenv("APP_ENV", "production"),
		AppTitle:     getenv("APP_TITLE", defaultTitle),
		APIBaseURL:   getenv("API_BASE_URL", defaultAPIBaseURL),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		ToastSecret:  os.Getenv("TOAST_SECRET"),
		MySQLDSN:     os.Getenv("MYSQL_DSN"),
		RedisURL:     os.Getenv("REDIS_URL"),
		CookiePrefix: getenv("COOKIE_PREFIX", defaultPrefix),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set in environment")
	}
	if cfg.MySQLDSN == "" {
		return nil, errors.New("MYSQL_DSN is not set in environment")
	}
	if cfg.ToastSecret == "" {
		return nil, errors.New("TOAST_SECRET is not set in environment")
	}
	if cfg.ToastSecret == cfg.JWTSecret {
		return nil, errors.New("TOAST_SECRET must differ from JWT_SECRET")
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", defaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = boolEnv("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.BootstrapAuth, err = boolEnv("BOOTSTRAP_AUTH", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
