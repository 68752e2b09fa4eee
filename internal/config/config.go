package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port     string
	LogLevel string

	Slot   SlotConfig
	Search SearchConfig
	Login  LoginConfig

	MetricsEnabled bool
	MetricsToken   string

	SearchPerMinute int
	ShutdownTimeout time.Duration
}

type SlotConfig struct {
	Backend     string
	Name        string
	Path        string
	PostgresDSN string
	RedisAddr   string
	RedisDB     int
}

type SearchConfig struct {
	BaseURL   string
	UserAgent string
	Limit     int
	Timeout   time.Duration
	RPS       float64
}

type LoginConfig struct {
	User      string
	Password  string
	JWTSecret string
}

// Load reads the environment, after applying an optional .env file from the
// working directory. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("slot_backend", BackendFile)
	v.SetDefault("slot_name", "miBiblioteca")
	v.SetDefault("slot_path", "data/miBiblioteca.json")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)

	v.SetDefault("openlibrary_url", "https://openlibrary.org")
	v.SetDefault("openlibrary_user_agent", "BookShelf/1.0")
	v.SetDefault("search_limit", 18)
	v.SetDefault("search_timeout", "10s")
	v.SetDefault("search_rps", 1.0)
	v.SetDefault("search_per_minute", 30)

	v.SetDefault("login_user", "1234")
	v.SetDefault("login_password", "password")
	v.SetDefault("jwt_secret", "dev-secret")

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_token", "")
	v.SetDefault("shutdown_timeout", "10s")
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		Slot: SlotConfig{
			Backend:     strings.ToLower(v.GetString("slot_backend")),
			Name:        v.GetString("slot_name"),
			Path:        v.GetString("slot_path"),
			PostgresDSN: v.GetString("database_url"),
			RedisAddr:   v.GetString("redis_addr"),
			RedisDB:     v.GetInt("redis_db"),
		},
		Search: SearchConfig{
			BaseURL:   v.GetString("openlibrary_url"),
			UserAgent: v.GetString("openlibrary_user_agent"),
			Limit:     v.GetInt("search_limit"),
			Timeout:   v.GetDuration("search_timeout"),
			RPS:       v.GetFloat64("search_rps"),
		},
		Login: LoginConfig{
			User:      v.GetString("login_user"),
			Password:  v.GetString("login_password"),
			JWTSecret: v.GetString("jwt_secret"),
		},
		MetricsEnabled:  v.GetBool("metrics_enabled"),
		MetricsToken:    v.GetString("metrics_token"),
		SearchPerMinute: v.GetInt("search_per_minute"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Slot.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	case BackendPostgres:
		if c.Slot.PostgresDSN == "" {
			return errors.New("DATABASE_URL is required for the postgres slot backend")
		}
	default:
		return fmt.Errorf("unknown SLOT_BACKEND %q", c.Slot.Backend)
	}
	if c.Slot.Backend == BackendFile && c.Slot.Path == "" {
		return errors.New("SLOT_PATH is required for the file slot backend")
	}
	if c.Slot.Name == "" {
		return errors.New("SLOT_NAME must not be empty")
	}
	return nil
}
