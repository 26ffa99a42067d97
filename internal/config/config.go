// Package config loads runtime settings from defaults, an optional
// config.yaml and FEED_-prefixed environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: FEED_DB_PATH, FEED_PORT, ...
const EnvPrefix = "FEED"

type Config struct {
	DBPath           string
	Port             int
	SessionTTL       time.Duration
	CookieFile       string
	DefaultAvatarURL string
	LogLevel         slog.Level
}

// Load reads configuration. file names an explicit config file; when empty,
// config.yaml is looked up in the working directory and ./config and is
// optional.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", "data/feed.db")
	v.SetDefault("port", 8080)
	v.SetDefault("session_ttl_days", 30)
	v.SetDefault("cookie_file", defaultCookieFile())
	v.SetDefault("default_avatar_url", "https://i.pravatar.cc/150")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: reading config.yaml: %w", err)
			}
		}
	}

	cfg := &Config{
		DBPath:           v.GetString("db_path"),
		Port:             v.GetInt("port"),
		SessionTTL:       time.Duration(v.GetInt("session_ttl_days")) * 24 * time.Hour,
		CookieFile:       v.GetString("cookie_file"),
		DefaultAvatarURL: v.GetString("default_avatar_url"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("config: log_level: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, errors.New("config: db_path must not be empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: port %d out of range", cfg.Port)
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("config: session_ttl_days must be positive")
	}

	return cfg, nil
}

func defaultCookieFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".feedctl-cookies.json"
	}
	return filepath.Join(home, ".feedctl", "cookies.json")
}
