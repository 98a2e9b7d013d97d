package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, expands environment variables,
// parses it, and applies defaults. Validate is the caller's responsibility.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.defaults()
	return &cfg, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil
		defaultVal := ""
		if hasDefault {
			defaultVal = string(subs[2])
		}

		value, ok := os.LookupEnv(name)
		if ok {
			return []byte(value)
		}

		if hasDefault {
			return []byte(defaultVal)
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}

// FromEnv builds a Config from environment variables alone, the contract the
// original deployment used. A .env file in the working directory is loaded
// first when present. Validate is the caller's responsibility.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIHash:       os.Getenv("API_HASH"),
		BotToken:      os.Getenv("BOT_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SourceChannel: os.Getenv("SOURCE_CHANNEL"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		APIURL:        os.Getenv("TELEGRAM_API_URL"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.APIID, err = envInt64("API_ID"); err != nil {
		return nil, err
	}
	if cfg.AdminID, err = envInt64("ADMIN_ID"); err != nil {
		return nil, err
	}
	if cfg.Port, err = envInt("PORT"); err != nil {
		return nil, err
	}
	if cfg.DeleteAfter, err = envSeconds("DELETE_AFTER_SECONDS"); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = envSeconds("PENDING_TTL_SECONDS"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("CHANNELS"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Channels = append(cfg.Channels, c)
			}
		}
	}

	cfg.defaults()
	return cfg, nil
}

func envInt64(name string) (int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be numeric, got %q", name, raw)
	}
	return v, nil
}

func envInt(name string) (int, error) {
	v, err := envInt64(name)
	return int(v), err
}

func envSeconds(name string) (time.Duration, error) {
	v, err := envInt64(name)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}
