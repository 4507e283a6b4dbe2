// Package config assembles the tool's settings from four layers, each
// overriding the previous one: built-in defaults, an optional YAML file,
// GONGBU_* environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/minhvt/gongbu/internal/quiz"
)

const envPrefix = "GONGBU_"

type Config struct {
	// DB is the path of the SQLite file everything persists into.
	DB string `koanf:"db" validate:"required"`
	// Listen is the address the web UI serves on.
	Listen string `koanf:"listen" validate:"required,hostname_port"`
	// Namespace prefixes every storage key. Colons are the key separator, so
	// the namespace itself cannot contain one.
	Namespace string `koanf:"namespace" validate:"required,excludes=:"`
	Log       Log    `koanf:"log"`
	Quiz      Quiz   `koanf:"quiz"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type Quiz struct {
	// AutoAdvance is how long a correct answer stays on screen before the
	// session moves on by itself. Zero disables auto-advance.
	AutoAdvance time.Duration `koanf:"autoadvance" validate:"min=0"`
}

// Defaults returns the built-in settings as a koanf config map.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"db":               "gongbu.db",
		"listen":           "127.0.0.1:7522",
		"namespace":        "gongbu",
		"log.level":        "info",
		"log.format":       "text",
		"quiz.autoadvance": quiz.DefaultAutoAdvance.String(),
	}
}

// Load builds the configuration. path names a YAML file and may be empty;
// flags may be nil for commands that define none. Flag names double as
// config keys, so only explicitly set flags override the earlier layers.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envToKey maps an environment variable like GONGBU_LOG_LEVEL to the config
// key log.level.
func envToKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
}
