// Package config loads union-gen settings from defaults, an optional
// .uniongen.yml file, UNIONGEN_* environment variables and flags.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. UNIONGEN_LOG_LEVEL.
const EnvPrefix = "UNIONGEN"

// FileName is the config file looked up in the working directory.
const FileName = ".uniongen"

// Config is the decoded and validated configuration of one invocation.
type Config struct {
	// Inputs are Go package directories scanned for annotated interfaces.
	Inputs    []string `mapstructure:"inputs"`
	Recursive bool     `mapstructure:"recursive"`
	// Schemas are YAML schema files or glob patterns.
	Schemas []string `mapstructure:"schemas"`
	// OutputDir, when set, receives every generated file.
	OutputDir     string      `mapstructure:"output_dir"`
	TemplatesDir  string      `mapstructure:"templates_dir"`
	Template      string      `mapstructure:"template" validate:"required"`
	RuntimeImport string      `mapstructure:"runtime_import" validate:"required"`
	Concurrency   int         `mapstructure:"concurrency" validate:"gte=1"`
	DryRun        bool        `mapstructure:"dry_run"`
	Log           LogConfig   `mapstructure:"log"`
	Watch         WatchConfig `mapstructure:"watch"`
}

// LogConfig selects the logger built by internal/logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=auto console json"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// Debounce is how long the watcher waits for changes to settle.
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// SetDefaults installs the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("inputs", []string{})
	v.SetDefault("recursive", false)
	v.SetDefault("schemas", []string{})
	v.SetDefault("output_dir", "")
	v.SetDefault("templates_dir", "")
	v.SetDefault("template", "union.go.tmpl")
	v.SetDefault("runtime_import", "github.com/gork-labs/uniongen/pkg/unions")
	v.SetDefault("concurrency", 8)
	v.SetDefault("dry_run", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("watch.debounce", 200*time.Millisecond)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the config file into v and decodes the result. An explicit
// path must exist; without one, a missing .uniongen.yml in dir is fine.
func Load(v *viper.Viper, path, dir string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())
