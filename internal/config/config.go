// Package config provides configuration management for hubdig.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultConfigDir  = ".config/hubdig"
	DefaultConfigFile = "config.yaml"

	DefaultOS           = "linux"
	DefaultArchitecture = "amd64"
	DefaultPageLimit    = 50
)

// Output formats accepted by the CLI.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Sentinel errors for configuration operations.
var (
	ErrInvalidKey    = errors.New("invalid configuration key")
	ErrInvalidFormat = errors.New("invalid output format")
	ErrNoEditor      = errors.New("$EDITOR environment variable not set")
)

// validKeys is built once from Config struct reflection.
var validKeys = buildValidKeys()

// validate is the shared validator instance.
var validate = validator.New()

// Config represents the full hubdig configuration.
type Config struct {
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults" validate:"required"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// DefaultsConfig holds the platform and pagination defaults applied
// when the corresponding flags are not given.
type DefaultsConfig struct {
	OS           string `mapstructure:"os" yaml:"os" validate:"required"`
	Architecture string `mapstructure:"architecture" yaml:"architecture" validate:"required"`
	PageLimit    int    `mapstructure:"page_limit" yaml:"page_limit" validate:"gt=0"`
}

// OutputConfig holds output rendering configuration.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// Validate checks the configuration for errors using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Loader provides configuration loading and saving.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader creates a new configuration loader.
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	configPath := filepath.Join(home, DefaultConfigDir, DefaultConfigFile)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Environment variable binding
	v.SetEnvPrefix("HUBDIG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific env vars to config keys.
	// We intentionally ignore errors here as BindEnv only fails when
	// called with zero arguments.
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("defaults.os", "HUBDIG_OS")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("defaults.architecture", "HUBDIG_ARCHITECTURE")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("defaults.page_limit", "HUBDIG_PAGE_LIMIT")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("output.format", "HUBDIG_OUTPUT_FORMAT")

	l := &Loader{
		v:    v,
		path: configPath,
	}

	l.setDefaults()

	return l, nil
}

// setDefaults sets all default configuration values using Viper.
func (l *Loader) setDefaults() {
	l.v.SetDefault("defaults.os", DefaultOS)
	l.v.SetDefault("defaults.architecture", DefaultArchitecture)
	l.v.SetDefault("defaults.page_limit", DefaultPageLimit)
	l.v.SetDefault("output.format", FormatText)
}

// Load reads the configuration file, creating defaults if it doesn't exist.
func (l *Loader) Load() (*Config, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := l.createDefault(); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Get returns a configuration value by dot-notation key.
func (l *Loader) Get(key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return l.v.Get(key), nil
}

// Set sets a configuration value by dot-notation key.
func (l *Loader) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if key == "output.format" && value != FormatText && value != FormatJSON {
		return fmt.Errorf("%w: %s (valid: text, json)", ErrInvalidFormat, value)
	}

	l.v.Set(key, value)
	return l.v.WriteConfig()
}

// createDefault writes the default configuration file using Viper.
func (l *Loader) createDefault() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return l.v.SafeWriteConfigAs(l.path)
}

// ValidateKey checks if a key is a valid configuration key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if validKeys[key] {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidKey, key)
}

// buildValidKeys builds the set of valid keys from the Config struct
// using reflection.
func buildValidKeys() map[string]bool {
	keys := make(map[string]bool)
	addKeysFromType(reflect.TypeOf(Config{}), "", keys)
	return keys
}

// addKeysFromType recursively adds keys from a struct type.
func addKeysFromType(t reflect.Type, prefix string, keys map[string]bool) {
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		keys[key] = true

		if field.Type.Kind() == reflect.Struct {
			addKeysFromType(field.Type, key, keys)
		}
	}
}
