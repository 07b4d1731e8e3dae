package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load_CreatesDefaultIfMissing(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	loader, err := NewLoader()
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	// Check defaults
	assert.Equal(t, "linux", cfg.Defaults.OS)
	assert.Equal(t, "amd64", cfg.Defaults.Architecture)
	assert.Equal(t, 50, cfg.Defaults.PageLimit)
	assert.Equal(t, FormatText, cfg.Output.Format)

	// Verify file was created
	_, err = os.Stat(loader.Path())
	assert.NoError(t, err)
}

func TestLoader_Load_ReadsExistingConfig(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "hubdig")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	configContent := `
defaults:
  os: windows
  architecture: arm64
  page_limit: 5
output:
  format: json
`
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte(configContent),
		0644,
	))

	loader, err := NewLoader()
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "windows", cfg.Defaults.OS)
	assert.Equal(t, "arm64", cfg.Defaults.Architecture)
	assert.Equal(t, 5, cfg.Defaults.PageLimit)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoader_Load_EnvVarOverride(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("HUBDIG_ARCHITECTURE", "arm/v7")
	t.Setenv("HUBDIG_PAGE_LIMIT", "7")

	loader, err := NewLoader()
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "arm/v7", cfg.Defaults.Architecture)
	assert.Equal(t, 7, cfg.Defaults.PageLimit)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		cfg := &Config{
			Defaults: DefaultsConfig{OS: "linux", Architecture: "amd64", PageLimit: 50},
			Output:   OutputConfig{Format: "text"},
		}

		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects non-positive page limit", func(t *testing.T) {
		cfg := &Config{
			Defaults: DefaultsConfig{OS: "linux", Architecture: "amd64", PageLimit: 0},
		}

		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown output format", func(t *testing.T) {
		cfg := &Config{
			Defaults: DefaultsConfig{OS: "linux", Architecture: "amd64", PageLimit: 50},
			Output:   OutputConfig{Format: "xml"},
		}

		assert.Error(t, cfg.Validate())
	})
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("defaults.os"))
	assert.NoError(t, ValidateKey("defaults.architecture"))
	assert.NoError(t, ValidateKey("defaults.page_limit"))
	assert.NoError(t, ValidateKey("output.format"))

	assert.ErrorIs(t, ValidateKey(""), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKey("defaults.color"), ErrInvalidKey)
}

func TestLoader_Set(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	loader, err := NewLoader()
	require.NoError(t, err)

	// Load creates the file so WriteConfig has something to write to.
	_, err = loader.Load()
	require.NoError(t, err)

	t.Run("writes valid values", func(t *testing.T) {
		require.NoError(t, loader.Set("output.format", "json"))

		value, err := loader.Get("output.format")
		require.NoError(t, err)
		assert.Equal(t, "json", value)
	})

	t.Run("rejects unknown output format", func(t *testing.T) {
		assert.ErrorIs(t, loader.Set("output.format", "xml"), ErrInvalidFormat)
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		assert.ErrorIs(t, loader.Set("no.such.key", "1"), ErrInvalidKey)
	})
}
