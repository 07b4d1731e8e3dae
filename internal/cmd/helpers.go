package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubdig/hubdig/internal/config"
)

// resolveOS returns the --os flag when set, falling back to the
// configured default. An explicit empty value is rejected rather than
// treated as a match-nothing request.
func resolveOS(cmd *cobra.Command) (string, error) {
	value, err := cmd.Flags().GetString("os")
	if err != nil {
		return "", fmt.Errorf("get os flag: %w", err)
	}
	if cmd.Flags().Changed("os") {
		if value == "" {
			return "", errors.New("os must not be empty")
		}
		return value, nil
	}
	if cfg := ConfigFromContext(cmd.Context()); cfg != nil && cfg.Defaults.OS != "" {
		return cfg.Defaults.OS, nil
	}
	return config.DefaultOS, nil
}

// resolveArch returns the --arch flag when set, falling back to the
// configured default. An explicit empty value is rejected rather than
// treated as a match-nothing request.
func resolveArch(cmd *cobra.Command) (string, error) {
	value, err := cmd.Flags().GetString("arch")
	if err != nil {
		return "", fmt.Errorf("get arch flag: %w", err)
	}
	if cmd.Flags().Changed("arch") {
		if value == "" {
			return "", errors.New("arch must not be empty")
		}
		return value, nil
	}
	if cfg := ConfigFromContext(cmd.Context()); cfg != nil && cfg.Defaults.Architecture != "" {
		return cfg.Defaults.Architecture, nil
	}
	return config.DefaultArchitecture, nil
}

// resolvePageLimit returns the --page-limit flag when set, falling back
// to the configured default.
func resolvePageLimit(cmd *cobra.Command) (int, error) {
	value, err := cmd.Flags().GetInt("page-limit")
	if err != nil {
		return 0, fmt.Errorf("get page-limit flag: %w", err)
	}
	if cmd.Flags().Changed("page-limit") {
		return value, nil
	}
	if cfg := ConfigFromContext(cmd.Context()); cfg != nil && cfg.Defaults.PageLimit != 0 {
		return cfg.Defaults.PageLimit, nil
	}
	return config.DefaultPageLimit, nil
}

// resolveFormat returns the --output flag when set, falling back to the
// configured default format.
func resolveFormat(cmd *cobra.Command) (string, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", fmt.Errorf("get output flag: %w", err)
	}
	if cmd.Flags().Changed("output") {
		if value != config.FormatText && value != config.FormatJSON {
			return "", fmt.Errorf("%w: %s (valid: text, json)", config.ErrInvalidFormat, value)
		}
		return value, nil
	}
	if cfg := ConfigFromContext(cmd.Context()); cfg != nil && cfg.Output.Format != "" {
		return cfg.Output.Format, nil
	}
	return config.FormatText, nil
}
