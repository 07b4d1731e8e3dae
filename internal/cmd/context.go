package cmd

import (
	"context"

	"github.com/hubdig/hubdig/internal/config"
)

type contextKey string

const (
	configKey contextKey = "config"
	loaderKey contextKey = "loader"
)

// WithConfig adds the loaded configuration to the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// ConfigFromContext retrieves the configuration from the context.
// Returns nil if none is set.
func ConfigFromContext(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey).(*config.Config)
	return cfg
}

// WithLoader adds the configuration loader to the context.
func WithLoader(ctx context.Context, loader *config.Loader) context.Context {
	return context.WithValue(ctx, loaderKey, loader)
}

// LoaderFromContext retrieves the configuration loader from the context.
// Returns nil if none is set.
func LoaderFromContext(ctx context.Context) *config.Loader {
	loader, _ := ctx.Value(loaderKey).(*config.Loader)
	return loader
}
