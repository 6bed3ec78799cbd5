package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/foamstudy/internal/ctxlog"
	"github.com/vk/foamstudy/internal/params"
	"github.com/vk/foamstudy/internal/study"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	loader *study.Loader
	store  *params.Store
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and base parameter
// store. Unreadable base parameters are a fatal startup error.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("logger configured")

	store, err := loadBaseParams(ctx, cfg.ParamsPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load base parameters: %w", err))
	}

	return &App{
		outW:   outW,
		logger: logger,
		loader: study.NewLoader(),
		store:  store,
	}
}

// loadBaseParams reads the optional study-level parameter file. A missing
// file just means every value comes from the case dictionaries themselves.
func loadBaseParams(ctx context.Context, path string) (*params.Store, error) {
	logger := ctxlog.FromContext(ctx)

	if path == "" {
		return params.NewStore(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("base parameter file not found, starting empty", "path", path)
		return params.NewStore(), nil
	}

	store, err := params.FromYAMLFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("base parameters loaded", "path", path, "keys", len(store.Keys()))
	return store, nil
}
