package internal

import (
	"io"
	"log/slog"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer

	// loggerInstalled guards the process-wide slog default.
	loggerInstalled bool
	logger          *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sets where structured logs are written. Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// installLogger builds the JSON logger and makes it the slog default. Later
// calls return the already installed logger.
func (a *application) installLogger() *slog.Logger {
	if a.loggerInstalled {
		return a.logger
	}
	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}
	a.logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(a.logger)
	a.loggerInstalled = true
	return a.logger
}
