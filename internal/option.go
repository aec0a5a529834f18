package internal

import (
	"log/slog"

	"github.com/starford/wordvault/internal/handoff"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
	opener handoff.Opener
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the default JSON logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithOpener sets what opens the capture window. Run uses the SSE broker
// unless this is given; Bootstrap falls back to logging the request.
func WithOpener(o handoff.Opener) Option {
	return func(a *application) {
		a.opener = o
	}
}

func newApplication(opts []Option) *application {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
