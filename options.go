package devblog

import (
	"log/slog"
	"time"
)

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithLoginLimit sets how many failed admin logins an IP may make per window.
func WithLoginLimit(max int, window time.Duration) Option {
	return func(a *App) {
		a.loginMax = max
		a.loginWindow = window
	}
}

// WithShutdownTimeout bounds graceful shutdown in Start. Default 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		a.shutdownTimeout = d
	}
}
