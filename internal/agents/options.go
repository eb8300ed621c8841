package agents

import (
	"log/slog"
	"net/http"
)

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	getenv     func(string) string
}

// Option configures agent construction.
type Option func(*options)

// WithLogger sets the logger used by browsing and LLM agents.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the HTTP client used by LLM agents.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithGetenv replaces os.Getenv for API key and base URL lookup.
func WithGetenv(fn func(string) string) Option {
	return func(o *options) { o.getenv = fn }
}

func (o options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
