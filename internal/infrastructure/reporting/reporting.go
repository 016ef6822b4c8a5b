package reporting

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

type Config struct {
	DSN         string
	Environment string
	Debug       bool
	Release     string
}

// Reporter forwards infrastructure failures to Sentry. A nil *Reporter or one
// built without a DSN drops every report.
type Reporter struct {
	enabled bool
}

func New(cfg Config) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}

	return &Reporter{enabled: true}, nil
}

// Capture reports err tagged with the session it happened in.
func (r *Reporter) Capture(ctx context.Context, err error, sessionID string) {
	if r == nil || !r.enabled || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if sessionID != "" {
			scope.SetTag("session_id", sessionID)
		}
		hub.CaptureException(err)
	})
}

func (r *Reporter) Flush(timeout time.Duration) {
	if r == nil || !r.enabled {
		return
	}
	sentry.Flush(timeout)
}
