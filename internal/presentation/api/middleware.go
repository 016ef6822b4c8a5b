package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/json"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ratelimiter"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Hijack lets the websocket upgrade pass through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("responseWriter does not implement http.Hijacker")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (app *Application) rateLimiterMiddleware(next http.Handler) http.Handler {
	rule := ratelimiter.Rule{
		Limit:  app.config.RateLimiter.HTTP.Limit,
		Window: app.config.RateLimiter.HTTP.Window,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rule.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		sourceKey := app.ratelimiter.GetSourceKey(r)

		d, err := app.ratelimiter.Allow(r.Context(), ratelimiter.ScopeHTTP, sourceKey, rule)
		if err != nil {
			app.logger.Warn(logging.Redis, logging.RateLimiting, "rate limiter unavailable", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		if !d.Allowed {
			w.Header().Set("X-RateLimit-Remaining", "0")

			app.metrics.RateLimited(ratelimiter.ScopeHTTP)
			app.logger.Warn(
				logging.General,
				logging.RateLimiting,
				"rate limit exceeded",
				map[logging.ExtraKey]any{
					"source": sourceKey,
					"path":   r.URL.Path,
					"method": r.Method,
				},
			)

			json.WriteRateLimitError(w, int(d.RetryAfter.Seconds()+0.5))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		next.ServeHTTP(w, r)
	})
}

func (app *Application) enableCors(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(app.config.HTTP.AllowedOrigins))
	for _, o := range app.config.HTTP.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	_, wildcard := allowed["*"]

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if _, ok := allowed[origin]; origin != "" && (wildcard || ok) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		} else if wildcard {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		// allow preflight requests from the browser API
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *Application) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		extra := map[logging.ExtraKey]any{
			logging.Method:     r.Method,
			logging.Path:       r.URL.Path,
			logging.StatusCode: wrapped.statusCode,
			logging.Latency:    duration.Milliseconds(),
			logging.BodySize:   wrapped.bytes,
			logging.ClientIp:   r.RemoteAddr,
			"user_agent":       r.UserAgent(),
		}

		if r.URL.RawQuery != "" {
			extra["query"] = r.URL.RawQuery
		}

		switch {
		case wrapped.statusCode >= 500:
			app.logger.Error(logging.RequestResponse, logging.ExternalService, "request completed with server error", extra)
		case wrapped.statusCode >= 400:
			app.logger.Warn(logging.RequestResponse, logging.ExternalService, "request completed with client error", extra)
		default:
			app.logger.Info(logging.RequestResponse, logging.ExternalService, "request completed", extra)
		}
	})
}

func (app *Application) prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		app.metrics.HTTPRequest(r.Method, wrapped.statusCode, time.Since(start))
	})
}
