package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// resolvePathPrefix is the public emergency resolve route. Its final path
// segment is a live disclosure secret and must never reach the log.
const resolvePathPrefix = "/emergency/"

// Logger returns middleware that writes one structured log line per request.
// Paths go through loggablePath first so resolve secrets stay out of the log.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", loggablePath(req.URL.Path)).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

// loggablePath redacts everything after the resolve prefix. The secret is as
// good as the snapshot itself until expiry, so a resolve attempt logs only
// that it happened, never with what.
func loggablePath(path string) string {
	if rest, ok := strings.CutPrefix(path, resolvePathPrefix); ok && rest != "" {
		return resolvePathPrefix + "[redacted]"
	}
	return path
}
