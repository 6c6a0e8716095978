package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxHeaderValueSize caps any single header value at 8KB.
const maxHeaderValueSize = 8192

var (
	// SQL fragments worth flagging. Repositories are parameterized
	// throughout, so a match logs a warning but does not block.
	sqlPattern = regexp.MustCompile(`(?i)('+\s*;\s*DROP\b|UNION\s+SELECT\b|'\s+OR\s+1\s*=\s*1|1\s*=\s*1)`)

	// Script injection is blocked outright; no legitimate consent, record,
	// or resolve request carries markup.
	scriptPattern = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)
)

// Sanitize returns request-validation middleware with warnings discarded.
func Sanitize() echo.MiddlewareFunc {
	return SanitizeWithLogger(zerolog.Nop())
}

// SanitizeWithLogger returns middleware that screens paths, headers, and
// query parameters for common attack patterns before any handler runs.
// Blocked requests get a 400; SQL-looking parameters are logged through the
// given logger and allowed through.
func SanitizeWithLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			rawPath := req.URL.RawPath
			if rawPath == "" {
				rawPath = path
			}

			if hasTraversal(path) || hasTraversal(rawPath) {
				return reject(c, "path traversal detected")
			}
			if hasNullByte(path) || hasNullByte(rawPath) {
				return reject(c, "null byte injection detected")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return reject(c, "header value exceeds maximum size: "+name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return reject(c, "header injection detected: "+name)
					}
				}
			}

			for key, values := range req.URL.Query() {
				for _, v := range values {
					if hasNullByte(v) || hasNullByte(key) {
						return reject(c, "null byte injection detected in query parameter")
					}

					if sqlPattern.MatchString(v) {
						logger.Warn().
							Str("param", key).
							Str("path", loggablePath(path)).
							Str("remote_ip", c.RealIP()).
							Msg("potential SQL injection pattern detected in query parameter")
					}

					if scriptPattern.MatchString(v) || scriptPattern.MatchString(key) {
						return reject(c, "script injection detected in query parameter")
					}
				}
			}

			return next(c)
		}
	}
}

// hasTraversal matches "..", percent-encoded, and double-encoded forms.
func hasTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

// hasNullByte matches raw and percent-encoded null bytes.
func hasNullByte(s string) bool {
	if strings.ContainsRune(s, '\x00') {
		return true
	}
	return strings.Contains(strings.ToLower(s), "%00")
}

// reject returns a 400 for a request that failed validation.
func reject(c echo.Context, reason string) error {
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// SanitizeString strips null bytes and control characters (except newline,
// carriage return, and tab) from free-text input and trims surrounding
// whitespace. Handlers use it on intake fields before persistence.
func SanitizeString(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\x00' {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
