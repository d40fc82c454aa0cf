// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. It installs the
// request-scoped logger and scrubs customer phone numbers, emails and opaque
// ids from the query string and headers before anything is written. Request
// and response bodies are never logged.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxQueryLogLength = 2048

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders names extra headers whose values are replaced with
// "[REDACTED]", on top of Authorization, Cookie, Set-Cookie, X-Admin-Secret
// and X-Line-Signature.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	lineRE  = regexp.MustCompile(`\bU[0-9a-f]{32}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Taiwan mobiles (09xx-xxx-xxx, +886 9xx xxx xxx) and landlines.
	twPhoneRE = regexp.MustCompile(`(?:\+886[ -]?|\b0)9\d{2}[ -]?\d{3}[ -]?\d{3}\b|\b0\d{1,2}[ -]?\d{3,4}[ -]?\d{4}\b`)
	// Generic international numbers.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs s. Ids go first so the phone patterns cannot eat their
// digit runs.
func redact(s string) string {
	if s == "" {
		return s
	}
	out := uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = lineRE.ReplaceAllString(out, "[REDACTED:line]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	out = twPhoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	return out
}

// RedactingLogger logs every request once it completes: info for 2xx/3xx,
// warn for 4xx, error for 5xx. It attaches the request-scoped logger
// (request id, method, route, store id) before calling the next handler.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization":    {},
		"cookie":           {},
		"set-cookie":       {},
		"x-admin-secret":   {},
		"x-line-signature": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		lctx := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path)
		if sid := c.Param("store_id"); sid != "" {
			lctx = lctx.Str("store_id", sid)
		}
		lg := lctx.Logger()
		attachLogger(c, &lg)

		c.Next()

		status := c.Writer.Status()
		final := LoggerFrom(c)
		ev := final.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = final.Error()
		case status >= 400:
			ev = final.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.
			Str("query", safeQuery).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
