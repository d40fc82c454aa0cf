// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, conservative response headers for a
// JSON API behind a reverse proxy, and AdminSecret, the shared-secret gate
// in front of staff-only operations.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // Cache-Control: no-store; bookings carry phone numbers
	EnablePolicy bool          // Permissions-Policy and friends
}

// SecurityHeaders adds nosniff, frame denial and no-referrer to every
// response, plus the optional headers selected in opt. HSTS is only sent on
// HTTPS requests (directly or via X-Forwarded-Proto).
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, requestIDHeader)
			} else if !strings.Contains(cur, requestIDHeader) {
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// HeaderAdminSecret carries the staff shared secret.
const HeaderAdminSecret = "X-Admin-Secret"

const ctxKeyAdmin = "auth.admin"

// AdminSecret marks requests whose X-Admin-Secret equals secret. It never
// rejects; handlers call IsAdmin for the operations that need it. An empty
// secret disables staff access entirely.
func AdminSecret(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderAdminSecret)
		if len(want) > 0 && got != "" && subtle.ConstantTimeCompare([]byte(got), want) == 1 {
			c.Set(ctxKeyAdmin, true)
		}
		c.Next()
	}
}

// IsAdmin reports whether AdminSecret accepted the request.
func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyAdmin)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
