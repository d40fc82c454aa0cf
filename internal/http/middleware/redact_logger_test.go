package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact_Patterns(t *testing.T) {
	cases := map[string]string{
		"phone=0912-345-678":                           "phone=[REDACTED:phone]",
		"phone=0912345678":                             "phone=[REDACTED:phone]",
		"tel +886 912 345 678":                         "tel [REDACTED:phone]",
		"shop 02-2345-6789":                            "shop [REDACTED:phone]",
		"mail a.b@example.com":                         "mail [REDACTED:email]",
		"u=U4af4980629a1b2c3d4e5f60718293a4b":          "u=[REDACTED:line]",
		"id=123e4567-e89b-12d3-a456-426614174000":      "id=[REDACTED:id]",
		"date=2025-06-01&start_time=10:00&stylist=any": "date=2025-06-01&start_time=10:00&stylist=any",
	}
	for in, want := range cases {
		if got := redact(in); got != want {
			t.Fatalf("redact(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/stores/:store_id/bookings", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/stores/s1/bookings?phone=0912-345-678&user_id=U4af4980629a1b2c3d4e5f60718293a4b", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set(HeaderAdminSecret, "staff-pass")
	req.Header.Set("X-Line-Signature", "sig")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Note", "call 0912 345 678")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/stores/:store_id/bookings"`,
		`"store_id":"s1"`,
		`"request_id":"rid-resp"`,
		`"Authorization":"[REDACTED]"`,
		`"X-Admin-Secret":"[REDACTED]"`,
		`"X-Line-Signature":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Note":"call [REDACTED:phone]"`,
		`phone=[REDACTED:phone]`,
		`user_id=[REDACTED:line]`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in logs, got: %s", want, logs)
		}
	}
	if strings.Contains(logs, "staff-pass") || strings.Contains(logs, "0912") {
		t.Fatalf("secret or phone leaked: %s", logs)
	}
}

func TestRedactingLogger_WarnAndErrorLevels_RequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	req := httptest.NewRequest(http.MethodGet, "/bad", nil)
	req.Header.Set(requestIDHeader, "rid-req")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-req"`) {
		t.Fatalf("expected warn with request-header id, got: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) {
		t.Fatalf("expected error level for 503, got: %s", logs)
	}
}
