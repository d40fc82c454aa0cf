package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		v, _ := c.Get(requestIDKey)
		c.String(http.StatusOK, asString(v))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	gen := w.Header().Get(requestIDHeader)
	if gen == "" || w.Body.String() != gen {
		t.Fatalf("expected generated id in header and context, got %q / %q", gen, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("x-request-id", "rid-1")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "rid-1" {
		t.Fatalf("expected propagated id, got %q", got)
	}
}

func TestIdentity_SetsUserIDAndLoggerField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}), Identity())
	r.GET("/me", func(c *gin.Context) {
		// services log through the request context
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.String(http.StatusOK, UserID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "  Uabc  ")
	r.ServeHTTP(w, req)
	if w.Body.String() != "Uabc" {
		t.Fatalf("expected trimmed user id, got %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), `"user_id":"Uabc","message":"inside"`) {
		t.Fatalf("expected user_id on the context logger, got %s", buf.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Body.String() != "" {
		t.Fatalf("expected anonymous caller, got %q", w.Body.String())
	}
}

func TestRecovery_PanicsToJSON500AndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-p")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-p" {
		t.Fatalf("unexpected body %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic log, got %s", buf.String())
	}
}

func TestRecovery_PanicAfterWrite_NoJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_ = captureLogger(t)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/half", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/half", nil))
	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("must not append JSON after a partial write: %q", w.Body.String())
	}
}

func TestLoggerFrom_FallbackAndRequestScoped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if LoggerFrom(c) == nil {
		t.Fatalf("fallback logger must not be nil")
	}

	var buf bytes.Buffer
	lg := zerolog.New(&buf).With().Str("k", "v").Logger()
	attachLogger(c, &lg)
	LoggerFrom(c).Info().Msg("hello")
	zerolog.Ctx(c.Request.Context()).Info().Msg("ctx")
	if strings.Count(buf.String(), `"k":"v"`) != 2 {
		t.Fatalf("expected both loggers to carry request fields, got %s", buf.String())
	}
}

func TestHelpers_asString_and_truncate(t *testing.T) {
	if asString(1) != "" || asString("x") != "x" {
		t.Fatalf("asString mismatch")
	}
	if truncate("abcdef", 3) != "abc…" || truncate("abc", 3) != "abc" || truncate("abc", 0) != "abc" {
		t.Fatalf("truncate mismatch")
	}
}
