package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type captured struct {
	mu    sync.Mutex
	path  string
	auth  string
	body  map[string]any
	fails bool
}

func (c *captured) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		c.body = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		w.Header().Set("Content-Type", "application/json")
		if c.fails {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"The request body has 1 error(s)"}`))
			return
		}
		_, _ = w.Write([]byte(`{"sentMessages":[]}`))
	}
}

func (c *captured) snapshot() (string, string, map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path, c.auth, c.body
}

func firstText(t *testing.T, body map[string]any) string {
	t.Helper()
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", body["messages"])
	}
	m, _ := msgs[0].(map[string]any)
	if m["type"] != "text" {
		t.Fatalf("expected text message, got %v", m)
	}
	s, _ := m["text"].(string)
	return s
}

func TestBookingConfirmed(t *testing.T) {
	got := BookingConfirmed("2025-06-01", "14:00")
	want := "✅ 預約已確認！\n日期: 2025-06-01\n時間: 14:00"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLINE_SendPushesText(t *testing.T) {
	c := &captured{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	l, err := NewLINE("tok", srv.URL)
	if err != nil {
		t.Fatalf("NewLINE: %v", err)
	}
	if err := l.Send(context.Background(), "Uabc", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	path, auth, body := c.snapshot()
	if path != "/v2/bot/message/push" {
		t.Fatalf("unexpected path %q", path)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if body["to"] != "Uabc" || firstText(t, body) != "hello" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestLINE_ReplyAndErrors(t *testing.T) {
	c := &captured{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	l, err := NewLINE("tok", srv.URL)
	if err != nil {
		t.Fatalf("NewLINE: %v", err)
	}
	if err := l.Reply(context.Background(), "rtok", "ok"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	path, _, body := c.snapshot()
	if path != "/v2/bot/message/reply" || body["replyToken"] != "rtok" || firstText(t, body) != "ok" {
		t.Fatalf("unexpected reply request %s %v", path, body)
	}

	c.mu.Lock()
	c.fails = true
	c.mu.Unlock()
	if err := l.Send(context.Background(), "Uabc", "x"); err == nil || !strings.Contains(err.Error(), "line push") {
		t.Fatalf("expected wrapped push error, got %v", err)
	}
	if err := l.Reply(context.Background(), "rtok", "x"); err == nil {
		t.Fatalf("expected reply error")
	}
}

func TestLog_WritesAndNeverFails(t *testing.T) {
	var buf bytes.Buffer
	n := Log{Logger: zerolog.New(&buf)}
	if err := n.Send(context.Background(), "U1", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := n.Reply(context.Background(), "r", "hi"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if !strings.Contains(buf.String(), `"to":"U1"`) || !strings.Contains(buf.String(), `"reply_token":"r"`) {
		t.Fatalf("unexpected log output %s", buf.String())
	}
}
