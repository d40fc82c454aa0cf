// Package notify delivers best-effort customer messages. Callers treat every
// error as log-only; nothing here participates in booking consistency.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/rs/zerolog"
)

// BookingConfirmed is the confirmation text pushed after promotion.
func BookingConfirmed(date, clock string) string {
	return fmt.Sprintf("✅ 預約已確認！\n日期: %s\n時間: %s", date, clock)
}

// LINE sends text through the LINE Messaging API.
type LINE struct {
	api *messaging_api.MessagingApiAPI
}

// NewLINE builds a LINE sender. endpoint overrides the API host when set.
//
// The SDK binds a context per client rather than per call, so requests are
// bounded by an HTTP client timeout instead of the caller's context.
func NewLINE(channelToken, endpoint string) (*LINE, error) {
	opts := []messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	}
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("line client: %w", err)
	}
	return &LINE{api: api}, nil
}

// Send pushes text to a LINE user id.
func (l *LINE) Send(_ context.Context, to, text string) error {
	_, err := l.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	}, "")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	return nil
}

// Reply answers a webhook event through its reply token.
func (l *LINE) Reply(_ context.Context, replyToken, text string) error {
	_, err := l.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   []messaging_api.MessageInterface{messaging_api.TextMessage{Text: text}},
	})
	if err != nil {
		return fmt.Errorf("line reply: %w", err)
	}
	return nil
}

// Log writes messages to the logger instead of delivering them. It is used
// when no LINE channel is configured.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Send(_ context.Context, to, text string) error {
	l.Logger.Info().Str("to", to).Str("text", text).Msg("notify")
	return nil
}

func (l Log) Reply(_ context.Context, replyToken, text string) error {
	l.Logger.Info().Str("reply_token", replyToken).Str("text", text).Msg("notify reply")
	return nil
}
