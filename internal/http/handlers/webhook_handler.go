// LINE webhook intake.
//
// POST /webhook/line/{store_id} receives Messaging API events. Text messages
// holding a JSON booking command create a regular booking for the sender
// through the same engine as the REST API:
//
//	{"action":"book","date":"2025-06-01","time":"14:00","phone":"0912345678"}
//
// The bot replies with the outcome. Every other event is ignored, and the
// endpoint answers 200 once the signature checks out so LINE does not
// redeliver.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/http/middleware"
	"github.com/j01232026-hub/pretty/internal/notify"
	"github.com/j01232026-hub/pretty/internal/services"
)

// lineDefaultName is used when neither the command nor the profile names the
// customer.
const lineDefaultName = "LINE用戶"

const (
	replyConflict = "❌ 此時段已被預約，請選擇其他時間。"
	replyInvalid  = "❌ 預約資料有誤，請確認日期、時間與電話。"
	replyFailed   = "⚠️ 系統忙碌中，請稍後再試。"
)

// lineBookingCommand is the JSON a booking form sends as a chat message.
type lineBookingCommand struct {
	Action  string `json:"action"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	EndTime string `json:"endTime"`
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Stylist string `json:"stylist"`
}

// parseBookingCommand reports whether text is a booking command.
func parseBookingCommand(text string) (lineBookingCommand, bool) {
	var cmd lineBookingCommand
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return cmd, false
	}
	if err := json.Unmarshal([]byte(text), &cmd); err != nil {
		return cmd, false
	}
	return cmd, strings.EqualFold(strings.TrimSpace(cmd.Action), "book")
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

// LineWebhook godoc
// @ID          lineWebhook
// @Summary     LINE webhook
// @Description Verifies x-line-signature and turns booking commands in text messages into bookings.
// @Tags        Webhook
// @Accept      json
// @Produce     json
// @Param       store_id          path    string  true  "Store ID"
// @Param       x-line-signature  header  string  true  "HMAC-SHA256 of the body, base64"
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad signature"
// @Router      /webhook/line/{store_id} [post]
func (h *Handlers) LineWebhook(c *gin.Context) {
	if h.lineSecret == "" {
		fail(c, http.StatusUnauthorized, ErrCodeBadSignature, "webhook not configured")
		return
	}
	cb, err := webhook.ParseRequest(h.lineSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			fail(c, http.StatusUnauthorized, ErrCodeBadSignature, "invalid signature")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed webhook body")
		return
	}

	storeID := c.Param("store_id")
	for _, ev := range cb.Events {
		me, isMsg := ev.(webhook.MessageEvent)
		if !isMsg {
			continue
		}
		text, isText := me.Message.(webhook.TextMessageContent)
		if !isText {
			continue
		}
		cmd, isCmd := parseBookingCommand(text.Text)
		if !isCmd {
			continue
		}
		h.bookFromLine(c, storeID, sourceUserID(me.Source), me.ReplyToken, cmd)
	}

	ok(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) bookFromLine(c *gin.Context, storeID, userID, replyToken string, cmd lineBookingCommand) {
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c).With().Str("line_user", userID).Logger()

	var uid *string
	if userID != "" {
		uid = &userID
	}
	var end *string
	if e := strings.TrimSpace(cmd.EndTime); e != "" {
		end = &e
	}

	b, err := h.bookings.Create(ctx, services.CreateInput{
		StoreID:      storeID,
		UserID:       uid,
		Kind:         domain.KindRegular,
		Date:         cmd.Date,
		StartTime:    cmd.Time,
		EndTime:      end,
		Stylist:      cmd.Stylist,
		ContactName:  h.lineContactName(ctx, storeID, userID, cmd.Name),
		ContactPhone: cmd.Phone,
		SkipNotify:   true, // the reply below confirms
	})

	var reply string
	switch {
	case err == nil:
		reply = notify.BookingConfirmed(b.Date, b.StartTime)
		lg.Info().Uint64("booking_id", b.ID).Msg("line booking created")
	case errors.Is(err, services.ErrConflict):
		reply = replyConflict
		lg.Info().Err(err).Msg("line booking conflict")
	case errors.Is(err, services.ErrValidation):
		reply = replyInvalid
		lg.Info().Err(err).Msg("line booking rejected")
	default:
		reply = replyFailed
		lg.Error().Err(err).Msg("line booking failed")
	}

	if h.replier == nil || replyToken == "" {
		return
	}
	if err := h.replier.Reply(ctx, replyToken, reply); err != nil {
		lg.Warn().Err(err).Msg("line reply failed")
	}
}

func (h *Handlers) lineContactName(ctx context.Context, storeID, userID, given string) string {
	if n := strings.TrimSpace(given); n != "" {
		return n
	}
	if h.profiles != nil && userID != "" {
		if n, err := h.profiles.DisplayName(ctx, storeID, userID); err == nil && strings.TrimSpace(n) != "" {
			return n
		}
	}
	return lineDefaultName
}
