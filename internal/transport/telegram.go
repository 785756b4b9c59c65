package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"storefront/bot/internal/config"
	"storefront/bot/internal/domain"
	"storefront/bot/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// Messenger sends replies to chats
type Messenger interface {
	Send(ctx context.Context, chatID int64, reply domain.Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Poller fetches inbound updates starting at offset
type Poller interface {
	GetUpdates(ctx context.Context, offset int64) ([]domain.Update, error)
}

// APIError is a Bot API call that returned ok=false
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed: %d %s", e.Method, e.Code, e.Description)
}

// TelegramClient talks to the Bot API over HTTPS
type TelegramClient struct {
	cfg           config.TelegramConfig
	http          atomic.Pointer[resty.Client]
	rl            ratelimit.Limiter
	proxySupplier proxy.Supplier
	pollTimeout   int
	timeout       time.Duration // per call, except the long poll
}

func NewTelegramClient(cfg config.TelegramConfig, proxySupplier proxy.Supplier) *TelegramClient {
	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &TelegramClient{
		cfg:           cfg,
		rl:            rl,
		proxySupplier: proxySupplier,
		pollTimeout:   cfg.PollTimeout,
		timeout:       timeout,
	}

	proxyURL := ""
	if proxySupplier != nil {
		proxyURL = proxySupplier.Get()
	}
	c.http.Store(c.newHTTPClient(proxyURL))

	return c
}

// newHTTPClient sizes the transport timeout for the long poll; other calls
// are bounded tighter through their context.
func (c *TelegramClient) newHTTPClient(proxyURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(c.cfg.BaseURL, "/")+"/bot"+c.cfg.Token).
		SetTimeout(c.timeout+time.Duration(c.pollTimeout)*time.Second).
		SetHeader("Content-Type", "application/json")

	if proxyURL != "" {
		client.SetProxy(proxyURL)
		log.Infof("🔗 Using Telegram proxy: %s", proxyURL)
	}
	return client
}

// rotateProxy switches to the next proxy for subsequent calls
func (c *TelegramClient) rotateProxy() {
	if c.proxySupplier == nil || c.proxySupplier.Len() < 2 {
		return
	}
	next := c.proxySupplier.Get()
	log.Infof("🔄 Switching to new proxy: %s", next)
	c.http.Store(c.newHTTPClient(next))
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *TelegramClient) call(ctx context.Context, method string, payload any, out any) error {
	var result apiResponse

	resp, err := c.http.Load().R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&result).
		Post("/" + method)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("telegram %s cancelled: %w", method, ctx.Err())
		}
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}

	if resp.IsError() || !result.OK {
		code := result.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return &APIError{Method: method, Code: code, Description: result.Description}
	}

	if out != nil {
		if err := json.Unmarshal(result.Result, out); err != nil {
			return fmt.Errorf("failed to decode telegram %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for messages and callback queries
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64) ([]domain.Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        c.pollTimeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	var raw []tgUpdate
	if err := c.call(ctx, "getUpdates", req, &raw); err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) && ctx.Err() == nil {
			c.rotateProxy()
		}
		return nil, err
	}

	updates := make([]domain.Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, u.toDomain())
	}
	return updates, nil
}

// Send delivers a text message, or a photo with caption when reply.Photo is set
func (c *TelegramClient) Send(ctx context.Context, chatID int64, reply domain.Reply) error {
	c.rl.Take()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	markup := replyMarkup(reply)
	if reply.Photo != "" {
		return c.call(ctx, "sendPhoto", sendPhotoRequest{
			ChatID:      chatID,
			Photo:       reply.Photo,
			Caption:     reply.Text,
			ReplyMarkup: markup,
		}, nil)
	}

	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        reply.Text,
		ReplyMarkup: markup,
	}, nil)
}

func (c *TelegramClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	c.rl.Take()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	}, nil)
}
