// Package telegram is a small typed client for the parts of the bot API that
// filestream uses: caption edits (the metadata side channel), file lookup and
// download, message sending, inline answers and webhook management.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/filestream/internal/logging"
	"github.com/dmitrijs2005/filestream/internal/netx"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.telegram.org"

// Config holds settings for NewClient.
type Config struct {
	// Token is the bot token issued by BotFather. Required.
	Token string

	// BaseURL defaults to https://api.telegram.org.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// RequestsPerSecond paces outbound calls. Zero or less disables pacing.
	RequestsPerSecond float64

	Logger logging.Logger
}

// Client calls the bot API. It is safe for concurrent use.
type Client struct {
	apiBase    string
	fileBase   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: empty bot token")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	return &Client{
		apiBase:    base + "/bot" + cfg.Token + "/",
		fileBase:   base + "/file/bot" + cfg.Token + "/",
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.With("module", "telegram"),
	}, nil
}

// redact strips the request URL, which embeds the bot token, from transport
// errors while keeping the wrapped cause for errors.Is.
func redact(method string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: method, Err: urlErr.Err}
	}
	return err
}

func call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var zero T

	if err := c.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return zero, fmt.Errorf("telegram %s: encode params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+method, bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %w", method, redact(method, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %w", method, redact(method, err))
	}
	defer resp.Body.Close()

	var out response[T]
	if err := netx.DecodeJSON(resp.Body, &out); err != nil {
		return zero, fmt.Errorf("telegram %s: HTTP %d: decode reply: %w", method, resp.StatusCode, err)
	}

	if !out.OK {
		code := out.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		c.logger.Debug(ctx, "bot api call rejected", "method", method, "code", code)
		return zero, &APIError{Method: method, Code: code, Description: out.Description}
	}

	if v := reflect.ValueOf(out.Result); v.Kind() == reflect.Pointer && v.IsNil() {
		return zero, fmt.Errorf("telegram %s: %w", method, ErrEmptyResult)
	}

	return out.Result, nil
}

// GetMe returns the bot's own user record.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return call[*User](ctx, c, "getMe", struct{}{})
}

// SetWebhook points the bot at url. An empty url removes the webhook.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) (bool, error) {
	params := map[string]any{"url": webhookURL}
	if secret != "" {
		params["secret_token"] = secret
	}
	return call[bool](ctx, c, "setWebhook", params)
}

// EditMessageCaption replaces the caption of a message and returns the
// edited message, including its file payload.
func (c *Client) EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string) (*Message, error) {
	return call[*Message](ctx, c, "editMessageCaption", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"caption":    caption,
	})
}

// GetFile prepares a file for download and returns its path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	return call[*File](ctx, c, "getFile", map[string]any{"file_id": fileID})
}

// DownloadFile fetches the bytes behind a getFile path.
func (c *Client) DownloadFile(ctx context.Context, filePath string, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	data, err := netx.Get(ctx, c.httpClient, c.fileBase+filePath, limit)
	if err != nil {
		return nil, fmt.Errorf("telegram download: %w", redact("download", err))
	}
	return data, nil
}

// ResolveLocator turns a file id into a download handle (the file path).
func (c *Client) ResolveLocator(ctx context.Context, fileID string) (string, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	if f == nil || f.FilePath == "" {
		return "", fmt.Errorf("telegram getFile: no file path for %s", fileID)
	}
	return f.FilePath, nil
}

// FetchBytes downloads the file behind handle.
func (c *Client) FetchBytes(ctx context.Context, handle string, limit int64) ([]byte, error) {
	return c.DownloadFile(ctx, handle, limit)
}

// SendMessage posts a markdown text message, optionally as a reply and with
// an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID, replyTo int64, text string, keyboard [][]InlineKeyboardButton) (*Message, error) {
	params := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "markdown",
	}
	if replyTo != 0 {
		params["reply_to_message_id"] = replyTo
	}
	if len(keyboard) > 0 {
		params["reply_markup"] = InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}
	return call[*Message](ctx, c, "sendMessage", params)
}

// SendDocument re-sends an already uploaded document, audio or video by id.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID string) (*Message, error) {
	return call[*Message](ctx, c, "sendDocument", map[string]any{"chat_id": chatID, "document": fileID})
}

// SendPhoto re-sends an already uploaded photo by id.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, fileID string) (*Message, error) {
	return call[*Message](ctx, c, "sendPhoto", map[string]any{"chat_id": chatID, "photo": fileID})
}

// AnswerInlineQuery replies to an inline query. Results are cached for one
// second only, since every answer depends on a live caption edit.
func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []InlineQueryResult) (bool, error) {
	return call[bool](ctx, c, "answerInlineQuery", map[string]any{
		"inline_query_id": queryID,
		"results":         results,
		"cache_time":      1,
	})
}
