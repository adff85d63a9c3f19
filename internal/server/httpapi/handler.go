// Package httpapi exposes the public file endpoint, the bot webhook and the
// admin routes over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/dmitrijs2005/filestream/internal/logging"
	"github.com/dmitrijs2005/filestream/internal/netx"
	"github.com/dmitrijs2005/filestream/internal/ratelimit"
	"github.com/dmitrijs2005/filestream/internal/server/auth"
	"github.com/dmitrijs2005/filestream/internal/server/models"
	"github.com/dmitrijs2005/filestream/internal/server/services"
	"github.com/dmitrijs2005/filestream/internal/telegram"
)

const (
	maxUpdateSize        = 1 << 20
	defaultUpdateTimeout = time.Minute
)

type Retriever interface {
	Retrieve(ctx context.Context, req services.RetrievalRequest) (*models.Download, error)
}

type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update) error
}

// BotAdmin is the slice of the bot API the admin routes call.
type BotAdmin interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	SetWebhook(ctx context.Context, webhookURL, secret string) (bool, error)
}

// Options configures the optional bot-facing routes. With no UpdateHandler
// the webhook and admin routes are not registered.
type Options struct {
	PublicURL     string
	WebhookPath   string
	WebhookSecret string
	AdminSecret   []byte
	UpdateTimeout time.Duration
}

type Handler struct {
	retriever Retriever
	bot       UpdateHandler
	admin     BotAdmin
	opts      Options
	logger    logging.Logger

	inflight sync.WaitGroup
}

func NewHandler(retriever Retriever, bot UpdateHandler, admin BotAdmin, opts Options, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop{}
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = defaultUpdateTimeout
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &Handler{
		retriever: retriever,
		bot:       bot,
		admin:     admin,
		opts:      opts,
		logger:    logger.With("module", "http_api"),
	}
}

// Routes returns the complete request pipeline.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	if h.bot != nil && h.opts.WebhookPath != "" {
		mux.HandleFunc(h.opts.WebhookPath, h.webhook)
	}
	if h.admin != nil {
		mux.Handle("/registerWebhook", h.requireAdmin(h.registerWebhook))
		mux.Handle("/unregisterWebhook", h.requireAdmin(h.unregisterWebhook))
		mux.Handle("/getMe", h.requireAdmin(h.getMe))
	}
	mux.HandleFunc("/", h.file)

	return withLogging(h.logger, withMethods(mux))
}

// Wait blocks until every update accepted by the webhook has been handled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("file")
	if token == "" {
		writeError(w, http.StatusNotFound, http.StatusNotFound, descMissingFile)
		return
	}

	d, err := h.retriever.Retrieve(r.Context(), services.RetrievalRequest{
		Token:          token,
		Mode:           q.Get("mode"),
		ClientIdentity: ratelimit.ClientIdentity(r),
	})
	if err != nil {
		if errors.Is(err, common.ErrBackendFailure) {
			h.logger.Error(r.Context(), "retrieval failed", "error", err)
		}
		writeRetrievalError(w, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Disposition", d.Disposition)
	hdr.Set("Content-Length", strconv.FormatInt(d.Size, 10))
	hdr.Set("Content-Type", d.MimeType)
	hdr.Set("Cache-Control", "public, max-age=86400")
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	hdr.Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(d.Body); err != nil {
		h.logger.Warn(r.Context(), "response write failed", "error", err)
	}
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(common.WebhookSecretHeader)
	if h.opts.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.WebhookSecret)) != 1 {
		http.Error(w, descUnauthorized, http.StatusForbidden)
		return
	}

	var u telegram.Update
	if err := netx.DecodeJSON(http.MaxBytesReader(w, r.Body, maxUpdateSize), &u); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.opts.UpdateTimeout)
		defer cancel()
		err := h.bot.HandleUpdate(ctx, u)
		switch {
		case err == nil:
		case telegram.IsTooManyRequests(err):
			h.logger.Warn(ctx, "bot api flood control", "update_id", u.UpdateID, "error", err)
		default:
			h.logger.Error(ctx, "update handling failed", "update_id", u.UpdateID, "error", err)
		}
	}()

	_, _ = w.Write([]byte("Ok"))
}

func bearerToken(r *http.Request) string {
	v := r.Header.Get(common.AuthorizationHeader)
	scheme, token, ok := strings.Cut(v, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *Handler) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, http.StatusUnauthorized, descUnauthorized)
			return
		}
		if _, err := auth.GetSubjectFromToken(token, h.opts.AdminSecret); err != nil {
			writeError(w, http.StatusUnauthorized, http.StatusUnauthorized, descUnauthorized)
			return
		}
		next(w, r)
	})
}

func (h *Handler) writeBotError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "bot api call failed", "error", err)

	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) && apiErr.Description != "" {
		writeError(w, http.StatusInternalServerError, http.StatusInternalServerError, apiErr.Description)
		return
	}
	writeError(w, http.StatusInternalServerError, http.StatusInternalServerError, descInternal)
}

func (h *Handler) registerWebhook(w http.ResponseWriter, r *http.Request) {
	ok, err := h.admin.SetWebhook(r.Context(), h.opts.PublicURL+h.opts.WebhookPath, h.opts.WebhookSecret)
	if err != nil {
		h.writeBotError(w, r, err)
		return
	}
	writeResult(w, ok)
}

func (h *Handler) unregisterWebhook(w http.ResponseWriter, r *http.Request) {
	ok, err := h.admin.SetWebhook(r.Context(), "", "")
	if err != nil {
		h.writeBotError(w, r, err)
		return
	}
	writeResult(w, ok)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.admin.GetMe(r.Context())
	if err != nil {
		h.writeBotError(w, r, err)
		return
	}
	writeResult(w, me)
}
