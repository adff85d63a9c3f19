package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/dmitrijs2005/filestream/internal/logging"
	"github.com/dmitrijs2005/filestream/internal/server/models"
	"github.com/dmitrijs2005/filestream/internal/telegram"
)

const (
	startCommand = "/start "

	msgForbidden   = "*Access forbidden.*\nThis bot only serves its owner."
	msgUsage       = "Send me a document, audio, video or photo and I will reply with links to it."
	msgStoreFailed = "*Error:* failed to store the file."
	msgBadLink     = "Invalid file hash. The file may have expired or been deleted."
	msgNoFile      = "Bad Request: File not found"
	msgUnavailable = "*Error:* the file service is temporarily unavailable. Please try again later."
)

// BotAPI is the part of the bot API client the update processor uses.
type BotAPI interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	SendMessage(ctx context.Context, chatID, replyTo int64, text string, keyboard [][]telegram.InlineKeyboardButton) (*telegram.Message, error)
	SendDocument(ctx context.Context, chatID int64, fileID string) (*telegram.Message, error)
	SendPhoto(ctx context.Context, chatID int64, fileID string) (*telegram.Message, error)
	AnswerInlineQuery(ctx context.Context, queryID string, results []telegram.InlineQueryResult) (bool, error)
}

// IDCodec encodes object ids into link tokens and back.
type IDCodec interface {
	IDDecoder
	EncodeID(id int64) (string, error)
}

type BotConfig struct {
	PublicURL string
	Owner     int64
	Channel   int64
	Public    bool
}

// BotService reacts to webhook updates: it stores uploaded media in the
// channel and answers with links, serves /start deep links and answers
// inline queries.
type BotService struct {
	api      BotAPI
	codec    IDCodec
	resolver MetadataResolver
	cfg      BotConfig
	logger   logging.Logger

	mu       sync.Mutex
	username string
}

func NewBotService(api BotAPI, codec IDCodec, resolver MetadataResolver, cfg BotConfig, logger logging.Logger) *BotService {
	if logger == nil {
		logger = logging.Nop{}
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &BotService{
		api:      api,
		codec:    codec,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger.With("module", "bot"),
	}
}

// HandleUpdate processes one webhook update. Inline queries are handled
// before messages when an update carries both.
func (s *BotService) HandleUpdate(ctx context.Context, u telegram.Update) error {
	var errs []error
	if u.InlineQuery != nil {
		errs = append(errs, s.handleInlineQuery(ctx, u.InlineQuery))
	}
	if u.Message != nil {
		errs = append(errs, s.handleMessage(ctx, u.Message))
	}
	return errors.Join(errs...)
}

func (s *BotService) botUsername(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.username != "" {
		return s.username, nil
	}
	me, err := s.api.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("get bot info: %w", err)
	}
	if me == nil {
		return "", fmt.Errorf("get bot info: %w", telegram.ErrEmptyResult)
	}
	s.username = me.Username
	return s.username, nil
}

func (s *BotService) allowed(userID int64) bool {
	return s.cfg.Public || userID == s.cfg.Owner
}

func isChannel(chatID int64) bool {
	return strings.HasPrefix(strconv.FormatInt(chatID, 10), "-100")
}

func (s *BotService) handleMessage(ctx context.Context, msg *telegram.Message) error {
	username, err := s.botUsername(ctx)
	if err != nil {
		return err
	}

	if msg.ViaBot != nil && msg.ViaBot.Username == username {
		return nil
	}
	if isChannel(msg.Chat.ID) {
		return nil
	}

	if strings.HasPrefix(msg.Text, startCommand) {
		return s.handleStart(ctx, msg, strings.TrimSpace(strings.TrimPrefix(msg.Text, startCommand)))
	}

	if !s.allowed(msg.Chat.ID) {
		s.logger.Info(ctx, "message from non-owner rejected", "chat_id", msg.Chat.ID)
		return s.reply(ctx, msg, msgForbidden, nil)
	}

	return s.storeMedia(ctx, msg, username)
}

// storeMedia copies the attachment of msg into the channel and replies with
// links to the copy.
func (s *BotService) storeMedia(ctx context.Context, msg *telegram.Message, username string) error {
	var (
		saved *telegram.Message
		name  string
		err   error
	)

	att := msg.Attachment()
	switch att.Kind {
	case telegram.AttachmentDocument, telegram.AttachmentAudio, telegram.AttachmentVideo:
		name = att.Media.FileName
		saved, err = s.api.SendDocument(ctx, s.cfg.Channel, att.Media.FileID)
	case telegram.AttachmentPhoto:
		largest := att.Photos[len(att.Photos)-1]
		name = largest.FileUniqueID + ".jpg"
		saved, err = s.api.SendPhoto(ctx, s.cfg.Channel, largest.FileID)
	case telegram.AttachmentNone:
		return s.reply(ctx, msg, msgUsage, nil)
	}

	if err != nil {
		s.logger.Error(ctx, "failed to copy file to channel", "chat_id", msg.Chat.ID, "error", err)
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return errors.Join(err, s.reply(ctx, msg, apiErr.Description, nil))
		}
		return errors.Join(err, s.reply(ctx, msg, msgStoreFailed, nil))
	}
	if saved == nil {
		err := fmt.Errorf("copy file to channel: %w", telegram.ErrEmptyResult)
		s.logger.Error(ctx, "failed to copy file to channel", "chat_id", msg.Chat.ID, "error", err)
		return errors.Join(err, s.reply(ctx, msg, msgStoreFailed, nil))
	}

	token, err := s.codec.EncodeID(saved.MessageID)
	if err != nil {
		return errors.Join(err, s.reply(ctx, msg, msgStoreFailed, nil))
	}

	s.logger.Info(ctx, "file stored", "chat_id", msg.Chat.ID, "message_id", saved.MessageID, "kind", att.Kind)

	text := fmt.Sprintf("*File Name:* `%s`\n*File Hash:* `%s`", name, token)
	return s.reply(ctx, msg, text, s.linkButtons(token, username))
}

func (s *BotService) linkButtons(token, username string) [][]telegram.InlineKeyboardButton {
	download := s.cfg.PublicURL + "/?file=" + token
	return [][]telegram.InlineKeyboardButton{
		{
			{Text: "Telegram Link", URL: "https://t.me/" + username + "?start=" + token},
			{Text: "Inline Link", SwitchInlineQuery: token},
		},
		{
			{Text: "Stream Link", URL: download + "&mode=" + string(ModeInline)},
			{Text: "Download Link", URL: download},
		},
	}
}

// handleStart sends the file behind a deep link token back to the chat.
func (s *BotService) handleStart(ctx context.Context, msg *telegram.Message, token string) error {
	desc, err := s.resolveToken(ctx, token)
	if err != nil {
		var resolveErr *ResolveError
		switch {
		case errors.Is(err, common.ErrInvalidToken):
			return s.reply(ctx, msg, msgBadLink, nil)
		case errors.As(err, &resolveErr) && resolveErr.Code == http.StatusNotAcceptable:
			return s.reply(ctx, msg, msgNoFile, nil)
		case errors.As(err, &resolveErr):
			return s.reply(ctx, msg, "*Error:* "+resolveErr.Description, nil)
		default:
			s.logger.Error(ctx, "deep link resolution failed", "chat_id", msg.Chat.ID, "error", err)
			return errors.Join(err, s.reply(ctx, msg, msgUnavailable, nil))
		}
	}

	if desc.Photo {
		_, err = s.api.SendPhoto(ctx, msg.Chat.ID, desc.Locator)
	} else {
		_, err = s.api.SendDocument(ctx, msg.Chat.ID, desc.Locator)
	}
	return err
}

func (s *BotService) resolveToken(ctx context.Context, token string) (*models.FileDescriptor, error) {
	id, err := s.codec.DecodeID(token)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, id)
}

func (s *BotService) handleInlineQuery(ctx context.Context, q *telegram.InlineQuery) error {
	if !s.allowed(q.From.ID) {
		return s.answerArticle(ctx, q.ID, "Access forbidden", "This bot only serves its owner.", msgForbidden)
	}

	query := strings.TrimSpace(q.Query)
	if query == "" {
		return s.answerArticle(ctx, q.ID, "Error", "Invalid file hash or unsupported file type",
			"The file hash is invalid or the file type is not supported.")
	}

	desc, err := s.resolveToken(ctx, query)
	if err != nil {
		var resolveErr *ResolveError
		switch {
		case errors.Is(err, common.ErrInvalidToken),
			errors.As(err, &resolveErr) && resolveErr.Code == http.StatusNotAcceptable:
			return s.answerArticle(ctx, q.ID, "Error", "Invalid file hash or unsupported file type",
				"The file hash is invalid or the file type is not supported.")
		case errors.As(err, &resolveErr):
			return s.answerArticle(ctx, q.ID, "Error", resolveErr.Description, resolveErr.Description)
		default:
			s.logger.Error(ctx, "inline query resolution failed", "user_id", q.From.ID, "error", err)
			return errors.Join(err, s.answerArticle(ctx, q.ID, "Temporarily unavailable",
				"The file service is temporarily unavailable.", msgUnavailable))
		}
	}

	again := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "Send Again", SwitchInlineQueryCurrentChat: q.Query}},
	}}

	result := telegram.InlineQueryResult{ID: "1", ReplyMarkup: again}
	if desc.Photo {
		result.Type = "photo"
		result.Title = orDefault(desc.Name, "Photo")
		result.PhotoFileID = desc.Locator
	} else {
		result.Type = "document"
		result.Title = orDefault(desc.Name, "File")
		result.DocumentFileID = desc.Locator
		result.MimeType = desc.MimeType
		result.Description = desc.MimeType
	}

	_, err = s.api.AnswerInlineQuery(ctx, q.ID, []telegram.InlineQueryResult{result})
	return err
}

func (s *BotService) answerArticle(ctx context.Context, queryID, title, description, text string) error {
	_, err := s.api.AnswerInlineQuery(ctx, queryID, []telegram.InlineQueryResult{{
		Type:        "article",
		ID:          "1",
		Title:       title,
		Description: description,
		InputMessageContent: &telegram.InputTextMessageContent{
			MessageText: text,
			ParseMode:   "markdown",
		},
	}})
	return err
}

func (s *BotService) reply(ctx context.Context, msg *telegram.Message, text string, keyboard [][]telegram.InlineKeyboardButton) error {
	_, err := s.api.SendMessage(ctx, msg.Chat.ID, msg.MessageID, text, keyboard)
	return err
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
