package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/dmitrijs2005/filestream/internal/logging"
	"github.com/dmitrijs2005/filestream/internal/server/models"
)

// Mode is how the client wants the file presented.
type Mode string

const (
	ModeAttachment Mode = "attachment"
	ModeInline     Mode = "inline"
)

// ParseMode maps the raw query value to a Mode. An empty value means
// attachment.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeAttachment:
		return ModeAttachment, nil
	case ModeInline:
		return ModeInline, nil
	default:
		return "", common.ErrInvalidMode
	}
}

// Admitter decides whether a client may start another retrieval.
type Admitter interface {
	Allow(ctx context.Context, identity string) bool
}

// IDDecoder turns a public token back into an object id.
type IDDecoder interface {
	DecodeID(token string) (int64, error)
}

type RetrievalRequest struct {
	Token          string
	Mode           string
	ClientIdentity string
}

// Retriever serves one download request: mode check, admission, token
// decode, metadata resolution, binary fetch. Each stage runs only when the
// previous one succeeded.
type Retriever struct {
	governor Admitter
	codec    IDDecoder
	resolver MetadataResolver
	fetcher  BinaryFetcher
	timeout  time.Duration
	logger   logging.Logger
}

func NewRetriever(governor Admitter, codec IDDecoder, resolver MetadataResolver, fetcher BinaryFetcher, timeout time.Duration, logger logging.Logger) *Retriever {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Retriever{
		governor: governor,
		codec:    codec,
		resolver: resolver,
		fetcher:  fetcher,
		timeout:  timeout,
		logger:   logger.With("module", "retrieval"),
	}
}

// Retrieve returns the file behind req.Token. Errors match one of
// common.ErrInvalidMode, common.ErrRateLimited, common.ErrInvalidToken,
// common.ErrUnsupportedObject (as *ResolveError) or common.ErrBackendFailure.
func (r *Retriever) Retrieve(ctx context.Context, req RetrievalRequest) (*models.Download, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	if !r.governor.Allow(ctx, req.ClientIdentity) {
		r.logger.Info(ctx, "retrieval rejected", "client", req.ClientIdentity, "reason", "rate limited")
		return nil, common.ErrRateLimited
	}

	id, err := r.codec.DecodeID(req.Token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	desc, err := r.resolver.Resolve(ctx, id)
	if err != nil {
		r.logger.Warn(ctx, "metadata resolution failed", "message_id", id, "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBackendFailure, err)
	}

	body, err := r.fetcher.Fetch(ctx, desc.Locator)
	if err != nil {
		r.logger.Warn(ctx, "binary fetch failed", "message_id", id, "error", err)
		return nil, err
	}

	size := int64(len(body))
	if desc.Size > 0 && desc.Size != size {
		r.logger.Warn(ctx, "fetched size differs from metadata", "message_id", id, "expected", desc.Size, "actual", size)
	}

	mimeType := desc.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	r.logger.Debug(ctx, "file served", "message_id", id, "mode", mode, "size", size)

	return &models.Download{
		Body:        body,
		FileName:    SanitizeFilename(desc.Name),
		MimeType:    mimeType,
		Size:        size,
		Disposition: ContentDisposition(mode, desc.Name),
	}, nil
}
