package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filestream/internal/common"
)

// BlobSource is the backend side of a binary download: a locator is first
// exchanged for a short-lived handle, then the handle is fetched.
type BlobSource interface {
	ResolveLocator(ctx context.Context, locator string) (string, error)
	FetchBytes(ctx context.Context, handle string, limit int64) ([]byte, error)
}

// BinaryFetcher returns the full payload behind a locator.
type BinaryFetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// SourceFetcher runs the two BlobSource round trips once, without retries.
// Every failure wraps common.ErrBackendFailure.
type SourceFetcher struct {
	source  BlobSource
	maxSize int64
}

func NewSourceFetcher(source BlobSource, maxSize int64) *SourceFetcher {
	return &SourceFetcher{source: source, maxSize: maxSize}
}

func (f *SourceFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	handle, err := f.source.ResolveLocator(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve locator: %w", common.ErrBackendFailure, err)
	}

	data, err := f.source.FetchBytes(ctx, handle, f.maxSize)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch bytes: %w", common.ErrBackendFailure, err)
	}

	return data, nil
}
