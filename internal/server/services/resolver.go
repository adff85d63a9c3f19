package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/dmitrijs2005/filestream/internal/server/models"
	"github.com/dmitrijs2005/filestream/internal/telegram"
	"github.com/google/uuid"
)

// MetadataResolver looks up the metadata of one stored object.
//
// Failures are either a *ResolveError (the backend answered, but there is
// nothing servable) or an error wrapping common.ErrBackendFailure.
type MetadataResolver interface {
	Resolve(ctx context.Context, objectID int64) (*models.FileDescriptor, error)
}

// ResolveError reports an object the backend could not describe. Code is the
// backend's own status when it gave one.
type ResolveError struct {
	Code        int
	Description string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve: %d %s", e.Code, e.Description)
}

// Is makes every ResolveError match common.ErrUnsupportedObject.
func (e *ResolveError) Is(target error) bool {
	return target == common.ErrUnsupportedObject
}

// unsupportedPayload is returned when a message carries no servable file.
func unsupportedPayload() *ResolveError {
	return &ResolveError{Code: http.StatusNotAcceptable, Description: "Not Acceptable: File type invalid"}
}

// CaptionEditor is the single bot API call the caption resolver needs.
type CaptionEditor interface {
	EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string) (*telegram.Message, error)
}

// CaptionResolver reads message metadata through the bot API, which has no
// read-by-id call: it overwrites the caption with a throwaway value and
// inspects the edited message that comes back.
type CaptionResolver struct {
	editor      CaptionEditor
	channelID   int64
	correlation func() string
}

func NewCaptionResolver(editor CaptionEditor, channelID int64) *CaptionResolver {
	return &CaptionResolver{editor: editor, channelID: channelID, correlation: uuid.NewString}
}

func (r *CaptionResolver) Resolve(ctx context.Context, objectID int64) (*models.FileDescriptor, error) {
	msg, err := r.editor.EditMessageCaption(ctx, r.channelID, objectID, r.correlation())
	if err != nil {
		return nil, backendResolveError(err)
	}
	return Describe(msg)
}

// backendResolveError keeps API replies as ResolveError and turns transport
// trouble (including deadlines) into ErrBackendFailure.
func backendResolveError(err error) error {
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if code == 0 {
			code = http.StatusNotFound
		}
		return &ResolveError{Code: code, Description: apiErr.Description}
	}
	if errors.Is(err, telegram.ErrEmptyResult) {
		return unsupportedPayload()
	}
	return fmt.Errorf("%w: %w", common.ErrBackendFailure, err)
}

// Describe normalizes the file payload of msg. Document, audio and video are
// used as is; for photos the last (largest) size is taken and given a
// synthetic JPEG name.
func Describe(msg *telegram.Message) (*models.FileDescriptor, error) {
	att := msg.Attachment()

	switch att.Kind {
	case telegram.AttachmentDocument, telegram.AttachmentAudio, telegram.AttachmentVideo:
		return &models.FileDescriptor{
			Locator:  att.Media.FileID,
			Name:     att.Media.FileName,
			MimeType: att.Media.MimeType,
			Size:     att.Media.FileSize,
		}, nil
	case telegram.AttachmentPhoto:
		largest := att.Photos[len(att.Photos)-1]
		return &models.FileDescriptor{
			Locator:  largest.FileID,
			Name:     largest.FileUniqueID + ".jpg",
			MimeType: "image/jpeg",
			Size:     largest.FileSize,
			Photo:    true,
		}, nil
	case telegram.AttachmentNone:
		return nil, unsupportedPayload()
	default:
		return nil, unsupportedPayload()
	}
}
