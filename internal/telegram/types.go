package telegram

// response is the envelope of every bot API reply.
type response[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// Media is the shared shape of document, audio and video attachments.
type Media struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// PhotoSize is one resolution of a photo. Messages list them smallest first.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type Message struct {
	MessageID int64       `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	ViaBot    *User       `json:"via_bot,omitempty"`
	Text      string      `json:"text,omitempty"`
	Caption   string      `json:"caption,omitempty"`
	Document  *Media      `json:"document,omitempty"`
	Audio     *Media      `json:"audio,omitempty"`
	Video     *Media      `json:"video,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
}

type InlineQuery struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
}

type Update struct {
	UpdateID    int64        `json:"update_id"`
	Message     *Message     `json:"message,omitempty"`
	InlineQuery *InlineQuery `json:"inline_query,omitempty"`
}

// File is the getFile result. FilePath is valid for at least one hour.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

type InlineKeyboardButton struct {
	Text                         string `json:"text"`
	URL                          string `json:"url,omitempty"`
	SwitchInlineQuery            string `json:"switch_inline_query,omitempty"`
	SwitchInlineQueryCurrentChat string `json:"switch_inline_query_current_chat,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InputTextMessageContent struct {
	MessageText string `json:"message_text"`
	ParseMode   string `json:"parse_mode,omitempty"`
}

// InlineQueryResult covers the article, cached document and cached photo
// result types.
type InlineQueryResult struct {
	Type                string                   `json:"type"`
	ID                  string                   `json:"id"`
	Title               string                   `json:"title,omitempty"`
	Description         string                   `json:"description,omitempty"`
	ThumbnailURL        string                   `json:"thumbnail_url,omitempty"`
	DocumentFileID      string                   `json:"document_file_id,omitempty"`
	PhotoFileID         string                   `json:"photo_file_id,omitempty"`
	MimeType            string                   `json:"mime_type,omitempty"`
	InputMessageContent *InputTextMessageContent `json:"input_message_content,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup    `json:"reply_markup,omitempty"`
}

// AttachmentKind tags the populated branch of a message's file payload.
type AttachmentKind int

const (
	AttachmentNone AttachmentKind = iota
	AttachmentDocument
	AttachmentAudio
	AttachmentVideo
	AttachmentPhoto
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentDocument:
		return "document"
	case AttachmentAudio:
		return "audio"
	case AttachmentVideo:
		return "video"
	case AttachmentPhoto:
		return "photo"
	default:
		return "none"
	}
}

// Attachment is the file payload of a message. Media is set for document,
// audio and video; Photos for photo; neither for none.
type Attachment struct {
	Kind   AttachmentKind
	Media  *Media
	Photos []PhotoSize
}

// Attachment reports which file payload m carries. The bot API populates at
// most one; if several are present, document wins over audio, video and photo.
func (m *Message) Attachment() Attachment {
	switch {
	case m == nil:
		return Attachment{Kind: AttachmentNone}
	case m.Document != nil:
		return Attachment{Kind: AttachmentDocument, Media: m.Document}
	case m.Audio != nil:
		return Attachment{Kind: AttachmentAudio, Media: m.Audio}
	case m.Video != nil:
		return Attachment{Kind: AttachmentVideo, Media: m.Video}
	case len(m.Photo) > 0:
		return Attachment{Kind: AttachmentPhoto, Photos: m.Photo}
	default:
		return Attachment{Kind: AttachmentNone}
	}
}
