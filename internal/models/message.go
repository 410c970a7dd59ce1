package models

// MessageKind tags the content variant of an inbound message, so downstream
// branching is exhaustive instead of inferred from field presence.
type MessageKind string

const (
	MessageKindEmpty MessageKind = "empty"
	MessageKindText  MessageKind = "text"
	MessageKindMedia MessageKind = "media"
)

// MediaKind identifies which Telegram file-location type a MediaRef addresses.
type MediaKind string

const (
	MediaKindPhoto    MediaKind = "photo"
	MediaKindDocument MediaKind = "document"
)

// MediaRef holds everything needed to download one attachment later in the
// pipeline without going back to the raw update.
type MediaRef struct {
	Kind          MediaKind
	ID            int64
	AccessHash    int64
	FileReference []byte
	// ThumbType selects the size variant for photo locations; empty for documents.
	ThumbType string
	// Ext is the suggested file extension including the dot, e.g. ".jpg".
	Ext string
}

// AvatarRef points at a sender's current profile photo.
type AvatarRef struct {
	UserID     int64
	AccessHash int64
	PhotoID    int64
}

// Sender carries the identity attributes observed on the inbound event.
// Username and FirstName feed the display-name fallback chain; Avatar is nil
// when the sender has no resolvable profile photo.
type Sender struct {
	ID        int64
	Username  string
	FirstName string
	Avatar    *AvatarRef
}

// InboundMessage is the pipeline's canonical shape for one platform event.
// GroupID uses the Bot-API convention: negative values denote group/channel
// spaces, positive values direct chats. TopicID 0 means "no sub-thread".
type InboundMessage struct {
	PlatformMessageID int64
	GroupID           int64
	TopicID           int32
	Sender            Sender
	Kind              MessageKind
	Text              string
	Media             []MediaRef
}

// HasText reports whether the message carries user-supplied text. Media
// messages may carry text as a caption.
func (m *InboundMessage) HasText() bool {
	return m.Text != ""
}

// HasMedia reports whether the message carries at least one attachment.
func (m *InboundMessage) HasMedia() bool {
	return m.Kind == MessageKindMedia && len(m.Media) > 0
}
