package telegram

import (
	"mime"
	"path/filepath"

	"telecord/internal/models"

	"github.com/gotd/td/tg"
)

// channelIDOffset maps MTProto channel IDs into the conventional negative
// identifier space operators use when configuring routing mappings
// (-100xxxxxxxxxx for channels and supergroups).
const channelIDOffset = int64(1000000000000)

// Normalize converts one raw platform update into the pipeline's canonical
// InboundMessage. It returns false for events the pipeline never sees:
// messages sent by the bridged account itself, service messages, and peers
// with no usable identifier.
func Normalize(e tg.Entities, raw tg.MessageClass) (models.InboundMessage, bool) {
	msg, ok := raw.(*tg.Message)
	if !ok {
		return models.InboundMessage{}, false
	}
	if msg.Out {
		return models.InboundMessage{}, false
	}

	groupID, ok := normalizeGroupID(msg.PeerID)
	if !ok {
		return models.InboundMessage{}, false
	}

	out := models.InboundMessage{
		PlatformMessageID: int64(msg.ID),
		GroupID:           groupID,
		TopicID:           normalizeTopicID(msg),
		Kind:              models.MessageKindEmpty,
		Text:              msg.Message,
	}
	out.Sender = normalizeSender(e, senderID(msg))

	if media, ok := msg.GetMedia(); ok {
		if ref, ok := mediaRef(media); ok {
			out.Media = append(out.Media, ref)
			out.Kind = models.MessageKindMedia
		}
	}
	if out.Kind == models.MessageKindEmpty && out.Text != "" {
		out.Kind = models.MessageKindText
	}

	return out, true
}

// normalizeGroupID maps the origin peer to a signed chat identifier:
// channels and supergroups land below -1e12, basic groups are negated, and
// direct chats keep the positive user ID.
func normalizeGroupID(peer tg.PeerClass) (int64, bool) {
	switch p := peer.(type) {
	case *tg.PeerChannel:
		return -channelIDOffset - p.ChannelID, true
	case *tg.PeerChat:
		return -p.ChatID, true
	case *tg.PeerUser:
		return p.UserID, true
	default:
		return 0, false
	}
}

// normalizeTopicID extracts the forum sub-thread identifier; 0 means the
// message is not part of a topic.
func normalizeTopicID(msg *tg.Message) int32 {
	replyTo, ok := msg.GetReplyTo()
	if !ok {
		return 0
	}
	header, ok := replyTo.(*tg.MessageReplyHeader)
	if !ok {
		return 0
	}
	if topID, ok := header.GetReplyToTopID(); ok {
		return int32(topID)
	}
	return 0
}

func senderID(msg *tg.Message) int64 {
	if from, ok := msg.GetFromID(); ok {
		if u, ok := from.(*tg.PeerUser); ok {
			return u.UserID
		}
		// Anonymous channel or group senders carry no user identity
		return 0
	}
	if p, ok := msg.PeerID.(*tg.PeerUser); ok {
		return p.UserID
	}
	return 0
}

// normalizeSender fills identity attributes from the update's entity map.
// Missing entities are fine: the display-name fallback chain synthesizes a
// placeholder downstream.
func normalizeSender(e tg.Entities, id int64) models.Sender {
	sender := models.Sender{ID: id}

	user, ok := e.Users[id]
	if !ok {
		return sender
	}

	if username, ok := user.GetUsername(); ok {
		sender.Username = username
	}
	sender.FirstName = user.FirstName

	if photo, ok := user.GetPhoto(); ok {
		if p, ok := photo.(*tg.UserProfilePhoto); ok {
			accessHash, _ := user.GetAccessHash()
			sender.Avatar = &models.AvatarRef{
				UserID:     user.ID,
				AccessHash: accessHash,
				PhotoID:    p.PhotoID,
			}
		}
	}

	return sender
}

// mediaRef captures everything needed to download an attachment after the
// raw update is gone. Unsupported media classes (polls, geo, webpage
// previews) are relayed as text-only.
func mediaRef(media tg.MessageMediaClass) (models.MediaRef, bool) {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.GetPhoto()
		if !ok {
			return models.MediaRef{}, false
		}
		p, ok := photo.(*tg.Photo)
		if !ok {
			return models.MediaRef{}, false
		}
		return models.MediaRef{
			Kind:          models.MediaKindPhoto,
			ID:            p.ID,
			AccessHash:    p.AccessHash,
			FileReference: p.FileReference,
			ThumbType:     photoThumbType(p),
			Ext:           ".jpg",
		}, true

	case *tg.MessageMediaDocument:
		doc, ok := m.GetDocument()
		if !ok {
			return models.MediaRef{}, false
		}
		d, ok := doc.(*tg.Document)
		if !ok {
			return models.MediaRef{}, false
		}
		return models.MediaRef{
			Kind:          models.MediaKindDocument,
			ID:            d.ID,
			AccessHash:    d.AccessHash,
			FileReference: d.FileReference,
			Ext:           documentExt(d),
		}, true

	default:
		return models.MediaRef{}, false
	}
}

// photoThumbType picks the size variant to download. Size lists are ordered
// smallest to largest, so the last concrete size wins.
func photoThumbType(p *tg.Photo) string {
	thumb := ""
	for _, size := range p.Sizes {
		switch s := size.(type) {
		case *tg.PhotoSize:
			thumb = s.Type
		case *tg.PhotoSizeProgressive:
			thumb = s.Type
		}
	}
	if thumb == "" {
		thumb = "x"
	}
	return thumb
}

func documentExt(d *tg.Document) string {
	for _, attr := range d.Attributes {
		if fn, ok := attr.(*tg.DocumentAttributeFilename); ok {
			if ext := filepath.Ext(fn.FileName); ext != "" {
				return ext
			}
		}
	}
	if exts, err := mime.ExtensionsByType(d.MimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
