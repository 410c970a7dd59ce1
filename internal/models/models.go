package models

import "time"

// RoutingMapping ties an origin (group, topic) pair to one destination
// webhook URL. Mappings are created through the admin path and are read-only
// from the relay pipeline's perspective.
type RoutingMapping struct {
	ID             int64     `json:"id"`
	GroupID        int64     `json:"groupId"`
	TopicID        int32     `json:"topicId"`
	DestinationURL string    `json:"webhookUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SenderProfile is the cached identity of a message sender. At most one row
// exists per UserID; upserts are last-write-wins.
type SenderProfile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	DisplayName string    `json:"username"`
	AvatarFile  string    `json:"photoFilename"`
	AvatarURL   string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MessageLogEntry is one append-only audit record per processed, mapped
// message. Entries are never deduplicated by PlatformMessageID: a platform
// redelivery produces a second row.
type MessageLogEntry struct {
	ID                int64     `json:"id"`
	PlatformMessageID int64     `json:"telegramMessageId"`
	GroupID           int64     `json:"groupId"`
	TopicID           int32     `json:"topicId"`
	UserID            int64     `json:"userId"`
	DisplayName       string    `json:"username"`
	TextContent       *string   `json:"content,omitempty"`
	MediaCount        int       `json:"mediaCount"`
	ForwardedAt       time.Time `json:"forwardedAt"`
}
