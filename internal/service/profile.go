package service

import (
	"context"
	"fmt"
	"strings"

	"telecord/internal/errors"
	"telecord/internal/models"
	"telecord/internal/security"

	"github.com/sirupsen/logrus"
)

// ProfileResolver resolves the display name and public avatar URL used to
// impersonate the original sender at the destination.
type ProfileResolver interface {
	Resolve(ctx context.Context, sender models.Sender) (displayName, avatarURL string)
}

// ProfileStore defines the persistence operations needed by ProfileService.
type ProfileStore interface {
	GetSenderProfile(ctx context.Context, userID int64) (*models.SenderProfile, error)
	UpsertSenderProfile(ctx context.Context, profile *models.SenderProfile) error
}

// AvatarDownloader fetches a sender's profile photo to a local path.
// Implemented by the Telegram connector.
type AvatarDownloader interface {
	DownloadAvatar(ctx context.Context, ref models.AvatarRef, path string) error
}

// AvatarStore maps avatar filenames to their on-disk location.
type AvatarStore interface {
	AvatarPath(filename string) string
}

// ProfileService caches sender identity in the database and materializes
// avatar files into the directory served by the HTTP front-end. Every
// failure here is recoverable: the worst outcome is a forward with a stale
// name or no avatar.
type ProfileService struct {
	db            ProfileStore
	downloader    AvatarDownloader
	avatars       AvatarStore
	avatarBaseURL string
	logger        *logrus.Logger
}

func NewProfileService(db ProfileStore, downloader AvatarDownloader, avatars AvatarStore, avatarBaseURL string, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		db:            db,
		downloader:    downloader,
		avatars:       avatars,
		avatarBaseURL: avatarBaseURL,
		logger:        logger,
	}
}

// Resolve returns the display name and avatar URL for a sender, refreshing
// the cached profile when the name changed or no avatar has been
// materialized yet. An empty avatarURL means "forward without an avatar".
func (ps *ProfileService) Resolve(ctx context.Context, sender models.Sender) (string, string) {
	name := DisplayName(sender)

	cached, err := ps.db.GetSenderProfile(ctx, sender.ID)
	if err != nil {
		errors.LogWarn(ps.logger, errors.NewDatabaseError("get sender profile", err),
			"Failed to read cached sender profile", logrus.Fields{"user_id": sender.ID})
		cached = nil
	}

	if cached != nil && cached.DisplayName == name && (sender.Avatar == nil || cached.AvatarFile != "") {
		return cached.DisplayName, cached.AvatarURL
	}

	avatarFile := ""
	avatarURL := ""
	if sender.Avatar != nil {
		avatarFile = AvatarFilename(name)
		path := ps.avatars.AvatarPath(avatarFile)

		// Display names come straight from Telegram; a name containing path
		// separators must not pick where the avatar lands.
		if err := security.ValidateFilename(avatarFile); err != nil {
			errors.LogWarn(ps.logger, errors.NewAvatarError(sender.ID, err),
				"Refusing unsafe avatar filename", logrus.Fields{"user_id": sender.ID})
			avatarFile = ""
		} else if err := ps.downloader.DownloadAvatar(ctx, *sender.Avatar, path); err != nil {
			errors.LogWarn(ps.logger, errors.NewAvatarError(sender.ID, err),
				"Failed to download sender avatar", logrus.Fields{"user_id": sender.ID})
			avatarFile = ""
		} else {
			avatarURL = ps.avatarBaseURL + avatarFile
		}
	}

	// Keep the previously materialized avatar if the refresh produced none
	if avatarFile == "" && cached != nil {
		avatarFile = cached.AvatarFile
		avatarURL = cached.AvatarURL
	}

	// A profile row exists only once an avatar has been materialized; plain
	// name resolution never writes.
	if avatarFile != "" {
		profile := &models.SenderProfile{
			UserID:      sender.ID,
			DisplayName: name,
			AvatarFile:  avatarFile,
			AvatarURL:   avatarURL,
		}
		if err := ps.db.UpsertSenderProfile(ctx, profile); err != nil {
			errors.LogWarn(ps.logger, errors.NewDatabaseError("upsert sender profile", err),
				"Failed to persist sender profile", logrus.Fields{"user_id": sender.ID})
		}
	}

	return name, avatarURL
}

// DisplayName applies the identity fallback chain: username, then first
// name, then a synthesized placeholder from the numeric ID.
func DisplayName(sender models.Sender) string {
	if sender.Username != "" {
		return sender.Username
	}
	if sender.FirstName != "" {
		return sender.FirstName
	}
	return fmt.Sprintf("User%d", sender.ID)
}

// AvatarFilename derives the stable avatar filename for a display name:
// whitespace runs collapse to underscores, with a .jpg suffix.
func AvatarFilename(displayName string) string {
	return strings.Join(strings.Fields(displayName), "_") + ".jpg"
}
