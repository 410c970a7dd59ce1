package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"telecord/internal/errors"
	"telecord/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Downloader fetches one attachment to a local path. Implemented by the
// Telegram connector.
type Downloader interface {
	DownloadMedia(ctx context.Context, ref models.MediaRef, path string) error
}

// Stager owns the local media directories: a transient staging area for
// attachments being forwarded, and the avatars directory served by the HTTP
// front-end. Staged files live exactly as long as one forward attempt; the
// forwarder deletes them on every exit path.
type Stager struct {
	stagingDir string
	avatarDir  string
	downloader Downloader
	logger     *logrus.Logger
}

// NewStager creates the staging and avatar directories under mediaDir.
func NewStager(mediaDir string, downloader Downloader, logger *logrus.Logger) (*Stager, error) {
	stagingDir := filepath.Join(mediaDir, "temp")
	avatarDir := filepath.Join(mediaDir, "avatars")

	for _, dir := range []string{stagingDir, avatarDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
		}
	}

	return &Stager{
		stagingDir: stagingDir,
		avatarDir:  avatarDir,
		downloader: downloader,
		logger:     logger,
	}, nil
}

// AvatarDir returns the directory avatars are materialized into.
func (s *Stager) AvatarDir() string {
	return s.avatarDir
}

// AvatarPath returns the on-disk path for an avatar filename.
func (s *Stager) AvatarPath(filename string) string {
	return filepath.Join(s.avatarDir, filename)
}

// Materialize downloads a message's attachments into the staging area and
// returns paths for the files confirmed written to disk. A message with no
// media returns an empty list with no I/O. Per-attachment failures are
// recoverable: the forward proceeds with fewer attachments.
func (s *Stager) Materialize(ctx context.Context, msg *models.InboundMessage) []string {
	if !msg.HasMedia() {
		return nil
	}

	var files []string
	for _, ref := range msg.Media {
		path := filepath.Join(s.stagingDir, stagedFilename(ref))

		if err := s.downloader.DownloadMedia(ctx, ref, path); err != nil {
			errors.LogWarn(s.logger, errors.NewMediaError(string(ref.Kind), err),
				"Failed to download media attachment", logrus.Fields{
					"message_id": msg.PlatformMessageID,
					"group_id":   msg.GroupID,
				})
			continue
		}

		if _, err := os.Stat(path); err != nil {
			s.logger.WithError(err).WithField("file_path", path).Warn("Downloaded media file missing on disk")
			continue
		}

		files = append(files, path)
	}

	return files
}

// SweepOrphans removes staged files older than maxAge. Staged files are
// normally deleted by the forwarder; the sweep only catches leftovers from
// runs abandoned mid-flight (crash, shutdown).
func (s *Stager) SweepOrphans(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.stagingDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.stagingDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.WithError(err).WithField("file_path", path).Warn("Failed to remove orphaned staged file")
			continue
		}
		removed++
	}

	return removed, nil
}

// stagedFilename builds a collision-resistant name: concurrent pipeline runs
// share the staging directory.
func stagedFilename(ref models.MediaRef) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("media_%d_%s%s", time.Now().UnixNano(), suffix, ref.Ext)
}
