package service

import (
	"context"
	"time"

	"telecord/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRoutingStore struct {
	mock.Mock
}

func (m *mockRoutingStore) GetRoutingMapping(ctx context.Context, groupID int64, topicID int32) (*models.RoutingMapping, error) {
	args := m.Called(ctx, groupID, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoutingMapping), args.Error(1)
}

func (m *mockRoutingStore) AppendMessageLog(ctx context.Context, entry *models.MessageLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) GetSenderProfile(ctx context.Context, userID int64) (*models.SenderProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SenderProfile), args.Error(1)
}

func (m *mockProfileStore) UpsertSenderProfile(ctx context.Context, profile *models.SenderProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

type mockProfileResolver struct {
	mock.Mock
}

func (m *mockProfileResolver) Resolve(ctx context.Context, sender models.Sender) (string, string) {
	args := m.Called(ctx, sender)
	return args.String(0), args.String(1)
}

type mockMediaStager struct {
	mock.Mock
}

func (m *mockMediaStager) Materialize(ctx context.Context, msg *models.InboundMessage) []string {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

type mockForwarder struct {
	mock.Mock
}

func (m *mockForwarder) Forward(ctx context.Context, webhookURL, displayName, avatarURL string, msg *models.InboundMessage, files []string) error {
	args := m.Called(ctx, webhookURL, displayName, avatarURL, msg, files)
	return args.Error(0)
}

type mockAvatarDownloader struct {
	mock.Mock
}

func (m *mockAvatarDownloader) DownloadAvatar(ctx context.Context, ref models.AvatarRef, path string) error {
	args := m.Called(ctx, ref, path)
	return args.Error(0)
}

type mockAvatarStore struct {
	mock.Mock
}

func (m *mockAvatarStore) AvatarPath(filename string) string {
	args := m.Called(filename)
	return args.String(0)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) SweepOrphans(maxAge time.Duration) (int, error) {
	args := m.Called(maxAge)
	return args.Int(0), args.Error(1)
}
