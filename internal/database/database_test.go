package database

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"telecord/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return newWithDB(mockDB), mock
}

func TestGetRoutingMapping(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "group_id", "topic_id", "webhook_url", "created_at", "updated_at"}).
		AddRow(1, -100123, 7, "https://discord.com/api/webhooks/1/tok", now, now)

	mock.ExpectQuery("SELECT id, group_id, topic_id, webhook_url").
		WithArgs(int64(-100123), int32(7)).
		WillReturnRows(rows)

	mapping, err := db.GetRoutingMapping(ctx, -100123, 7)
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, int64(-100123), mapping.GroupID)
	assert.Equal(t, int32(7), mapping.TopicID)
	assert.Equal(t, "https://discord.com/api/webhooks/1/tok", mapping.DestinationURL)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoutingMapping_Absent(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, group_id, topic_id, webhook_url").
		WithArgs(int64(-100999), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "topic_id", "webhook_url", "created_at", "updated_at"}))

	// An unmapped origin is a valid outcome, not an error
	mapping, err := db.GetRoutingMapping(ctx, -100999, 0)
	require.NoError(t, err)
	assert.Nil(t, mapping)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoutingMappings(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "group_id", "topic_id", "webhook_url", "created_at", "updated_at"}).
		AddRow(1, -100123, 0, "https://discord.com/api/webhooks/1/a", now, now).
		AddRow(2, -100123, 7, "https://discord.com/api/webhooks/2/b", now, now)

	mock.ExpectQuery("SELECT id, group_id, topic_id, webhook_url").WillReturnRows(rows)

	mappings, err := db.ListRoutingMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, int32(7), mappings[1].TopicID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRoutingMapping(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO webhook_mappings").
		WithArgs(int64(-100123), int32(7), "https://discord.com/api/webhooks/1/tok").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.UpsertRoutingMapping(ctx, &models.RoutingMapping{
		GroupID:        -100123,
		TopicID:        7,
		DestinationURL: "https://discord.com/api/webhooks/1/tok",
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRoutingMapping_RetriesTransientError(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO webhook_mappings").
		WithArgs(int64(-55), int32(0), "https://discord.com/api/webhooks/1/tok").
		WillReturnError(driver.ErrBadConn)
	mock.ExpectExec("INSERT INTO webhook_mappings").
		WithArgs(int64(-55), int32(0), "https://discord.com/api/webhooks/1/tok").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.UpsertRoutingMapping(ctx, &models.RoutingMapping{
		GroupID:        -55,
		DestinationURL: "https://discord.com/api/webhooks/1/tok",
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSenderProfile_Absent(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, user_id, username, photo_filename, photo_url").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username", "photo_filename", "photo_url", "created_at", "updated_at"}))

	profile, err := db.GetSenderProfile(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, profile)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAndGetSenderProfile(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO profile_photos").
		WithArgs(int64(42), "alice", "alice.jpg", "http://localhost:1909/ava/alice.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.UpsertSenderProfile(ctx, &models.SenderProfile{
		UserID:      42,
		DisplayName: "alice",
		AvatarFile:  "alice.jpg",
		AvatarURL:   "http://localhost:1909/ava/alice.jpg",
	})
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "username", "photo_filename", "photo_url", "created_at", "updated_at"}).
		AddRow(1, 42, "alice", "alice.jpg", "http://localhost:1909/ava/alice.jpg", now, now)

	mock.ExpectQuery("SELECT id, user_id, username, photo_filename, photo_url").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	profile, err := db.GetSenderProfile(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "alice", profile.DisplayName)
	assert.Equal(t, "alice.jpg", profile.AvatarFile)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageLog(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	text := "hello"
	forwardedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO message_logs").
		WithArgs(int64(42), int64(-100123), int32(7), int64(777), "alice", "hello", 0, forwardedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.AppendMessageLog(ctx, &models.MessageLogEntry{
		PlatformMessageID: 42,
		GroupID:           -100123,
		TopicID:           7,
		UserID:            777,
		DisplayName:       "alice",
		TextContent:       &text,
		ForwardedAt:       forwardedAt,
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageLog_NullContent(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO message_logs").
		WithArgs(int64(42), int64(-100123), int32(0), int64(777), "alice", nil, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := db.AppendMessageLog(ctx, &models.MessageLogEntry{
		PlatformMessageID: 42,
		GroupID:           -100123,
		UserID:            777,
		DisplayName:       "alice",
		MediaCount:        2,
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryableDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"context canceled", context.Canceled, false},
		{"deadlock", assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableDBError(tt.err))
		})
	}
}
