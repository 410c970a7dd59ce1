package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"telecord/internal/config"
	"telecord/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMappingStore struct {
	mock.Mock
}

func (m *mockMappingStore) ListRoutingMappings(ctx context.Context) ([]models.RoutingMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RoutingMapping), args.Error(1)
}

func (m *mockMappingStore) UpsertRoutingMapping(ctx context.Context, mapping *models.RoutingMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func newTestServer(t *testing.T) (*Server, *mockMappingStore, string) {
	t.Helper()

	db := &mockMappingStore{}
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	avatarDir := t.TempDir()
	cfg := config.ServerConfig{Host: "localhost", Port: 1909}

	return NewServer(cfg, db, avatarDir, logger), db, avatarDir
}

func TestHandleHealth(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAvatarServing(t *testing.T) {
	server, _, avatarDir := newTestServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(avatarDir, "alice.jpg"), []byte("jpegdata"), 0644))

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest("GET", "/ava/alice.jpg", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpegdata", rec.Body.String())
}

func TestAvatarServing_NotFound(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest("GET", "/ava/missing.jpg", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListMappings(t *testing.T) {
	server, db, _ := newTestServer(t)

	db.On("ListRoutingMappings", mock.Anything).Return([]models.RoutingMapping{
		{ID: 1, GroupID: -100123, TopicID: 7, DestinationURL: "https://discord.com/api/webhooks/1/tok"},
	}, nil).Once()

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest("GET", "/mappings", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var mappings []models.RoutingMapping
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mappings))
	require.Len(t, mappings, 1)
	assert.Equal(t, int64(-100123), mappings[0].GroupID)

	db.AssertExpectations(t)
}

func TestHandleListMappings_EmptyIsArray(t *testing.T) {
	server, db, _ := newTestServer(t)

	db.On("ListRoutingMappings", mock.Anything).Return(nil, nil).Once()

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest("GET", "/mappings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleUpsertMapping(t *testing.T) {
	server, db, _ := newTestServer(t)

	db.On("UpsertRoutingMapping", mock.Anything, mock.MatchedBy(func(m *models.RoutingMapping) bool {
		return m.GroupID == -100123 && m.TopicID == 7 && m.DestinationURL == "https://discord.com/api/webhooks/1/tok"
	})).Return(nil).Once()

	body, _ := json.Marshal(map[string]interface{}{
		"groupId":    -100123,
		"topicId":    7,
		"webhookUrl": "https://discord.com/api/webhooks/1/tok",
	})

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, httptest.NewRequest("POST", "/mappings", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	db.AssertExpectations(t)
}

func TestHandleUpsertMapping_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing group", `{"webhookUrl":"https://discord.com/api/webhooks/1/tok"}`},
		{"missing url", `{"groupId":-1}`},
		{"bad scheme", `{"groupId":-1,"webhookUrl":"ftp://example.com/hook"}`},
		{"no host", `{"groupId":-1,"webhookUrl":"https:///hook"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, db, _ := newTestServer(t)

			rec := httptest.NewRecorder()
			server.router.ServeHTTP(rec, httptest.NewRequest("POST", "/mappings", bytes.NewReader([]byte(tt.body))))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			db.AssertNotCalled(t, "UpsertRoutingMapping", mock.Anything, mock.Anything)
		})
	}
}

func TestValidateWebhookURL(t *testing.T) {
	assert.NoError(t, validateWebhookURL("https://discord.com/api/webhooks/1/tok"))
	assert.NoError(t, validateWebhookURL("http://localhost:8080/hook"))
	assert.Error(t, validateWebhookURL(""))
	assert.Error(t, validateWebhookURL("not a url"))
	assert.Error(t, validateWebhookURL("ftp://example.com/hook"))
}
