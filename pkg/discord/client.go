package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"telecord/internal/constants"
	"telecord/internal/models"
	"telecord/internal/privacy"

	"github.com/sirupsen/logrus"
)

// WebhookPayload is the JSON body for a text-only forward.
type WebhookPayload struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Content   string `json:"content"`
}

// Client posts messages to Discord webhook endpoints. Delivery is
// deliberately fire-and-forget: a failed post is logged by the caller and
// dropped, with no retry and no dead-letter queue.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a webhook client. A nil httpClient falls back to a
// default client with no timeout; an unresponsive destination stalls only
// the pipeline run that hit it.
func NewClient(httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Forward sends one message to the destination webhook, as a JSON post for
// text-only messages or a multipart post carrying the staged files. Every
// staged file is deleted before Forward returns, on success and failure
// alike; the staged files are exclusively owned by this call.
func (c *Client) Forward(ctx context.Context, webhookURL, displayName, avatarURL string, msg *models.InboundMessage, files []string) error {
	defer c.releaseStagedFiles(files)

	if !msg.HasMedia() {
		return c.forwardText(ctx, webhookURL, displayName, avatarURL, msg)
	}
	return c.forwardMedia(ctx, webhookURL, displayName, avatarURL, msg, files)
}

func (c *Client) forwardText(ctx context.Context, webhookURL, displayName, avatarURL string, msg *models.InboundMessage) error {
	content := msg.Text
	if !msg.HasText() {
		content = constants.EmptyMessagePlaceholder
	}

	payload := WebhookPayload{
		Username:  displayName,
		AvatarURL: avatarURL,
		Content:   content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, webhookURL)
}

func (c *Client) forwardMedia(ctx context.Context, webhookURL, displayName, avatarURL string, msg *models.InboundMessage, files []string) error {
	content := msg.Text
	if !msg.HasText() {
		content = constants.MediaMessagePlaceholder
	}

	// Stream the body so a large attachment is never held in memory next to
	// its staged copy on disk. A write error surfaces through the pipe and
	// fails the post.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(c.writeMultipartBody(writer, displayName, avatarURL, content, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, pr)
	if err != nil {
		_ = pr.Close()
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, webhookURL)
}

func (c *Client) writeMultipartBody(writer *multipart.Writer, displayName, avatarURL, content string, files []string) error {
	if err := writer.WriteField("username", displayName); err != nil {
		return fmt.Errorf("failed to write username field: %w", err)
	}
	if avatarURL != "" {
		if err := writer.WriteField("avatar_url", avatarURL); err != nil {
			return fmt.Errorf("failed to write avatar_url field: %w", err)
		}
	}
	if err := writer.WriteField("content", content); err != nil {
		return fmt.Errorf("failed to write content field: %w", err)
	}

	for i, file := range files {
		if err := c.appendFilePart(writer, i, file); err != nil {
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return nil
}

// appendFilePart adds one staged file as a part named by positional index,
// file[0], file[1], ...
func (c *Client) appendFilePart(writer *multipart.Writer, index int, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open staged file %s: %w", path, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile(fmt.Sprintf("file[%d]", index), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy staged file into part: %w", err)
	}
	return nil
}

func (c *Client) send(req *http.Request, webhookURL string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post to %s returned status %d", privacy.MaskWebhookURL(webhookURL), resp.StatusCode)
	}
	return nil
}

// releaseStagedFiles deletes every staged file for this call. Deletion
// failures are logged and ignored, never propagated.
func (c *Client) releaseStagedFiles(files []string) {
	for _, file := range files {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			c.logger.WithError(err).WithField("file_path", file).Warn("Failed to delete staged media file")
		}
	}
}
