package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telecord/internal/config"
	"telecord/internal/constants"
	"telecord/internal/models"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/sirupsen/logrus"
)

// Connector maintains the long-lived user-account connection and feeds
// normalized inbound messages into a bounded queue. When the queue is full
// the newest message is dropped with a warning; update handling must never
// block the client's receive loop.
type Connector struct {
	cfg     config.TelegramConfig
	store   session.Storage
	prompts AuthPrompts
	logger  *logrus.Logger

	queue chan models.InboundMessage

	mu     sync.Mutex
	api    *tg.Client
	dl     *downloader.Downloader
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConnector creates an unconnected connector. The session storage holds
// the opaque credential blob between runs; prompts are consulted only when
// the stored session is absent or invalid.
func NewConnector(cfg config.TelegramConfig, store session.Storage, prompts AuthPrompts, queueSize int, logger *logrus.Logger) *Connector {
	if queueSize <= 0 {
		queueSize = constants.DefaultQueueSize
	}
	return &Connector{
		cfg:     cfg,
		store:   store,
		prompts: prompts,
		logger:  logger,
		queue:   make(chan models.InboundMessage, queueSize),
		dl:      downloader.NewDownloader(),
		done:    make(chan struct{}),
	}
}

// Messages returns the inbound queue consumed by the relay workers.
func (c *Connector) Messages() <-chan models.InboundMessage {
	return c.queue
}

// Start connects, authenticates if necessary, and begins receiving updates.
// It returns once the connection is established and authorized; the receive
// loop keeps running in the background until Disconnect.
func (c *Connector) Start(ctx context.Context) error {
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		c.handleUpdate(e, u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		c.handleUpdate(e, u.Message)
		return nil
	})

	client := telegram.NewClient(c.cfg.APIID, c.cfg.APIHash, telegram.Options{
		SessionStorage: c.store,
		UpdateHandler:  dispatcher,
	})

	// The run context outlives Start's caller context: the connection is
	// torn down by Disconnect, not by the startup deadline.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	ready := make(chan struct{})
	var readyOnce sync.Once
	errCh := make(chan error, 1)

	go func() {
		defer close(c.done)
		err := client.Run(runCtx, func(ctx context.Context) error {
			flow := auth.NewFlow(newAuthenticator(c.cfg.Phone, c.cfg.Password, c.prompts), auth.SendCodeOptions{})
			if err := client.Auth().IfNecessary(ctx, flow); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			c.mu.Lock()
			c.api = client.API()
			c.mu.Unlock()

			readyOnce.Do(func() { close(ready) })
			c.logger.Info("Telegram connection established")

			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil && runCtx.Err() == nil {
			c.logger.WithError(err).Error("Telegram client terminated unexpectedly")
		}
		select {
		case errCh <- err:
		default:
		}
	}()

	select {
	case <-ready:
		return nil
	case err := <-errCh:
		cancel()
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case <-time.After(time.Duration(constants.DefaultConnectTimeoutSec) * time.Second):
		cancel()
		return fmt.Errorf("timed out connecting to Telegram after %ds", constants.DefaultConnectTimeoutSec)
	}
}

// Disconnect tears down the connection and waits briefly for the receive
// loop to exit. Safe to call multiple times, and before Start.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-c.done:
	case <-time.After(time.Duration(constants.DefaultDisconnectTimeoutSec) * time.Second):
		c.logger.Warn("Timed out waiting for Telegram client shutdown")
	}
}

func (c *Connector) handleUpdate(e tg.Entities, raw tg.MessageClass) {
	msg, ok := Normalize(e, raw)
	if !ok {
		return
	}

	select {
	case c.queue <- msg:
	default:
		c.logger.WithFields(logrus.Fields{
			"message_id": msg.PlatformMessageID,
			"group_id":   msg.GroupID,
		}).Warn("Inbound queue full, dropping message")
	}
}

// DownloadMedia fetches one attachment to the given path.
func (c *Connector) DownloadMedia(ctx context.Context, ref models.MediaRef, path string) error {
	api, err := c.apiClient()
	if err != nil {
		return err
	}

	var loc tg.InputFileLocationClass
	switch ref.Kind {
	case models.MediaKindPhoto:
		loc = &tg.InputPhotoFileLocation{
			ID:            ref.ID,
			AccessHash:    ref.AccessHash,
			FileReference: ref.FileReference,
			ThumbSize:     ref.ThumbType,
		}
	case models.MediaKindDocument:
		loc = &tg.InputDocumentFileLocation{
			ID:            ref.ID,
			AccessHash:    ref.AccessHash,
			FileReference: ref.FileReference,
		}
	default:
		return fmt.Errorf("unsupported media kind %q", ref.Kind)
	}

	if _, err := c.dl.Download(api, loc).ToPath(ctx, path); err != nil {
		return fmt.Errorf("media download failed: %w", err)
	}
	return nil
}

// DownloadAvatar fetches a sender's current profile photo to the given path.
func (c *Connector) DownloadAvatar(ctx context.Context, ref models.AvatarRef, path string) error {
	api, err := c.apiClient()
	if err != nil {
		return err
	}

	loc := &tg.InputPeerPhotoFileLocation{
		Big: true,
		Peer: &tg.InputPeerUser{
			UserID:     ref.UserID,
			AccessHash: ref.AccessHash,
		},
		PhotoID: ref.PhotoID,
	}

	if _, err := c.dl.Download(api, loc).ToPath(ctx, path); err != nil {
		return fmt.Errorf("avatar download failed: %w", err)
	}
	return nil
}

func (c *Connector) apiClient() (*tg.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api == nil {
		return nil, fmt.Errorf("telegram client is not connected")
	}
	return c.api, nil
}
