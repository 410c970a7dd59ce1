package service

import (
	"context"
	"sync"

	"telecord/internal/errors"
	"telecord/internal/models"
	"telecord/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// RoutingStore defines the persistence operations the relay pipeline needs.
type RoutingStore interface {
	GetRoutingMapping(ctx context.Context, groupID int64, topicID int32) (*models.RoutingMapping, error)
	AppendMessageLog(ctx context.Context, entry *models.MessageLogEntry) error
}

// MediaStager materializes a message's attachments into local staged files.
type MediaStager interface {
	Materialize(ctx context.Context, msg *models.InboundMessage) []string
}

// Forwarder delivers one message to a destination webhook and consumes the
// staged files on every exit path.
type Forwarder interface {
	Forward(ctx context.Context, webhookURL, displayName, avatarURL string, msg *models.InboundMessage, files []string) error
}

// RelayService drains the inbound queue with a pool of workers and runs each
// message through the pipeline: routing gate, profile resolution, media
// staging, forward, audit. Runs for distinct messages are independent; no
// ordering is guaranteed across workers.
type RelayService struct {
	db        RoutingStore
	profiles  ProfileResolver
	stager    MediaStager
	forwarder Forwarder
	logger    *logrus.Logger
}

func NewRelayService(db RoutingStore, profiles ProfileResolver, stager MediaStager, forwarder Forwarder, logger *logrus.Logger) *RelayService {
	return &RelayService{
		db:        db,
		profiles:  profiles,
		stager:    stager,
		forwarder: forwarder,
		logger:    logger,
	}
}

// Run consumes messages until the context is cancelled or the channel is
// closed, then waits for in-flight pipeline runs to finish.
func (s *RelayService) Run(ctx context.Context, messages <-chan models.InboundMessage, workers int) {
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id, messages)
		}(i)
	}
	wg.Wait()
}

func (s *RelayService) worker(ctx context.Context, id int, messages <-chan models.InboundMessage) {
	log := s.logger.WithField("worker", id)
	log.Debug("Relay worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Relay worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				log.Debug("Inbound queue closed, relay worker stopping")
				return
			}
			s.Process(ctx, &msg)
		}
	}
}

// Process runs the pipeline for a single message. The routing gate comes
// first: messages from unmapped origins are dropped with no side effects,
// not even an audit record.
func (s *RelayService) Process(ctx context.Context, msg *models.InboundMessage) {
	ctx, span := tracing.StartSpan(ctx, "relay.process",
		attribute.Int64("message.id", msg.PlatformMessageID),
		attribute.Int64("group.id", msg.GroupID),
		attribute.Int("topic.id", int(msg.TopicID)),
	)
	defer span.End()

	log := s.logger.WithFields(logrus.Fields{
		"message_id": msg.PlatformMessageID,
		"group_id":   msg.GroupID,
		"topic_id":   msg.TopicID,
	})

	mapping, err := s.db.GetRoutingMapping(ctx, msg.GroupID, msg.TopicID)
	if err != nil {
		tracing.RecordError(ctx, err)
		errors.LogError(s.logger, errors.NewDatabaseError("get routing mapping", err),
			"Failed to resolve routing mapping", logrus.Fields{
				"message_id": msg.PlatformMessageID,
				"group_id":   msg.GroupID,
			})
		return
	}
	if mapping == nil {
		log.Debug("No routing mapping for origin, dropping message")
		return
	}

	displayName, avatarURL := s.profiles.Resolve(ctx, msg.Sender)

	files := s.stager.Materialize(ctx, msg)

	if err := s.forwarder.Forward(ctx, mapping.DestinationURL, displayName, avatarURL, msg, files); err != nil {
		tracing.RecordError(ctx, err)
		errors.LogError(s.logger, err, "Failed to forward message", logrus.Fields{
			"message_id": msg.PlatformMessageID,
			"group_id":   msg.GroupID,
		})
		// The run still reaches the audit step; delivery failures are
		// terminal for the message, not for the record of handling it.
	}

	s.audit(ctx, msg, displayName)
}

func (s *RelayService) audit(ctx context.Context, msg *models.InboundMessage, displayName string) {
	entry := &models.MessageLogEntry{
		PlatformMessageID: msg.PlatformMessageID,
		GroupID:           msg.GroupID,
		TopicID:           msg.TopicID,
		UserID:            msg.Sender.ID,
		DisplayName:       displayName,
		MediaCount:        len(msg.Media),
	}
	if msg.HasText() {
		text := msg.Text
		entry.TextContent = &text
	}

	if err := s.db.AppendMessageLog(ctx, entry); err != nil {
		errors.LogError(s.logger, errors.NewDatabaseError("append message log", err),
			"Failed to append audit record", logrus.Fields{
				"message_id": msg.PlatformMessageID,
				"group_id":   msg.GroupID,
			})
	}
}
