package telegram

import (
	"testing"
	"time"

	"telecord/internal/config"

	"github.com/gotd/td/tg"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(queueSize int) *Connector {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewConnector(config.TelegramConfig{}, nil, AuthPrompts{}, queueSize, logger)
}

func TestConnector_QueueFullDropsNewest(t *testing.T) {
	c := newTestConnector(1)

	// Three updates against a queue of one: the first is retained, the rest
	// are dropped without blocking the receive loop.
	c.handleUpdate(tg.Entities{}, channelMessage(1, 123, 777, "first"))
	c.handleUpdate(tg.Entities{}, channelMessage(2, 123, 777, "second"))
	c.handleUpdate(tg.Entities{}, channelMessage(3, 123, 777, "third"))

	select {
	case msg := <-c.Messages():
		assert.Equal(t, int64(1), msg.PlatformMessageID)
		assert.Equal(t, "first", msg.Text)
	case <-time.After(time.Second):
		t.Fatal("expected one queued message")
	}

	select {
	case msg := <-c.Messages():
		t.Fatalf("unexpected second message: %d", msg.PlatformMessageID)
	default:
	}
}

func TestConnector_HandleUpdateDiscardsOutgoing(t *testing.T) {
	c := newTestConnector(4)

	raw := channelMessage(1, 123, 777, "own message")
	raw.Out = true
	c.handleUpdate(tg.Entities{}, raw)

	select {
	case msg := <-c.Messages():
		t.Fatalf("outgoing message reached the queue: %d", msg.PlatformMessageID)
	default:
	}
}

func TestConnector_QueueDrainsInOrder(t *testing.T) {
	c := newTestConnector(4)

	for i := 1; i <= 3; i++ {
		c.handleUpdate(tg.Entities{}, channelMessage(i, 123, 777, "hi"))
	}

	for i := 1; i <= 3; i++ {
		select {
		case msg := <-c.Messages():
			assert.Equal(t, int64(i), msg.PlatformMessageID)
		case <-time.After(time.Second):
			t.Fatalf("queue missing message %d", i)
		}
	}
}

func TestConnector_DisconnectBeforeStart(t *testing.T) {
	c := newTestConnector(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Disconnect()
		c.Disconnect()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Disconnect blocked before Start")
	}
}

func TestConnector_DefaultQueueSize(t *testing.T) {
	c := newTestConnector(0)
	require.NotNil(t, c.queue)
	assert.NotZero(t, cap(c.queue))
}
