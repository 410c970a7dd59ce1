package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundMessage_HasText(t *testing.T) {
	assert.True(t, (&InboundMessage{Kind: MessageKindText, Text: "hi"}).HasText())
	assert.True(t, (&InboundMessage{Kind: MessageKindMedia, Text: "caption"}).HasText())
	assert.False(t, (&InboundMessage{Kind: MessageKindEmpty}).HasText())
}

func TestInboundMessage_HasMedia(t *testing.T) {
	withMedia := &InboundMessage{
		Kind:  MessageKindMedia,
		Media: []MediaRef{{Kind: MediaKindPhoto}},
	}
	assert.True(t, withMedia.HasMedia())

	assert.False(t, (&InboundMessage{Kind: MessageKindText, Text: "hi"}).HasMedia())
	assert.False(t, (&InboundMessage{Kind: MessageKindMedia}).HasMedia())
}
