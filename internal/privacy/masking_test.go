package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskWebhookURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "discord webhook",
			url:      "https://discord.com/api/webhooks/123/secrettoken",
			expected: "https://discord.com/api/webhooks/123/*******oken",
		},
		{
			name:     "empty",
			url:      "",
			expected: "",
		},
		{
			name:     "trailing slash",
			url:      "https://discord.com/api/webhooks/123/",
			expected: strings.Repeat("*", 33) + "123/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskWebhookURL(tt.url))
		})
	}
}

func TestMaskWebhookURL_NeverLeaksToken(t *testing.T) {
	url := "https://discord.com/api/webhooks/99887766/sUpErSeCrEtToKeN1234"
	masked := MaskWebhookURL(url)
	assert.NotContains(t, masked, "sUpErSeCrEtToKeN")
}

func TestMaskPhoneNumber(t *testing.T) {
	assert.Equal(t, "+******7890", MaskPhoneNumber("+1234567890"))
	assert.Equal(t, "+****", MaskPhoneNumber("+1234"))
	assert.Equal(t, "******7890", MaskPhoneNumber("1234567890"))
	assert.Equal(t, "", MaskPhoneNumber(""))
}

func TestMaskSessionBlob(t *testing.T) {
	assert.Equal(t, "<empty>", MaskSessionBlob(nil))
	assert.Equal(t, "******** (5 bytes)", MaskSessionBlob([]byte("hello")))
	assert.NotContains(t, MaskSessionBlob([]byte("credential")), "credential")
}
