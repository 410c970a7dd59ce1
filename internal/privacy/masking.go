package privacy

import (
	"fmt"
	"strings"
)

// Discord webhook URLs embed a secret token; log lines must never leak it.
// MaskWebhookURL keeps the scheme, host and webhook ID while hiding the token.
// Example: "https://discord.com/api/webhooks/123/secrettoken"
//       -> "https://discord.com/api/webhooks/123/****oken"
func MaskWebhookURL(url string) string {
	if url == "" {
		return ""
	}

	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return maskString(url, 4)
	}

	token := url[idx+1:]
	return url[:idx+1] + maskString(token, 4)
}

// MaskPhoneNumber masks a phone number showing only the last 4 digits.
// Example: "+1234567890" -> "+******7890"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		if len(phone) <= 5 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-5) + phone[len(phone)-4:]
	}

	return maskString(phone, 4)
}

// MaskSessionBlob hides session credential material entirely, reporting only
// its length so rotations remain diagnosable.
func MaskSessionBlob(blob []byte) string {
	if len(blob) == 0 {
		return "<empty>"
	}
	return fmt.Sprintf("******** (%d bytes)", len(blob))
}

func maskString(s string, visible int) string {
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}
