package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_Phone(t *testing.T) {
	a := newAuthenticator("+15551234567", "", AuthPrompts{})

	phone, err := a.Phone(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", phone)
}

func TestAuthenticator_CodePrompt(t *testing.T) {
	prompts := AuthPrompts{
		Code: func(_ context.Context) (string, error) {
			return "12345", nil
		},
	}
	a := newAuthenticator("+15551234567", "", prompts)

	code, err := a.Code(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "12345", code)
}

func TestAuthenticator_CodeWithoutPrompt(t *testing.T) {
	a := newAuthenticator("+15551234567", "", AuthPrompts{})

	_, err := a.Code(context.Background(), nil)
	assert.Error(t, err)
}

func TestAuthenticator_ConfiguredPasswordWins(t *testing.T) {
	prompts := AuthPrompts{
		Password: func(_ context.Context) (string, error) {
			t.Fatal("prompt should not be consulted when a password is configured")
			return "", nil
		},
	}
	a := newAuthenticator("+15551234567", "hunter2", prompts)

	password, err := a.Password(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)
}

func TestAuthenticator_PasswordPromptFallback(t *testing.T) {
	prompts := AuthPrompts{
		Password: func(_ context.Context) (string, error) {
			return "prompted", nil
		},
	}
	a := newAuthenticator("+15551234567", "", prompts)

	password, err := a.Password(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prompted", password)
}

func TestAuthenticator_SignUpRefused(t *testing.T) {
	a := newAuthenticator("+15551234567", "", AuthPrompts{})

	_, err := a.SignUp(context.Background())
	assert.Error(t, err)
}
