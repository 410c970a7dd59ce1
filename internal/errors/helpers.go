package errors

import (
	"fmt"
)

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key)
}

// NewDatabaseError creates a database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation)
}

// NewTelegramError creates an error for a failed Telegram API call
func NewTelegramError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTelegramAPI, fmt.Sprintf("telegram %s failed", operation)).
		WithContext("operation", operation)
}

// NewWebhookError creates an error for a failed webhook delivery. Delivery
// failures are terminal for the message, never retried.
func NewWebhookError(statusCode int, err error) *AppError {
	return Wrap(err, ErrCodeWebhookDelivery, "webhook delivery failed").
		WithContext("status_code", statusCode)
}

// NewMediaError creates an error for a failed media download
func NewMediaError(kind string, err error) *AppError {
	return Wrap(err, ErrCodeMediaDownload, "media download failed").
		WithContext("media_kind", kind)
}

// NewAvatarError creates an error for a failed avatar download
func NewAvatarError(userID int64, err error) *AppError {
	return Wrap(err, ErrCodeAvatarDownload, "avatar download failed").
		WithContext("user_id", userID)
}

// NewSessionError creates an error for a session store operation
func NewSessionError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeSessionStore, fmt.Sprintf("session %s failed", operation)).
		WithContext("operation", operation)
}

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field)
}

// NewAuthError creates an authentication error
func NewAuthError(reason string) *AppError {
	return New(ErrCodeAuthentication, "authentication failed").
		WithContext("reason", reason)
}
