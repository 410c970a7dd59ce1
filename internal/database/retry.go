package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"telecord/internal/constants"
)

// retryableDBOperation executes a write operation with bounded retry for
// transient MySQL failures.
func retryableDBOperation(ctx context.Context, operation func() error, operationName string) error {
	var lastErr error

	maxAttempts := constants.DefaultDatabaseRetryAttempts
	initialBackoff := time.Duration(constants.DefaultRetryBackoffMs) * time.Millisecond

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableDBError(err) {
			return fmt.Errorf("%s failed (non-retryable): %w", operationName, err)
		}

		if attempt == maxAttempts {
			break
		}

		backoff := time.Duration(attempt) * initialBackoff
		if backoff > time.Duration(constants.DefaultMaxBackoffMs)*time.Millisecond {
			backoff = time.Duration(constants.DefaultMaxBackoffMs) * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxAttempts, lastErr)
}

// isRetryableDBError determines if a database error is worth retrying
func isRetryableDBError(err error) bool {
	if err == nil {
		return false
	}

	// Stale pooled connections get a fresh one on retry
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	// Context timeout/cancellation are not retryable by us
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := err.Error()

	// Transient MySQL/InnoDB conditions
	if strings.Contains(errStr, "Deadlock found") ||
		strings.Contains(errStr, "Lock wait timeout") ||
		strings.Contains(errStr, "invalid connection") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "Too many connections") {
		return true
	}

	// Constraint violations are not retryable
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "foreign key constraint") {
		return false
	}

	// Schema errors are not retryable
	if strings.Contains(errStr, "doesn't exist") || strings.Contains(errStr, "Unknown column") {
		return false
	}

	// Be conservative for anything else
	return false
}
