package helpers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"casino-monitor/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type MonitorError struct {
	Message string
	Cause   error
}

func (e *MonitorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *MonitorError) Unwrap() error {
	return e.Cause
}

type ConfigurationError struct{ MonitorError }
type TransportError struct{ MonitorError }
type AuthError struct{ MonitorError }
type DatabaseError struct{ MonitorError }
type ValidationError struct{ MonitorError }

func NewTransportError(msg string, cause error) error {
	return &TransportError{MonitorError{Message: msg, Cause: cause}}
}

func NewAuthError(msg string, cause error) error {
	return &AuthError{MonitorError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string, cause error) error {
	return &ValidationError{MonitorError{Message: msg, Cause: cause}}
}

func NewDatabaseError(msg string, cause error) error {
	return &DatabaseError{MonitorError{Message: msg, Cause: cause}}
}

var (
	// ErrNotAuthenticated blocks opening a subscription without a usable token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSubscriptionClosed is returned by operations on a closed handle.
	ErrSubscriptionClosed = errors.New("subscription closed")
	// ErrUnknownGame is returned when no adapter is registered for a game kind.
	ErrUnknownGame = errors.New("unknown game kind")
)

// -----------------------------------------------------------------------------
// Backoff
// -----------------------------------------------------------------------------

// Backoff produces bounded exponential delays with jitter.
type Backoff struct {
	Min         time.Duration
	Max         time.Duration
	MaxAttempts int // 0 means unlimited
	attempt     int
}

// Next returns the delay before the next attempt, or false once MaxAttempts
// is exhausted.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.MaxAttempts > 0 && b.attempt >= b.MaxAttempts {
		return 0, false
	}
	d := b.Min
	for i := 0; i < b.attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}
	b.attempt++
	return addJitter(d), true
}

// Reset starts the sequence over after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}

func (b *Backoff) Attempt() int {
	return b.attempt
}

// addJitter spreads the delay by up to +/-20%.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	spread := int64(d) / 5
	if spread == 0 {
		return d
	}
	return d - time.Duration(spread) + time.Duration(rand.Int63n(2*spread))
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times, doubling baseDelay between
// attempts. It stops early when ctx is cancelled.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler runs side-effect operations (archive writes, stream publishes)
// with retries and keeps a rolling error count.
type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount int
	BaseDelay  time.Duration
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger:    log,
		BaseDelay: time.Second,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// ExecuteWithRetry runs fn with retries and categorizes the final failure by
// operation name.
func (e *ErrorHandler) ExecuteWithRetry(operation string, fn func() error, maxRetries int) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			if e.ErrorCount > 0 {
				e.ErrorCount--
			}
			return nil
		}

		if attempt == maxRetries-1 {
			e.ErrorCount++
			e.Logger.Error("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)

			lowerOp := strings.ToLower(operation)
			switch {
			case strings.Contains(lowerOp, "publish") || strings.Contains(lowerOp, "fetch"):
				return NewTransportError(fmt.Sprintf("%s failed", operation), err)
			case strings.Contains(lowerOp, "archive") || strings.Contains(lowerOp, "save"):
				return NewDatabaseError(fmt.Sprintf("%s failed", operation), err)
			default:
				return &MonitorError{Message: fmt.Sprintf("%s failed", operation), Cause: err}
			}
		}

		e.Logger.Warning("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)
		time.Sleep(e.BaseDelay * time.Duration(1<<attempt))
	}

	return &MonitorError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries)}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err != nil {
		e.Logger.Error("Error in %s: %v", context, err)
	}
}
