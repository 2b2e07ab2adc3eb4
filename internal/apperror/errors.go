package apperror

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidMode indicates a tracking mode outside cooking, eating and summary
	ErrInvalidMode = errors.New("invalid tracking mode")
	// ErrNoActiveSession indicates the user (or the addressed session) has no active tracking session
	ErrNoActiveSession = errors.New("no active tracking session")
	// ErrSessionAlreadyActive indicates the user already holds an active tracking session
	ErrSessionAlreadyActive = errors.New("tracking session already active")
	// ErrSessionNotFound indicates the referenced tracking session does not exist
	ErrSessionNotFound = errors.New("tracking session not found")
	// ErrModelUnavailable indicates the detection model is not loaded, unreachable or timed out
	ErrModelUnavailable = errors.New("detection model unavailable")
	// ErrDecode indicates the frame bytes are not a decodable image
	ErrDecode = errors.New("failed to decode frame")
	// ErrUserStatsNotFound indicates the user has no statistics row
	ErrUserStatsNotFound = errors.New("user statistics not found")
	// ErrProfileNotFound indicates the user has not saved a profile yet
	ErrProfileNotFound = errors.New("user profile not found")
)

// StoreError represents a failure of the persistent store during Op
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store wraps err as a StoreError. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreFailure checks if an error is (or wraps) a StoreError
func IsStoreFailure(err error) bool {
	if err == nil {
		return false
	}
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// IsRetryable reports whether the same request may succeed later without changes.
// Model outages and store failures are transient; validation and state errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrModelUnavailable) || IsStoreFailure(err)
}

// RetryDelay returns an exponential backoff for attempt, starting at 5 seconds
// and capped at 5 minutes.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	delay := 5 * time.Second * time.Duration(1<<uint(attempt))
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}
