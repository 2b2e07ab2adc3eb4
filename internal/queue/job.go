package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeStatisticsRecompute recomputes a user's statistics after a session closes
	JobTypeStatisticsRecompute JobType = "statistics_recompute"
)

// DefaultMaxRetries is how often a failed job is retried before dead-lettering
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"` // session whose close triggered the job
	NotBefore  *time.Time `json:"not_before,omitempty"` // earliest time to process (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // latest time to process (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID, sessionID *uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		SessionID:  sessionID,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// Delayed returns a copy of the job scheduled after delay with the retry count bumped.
// The job ID is kept so retries of one job can be correlated in logs.
func (j *Job) Delayed(delay time.Duration) *Job {
	notBefore := time.Now().Add(delay)
	cp := *j
	cp.NotBefore = &notBefore
	cp.RetryCount = j.RetryCount + 1
	return &cp
}
