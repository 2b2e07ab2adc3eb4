package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	logpkg "github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobProcessor handles a single decoded job
type JobProcessor func(ctx context.Context, job *queue.Job) error

// StatisticsWorker consumes statistics jobs and dispatches them by type
type StatisticsWorker struct {
	aggregator *StatisticsAggregator
	jobQueue   queue.JobQueue
	logger     *zap.Logger
	registry   map[queue.JobType]JobProcessor
}

// NewStatisticsWorker creates a worker and registers the statistics_recompute processor.
// jobQueue is used for delayed retries and may be nil, in which case retryable failures are dead-lettered.
func NewStatisticsWorker(aggregator *StatisticsAggregator, jobQueue queue.JobQueue, logger *zap.Logger) *StatisticsWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &StatisticsWorker{
		aggregator: aggregator,
		jobQueue:   jobQueue,
		logger:     logger,
		registry:   make(map[queue.JobType]JobProcessor),
	}
	w.RegisterProcessor(queue.JobTypeStatisticsRecompute, w.processRecompute)
	return w
}

// RegisterProcessor registers a processor for a job type
func (w *StatisticsWorker) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	w.registry[typ] = proc
}

func (w *StatisticsWorker) processRecompute(ctx context.Context, job *queue.Job) error {
	if job.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required for statistics job: %w", errMalformedJob)
	}
	_, err := w.aggregator.Recompute(ctx, job.UserID)
	return err
}

var errMalformedJob = errors.New("malformed job")

// ProcessJob runs the processor registered for the message's job type and settles the message
func (w *StatisticsWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	jobID := logpkg.SanitizeUserID(job.ID.String())

	proc, ok := w.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", jobID),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := proc(ctx, job); err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	w.logger.Debug("job_completed",
		zap.String("job_id", jobID),
		zap.String("job_type", string(job.Type)),
	)
	return nil
}

// handleJobError retries transient failures with backoff and dead-letters the rest
func (w *StatisticsWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("retry_count", job.RetryCount),
		zap.String("error", logpkg.SanitizeError(err)),
	}

	if !apperror.IsRetryable(err) || !job.CanRetry() {
		w.logger.Error("statistics_job_dead_lettered", fields...)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed_to_nack_job_to_dlq", zap.String("error", logpkg.SanitizeError(nackErr)))
		}
		return fmt.Errorf("job failed permanently: %w", err)
	}

	if w.jobQueue != nil {
		delay := apperror.RetryDelay(job.RetryCount)
		enqueueErr := w.jobQueue.Enqueue(ctx, job.Delayed(delay))
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("failed_to_ack_job_after_reenqueue", zap.String("error", logpkg.SanitizeError(ackErr)))
			}
			w.logger.Warn("statistics_job_rescheduled", append(fields, zap.Duration("retry_delay", delay))...)
			return fmt.Errorf("job failed (rescheduled): %w", err)
		}
		w.logger.Warn("failed_to_reenqueue_job", zap.String("error", logpkg.SanitizeError(enqueueErr)))
	}

	// a broker requeue redelivers the original body, so the retry count would never advance
	w.logger.Error("statistics_job_dead_lettered", append(fields, zap.Bool("reschedule_failed", true))...)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Warn("failed_to_nack_job_to_dlq", zap.String("error", logpkg.SanitizeError(nackErr)))
	}
	return fmt.Errorf("job failed (reschedule unavailable): %w", err)
}
