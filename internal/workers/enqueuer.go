package workers

import (
	"context"
	"fmt"

	logpkg "github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatisticsEnqueuer defers recomputation to the worker by publishing a job
type StatisticsEnqueuer struct {
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewStatisticsEnqueuer creates an enqueuer backed by jobQueue
func NewStatisticsEnqueuer(jobQueue queue.JobQueue, logger *zap.Logger) *StatisticsEnqueuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsEnqueuer{jobQueue: jobQueue, logger: logger}
}

// TriggerRecompute enqueues a statistics recompute job for the user
func (e *StatisticsEnqueuer) TriggerRecompute(ctx context.Context, userID, sessionID uuid.UUID) error {
	job := queue.NewJob(queue.JobTypeStatisticsRecompute, userID, &sessionID)
	if err := e.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue statistics recompute: %w", err)
	}
	e.logger.Info("enqueued_statistics_recompute",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.String("session_id", sessionID.String()),
	)
	return nil
}
