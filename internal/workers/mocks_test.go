package workers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/queue"
	"github.com/google/uuid"
)

// mockSessionRepo only implements the counting query the aggregator needs
type mockSessionRepo struct {
	database.SessionRepositoryInterface
	countFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockSessionRepo) CountCompletedByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.countFunc(ctx, userID)
}

type mockWasteRepo struct {
	database.WasteRepositoryInterface
	sumFunc func(ctx context.Context, userID uuid.UUID) (float64, error)
}

func (m *mockWasteRepo) SumQuantityByUserID(ctx context.Context, userID uuid.UUID) (float64, error) {
	return m.sumFunc(ctx, userID)
}

type mockStatisticsRepo struct {
	t          *testing.T
	updateFunc func(ctx context.Context, stats *models.UserStatistics) error

	mu          sync.Mutex
	updateCalls []models.UserStatistics
}

func (m *mockStatisticsRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error) {
	m.t.Fatal("GetByUserID called but not configured in test - mock requires explicit setup")
	return nil, nil
}

func (m *mockStatisticsRepo) Update(ctx context.Context, stats *models.UserStatistics) error {
	m.mu.Lock()
	m.updateCalls = append(m.updateCalls, *stats)
	m.mu.Unlock()
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, stats)
}

func (m *mockStatisticsRepo) CreateForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.t.Fatal("CreateForUser called but not configured in test - mock requires explicit setup")
	return false, nil
}

var _ database.StatisticsRepositoryInterface = (*mockStatisticsRepo)(nil)

// mockJobQueue is a mock implementation of JobQueue
type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error

	mu       sync.Mutex
	enqueued []*queue.Job
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	m.enqueued = append(m.enqueued, job)
	m.mu.Unlock()
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error {
	return nil
}

func (m *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

// mockMessage is a mock implementation of MessageInterface
type mockMessage struct {
	job *queue.Job

	acks  int
	nacks []bool
}

func (m *mockMessage) Ack() error {
	m.acks++
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacks = append(m.nacks, requeue)
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)
