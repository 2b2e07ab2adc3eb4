package workers

import (
	"context"
	"errors"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	logpkg "github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultConsumptionRatio estimates food consumed as a fixed multiple of food wasted
const DefaultConsumptionRatio = 2.5

// ConsumptionEstimator derives total food consumed from total food wasted
type ConsumptionEstimator interface {
	EstimateConsumed(totalWasteKg float64) float64
}

// RatioEstimator estimates consumption as Ratio times waste
type RatioEstimator struct {
	Ratio float64
}

// EstimateConsumed implements ConsumptionEstimator
func (e RatioEstimator) EstimateConsumed(totalWasteKg float64) float64 {
	return totalWasteKg * e.Ratio
}

// StatisticsAggregator recomputes a user's statistics row from scratch
type StatisticsAggregator struct {
	sessions  database.SessionRepositoryInterface
	waste     database.WasteRepositoryInterface
	stats     database.StatisticsRepositoryInterface
	estimator ConsumptionEstimator
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatisticsAggregator creates an aggregator. A nil estimator uses DefaultConsumptionRatio.
func NewStatisticsAggregator(
	sessions database.SessionRepositoryInterface,
	waste database.WasteRepositoryInterface,
	stats database.StatisticsRepositoryInterface,
	estimator ConsumptionEstimator,
	logger *zap.Logger,
) *StatisticsAggregator {
	if estimator == nil {
		estimator = RatioEstimator{Ratio: DefaultConsumptionRatio}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsAggregator{
		sessions:  sessions,
		waste:     waste,
		stats:     stats,
		estimator: estimator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// computeStatistics derives every aggregate field from the raw totals
func computeStatistics(userID uuid.UUID, completedSessions int, totalWaste float64, estimator ConsumptionEstimator, now time.Time) *models.UserStatistics {
	consumed := estimator.EstimateConsumed(totalWaste)
	var pct float64
	if consumed > 0 {
		pct = 100 * totalWaste / consumed
	}
	return &models.UserStatistics{
		UserID:              userID,
		TotalSessions:       completedSessions,
		TotalWasteKg:        totalWaste,
		TotalFoodConsumedKg: consumed,
		AvgWastePercentage:  pct,
		LastUpdated:         now,
	}
}

// Recompute rebuilds the user's statistics from completed sessions and waste records
// and writes them in one statement. Running it twice without new data yields the same row.
func (a *StatisticsAggregator) Recompute(ctx context.Context, userID uuid.UUID) (*models.UserStatistics, error) {
	completed, err := a.sessions.CountCompletedByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Store("count completed sessions", err)
	}

	totalWaste, err := a.waste.SumQuantityByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Store("sum waste", err)
	}

	stats := computeStatistics(userID, completed, totalWaste, a.estimator, a.now())
	if err := a.stats.Update(ctx, stats); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.ErrUserStatsNotFound
		}
		return nil, apperror.Store("update statistics", err)
	}

	a.logger.Info("user_statistics_recomputed",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.Int("total_sessions", stats.TotalSessions),
		zap.Float64("total_waste_kg", stats.TotalWasteKg),
		zap.Float64("avg_waste_percentage", stats.AvgWastePercentage),
	)
	return stats, nil
}

// TriggerRecompute runs Recompute synchronously for a closed session
func (a *StatisticsAggregator) TriggerRecompute(ctx context.Context, userID, sessionID uuid.UUID) error {
	_, err := a.Recompute(ctx, userID)
	return err
}
