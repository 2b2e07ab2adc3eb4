package commands

import (
	"errors"
	"fmt"

	"github.com/SKYGOD07/Arjuna-Project/internal/apperror"
	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/SKYGOD07/Arjuna-Project/internal/workers"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command group
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Manage user statistics",
	}
	cmd.AddCommand(newStatsInitCmd(), newStatsRecomputeCmd(), newStatsShowCmd())
	return cmd
}

// newStatsInitCmd creates the statistics row a user needs before sessions can be aggregated
func newStatsInitCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a user's statistics row",
		Long:  "Create the zeroed statistics row for a newly registered user. Existing rows are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}

			_, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			created, err := database.NewStatisticsRepository(db).CreateForUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to create statistics: %w", err)
			}
			if created {
				printf(cmd.OutOrStdout(), "Created statistics for user %s\n", userID)
			} else {
				printf(cmd.OutOrStdout(), "Statistics for user %s already exist\n", userID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStatsRecomputeCmd() *cobra.Command {
	var (
		user    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute a user's statistics from completed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}

			cfg, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			zapLogger, err := logger.NewDevelopmentLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync(zapLogger) }()

			aggregator := workers.NewStatisticsAggregator(
				database.NewSessionRepository(db),
				database.NewWasteRepository(db),
				database.NewStatisticsRepository(db),
				workers.RatioEstimator{Ratio: cfg.ConsumptionRatio},
				zapLogger,
			)
			stats, err := aggregator.Recompute(cmd.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrUserStatsNotFound) {
					return fmt.Errorf("user %s has no statistics row; run 'trackctl stats init --user %s' first", userID, userID)
				}
				return err
			}
			printStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log aggregation details")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStatsShowCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}

			_, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			stats, err := database.NewStatisticsRepository(db).GetByUserID(cmd.Context(), userID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("user %s: %w", userID, apperror.ErrUserStatsNotFound)
				}
				return fmt.Errorf("failed to load statistics: %w", err)
			}
			printStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printStats(cmd *cobra.Command, stats *models.UserStatistics) {
	out := cmd.OutOrStdout()
	printf(out, "User:              %s\n", stats.UserID)
	printf(out, "Sessions:          %d\n", stats.TotalSessions)
	printf(out, "Waste:             %.2f kg\n", stats.TotalWasteKg)
	printf(out, "Consumed (est.):   %.2f kg\n", stats.TotalFoodConsumedKg)
	printf(out, "Waste percentage:  %.1f%%\n", stats.AvgWastePercentage)
	if !stats.LastUpdated.IsZero() {
		printf(out, "Last updated:      %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	}
}
