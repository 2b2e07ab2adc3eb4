package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/database"
	"github.com/SKYGOD07/Arjuna-Project/internal/validation"
	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the sessions command group
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect tracking sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var (
		user  string
		mode  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's most recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			if mode != "" {
				if err := validation.ValidateTrackingMode(mode); err != nil {
					return err
				}
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			_, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			sessions, err := database.NewSessionRepository(db).ListRecentByUserID(cmd.Context(), userID, limit)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(tw, "ID\tMODE\tSTATUS\tSTARTED\tDURATION\n")
			shown := 0
			for _, s := range sessions {
				if mode != "" && string(s.Mode) != mode {
					continue
				}
				duration := "-"
				if s.EndTime != nil {
					duration = s.EndTime.Sub(s.StartTime).Round(time.Second).String()
				}
				printf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Mode, s.Status, s.StartTime.Format(time.RFC3339), duration)
				shown++
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if shown == 0 {
				printf(cmd.OutOrStdout(), "No sessions found\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&mode, "mode", "", "Only show sessions in this mode (cooking, eating, summary)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of sessions to fetch")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
