package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/SKYGOD07/Arjuna-Project/internal/services/auth"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command, which mints bearer tokens for local testing
func NewTokenCmd() *cobra.Command {
	var (
		user   string
		secret string
		issuer string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token for a user",
		Long:  "Sign a short-lived token with JWT_SECRET (or --secret) so the API can be exercised without an identity provider.",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			if issuer == "" {
				issuer = os.Getenv("JWT_ISSUER")
			}

			token, err := auth.SignHMAC(secret, issuer, userID, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			printf(cmd.OutOrStdout(), "%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID placed in the sub claim (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer claim (defaults to JWT_ISSUER)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
