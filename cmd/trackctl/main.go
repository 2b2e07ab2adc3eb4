package main

import (
	"fmt"
	"os"

	"github.com/SKYGOD07/Arjuna-Project/cmd/trackctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "trackctl",
		Short: "Operations tool for the food tracking service",
		Long:  "CLI tool for migrating the database, initializing and recomputing user statistics and inspecting sessions",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewSessionsCmd())
	rootCmd.AddCommand(commands.NewTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
