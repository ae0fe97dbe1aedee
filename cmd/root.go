package cmd

import (
	"fmt"
	"log"
	"os"

	"Musga/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "musga",
	Short: "Musga is a vocal track marketplace server.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(); err != nil {
			log.Fatalf("server exited: %v", err)
		}
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
