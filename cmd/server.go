package cmd

import (
	"log"

	"Musga/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Musga HTTP server",
	Long:  `Start the marketplace HTTP server: auth, vocal catalog, payments and downloads.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(); err != nil {
			log.Fatalf("server exited: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
