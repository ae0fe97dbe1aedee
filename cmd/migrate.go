package cmd

import (
	"fmt"
	"log"

	"Musga/config"
	"Musga/db"
	"Musga/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Create the users and vocals tables and run GORM auto-migration for the transaction ledger.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Database target: %s:%s/%s\n", cfg.DBHost, cfg.DBPort, cfg.DBName)

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := db.InitDB(); err != nil {
			log.Fatalf("failed to create tables: %v", err)
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("failed to open GORM connection: %v", err)
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrateModels(&model.Transaction{}); err != nil {
			log.Fatalf("auto-migration failed: %v", err)
		}

		fmt.Println("Schema is up to date.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
