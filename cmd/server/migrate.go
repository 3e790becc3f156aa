package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"minitweet/internal/config"
	"minitweet/internal/database"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	log.Println("Migrations applied")
	return nil
}
