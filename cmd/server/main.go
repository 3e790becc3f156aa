package main

import (
	"log"

	"github.com/spf13/cobra"

	"minitweet/internal/transport/http"
)

var rootCmd = &cobra.Command{
	Use:   "minitweet",
	Short: "MiniTweet API server",
	Long:  `Serves the MiniTweet REST API: accounts, tweets, follows, likes and the home feed.`,
	// No subcommand means serve.
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	return http.Run(cmd.Context())
}
