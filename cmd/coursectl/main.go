package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"coursehub-backend/pkg/apiclient"
)

var (
	apiURL   string
	apiToken string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "coursectl",
	Short:         "Command line client for the CourseHub API",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `coursectl drives the CourseHub API from a terminal.

It browses the catalog, walks the course authoring wizard, edits the
curriculum and uploads lesson files and videos.

Configuration:
  COURSEHUB_API    base URL of the API (default http://localhost:8080)
  COURSEHUB_TOKEN  bearer token of an instructor account`,
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("COURSEHUB_API", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("COURSEHUB_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(coursesCmd, slugCmd, searchCmd, draftCmd, uploadCmd)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func newClient() *apiclient.Client {
	return apiclient.New(apiURL, apiclient.WithToken(apiToken), apiclient.WithTimeout(timeout))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError shows validation details for wizard errors.
func printError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		for field, message := range apiErr.Fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, message)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}
