// Package cmd implements the whispad command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	flagAPIURL  string
)

var rootCmd = &cobra.Command{
	Use:   "whispad",
	Short: "Native coordination host for the Whispa browser extension",
	Long: `whispad is the native-messaging host behind the Whispa extension.
It owns session state, sequences the capture/record/generate flows, and
talks to the remote transcription and note-generation service.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; it carries WHISPAD_API_URL in development.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "override the remote API base URL")

	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(statusCmd)
}

// apiBaseURL resolves the endpoint: flag, then env, then config, then the
// hosted default.
func apiBaseURL(configured string) string {
	if flagAPIURL != "" {
		return flagAPIURL
	}
	if u := os.Getenv("WHISPAD_API_URL"); u != "" {
		return u
	}
	return configured
}

// Execute runs the CLI.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
