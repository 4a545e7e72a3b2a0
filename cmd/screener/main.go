// Package main provides the entry point for the resume screener CLI and HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debugLogs  bool
	jsonLogs   bool
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Score resumes against job descriptions",
	Long: `Screener asks an AI provider to compare a resume with a job description, checks the
returned scores and keeps a history of past analyses on this machine, or in your
account when you are signed in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: $XDG_CONFIG_HOME/screener/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}
