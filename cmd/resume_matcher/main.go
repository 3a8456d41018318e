// Package main provides the resume_matcher CLI: scans, keyword extraction, term
// validation and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	escoURL      string
	noValidation bool
)

var rootCmd = &cobra.Command{
	Use:           "resume_matcher",
	Short:         "Resume to job description keyword matcher",
	Long:          "resume_matcher extracts and categorizes keywords from a job description and a resume, validates them against the ESCO skills and occupations reference, and scores how well the resume matches.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&escoURL, "esco-url", "", "ESCO API base URL override")
	rootCmd.PersistentFlags().BoolVar(&noValidation, "no-validation", false, "Skip ESCO validation and score with basic keyword sets")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
