package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
	embedded "github.com/jonathan/resume-matcher/schemas"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Extract and categorize the keywords of one document",
	RunE:  runKeywords,
}

var (
	keywordsInPath  string
	keywordsOutPath string
	keywordsVerbose bool
)

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsInPath, "in", "i", "", "Path to the document text (\"-\" for stdin)")
	keywordsCmd.Flags().StringVarP(&keywordsOutPath, "out", "o", "", "Write the JSON report to this file instead of stdout")
	keywordsCmd.Flags().BoolVarP(&keywordsVerbose, "verbose", "v", false, "Print a human-readable summary to stderr")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, _ []string) error {
	if keywordsInPath == "" {
		return fmt.Errorf("--in is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := ingestion.LoadText(keywordsInPath, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	keywords, warnings, err := a.scanner.Keywords(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("keyword extraction failed: %w", err)
	}

	if keywordsVerbose {
		p := observability.NewPrinter(cmd.ErrOrStderr())
		p.PrintKeywords("Keywords", keywords)
		p.PrintValidation(keywords.Validation)
		p.PrintWarnings(warnings)
	}
	return writeOutput(cmd, keywordsOutPath, embedded.KeywordsReport, types.KeywordsReport{Keywords: *keywords, Warnings: warnings})
}
