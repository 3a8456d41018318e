package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
	embedded "github.com/jonathan/resume-matcher/schemas"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score a resume against a job description",
	Long: `Extract, categorize and validate the keywords of a job description and a resume,
then print the match score report as JSON. The job description can be read from a file,
from stdin ("-") or fetched from a job board URL.`,
	RunE: runScan,
}

var (
	scanJobPath    string
	scanJobURL     string
	scanResumePath string
	scanOutPath    string
	scanVerbose    bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanJobPath, "job", "j", "", "Path to the job description text (\"-\" for stdin)")
	scanCmd.Flags().StringVar(&scanJobURL, "job-url", "", "URL of a job posting to fetch instead of --job")
	scanCmd.Flags().StringVarP(&scanResumePath, "resume", "r", "", "Path to the resume text (\"-\" for stdin)")
	scanCmd.Flags().StringVarP(&scanOutPath, "out", "o", "", "Write the JSON report to this file instead of stdout")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print a human-readable summary to stderr")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if (scanJobPath == "") == (scanJobURL == "") {
		return fmt.Errorf("exactly one of --job or --job-url is required")
	}
	if scanResumePath == "" {
		return fmt.Errorf("--resume is required")
	}
	if scanJobPath == ingestion.StdinPath && scanResumePath == ingestion.StdinPath {
		return fmt.Errorf("only one document can be read from stdin")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := loadJob(ctx, cmd, a)
	if err != nil {
		return err
	}
	resume, err := ingestion.LoadText(scanResumePath, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to load resume: %w", err)
	}

	report, err := a.scanner.Scan(ctx, job.Text, resume.Text)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanVerbose {
		printReport(cmd.ErrOrStderr(), report)
	}
	return writeOutput(cmd, scanOutPath, embedded.ScanReport, report)
}

func loadJob(ctx context.Context, cmd *cobra.Command, a *app) (*ingestion.Document, error) {
	if scanJobURL != "" {
		doc, err := ingestion.LoadURL(ctx, a.fetcher, scanJobURL)
		if err != nil {
			return nil, err
		}
		if scanVerbose {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Fetched %s (%s, %d chars)\n", doc.Metadata.URL, doc.Metadata.Platform, doc.Metadata.Chars)
		}
		return doc, nil
	}
	doc, err := ingestion.LoadText(scanJobPath, cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to load job description: %w", err)
	}
	return doc, nil
}

func printReport(w io.Writer, report *types.ScanReport) {
	p := observability.NewPrinter(w)
	p.PrintKeywords("Job description", &report.JobDescription)
	p.PrintKeywords("Resume", &report.Resume)
	p.PrintValidation(report.JobDescription.Validation)
	p.PrintScore(&report.Result)
	p.PrintWarnings(report.Warnings)
}
