package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
)

var validateTermsCmd = &cobra.Command{
	Use:   "validate-terms TERM...",
	Short: "Validate terms against the ESCO skills and occupations reference",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidateTerms,
}

var (
	validateOutPath string
	validateVerbose bool
)

func init() {
	validateTermsCmd.Flags().StringVarP(&validateOutPath, "out", "o", "", "Write the JSON records to this file instead of stdout")
	validateTermsCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Print a human-readable summary to stderr")

	rootCmd.AddCommand(validateTermsCmd)
}

func runValidateTerms(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.ValidationEnabled() {
		return fmt.Errorf("validation is disabled")
	}

	if timeout := a.cfg.PipelineOptions().StageTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := a.validator.ValidateBatch(ctx, args)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if res.Failed > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d terms could not be validated\n", res.Failed)
	}

	// Records in argument order, one per distinct term
	records := make([]types.ValidationRecord, 0, len(res.Records))
	seen := make(map[string]bool, len(args))
	for _, term := range args {
		key := types.TermKey(term)
		rec, ok := res.Records[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}

	if validateVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintValidation(res.Records)
	}
	return writeOutput(cmd, validateOutPath, "", records)
}
