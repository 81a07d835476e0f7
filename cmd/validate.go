package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/errors"
)

var (
	validateFormat string
	validateStrict bool
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:     "validate",
	Aliases: []string{"v"},
	Short:   "Check every content file for errors and missing fields",
	Long: `Load every content kind and report what the loader found:

- Malformed front-matter (the record is skipped)
- Unsafe or duplicate identities (the record is skipped)
- Missing title, date or category (the record is kept with defaults)

The command fails when any error is found, or any warning with --strict.

Examples:
  folio validate                   # Colored report
  folio validate --strict          # Treat warnings as failures
  folio validate --format json     # Machine-readable findings`,
	Args: cobra.NoArgs,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Fail on warnings too")
	AddFlagValidation(validateCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})
}

// ValidationFinding is one diagnostic in JSON output.
type ValidationFinding struct {
	Kind     string `json:"kind"`
	File     string `json:"file,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ValidationSummary is the JSON report of validate.
type ValidationSummary struct {
	Records  map[string]int      `json:"records"`
	Errors   int                 `json:"errors"`
	Warnings int                 `json:"warnings"`
	Findings []ValidationFinding `json:"findings"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd)
	if err != nil {
		return err
	}

	summary := ValidationSummary{Records: make(map[string]int), Findings: []ValidationFinding{}}
	for _, src := range svc.catalog.Sources() {
		summary.Records[string(src.Kind())] = len(src.Records(cmd.Context()))
	}
	for _, d := range svc.diagnostics.All() {
		summary.Findings = append(summary.Findings, ValidationFinding{
			Kind:     d.Kind,
			File:     d.File,
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}
	summary.Errors = svc.diagnostics.Count(errors.SeverityError)
	summary.Warnings = svc.diagnostics.Count(errors.SeverityWarning)

	if strings.EqualFold(validateFormat, "json") {
		if err := outputJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else {
		printValidation(cmd.OutOrStdout(), svc.diagnostics.All(), summary)
	}

	if summary.Errors > 0 || (validateStrict && summary.Warnings > 0) {
		return fmt.Errorf("validation failed: %d errors, %d warnings", summary.Errors, summary.Warnings)
	}
	return nil
}

func printValidation(w io.Writer, diagnostics []errors.Diagnostic, summary ValidationSummary) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	for _, d := range diagnostics {
		label := yellow.Sprint("warning")
		if d.Severity == errors.SeverityError {
			label = red.Sprint("error")
		}
		location := d.File
		if location == "" {
			location = d.Kind
		}
		fmt.Fprintf(w, "%s %s: %s\n", label, location, d.Message)
	}

	total := 0
	for _, n := range summary.Records {
		total += n
	}
	line := fmt.Sprintf("%d records, %d errors, %d warnings", total, summary.Errors, summary.Warnings)
	switch {
	case summary.Errors > 0:
		red.Fprintln(w, line)
	case summary.Warnings > 0:
		yellow.Fprintln(w, line)
	default:
		green.Fprintln(w, line)
	}
}
