package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/folio/internal/content"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port    int
	Host    string
	NoWatch bool

	// Query flags
	Category string
	Featured bool
	Limit    int

	// Output flags
	OutputFormat string
	Quiet        bool

	formats []string
	groups  map[string]bool
}

// AddStandardFlags adds standard flags to a command. The output group
// accepts the given formats, the first being the default.
func AddStandardFlags(cmd *cobra.Command, formats []string, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{formats: formats, groups: make(map[string]bool)}

	for _, flagType := range flagTypes {
		flags.groups[flagType] = true
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "query":
			addQueryFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 3000, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().BoolVar(&flags.NoWatch, "no-watch", false, "Disable live reload on content changes")
	AddFlagValidation(cmd, "port", ValidatePort)
}

func addQueryFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Category, "category", "c", "", "Only records in this category")
	cmd.Flags().BoolVar(&flags.Featured, "featured", false, "Only featured records")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 0, "Maximum number of records (0 for all)")
	AddFlagValidation(cmd, "limit", ValidateNonNegative)
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	def := "table"
	if len(flags.formats) > 0 {
		def = flags.formats[0]
	}
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", def,
		fmt.Sprintf("Output format (%s)", strings.Join(flags.formats, "|")))
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress informational output")
	AddFlagValidation(cmd, "output", func(format string) error {
		return ValidateFormatWithSuggestion(format, flags.formats)
	})
}

// Query returns the record query described by the query flags.
func (f *StandardFlags) Query() content.Query {
	return content.Query{Category: f.Category, Featured: f.Featured, Limit: f.Limit}
}

// Format returns the normalised output format.
func (f *StandardFlags) Format() string {
	return strings.ToLower(strings.TrimSpace(f.OutputFormat))
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.groups["server"] {
		if err := ValidatePort(strconv.Itoa(f.Port)); err != nil {
			return err
		}
		if strings.TrimSpace(f.Host) == "" {
			return fmt.Errorf("host cannot be empty")
		}
	}

	if f.groups["query"] && f.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", f.Limit)
	}

	if f.groups["output"] {
		if err := ValidateFormatWithSuggestion(f.Format(), f.formats); err != nil {
			return err
		}
	}

	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(flagName)
	}
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks a port number. 0 asks the system for a free port.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateNonNegative checks an integer flag value.
func ValidateNonNegative(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid number: %s", s)
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

// ValidateFormatWithSuggestion accepts one of valid, case-insensitively,
// and suggests the closest match otherwise.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, v := range valid {
		if format == v {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
	if suggestion := closest(format, valid); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return fmt.Errorf("%s", msg)
}

// closest returns the candidate within edit distance 2 of s, if any.
func closest(s string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := editDistance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev = cur
	}
	return prev[len(b)]
}
