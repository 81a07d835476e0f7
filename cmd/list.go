package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/content"
)

var listCmd = &cobra.Command{
	Use:     "list <kind>",
	Aliases: []string{"l", "ls"},
	Short:   "List the records of a content kind",
	Long: `List the records of one content kind (projects, learnings or podcasts),
newest first, with their category, date and localized title.

Examples:
  folio list projects                     # Table of every project
  folio list learnings -c DevOps          # Only one category
  folio list projects --featured -n 3     # The first three featured projects
  folio list podcasts -o json             # Full records as JSON
  folio list projects -o csv              # CSV for spreadsheets`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindArgs(),
	RunE:      runList,
}

var listFlags *StandardFlags

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, []string{"table", "json", "yaml", "csv"}, "query", "output")
}

func kindArgs() []string {
	args := make([]string, len(content.Kinds))
	for i, k := range content.Kinds {
		args[i] = string(k)
	}
	return args
}

func runList(cmd *cobra.Command, args []string) error {
	if err := listFlags.ValidateFlags(); err != nil {
		return err
	}

	svc, err := newServices(cmd)
	if err != nil {
		return err
	}
	src, err := svc.Source(args[0])
	if err != nil {
		return err
	}

	records := listFlags.Query().Apply(src.Records(cmd.Context()))
	if records == nil {
		records = []content.Record{}
	}
	return outputRecords(cmd.OutOrStdout(), listFlags.Format(), records, svc.Locale(), listFlags.Quiet)
}
