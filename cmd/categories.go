package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:       "categories <kind>",
	Short:     "List the categories used by a content kind",
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindArgs(),
	RunE:      runCategories,
}

var categoriesFlags *StandardFlags

func init() {
	rootCmd.AddCommand(categoriesCmd)

	categoriesFlags = AddStandardFlags(categoriesCmd, []string{"text", "json", "yaml"}, "output")
}

func runCategories(cmd *cobra.Command, args []string) error {
	if err := categoriesFlags.ValidateFlags(); err != nil {
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

	categories := src.Categories(cmd.Context())
	if categories == nil {
		categories = []string{}
	}

	w := cmd.OutOrStdout()
	switch categoriesFlags.Format() {
	case "json":
		return outputJSON(w, categories)
	case "yaml":
		return outputYAML(w, categories)
	default:
		for _, c := range categories {
			fmt.Fprintln(w, c)
		}
		return nil
	}
}
