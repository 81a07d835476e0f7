package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show <kind> <id>",
	Short: "Show one record",
	Long: `Show one record by identity. The text format prints the localized header
fields followed by the body; --html renders the body to HTML instead.

Examples:
  folio show projects folio               # Header and Markdown body
  folio show learnings k8s --html         # Body rendered to HTML
  folio show podcasts ep-1 -o json        # The record as JSON`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

var (
	showFlags *StandardFlags
	showHTML  bool
)

func init() {
	rootCmd.AddCommand(showCmd)

	showFlags = AddStandardFlags(showCmd, []string{"text", "json", "yaml"}, "output")
	showCmd.Flags().BoolVar(&showHTML, "html", false, "Render the body to HTML")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := showFlags.ValidateFlags(); err != nil {
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

	record, ok := src.Record(cmd.Context(), args[1])
	if !ok {
		return fmt.Errorf("%s not found: %s", src.Kind(), args[1])
	}

	w := cmd.OutOrStdout()
	switch showFlags.Format() {
	case "json":
		return outputJSON(w, record)
	case "yaml":
		return outputYAML(w, record)
	default:
		return outputRecordText(w, record, svc.Locale(), showHTML)
	}
}

func outputRecordText(w io.Writer, r content.Record, locale i18n.Locale, html bool) error {
	meta := r.Metadata()
	fmt.Fprintln(w, content.Heading(r).Resolve(locale))
	if summary := content.Summary(r).Resolve(locale); summary != "" {
		fmt.Fprintln(w, summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "ID:       %s\n", meta.ID)
	fmt.Fprintf(w, "Category: %s\n", meta.Category)
	fmt.Fprintf(w, "Date:     %s\n", i18n.FormatDate(meta.Date, locale))
	fmt.Fprintf(w, "Featured: %t\n", meta.Featured)
	if meta.SourcePath != "" {
		fmt.Fprintf(w, "File:     %s\n", meta.SourcePath)
	}

	body := strings.TrimSpace(meta.Content)
	if body == "" {
		return nil
	}
	if html {
		rendered, err := render.New(render.DefaultOptions()).Render(body)
		if err != nil {
			return fmt.Errorf("render body: %w", err)
		}
		body = strings.TrimSpace(rendered)
	}
	_, err := fmt.Fprintf(w, "\n%s\n", body)
	return err
}
