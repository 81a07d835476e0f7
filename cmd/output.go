package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/i18n"
)

var recordColumns = []string{"id", "category", "date", "featured", "title"}

func recordRow(r content.Record, locale i18n.Locale) []string {
	meta := r.Metadata()
	return []string{
		meta.ID,
		meta.Category,
		meta.Date,
		strconv.FormatBool(meta.Featured),
		content.Heading(r).Resolve(locale),
	}
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(v)
}

func outputTable(w io.Writer, records []content.Record, locale i18n.Locale, quiet bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, len(recordColumns))
	separator := make([]string, len(recordColumns))
	for i, c := range recordColumns {
		header[i] = strings.ToUpper(c)
		separator[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(separator, "\t"))

	for _, r := range records {
		fmt.Fprintln(tw, strings.Join(recordRow(r, locale), "\t"))
	}
	if !quiet {
		fmt.Fprintf(tw, "\nTotal: %d records\n", len(records))
	}

	return tw.Flush()
}

func outputCSV(w io.Writer, records []content.Record, locale i18n.Locale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r, locale)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// outputRecords writes records in one of the list formats.
func outputRecords(w io.Writer, format string, records []content.Record, locale i18n.Locale, quiet bool) error {
	switch format {
	case "json":
		return outputJSON(w, records)
	case "yaml":
		return outputYAML(w, records)
	case "csv":
		return outputCSV(w, records, locale)
	case "table":
		return outputTable(w, records, locale, quiet)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
