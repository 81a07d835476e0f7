package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/build"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/prefs"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Export the site as static files",
	Long: `Render the home page, every list page and every record page in one
locale and theme, plus a JSON data file per content kind, into the output
directory. A sitemap.xml is written when site.base_url is set.

Examples:
  folio build                         # Export into build.output_dir
  folio build -d dist --no-clean      # Keep existing files in dist
  folio build --locale en             # English pages
  folio build --theme sakura-pink     # Light theme export
  folio build --format json           # Manifest with file hashes`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildNoClean bool
	buildWorkers int
	buildLocale  string
	buildTheme   string
	buildFormat  string
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("output-dir", "d", "public", "Output directory")
	buildCmd.Flags().BoolVar(&buildNoClean, "no-clean", false, "Keep existing files in the output directory")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "Concurrent page renders (0 for one per CPU)")
	buildCmd.Flags().StringVar(&buildLocale, "locale", "", "Locale of the exported pages (zh, en)")
	buildCmd.Flags().StringVar(&buildTheme, "theme", "", "Theme of the exported pages")
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "text", "Output format (text, json)")
	buildCmd.Flags().String("base-url", "", "Absolute site URL; enables sitemap.xml")

	AddFlagValidation(buildCmd, "workers", ValidateNonNegative)
	AddFlagValidation(buildCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})

	bindFlag("build.output_dir", buildCmd.Flags().Lookup("output-dir"))
	bindFlag("site.base_url", buildCmd.Flags().Lookup("base-url"))
}

// buildOptions applies the command flags over the configured export options.
func buildOptions(svc *services) (build.Options, error) {
	opts, err := build.OptionsFromConfig(svc.cfg)
	if err != nil {
		return build.Options{}, err
	}

	if buildNoClean {
		opts.Clean = false
	}
	opts.Workers = buildWorkers
	if buildLocale != "" {
		l, ok := i18n.ParseLocale(buildLocale)
		if !ok {
			return build.Options{}, fmt.Errorf("unsupported locale %q (want zh or en)", buildLocale)
		}
		opts.Locale = l
	}
	if buildTheme != "" {
		theme, ok := prefs.LookupTheme(buildTheme)
		if !ok {
			return build.Options{}, fmt.Errorf("unknown theme %q (want one of: %s)", buildTheme, prefs.ThemeIDs())
		}
		opts.Theme = theme
	}
	return opts, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd)
	if err != nil {
		return err
	}
	opts, err := buildOptions(svc)
	if err != nil {
		return err
	}
	pages, err := svc.Site()
	if err != nil {
		return err
	}

	result, err := build.NewExporter(svc.catalog, pages, opts, svc.logger).Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if strings.EqualFold(buildFormat, "json") {
		return outputJSON(w, result)
	}
	fmt.Fprintf(w, "Exported %d pages, %d files to %s in %s\n",
		result.Pages(), len(result.Artifacts), result.OutputDir, result.Duration.Round(time.Millisecond))
	if n := svc.diagnostics.Len(); n > 0 {
		fmt.Fprintf(w, "%d content findings; run folio validate for details\n", n)
	}
	return nil
}
