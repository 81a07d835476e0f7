package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/build"
	"github.com/conneroisu/folio/internal/deploy"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [dir]",
	Short: "Upload the exported site to an S3-compatible bucket",
	Long: `Upload every file of the export directory (default build.output_dir) to
the configured bucket, creating the bucket when it does not exist.

Credentials come from the deploy section of .folio.yml or from
FOLIO_DEPLOY_ACCESS_KEY and FOLIO_DEPLOY_SECRET_KEY.

Examples:
  folio deploy                          # Upload build.output_dir
  folio deploy --build                  # Export first, then upload
  folio deploy dist --prefix v2         # Upload dist under v2/
  folio deploy --dry-run                # List the objects only`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeploy,
}

var (
	deployBuild  bool
	deployDryRun bool
	deployFormat string
)

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().String("endpoint", "", "Object storage endpoint (host:port)")
	deployCmd.Flags().String("bucket", "", "Target bucket")
	deployCmd.Flags().String("prefix", "", "Key prefix inside the bucket")
	deployCmd.Flags().BoolVar(&deployBuild, "build", false, "Export the site before uploading")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "List the objects without uploading")
	deployCmd.Flags().StringVarP(&deployFormat, "format", "f", "text", "Output format (text, json)")
	AddFlagValidation(deployCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})

	bindFlag("deploy.endpoint", deployCmd.Flags().Lookup("endpoint"))
	bindFlag("deploy.bucket", deployCmd.Flags().Lookup("bucket"))
	bindFlag("deploy.prefix", deployCmd.Flags().Lookup("prefix"))
}

func runDeploy(cmd *cobra.Command, args []string) error {
	svc, err := newServices(cmd)
	if err != nil {
		return err
	}

	dir := svc.cfg.Build.OutputDir
	if len(args) == 1 {
		dir = args[0]
	}

	if deployBuild {
		opts, err := buildOptions(svc)
		if err != nil {
			return err
		}
		opts.OutputDir = dir
		pages, err := svc.Site()
		if err != nil {
			return err
		}
		if _, err := build.NewExporter(svc.catalog, pages, opts, svc.logger).Export(cmd.Context()); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	if deployDryRun {
		if err := svc.cfg.Deploy.Validate(); err != nil {
			return err
		}
		objects, err := deploy.NewWithStore(nil, svc.cfg.Deploy, svc.logger).Plan(dir)
		if err != nil {
			return err
		}
		if strings.EqualFold(deployFormat, "json") {
			return outputJSON(w, objects)
		}
		for _, o := range objects {
			fmt.Fprintf(w, "%s\t%s\t%d\n", o.Key, o.ContentType, o.Size)
		}
		return nil
	}

	deployer, err := deploy.New(svc.cfg.Deploy, svc.logger)
	if err != nil {
		return err
	}
	result, err := deployer.Deploy(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}

	if strings.EqualFold(deployFormat, "json") {
		return outputJSON(w, result)
	}
	fmt.Fprintf(w, "Uploaded %d objects (%d bytes) to %s in %s\n",
		len(result.Objects), result.Bytes, result.Bucket, result.Duration.Round(time.Millisecond))
	return nil
}
