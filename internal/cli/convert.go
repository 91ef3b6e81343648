package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/ado"
	"github.com/Vijaysplendor/migaccel/internal/config"
	"github.com/Vijaysplendor/migaccel/internal/convert"
	"github.com/Vijaysplendor/migaccel/internal/reporter"
)

func newConvertCmd() *cobra.Command {
	var (
		patEnvVar string
		inputFile string
		orgURL    string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert classic pipelines to YAML natively, without the external script",
		Long:  "Convert reads pipeline URLs from the input file, fetches the YAML rendering of each classic definition from Azure DevOps, and pushes it to a converted-pipeline-<id> branch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("pat-env-var") && cfg.PATEnvVar != "" {
				patEnvVar = cfg.PATEnvVar
			}
			if !cmd.Flags().Changed("input-file") && cfg.InputFile != "" {
				inputFile = cfg.InputFile
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			return runConversion(ctx, patEnvVar, inputFile, orgURL, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&patEnvVar, "pat-env-var", config.DefaultPATEnvVar, "name of the env var holding the access token")
	cmd.Flags().StringVar(&inputFile, "input-file", config.DefaultInputFile, "file listing pipeline URLs to convert")
	cmd.Flags().StringVar(&orgURL, "org-url", "", "Azure DevOps service base URL (default https://dev.azure.com)")

	return cmd
}

// runConversion is the native conversion entry point shared by the convert
// command and the dispatch builtin. baseURL overrides the Azure DevOps host
// (e.g. an on-prem server, or httptest in tests); empty means dev.azure.com.
func runConversion(ctx context.Context, patEnvVar, inputFile, baseURL string, out io.Writer) error {
	pat := os.Getenv(patEnvVar)
	if pat == "" {
		return fmt.Errorf("%s environment variable not set", patEnvVar)
	}

	lines, err := convert.ReadInputFile(inputFile)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("no URLs found in input file %s", inputFile)
	}

	defs, skipped := convert.ExtractDefinitions(lines)
	if len(defs) == 0 {
		return fmt.Errorf("no valid pipeline URLs found in %s", inputFile)
	}

	fmt.Fprintf(out, "Found %d pipelines to process:\n", len(defs))
	for _, d := range defs {
		fmt.Fprintf(out, "  - %s\n", d.YAMLEndpoint())
	}
	for _, line := range skipped {
		fmt.Fprintf(out, "  (skipped: %s)\n", line)
	}

	var opts []ado.Option
	if baseURL != "" {
		opts = append(opts, ado.WithBaseURL(baseURL))
	}
	client := ado.NewClient(pat, opts...)

	summary, err := convert.New(client).Run(ctx, defs)
	if err != nil {
		return err
	}

	for _, o := range summary.Outcomes {
		if o.Ok() {
			fmt.Fprintf(out, "  ✓ pipeline %s → %s (%s)\n", o.Definition.ID, o.Branch, o.Repo)
		} else {
			fmt.Fprintf(out, "  ✗ pipeline %s: %s\n", o.Definition.ID, o.Error)
		}
	}
	rep := reporter.NewTextReporter(out, out == os.Stdout && isTerminal())
	rep.PrintConversionSummary(summary.Succeeded, summary.Failed, len(defs))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d pipelines failed", summary.Failed, len(defs))
	}
	return nil
}
