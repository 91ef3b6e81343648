package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/config"
	"github.com/Vijaysplendor/migaccel/internal/convert"
)

func newValidateCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the input file for valid pipeline URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("input-file") && cfg.InputFile != "" {
				inputFile = cfg.InputFile
			}

			lines, err := convert.ReadInputFile(inputFile)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("input file %s is empty", inputFile)
			}

			defs, skipped := convert.ExtractDefinitions(lines)
			for _, d := range defs {
				fmt.Fprintf(os.Stdout, "  ok   %s/%s definition %s\n", d.Organization, d.Project, d.ID)
			}
			for _, line := range skipped {
				fmt.Fprintf(os.Stdout, "  skip %s\n", line)
			}

			fmt.Fprintf(os.Stdout, "\n%d valid, %d skipped\n", len(defs), len(skipped))
			if len(defs) == 0 {
				return fmt.Errorf("no valid pipeline URLs in %s", inputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "input-file", config.DefaultInputFile, "file listing pipeline URLs to convert")

	return cmd
}
