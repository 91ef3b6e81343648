package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/config"
	"github.com/Vijaysplendor/migaccel/internal/state"
)

func newStatusCmd() *cobra.Command {
	var (
		limit int
		id    string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent dispatch history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.Open(state.DefaultPath(config.DefaultStateDir))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if id != "" {
				return showDispatch(store, id)
			}
			return showRecent(store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of dispatches to show")
	cmd.Flags().StringVar(&id, "id", "", "show step detail for one dispatch")

	return cmd
}

func showRecent(store *state.Store, limit int) error {
	dispatches, err := store.Recent(limit)
	if err != nil {
		return err
	}
	if len(dispatches) == 0 {
		fmt.Fprintln(os.Stdout, "no dispatches recorded")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tFAILED STEP\tEXIT")
	for _, d := range dispatches {
		failedStep := d.FailedStep
		if failedStep == "" {
			failedStep = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			d.ID, d.StartedAt.Format(time.RFC3339), d.Status, failedStep, d.ExitCode)
	}
	return tw.Flush()
}

func showDispatch(store *state.Store, id string) error {
	steps, err := store.Steps(id)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("no steps recorded for dispatch %s", id)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATE\tDURATION\tERROR")
	for _, s := range steps {
		errMsg := s.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.State, s.Duration, errMsg)
	}
	return tw.Flush()
}
