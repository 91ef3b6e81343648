package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/config"
	"github.com/Vijaysplendor/migaccel/internal/dispatch"
)

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Remove a stale dispatch lock file",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := config.DefaultStateDir

			info, err := dispatch.ReadLock(stateDir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(os.Stdout, "No lock found")
					return nil
				}
				return fmt.Errorf("read lock: %w", err)
			}

			if err := os.Remove(dispatch.LockPath(stateDir)); err != nil {
				return fmt.Errorf("remove lock: %w", err)
			}

			fmt.Fprintf(os.Stdout, "Removed lock (was PID %d, dispatch %s, since %s)\n",
				info.PID, info.DispatchID, info.StartedAt.Format(time.RFC3339))
			return nil
		},
	}
}
