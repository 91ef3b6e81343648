package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vijaysplendor/migaccel/internal/config"
)

// Version, Commit and BuildDate are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configFile string
	envFile    string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "migaccel",
		Short: "Azure DevOps classic-to-YAML pipeline migration accelerator",
		Long:  "migaccel dispatches the migration sequence (checkout, runtime, deps, invoke) and can run the classic-to-YAML conversion natively against the Azure DevOps REST API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
			return config.LoadDotenv(envFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configFile, "config", ".migaccel.yml", "path to config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env file with the access token")

	root.AddCommand(newDispatchCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newUnlockCmd())
	root.AddCommand(newVersionCmd())

	return root
}
