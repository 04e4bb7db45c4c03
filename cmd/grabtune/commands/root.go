package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const cliExecutable = "grabtune"

// version is set during build via -ldflags "-X .../commands.version=X.Y.Z"
var version = "dev"

// NewCommand constructs the top-level grabtune CLI command with global
// flags for config path and logging verbosity.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "grabtune queues and supervises YouTube Music downloads",
		Long: "grabtune is a local backend that manages a download queue for the\n" +
			"gytmdl downloader: it runs a bounded number of downloads in parallel,\n" +
			"parses their progress, and exposes everything over a local HTTP API.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

			// -v count: 0 => Info, 1 => Debug, 2+ => Trace (per-line
			// downloader output).
			switch {
			case verbosityCount <= 0:
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			case verbosityCount == 1:
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			default:
				zerolog.SetGlobalLevel(zerolog.TraceLevel)
			}
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")

	cmd.AddCommand(newServeCommand(&configFile))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cliExecutable, version)
		},
	}
}
