// Package cli implements gridctl, a command line client that runs the
// built-in actions directly against the configured grid store.
package cli

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/gridroute/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Backend and File override STORE_BACKEND and the backend's path
	// setting when non-empty.
	Backend string
	File    string

	// lookup replaces os.LookupEnv as the config source (for testing).
	lookup config.LookupFunc
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for gridctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridctl",
		Short: "Query and append to grids",
		Long: `gridctl runs the gridroute actions against a grid store without the
HTTP server. The store is chosen by STORE_BACKEND and its settings, read from
the environment or a .env file, unless --store and --file override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "store", "", "store backend (memory|xlsx|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.File, "file", "", "workbook or database file for the xlsx and sqlite stores")

	cmd.AddCommand(NewGridsCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewHeaderCommand(opts))
	cmd.AddCommand(NewRowsCommand(opts))
	cmd.AddCommand(NewAppendCommand(opts))

	return cmd
}
