package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/spf13/cobra"
)

// NewGridsCommand creates the grids command.
func NewGridsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grids",
		Short: "List the grids in the store",
		Long: `List every grid in store order with its id and name.

Example:
  gridctl grids
  gridctl grids --store xlsx --file ./book.xlsx --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				handles, err := s.backend.ListGrids(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "list grids", err)
				}
				if handles == nil {
					handles = []grid.Handle{}
				}
				if s.out.JSON() {
					return s.out.Success(handles)
				}

				records := make([]grid.Record, len(handles))
				for i, h := range handles {
					records[i] = grid.Record{"id": h.ID, "name": h.Name}
				}
				return s.out.Records([]string{"id", "name"}, records)
			})
		},
	}
}

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Columns string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create a grid with a header row",
		Long: `Create a new grid named <table> whose first row is the given columns.

Example:
  gridctl create Orders --columns id,item,qty`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Columns, "columns", "", "comma-separated header columns (required)")
	_ = cmd.MarkFlagRequired("columns")

	return cmd
}

func runCreate(opts *CreateOptions, table string, cmd *cobra.Command) error {
	var header []any
	for _, col := range strings.Split(opts.Columns, ",") {
		if col = strings.TrimSpace(col); col != "" {
			header = append(header, col)
		}
	}
	if len(header) == 0 {
		return NewExitError(ExitCommandError, "--columns must name at least one column")
	}

	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		if _, found, err := s.backend.GridByName(ctx, table); err != nil {
			return WrapExitError(ExitFailure, "look up grid", err)
		} else if found {
			return NewExitError(ExitFailure, fmt.Sprintf("grid %q already exists", table))
		}

		h, err := s.backend.Create(ctx, table, [][]any{header})
		if err != nil {
			return WrapExitError(ExitFailure, "create grid", err)
		}
		if s.out.JSON() {
			return s.out.Success(h)
		}
		return s.out.Success("created " + h.Name + " (id " + strconv.FormatInt(h.ID, 10) + ")")
	})
}
