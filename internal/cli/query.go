package cli

import (
	"context"
	"strings"

	"github.com/JonMunkholm/gridroute/internal/actions"
	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/spf13/cobra"
)

// NewHeaderCommand creates the header command.
func NewHeaderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "header <table>",
		Short: "Print the column names of a grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				header, err := s.header(ctx, args[0])
				if err != nil {
					return err
				}
				return s.out.Strings(header)
			})
		},
	}
}

// RowsOptions holds flags for the rows command.
type RowsOptions struct {
	*RootOptions
	Column string
	Value  string
	Select string
}

// NewRowsCommand creates the rows command.
func NewRowsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RowsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rows <table>",
		Short: "Print the rows of a grid",
		Long: `Print every row of a grid, the rows where one column matches a value,
or a projection onto some columns.

Values match loosely: --value 1 finds the number 1 as well as the text "1".

Example:
  gridctl rows Orders
  gridctl rows Orders --column item --value bolt
  gridctl rows Orders --select id,qty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRows(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Column, "column", "", "column to match")
	cmd.Flags().StringVar(&opts.Value, "value", "", "value the column must equal")
	cmd.Flags().StringVar(&opts.Select, "select", "", "comma-separated columns to keep")
	cmd.MarkFlagsRequiredTogether("column", "value")
	cmd.MarkFlagsMutuallyExclusive("column", "select")

	return cmd
}

func runRows(opts *RowsOptions, table string, cmd *cobra.Command) error {
	params := map[string]string{
		"action":         actions.ActionList,
		route.TableParam: table,
	}
	switch {
	case opts.Column != "":
		params["action"] = actions.ActionFind
		params["column"] = opts.Column
		params["value"] = opts.Value
	case opts.Select != "":
		params["action"] = actions.ActionSelect
		params["columns"] = opts.Select
	}

	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		resp, err := s.dispatch(ctx, route.VerbGet, route.NewRequest(params))
		if err != nil {
			return err
		}
		records, _ := resp.Data.([]grid.Record)

		if s.out.JSON() {
			return s.out.Records(nil, records)
		}

		var columns []string
		if opts.Select != "" {
			for _, c := range strings.Split(opts.Select, ",") {
				if c = strings.TrimSpace(c); c != "" {
					columns = append(columns, c)
				}
			}
		} else if columns, err = s.header(ctx, table); err != nil {
			return err
		}
		return s.out.Records(columns, records)
	})
}
