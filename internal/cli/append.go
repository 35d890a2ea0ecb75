package cli

import (
	"context"

	"github.com/JonMunkholm/gridroute/internal/actions"
	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/spf13/cobra"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	JSON string
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <table>",
		Short: "Append a row to a grid",
		Long: `Append one row built from a JSON object. Keys are column names; columns
the object does not mention are left empty.

Example:
  gridctl append Orders --json '{"id":4,"item":"washer","qty":12}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JSON, "json", "", "row as a JSON object (required)")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

func runAppend(opts *AppendOptions, table string, cmd *cobra.Command) error {
	req := route.NewRequest(map[string]string{
		"action":         actions.ActionAppend,
		route.TableParam: table,
	})
	req.Body = opts.JSON
	req.ContentType = "application/json"

	return withSession(opts.RootOptions, cmd, func(ctx context.Context, s *session) error {
		resp, err := s.dispatch(ctx, route.VerbPost, req)
		if err != nil {
			return err
		}
		if s.out.JSON() {
			return s.out.Success(resp.Data)
		}

		record, _ := resp.Data.(grid.Record)
		header, err := s.header(ctx, table)
		if err != nil {
			return err
		}
		return s.out.Records(header, []grid.Record{record})
	})
}
