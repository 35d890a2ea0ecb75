package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/gridroute/internal/actions"
	"github.com/JonMunkholm/gridroute/internal/config"
	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/logging"
	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/JonMunkholm/gridroute/internal/store"
	"github.com/spf13/cobra"
)

// session is one command's view of the store: the backend plus a router
// with the built-in actions registered on it.
type session struct {
	backend store.Backend
	router  *route.Router
	out     *OutputFormatter
}

// loadConfig reads the environment and applies the --store and --file
// overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	lookup := o.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, err := config.LoadFrom(lookup)
	if err != nil {
		return nil, err
	}

	if o.Backend != "" {
		cfg.Store.Backend = o.Backend
	}
	if o.File != "" {
		switch cfg.Store.Backend {
		case config.BackendXLSX:
			cfg.Store.XLSXPath = o.File
		case config.BackendSQLite:
			cfg.Store.SQLitePath = o.File
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(ctx context.Context, o *RootOptions, cmd *cobra.Command) (*session, error) {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}

	var sheetOpts []grid.SheetOption
	if cfg.Dispatch.StrictGrids {
		sheetOpts = append(sheetOpts, grid.WithStrict())
	}
	resolver := route.NewResolver(backend, sheetOpts...)
	rt := route.NewRouter(resolver)
	if err := actions.Register(rt, actions.New(resolver)); err != nil {
		backend.Close()
		return nil, WrapExitError(ExitCommandError, "register actions", err)
	}

	return &session{
		backend: backend,
		router:  rt,
		out:     &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()},
	}, nil
}

func (s *session) Close() error {
	return s.backend.Close()
}

// dispatch runs one action. A response with status "error" is printed and
// turned into an ExitFailure so scripts can test the exit code.
func (s *session) dispatch(ctx context.Context, verb route.Verb, req *route.Request) (route.Response, error) {
	resp, err := s.router.Dispatch(ctx, verb, req)
	if err != nil {
		_ = s.out.Error(err.Error())
		return route.Response{}, WrapExitError(ExitFailure, fmt.Sprintf("%s %s", verb, req.Action()), err)
	}
	if resp.Status == route.StatusError {
		_ = s.out.Error(resp.Message)
		return resp, NewExitError(ExitFailure, resp.Message)
	}
	return resp, nil
}

// header returns the column names of table.
func (s *session) header(ctx context.Context, table string) ([]string, error) {
	resp, err := s.dispatch(ctx, route.VerbGet, route.NewRequest(map[string]string{
		"action":         actions.ActionHeader,
		route.TableParam: table,
	}))
	if err != nil {
		return nil, err
	}
	header, _ := resp.Data.([]string)
	return header, nil
}

// withSession opens a session for the duration of fn.
func withSession(o *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, o, cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
