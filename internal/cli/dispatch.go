// Package cli builds the jtask command tree and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"jtask/internal/commands"
	"jtask/internal/config"
	"jtask/internal/exitcode"
	"jtask/internal/logging"
	"jtask/internal/service"
	"jtask/internal/state"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error)

// StoreFactory opens the conversation store for cfg.
type StoreFactory func(cfg *config.Config) (state.Store, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStoreFactory replaces state.Open.
func WithStoreFactory(f StoreFactory) Option {
	return func(d *Dispatcher) { d.stores = f }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	stores   StoreFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
		stores:   state.Open,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// globals are the flags shared by every command.
type globals struct {
	configDir    string
	quiet        bool
	debug        bool
	conversation string
}

// Run parses arguments and dispatches to the appropriate command.
// With no command, list runs. Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	var g globals
	code := exitcode.Success

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Manage Jira tasks by title",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			list, ok := d.registry.Find("list")
			if !ok {
				return fmt.Errorf("unknown command: list")
			}
			code = d.execute(ctx, &g, list, nil, out, errOut)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&g.configDir, "config", "", "config directory (default: $XDG_CONFIG_HOME/jtask)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress informational output and activities")
	pf.BoolVar(&g.debug, "debug", false, "enable debug logging")
	pf.StringVar(&g.conversation, "conversation", config.DefaultConversationID, "conversation whose task records are used")

	for _, cmd := range d.registry.All() {
		cmd := cmd
		cc := &cobra.Command{
			Use:     cmd.Name(),
			Aliases: cmd.Aliases(),
			Short:   cmd.Synopsis(),
			Example: "  " + cmd.Usage(),
			RunE: func(_ *cobra.Command, args []string) error {
				code = d.execute(ctx, &g, cmd, args, out, errOut)
				return nil
			},
		}
		cmd.RegisterFlags(cc.Flags())
		root.AddCommand(cc)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return code
}

func (d *Dispatcher) execute(ctx context.Context, g *globals, cmd commands.Command, args []string, out, errOut io.Writer) int {
	cfg, err := config.Load(g.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = g.quiet
	cfg.Debug = g.debug

	logger := logging.New(errOut, logLevel(cfg), cfg.Log.Format)

	var svc service.Service
	if cmd.NeedsAuth() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no Jira backend configured")
			return exitcode.BackendError
		}
		svc, err = d.factory(ctx, cfg, logger)
		if err != nil {
			if errors.Is(err, service.ErrAuth) {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	open := func() (state.Store, error) { return d.stores(cfg) }
	sess := commands.NewSession(svc, open, g.conversation, logger)
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("close state", "err", err)
		}
	}()

	return cmd.Run(ctx, cfg, sess, args, out, errOut)
}

// logLevel picks --debug first, then log.level, then warn.
func logLevel(cfg *config.Config) slog.Level {
	switch {
	case cfg.Debug:
		return slog.LevelDebug
	case cfg.Log.Level != "":
		return logging.ParseLevel(cfg.Log.Level)
	default:
		return slog.LevelWarn
	}
}
