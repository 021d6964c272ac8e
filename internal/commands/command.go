// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"jtask/internal/actions"
	"jtask/internal/activity"
	"jtask/internal/config"
	"jtask/internal/exitcode"
	"jtask/internal/logging"
	"jtask/internal/service"
	"jtask/internal/state"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command talks to Jira.
	// Commands like version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, settings).
	// sess.Service is nil if NeedsAuth() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int
}

// Session carries what a command run needs beyond its configuration.
type Session struct {
	Service        service.Service
	ConversationID string
	Logger         *slog.Logger

	open  func() (state.Store, error)
	store state.Store
}

// NewSession creates a Session. The store is opened on first use.
func NewSession(svc service.Service, open func() (state.Store, error), conversationID string, logger *slog.Logger) *Session {
	if conversationID == "" {
		conversationID = config.DefaultConversationID
	}
	return &Session{
		Service:        svc,
		ConversationID: conversationID,
		Logger:         logging.OrDiscard(logger),
		open:           open,
	}
}

// Store returns the conversation store, opening it if needed.
func (s *Session) Store() (state.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	if s.open == nil {
		return nil, fmt.Errorf("no conversation store configured")
	}
	store, err := s.open()
	if err != nil {
		return nil, err
	}
	s.store = store
	return store, nil
}

// Close closes the store if it was opened.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Actions builds the task actions for cfg.
func (s *Session) Actions(cfg *config.Config) *actions.Actions {
	return actions.New(s.Service, actions.SettingsFromConfig(cfg), actions.WithLogger(s.Logger))
}

// runAction runs one task action for the CLI conversation. The result goes
// to out; activities go to errOut unless quiet.
func runAction(ctx context.Context, cfg *config.Config, sess *Session, out, errOut io.Writer,
	fn func(a *actions.Actions, turn actions.Turn) (string, error)) int {
	if sess.Service == nil {
		fmt.Fprintln(errOut, "error: not connected to Jira")
		return exitcode.AuthError
	}

	store, err := sess.Store()
	if err != nil {
		fmt.Fprintf(errOut, "error: state: %v\n", err)
		return exitcode.BackendError
	}
	conv, err := store.Conversation(ctx, sess.ConversationID)
	if err != nil {
		fmt.Fprintf(errOut, "error: state: %v\n", err)
		return exitcode.BackendError
	}

	var sink activity.Sink = activity.NewWriter(errOut)
	if cfg.Quiet {
		sink = activity.Func(func(context.Context, string) error { return nil })
	}

	result, err := fn(sess.Actions(cfg), actions.Turn{Conversation: conv, Sink: sink})
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	fmt.Fprintln(out, result)
	return exitcode.Success
}

// titleFrom prefers the --title flag and otherwise joins the positional args.
func titleFrom(flagTitle string, args []string) string {
	if strings.TrimSpace(flagTitle) != "" {
		return flagTitle
	}
	return strings.Join(args, " ")
}

// requireTitle reports a missing title. It returns false when the caller
// should stop.
func requireTitle(title string, errOut io.Writer) bool {
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return false
	}
	return true
}
