package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"jtask/internal/actions"
	"jtask/internal/config"
	"jtask/internal/exitcode"
)

func init() {
	Register(&UpdateCmd{})
}

// UpdateCmd implements the update command.
type UpdateCmd struct {
	title  string
	status string
}

func (c *UpdateCmd) Name() string      { return "update" }
func (c *UpdateCmd) Aliases() []string { return []string{"move"} }
func (c *UpdateCmd) Synopsis() string  { return "Move a task to another status" }
func (c *UpdateCmd) Usage() string     { return "jtask update --status <inProgress|done> <title...>" }
func (c *UpdateCmd) NeedsAuth() bool   { return true }

func (c *UpdateCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "task title (default: positional args)")
	fs.StringVarP(&c.status, "status", "s", "", "target status")
}

func (c *UpdateCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	title := titleFrom(c.title, args)
	if !requireTitle(title, errOut) {
		return exitcode.UserError
	}
	if c.status == "" {
		statuses := make([]string, 0, len(cfg.Jira.Transitions))
		for s := range cfg.Jira.Transitions {
			statuses = append(statuses, s)
		}
		slices.Sort(statuses)
		fmt.Fprintf(errOut, "error: --status required (one of: %s)\n", strings.Join(statuses, ", "))
		return exitcode.UserError
	}

	return runAction(ctx, cfg, sess, out, errOut, func(a *actions.Actions, turn actions.Turn) (string, error) {
		return a.UpdateTask(ctx, turn, actions.UpdateParams{Title: title, Status: c.status}), nil
	})
}
