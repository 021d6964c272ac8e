package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"jtask/internal/actions"
	"jtask/internal/config"
	"jtask/internal/exitcode"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
type ListCmd struct {
	startAt    int
	statuses   []string
	assignee   string
	priorities []string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List project tasks, one page at a time" }
func (c *ListCmd) Usage() string {
	return "jtask list [--status <s>]... [--assignee <name>] [--priority <p>]... [--start-at <n>]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.startAt, "start-at", 0, "zero-based offset of the first task")
	fs.StringSliceVarP(&c.statuses, "status", "s", nil, "status to include (default: configured statuses)")
	fs.StringVarP(&c.assignee, "assignee", "a", "", "only tasks assigned to this person")
	fs.StringSliceVarP(&c.priorities, "priority", "p", nil, "priority to include")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.startAt < 0 {
		fmt.Fprintln(errOut, "error: --start-at must not be negative")
		return exitcode.UserError
	}

	return runAction(ctx, cfg, sess, out, errOut, func(a *actions.Actions, turn actions.Turn) (string, error) {
		return a.ListTasks(ctx, turn, actions.ListParams{
			StartAt:    actions.Offset(c.startAt),
			Statuses:   c.statuses,
			Assignee:   c.assignee,
			Priorities: c.priorities,
		})
	})
}
