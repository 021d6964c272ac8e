package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"jtask/internal/actions"
	"jtask/internal/config"
	"jtask/internal/exitcode"
)

func init() {
	Register(&CreateCmd{})
}

// CreateCmd implements the create command.
type CreateCmd struct {
	title       string
	description string
	assignees   []string
	force       bool
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return []string{"add"} }
func (c *CreateCmd) Synopsis() string  { return "Create a task in Jira" }
func (c *CreateCmd) Usage() string {
	return "jtask create [--description <text>] [--assignee <name>]... [--force] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "task title (default: positional args)")
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringArrayVarP(&c.assignees, "assignee", "a", nil, "assignee name or email; the first one is used")
	fs.BoolVarP(&c.force, "force", "f", false, "create even if a task with this title exists")
}

func (c *CreateCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	title := titleFrom(c.title, args)
	if !requireTitle(title, errOut) {
		return exitcode.UserError
	}

	return runAction(ctx, cfg, sess, out, errOut, func(a *actions.Actions, turn actions.Turn) (string, error) {
		return a.CreateTask(ctx, turn, actions.CreateParams{
			Title:       title,
			Description: c.description,
			Assignees:   c.assignees,
			ForceCreate: c.force,
		}), nil
	})
}
