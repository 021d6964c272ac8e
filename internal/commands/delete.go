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
	Register(&DeleteCmd{})
}

// DeleteCmd implements the delete command.
type DeleteCmd struct {
	title string
}

func (c *DeleteCmd) Name() string      { return "delete" }
func (c *DeleteCmd) Aliases() []string { return []string{"rm"} }
func (c *DeleteCmd) Synopsis() string  { return "Delete a task from Jira" }
func (c *DeleteCmd) Usage() string     { return "jtask delete <title...>" }
func (c *DeleteCmd) NeedsAuth() bool   { return true }

func (c *DeleteCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "task title (default: positional args)")
}

func (c *DeleteCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	title := titleFrom(c.title, args)
	if !requireTitle(title, errOut) {
		return exitcode.UserError
	}

	return runAction(ctx, cfg, sess, out, errOut, func(a *actions.Actions, turn actions.Turn) (string, error) {
		return a.DeleteTask(ctx, turn, actions.DeleteParams{Title: title}), nil
	})
}
