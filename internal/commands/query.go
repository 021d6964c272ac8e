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
	Register(&QueryCmd{})
}

// QueryCmd implements the query command.
type QueryCmd struct {
	title string
}

func (c *QueryCmd) Name() string      { return "query" }
func (c *QueryCmd) Aliases() []string { return []string{"show"} }
func (c *QueryCmd) Synopsis() string  { return "Show every task whose title matches" }
func (c *QueryCmd) Usage() string     { return "jtask query <title...>" }
func (c *QueryCmd) NeedsAuth() bool   { return true }

func (c *QueryCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "title to search for (default: positional args)")
}

func (c *QueryCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	title := titleFrom(c.title, args)
	if !requireTitle(title, errOut) {
		return exitcode.UserError
	}

	return runAction(ctx, cfg, sess, out, errOut, func(a *actions.Actions, turn actions.Turn) (string, error) {
		return a.QueryTask(ctx, turn, actions.QueryParams{Title: title}), nil
	})
}
