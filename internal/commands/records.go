package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"jtask/internal/config"
	"jtask/internal/exitcode"
)

func init() {
	Register(&RecordsCmd{})
}

// RecordsCmd prints the tasks this conversation created, as recorded
// locally. It does not contact Jira.
type RecordsCmd struct{}

func (c *RecordsCmd) Name() string      { return "records" }
func (c *RecordsCmd) Aliases() []string { return nil }
func (c *RecordsCmd) Synopsis() string  { return "Show tasks created in this conversation" }
func (c *RecordsCmd) Usage() string     { return "jtask records [--conversation <id>]" }
func (c *RecordsCmd) NeedsAuth() bool   { return false }

func (c *RecordsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RecordsCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
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
	records, err := conv.Tasks(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: state: %v\n", err)
		return exitcode.BackendError
	}

	if len(records) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks recorded")
		}
		return exitcode.Success
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.IssueKey, rec.Title, rec.IssueURL)
	}
	w.Flush()
	return exitcode.Success
}
