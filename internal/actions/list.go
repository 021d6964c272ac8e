package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jtask/internal/lookup"
	"jtask/internal/output"
)

// ListTasks renders one page of project issues filtered by status, assignee
// and priority. The caller pages by passing the next StartAt. A turn
// without a sink is a caller bug and returns ErrNoSink.
func (a *Actions) ListTasks(ctx context.Context, turn Turn, p ListParams) (string, error) {
	if turn.Sink == nil {
		return "", ErrNoSink
	}

	page, err := a.finder.List(ctx, lookup.Filter{
		Statuses:   p.Statuses,
		Assignee:   strings.TrimSpace(p.Assignee),
		Priorities: p.Priorities,
		StartAt:    int(p.StartAt),
	})
	var assigneeErr *lookup.AssigneeError
	switch {
	case errors.As(err, &assigneeErr):
		return fmt.Sprintf("**No user found matching '%s'.**", assigneeErr.Name), nil
	case err != nil:
		return fmt.Sprintf("**Error listing tasks: %s**", err), nil
	case len(page.Issues) == 0:
		return "**No tasks found matching the specified criteria.**", nil
	}

	var b strings.Builder
	output.ListHeader(&b, page.Total, page.StartAt, len(page.Issues))
	for _, iss := range page.Issues {
		output.IssueBlock(&b, iss, a.settings.Location)
	}
	return b.String(), nil
}
