package actions

import (
	"context"
	"fmt"
)

// DeleteTask deletes the single issue matching p.Title and drops the
// conversation's record of it.
func (a *Actions) DeleteTask(ctx context.Context, turn Turn, p DeleteParams) string {
	if blank(p.Title) {
		return titleRequired
	}
	log := a.logger.With("action", "deleteTask", "title", p.Title)

	issue, msg, err := a.findOne(ctx, p.Title, "delete")
	if err != nil {
		a.notifyError(ctx, turn, msg)
		return msg
	}
	if msg != "" {
		a.notifyOutcome(ctx, turn, msg)
		return msg
	}

	if err := a.svc.DeleteIssue(ctx, issue.Key); err != nil {
		log.Error("delete failed", "key", issue.Key, "err", err)
		a.notifyError(ctx, turn, fmt.Sprintf("**Error deleting task '%s': %s**", p.Title, err))
		return fmt.Sprintf("**Failed to delete task '%s'.**", p.Title)
	}
	log.Info("task deleted", "key", issue.Key)

	if turn.Conversation != nil {
		if err := turn.Conversation.DeleteTask(ctx, p.Title); err != nil {
			log.Error("forget task locally", "err", err)
		}
	}

	msg = fmt.Sprintf("**Task '%s' deleted from JIRA.**", p.Title)
	a.notifyOutcome(ctx, turn, msg)
	return msg
}
