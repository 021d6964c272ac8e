package actions

import (
	"context"
	"fmt"
)

// UpdateTask moves the single issue matching p.Title to p.Status. Only the
// statuses in the transition table are accepted. The conversation's task
// record is left as it is.
func (a *Actions) UpdateTask(ctx context.Context, turn Turn, p UpdateParams) string {
	if blank(p.Title) {
		return titleRequired
	}
	log := a.logger.With("action", "updateTask", "title", p.Title)

	issue, msg, err := a.findOne(ctx, p.Title, "update")
	if err != nil {
		a.notifyError(ctx, turn, msg)
		return msg
	}
	if msg != "" {
		return msg
	}

	transitionID, known := a.settings.Transitions[p.Status]
	if !known {
		msg := fmt.Sprintf("**Invalid status '%s'.**", p.Status)
		a.notifyError(ctx, turn, msg)
		return msg
	}

	if err := a.svc.TransitionIssue(ctx, issue.Key, transitionID); err != nil {
		log.Error("transition failed", "key", issue.Key, "transition", transitionID, "err", err)
		a.notifyError(ctx, turn, fmt.Sprintf("**Error updating task '%s': %s**", p.Title, err))
		return fmt.Sprintf("**Failed to update task '%s'.**", p.Title)
	}
	log.Info("task transitioned", "key", issue.Key, "status", p.Status)

	msg = fmt.Sprintf("**Task '%s' updated to '%s'.**", p.Title, p.Status)
	a.notifyOutcome(ctx, turn, msg)
	return msg
}
