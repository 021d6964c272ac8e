package actions

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"jtask/internal/service"
	"jtask/internal/state"
)

// CreateTask creates an issue titled p.Title unless one already matches and
// p.ForceCreate is false. The first assignee is resolved, falling back to the
// admin identity, then to leaving the issue unassigned. On success the
// conversation records the task under its title.
func (a *Actions) CreateTask(ctx context.Context, turn Turn, p CreateParams) string {
	if blank(p.Title) {
		return titleRequired
	}
	log := a.logger.With("action", "createTask", "title", p.Title)

	if !p.ForceCreate {
		existing, err := a.finder.FindByTitle(ctx, p.Title)
		if err != nil {
			msg := searchFailed(p.Title, err)
			a.notifyError(ctx, turn, msg)
			return msg
		}
		if len(existing) > 0 {
			keys := make([]string, len(existing))
			for i, iss := range existing {
				keys[i] = iss.Key
			}
			log.Info("duplicate title, not creating", "keys", keys)
			return fmt.Sprintf("**Task with title '%s' already exists in JIRA with key(s): %s.**", p.Title, strings.Join(keys, ", "))
		}
	}

	created, err := a.svc.CreateIssue(ctx, service.CreateRequest{
		ProjectKey:  a.settings.ProjectKey,
		Summary:     p.Title,
		Description: p.Description,
		IssueType:   a.settings.IssueType,
		AssigneeID:  a.resolveAssignee(ctx, p.Assignees),
	})
	if err != nil {
		log.Error("create failed", "err", err)
		a.notifyError(ctx, turn, fmt.Sprintf("**Error creating task in JIRA: %s**", err))
		return "**Failed to create task in JIRA.**"
	}
	log.Info("task created", "key", created.Key)

	a.remember(ctx, turn, state.TaskRecord{
		Title:       p.Title,
		Description: p.Description,
		Assignees:   slices.Clone(p.Assignees),
		IssueKey:    created.Key,
		IssueURL:    a.svc.BrowseURL(created.Key),
	})
	return fmt.Sprintf("**Task created in JIRA with key %s.**", created.Key)
}

// resolveAssignee returns the account id to assign, or "" for unassigned.
func (a *Actions) resolveAssignee(ctx context.Context, assignees []string) string {
	admin := a.settings.AdminIdentity
	primary := admin
	if len(assignees) > 0 && !blank(assignees[0]) {
		primary = assignees[0]
	}

	if user, err := a.resolver.ResolveUser(ctx, primary); err == nil {
		return user.AccountID
	}
	if primary == admin {
		return ""
	}
	a.logger.Debug("assignee not found, falling back to admin", "assignee", primary)
	if user, err := a.resolver.ResolveUser(ctx, admin); err == nil {
		return user.AccountID
	}
	return ""
}

// remember stores rec after a successful create. A failure is logged; the
// remote issue stays.
func (a *Actions) remember(ctx context.Context, turn Turn, rec state.TaskRecord) {
	if turn.Conversation == nil {
		return
	}
	if err := turn.Conversation.PutTask(ctx, rec); err != nil {
		a.logger.Error("record task locally", "title", rec.Title, "key", rec.IssueKey, "err", err)
	}
}
