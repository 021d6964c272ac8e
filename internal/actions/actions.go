// Package actions implements the task actions a conversational bot invokes:
// create, update, delete, query and list. Each action takes the caller's
// conversation turn and parameters and returns a Markdown message.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jtask/internal/activity"
	"jtask/internal/config"
	"jtask/internal/logging"
	"jtask/internal/lookup"
	"jtask/internal/output"
	"jtask/internal/service"
	"jtask/internal/state"
)

// ErrNoSink is returned by ListTasks when the turn carries no activity sink.
var ErrNoSink = errors.New("actions: turn has no activity sink")

const titleRequired = "**A task title is required.**"

// Settings are the project conventions the actions apply.
type Settings struct {
	ProjectKey string

	// AdminIdentity is the name or email used when no assignee resolves.
	AdminIdentity string

	IssueType       string
	PageSize        int
	DefaultStatuses []string

	// Transitions maps an accepted status value to its transition id.
	Transitions map[string]string

	// Notify is config.NotifyErrors or config.NotifyAll.
	Notify string

	// Location is the zone timestamps are rendered in.
	Location *time.Location
}

// SettingsFromConfig extracts Settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ProjectKey:      cfg.Jira.ProjectKey,
		AdminIdentity:   cfg.Jira.AdminEmail,
		IssueType:       cfg.Jira.IssueType,
		PageSize:        cfg.Jira.PageSize,
		DefaultStatuses: cfg.Jira.DefaultStatuses,
		Transitions:     cfg.Jira.Transitions,
		Notify:          cfg.Notify,
		Location:        cfg.Location(),
	}
}

// Turn is the caller side of one action invocation: the conversation whose
// task records may change, and where interim messages go. Either may be nil;
// a nil Conversation skips local bookkeeping.
type Turn struct {
	Conversation state.Conversation
	Sink         activity.Sink
}

// Actions runs task actions against a tracker.
type Actions struct {
	svc      service.Service
	settings Settings
	resolver *lookup.Resolver
	finder   *lookup.Finder
	logger   *slog.Logger
}

// Option configures Actions.
type Option func(*Actions)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Actions) { a.logger = l }
}

// New creates Actions backed by svc.
func New(svc service.Service, settings Settings, opts ...Option) *Actions {
	a := &Actions{svc: svc, settings: settings}
	for _, opt := range opts {
		opt(a)
	}
	if a.settings.IssueType == "" {
		a.settings.IssueType = config.DefaultIssueType
	}
	if a.settings.PageSize <= 0 {
		a.settings.PageSize = config.DefaultPageSize
	}
	if len(a.settings.DefaultStatuses) == 0 {
		a.settings.DefaultStatuses = config.DefaultStatuses
	}
	if len(a.settings.Transitions) == 0 {
		a.settings.Transitions = config.DefaultTransitions
	}
	if a.settings.Notify == "" {
		a.settings.Notify = config.NotifyErrors
	}
	if a.settings.Location == nil {
		a.settings.Location = time.Local
	}
	a.wire(logging.OrDiscard(a.logger))
	return a
}

// WithLogger returns a copy of a that logs to l, for per-request attributes.
func (a *Actions) WithLogger(l *slog.Logger) *Actions {
	c := *a
	c.wire(logging.OrDiscard(l))
	return &c
}

func (a *Actions) wire(logger *slog.Logger) {
	a.logger = logger
	a.resolver = lookup.NewResolver(a.svc, logger)
	a.finder = lookup.NewFinder(a.svc, lookup.FinderConfig{
		ProjectKey:      a.settings.ProjectKey,
		IssueType:       a.settings.IssueType,
		DefaultStatuses: a.settings.DefaultStatuses,
		PageSize:        a.settings.PageSize,
	}, a.resolver, logger)
}

// Settings returns the effective settings.
func (a *Actions) Settings() Settings {
	return a.settings
}

// notifyError pushes a failure message regardless of policy.
func (a *Actions) notifyError(ctx context.Context, turn Turn, msg string) {
	activity.Send(ctx, turn.Sink, a.logger, msg)
}

// notifyOutcome pushes a non-failure outcome when the policy asks for it.
func (a *Actions) notifyOutcome(ctx context.Context, turn Turn, msg string) {
	if a.settings.Notify == config.NotifyAll {
		activity.Send(ctx, turn.Sink, a.logger, msg)
	}
}

// findOne resolves title to a single issue. Otherwise msg explains why; err
// is set when the search itself failed.
func (a *Actions) findOne(ctx context.Context, title, verb string) (issue service.Issue, msg string, err error) {
	issues, err := a.finder.FindByTitle(ctx, title)
	switch {
	case err != nil:
		return service.Issue{}, searchFailed(title, err), err
	case len(issues) == 0:
		return service.Issue{}, notFound(title), nil
	case len(issues) > 1:
		var b strings.Builder
		output.Candidates(&b, title, issues, verb)
		return service.Issue{}, b.String(), nil
	}
	return issues[0], "", nil
}

func notFound(title string) string {
	return fmt.Sprintf("**No issue found in JIRA matching '%s'.**", title)
}

func searchFailed(title string, err error) string {
	return fmt.Sprintf("**Could not search JIRA for '%s': %s**", title, err)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
