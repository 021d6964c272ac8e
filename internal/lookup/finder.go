package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"jtask/internal/jql"
	"jtask/internal/logging"
	"jtask/internal/service"
)

// FinderConfig holds the project conventions the finder filters by.
type FinderConfig struct {
	ProjectKey      string
	IssueType       string
	DefaultStatuses []string
	PageSize        int
}

// Finder locates issues in one project.
type Finder struct {
	svc      service.Service
	cfg      FinderConfig
	resolver *Resolver
	logger   *slog.Logger
}

// NewFinder creates a Finder. The resolver is used for assignee filters.
func NewFinder(svc service.Service, cfg FinderConfig, resolver *Resolver, logger *slog.Logger) *Finder {
	if resolver == nil {
		resolver = NewResolver(svc, logger)
	}
	return &Finder{svc: svc, cfg: cfg, resolver: resolver, logger: logging.OrDiscard(logger)}
}

// FindByTitle returns every issue in the project whose summary contains
// title, in tracker order. A failed search is returned as an error rather
// than an empty slice.
func (f *Finder) FindByTitle(ctx context.Context, title string) ([]service.Issue, error) {
	q := jql.New().
		Eq("project", f.cfg.ProjectKey).
		Contains("summary", title)

	res, err := f.svc.SearchIssues(ctx, service.SearchRequest{Query: q})
	if err != nil {
		f.logger.Error("issue search failed", "title", title, "err", err)
		return nil, fmt.Errorf("search issues %q: %w", title, err)
	}
	return res.Issues, nil
}

// Filter narrows a project listing. Empty fields add no constraint, except
// Statuses, which falls back to the configured default set.
type Filter struct {
	Statuses   []string
	Assignee   string
	Priorities []string
	StartAt    int
}

// Page is one page of a listing.
type Page struct {
	Issues  []service.Issue
	Total   int
	StartAt int
}

// AssigneeError reports that a listing's assignee filter named nobody.
type AssigneeError struct {
	Name string
	Err  error
}

func (e *AssigneeError) Error() string {
	return fmt.Sprintf("no user found matching %q: %v", e.Name, e.Err)
}

func (e *AssigneeError) Unwrap() error { return e.Err }

// Query builds the filter expression for a listing. The assignee, when set,
// must already be an account id.
func (f *Finder) Query(statuses []string, assigneeID string, priorities []string) *jql.Query {
	if !slices.ContainsFunc(statuses, notBlank) {
		statuses = f.cfg.DefaultStatuses
	}
	q := jql.New().
		Eq("project", f.cfg.ProjectKey).
		Eq("issuetype", f.cfg.IssueType).
		In("status", statuses)
	if assigneeID != "" {
		q.Eq("assignee", assigneeID)
	}
	return q.In("priority", priorities)
}

// List returns one page of project issues matching filter. An assignee name
// that resolves to nobody yields an *AssigneeError.
func (f *Finder) List(ctx context.Context, filter Filter) (Page, error) {
	var assigneeID string
	if filter.Assignee != "" {
		user, err := f.resolver.ResolveUser(ctx, filter.Assignee)
		if err != nil {
			return Page{}, &AssigneeError{Name: filter.Assignee, Err: err}
		}
		assigneeID = user.AccountID
	}

	startAt := max(filter.StartAt, 0)
	res, err := f.svc.SearchIssues(ctx, service.SearchRequest{
		Query:      f.Query(filter.Statuses, assigneeID, filter.Priorities),
		StartAt:    startAt,
		MaxResults: f.cfg.PageSize,
	})
	if err != nil {
		f.logger.Error("issue listing failed", "startAt", startAt, "err", err)
		return Page{}, fmt.Errorf("list issues: %w", err)
	}
	return Page{Issues: res.Issues, Total: res.Total, StartAt: startAt}, nil
}

func notBlank(s string) bool { return strings.TrimSpace(s) != "" }
