package service

import (
	"context"
	"errors"
)

// Service defines the interface for tracker backend operations.
// All Jira REST calls go through this interface.
// Actions never import the HTTP client directly.
type Service interface {
	// SearchUsers returns accounts matching a free-text name or email,
	// in tracker order.
	SearchUsers(ctx context.Context, query string) ([]User, error)

	// SearchIssues returns one page of issues matching the query.
	SearchIssues(ctx context.Context, req SearchRequest) (SearchResult, error)

	// CreateIssue creates an issue and returns its key.
	CreateIssue(ctx context.Context, req CreateRequest) (CreatedIssue, error)

	// TransitionIssue applies a workflow transition to an issue.
	TransitionIssue(ctx context.Context, key, transitionID string) error

	// DeleteIssue deletes an issue.
	DeleteIssue(ctx context.Context, key string) error

	// BrowseURL returns the web URL of an issue.
	BrowseURL(key string) string
}

var (
	// ErrNotFound is returned when the tracker reports a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrAuth is returned when credentials are missing, expired or rejected.
	ErrAuth = errors.New("authentication failed")

	// ErrTimeout is returned when a call exceeds its deadline.
	ErrTimeout = errors.New("request timed out")
)
