// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"jtask/internal/jql"
	"jtask/internal/service"
)

// BaseURL is the site address the fake reports in browse links.
const BaseURL = "https://jira.example.com"

// CreatedAt is the creation time stamped on issues made through CreateIssue.
var CreatedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// Transition records one TransitionIssue call.
type Transition struct {
	Key string
	ID  string
}

// FakeService is an in-memory implementation of service.Service for testing.
// It evaluates the filter clauses the application builds against its own
// issue list.
type FakeService struct {
	mu     sync.RWMutex
	users  []service.User
	issues []service.Issue
	nextID int

	// TransitionStatus maps transition ids to the status they move an issue to.
	TransitionStatus map[string]string

	// Error injection for testing
	SearchUsersErr     error
	SearchIssuesErr    error
	CreateIssueErr     error
	TransitionIssueErr error
	DeleteIssueErr     error

	// Recorded calls, in order
	UserQueries []string
	Searches    []service.SearchRequest
	Created     []service.CreateRequest
	Transitions []Transition
	Deleted     []string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID:           1,
		TransitionStatus: map[string]string{"31": "In Progress", "41": "Done"},
	}
}

// AddUser adds an account returned by SearchUsers for matching queries.
func (f *FakeService) AddUser(accountID, displayName, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, service.User{AccountID: accountID, DisplayName: displayName, Email: email})
}

// AddIssue stores an issue as-is. Missing status and type default to
// "To Do" and "Task".
func (f *FakeService) AddIssue(issue service.Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue.Status == "" {
		issue.Status = "To Do"
	}
	if issue.IssueType == "" {
		issue.IssueType = "Task"
	}
	f.issues = append(f.issues, issue)
}

// Issue returns the stored issue with key.
func (f *FakeService) Issue(key string) (service.Issue, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, iss := range f.issues {
		if iss.Key == key {
			return iss, true
		}
	}
	return service.Issue{}, false
}

// Calls returns the number of remote operations attempted.
func (f *FakeService) Calls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.UserQueries) + len(f.Searches) + len(f.Created) + len(f.Transitions) + len(f.Deleted)
}

// SearchUsers implements service.Service.
// A user matches when the query is a case-insensitive substring of the
// display name or email.
func (f *FakeService) SearchUsers(ctx context.Context, query string) ([]service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UserQueries = append(f.UserQueries, query)
	if f.SearchUsersErr != nil {
		return nil, f.SearchUsersErr
	}

	q := strings.ToLower(query)
	var out []service.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.DisplayName), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

// SearchIssues implements service.Service.
func (f *FakeService) SearchIssues(ctx context.Context, req service.SearchRequest) (service.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, req)
	if f.SearchIssuesErr != nil {
		return service.SearchResult{}, f.SearchIssuesErr
	}

	var matched []service.Issue
	for _, iss := range f.issues {
		if matches(iss, req.Query) {
			matched = append(matched, iss)
		}
	}

	total := len(matched)
	start := min(max(req.StartAt, 0), total)
	end := total
	if req.MaxResults > 0 {
		end = min(start+req.MaxResults, total)
	}
	page := make([]service.Issue, end-start)
	copy(page, matched[start:end])
	return service.SearchResult{Issues: page, Total: total}, nil
}

func matches(iss service.Issue, q *jql.Query) bool {
	if q == nil {
		return true
	}
	for _, c := range q.Clauses() {
		if !matchClause(iss, c) {
			return false
		}
	}
	return true
}

func matchClause(iss service.Issue, c jql.Clause) bool {
	switch c.Field {
	case "project":
		return strings.HasPrefix(iss.Key, c.Value()+"-")
	case "issuetype":
		return strings.EqualFold(iss.IssueType, c.Value())
	case "summary":
		return strings.Contains(strings.ToLower(iss.Summary), strings.ToLower(c.Value()))
	case "status":
		return containsFold(c.Values, iss.Status)
	case "priority":
		return containsFold(c.Values, iss.Priority)
	case "assignee":
		return iss.AssigneeID == c.Value()
	default:
		return false
	}
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// CreateIssue implements service.Service.
func (f *FakeService) CreateIssue(ctx context.Context, req service.CreateRequest) (service.CreatedIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, req)
	if f.CreateIssueErr != nil {
		return service.CreatedIssue{}, f.CreateIssueErr
	}

	id := f.nextID
	f.nextID++
	key := fmt.Sprintf("%s-%d", req.ProjectKey, id)

	issue := service.Issue{
		Key:         key,
		Summary:     req.Summary,
		Status:      "To Do",
		IssueType:   req.IssueType,
		AssigneeID:  req.AssigneeID,
		Created:     CreatedAt,
		Description: service.PlainDescription(req.Description),
	}
	for _, u := range f.users {
		if u.AccountID == req.AssigneeID {
			issue.Assignee = u.DisplayName
		}
	}
	f.issues = append(f.issues, issue)
	return service.CreatedIssue{ID: fmt.Sprint(10000 + id), Key: key}, nil
}

// TransitionIssue implements service.Service.
func (f *FakeService) TransitionIssue(ctx context.Context, key, transitionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transitions = append(f.Transitions, Transition{Key: key, ID: transitionID})
	if f.TransitionIssueErr != nil {
		return f.TransitionIssueErr
	}

	for i := range f.issues {
		if f.issues[i].Key == key {
			if status, ok := f.TransitionStatus[transitionID]; ok {
				f.issues[i].Status = status
			}
			return nil
		}
	}
	return fmt.Errorf("%w: issue %s", service.ErrNotFound, key)
}

// DeleteIssue implements service.Service.
func (f *FakeService) DeleteIssue(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, key)
	if f.DeleteIssueErr != nil {
		return f.DeleteIssueErr
	}

	for i, iss := range f.issues {
		if iss.Key == key {
			f.issues = append(f.issues[:i], f.issues[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: issue %s", service.ErrNotFound, key)
}

// BrowseURL implements service.Service.
func (f *FakeService) BrowseURL(key string) string {
	return BaseURL + "/browse/" + key
}
