// Package service defines the backend-agnostic interface for tracker operations.
package service

import (
	"strings"
	"time"

	"jtask/internal/jql"
)

// User is a tracker account.
type User struct {
	AccountID   string
	DisplayName string
	Email       string
}

// Issue is the tracker's representation of a unit of work.
type Issue struct {
	Key         string // e.g. "PROJ-123"
	Summary     string
	Status      string
	Priority    string
	IssueType   string
	AssigneeID  string
	Assignee    string // display name
	Reporter    string // display name
	Created     time.Time
	Description Description
}

// Description is an issue description: plain text, or a rich-text document
// made of paragraphs, each an ordered sequence of text runs.
type Description struct {
	Plain      string
	Paragraphs [][]string
	Rich       bool
}

// PlainDescription wraps s as a plain-text description.
func PlainDescription(s string) Description {
	return Description{Plain: s}
}

// DocumentDescription builds a rich-text description from paragraphs of runs.
func DocumentDescription(paragraphs ...[]string) Description {
	return Description{Paragraphs: paragraphs, Rich: true}
}

// IsZero reports whether no description was provided.
func (d Description) IsZero() bool {
	return !d.Rich && d.Plain == ""
}

// Text flattens the description: runs within a paragraph are joined by a
// space and paragraphs by a newline.
func (d Description) Text() string {
	if !d.Rich {
		return d.Plain
	}
	lines := make([]string, len(d.Paragraphs))
	for i, runs := range d.Paragraphs {
		lines[i] = strings.Join(runs, " ")
	}
	return strings.Join(lines, "\n")
}

// SearchRequest selects issues with a filter expression.
// MaxResults of zero leaves the page size to the tracker.
type SearchRequest struct {
	Query      *jql.Query
	StartAt    int
	MaxResults int
}

// SearchResult is one page of issues plus the total match count.
type SearchResult struct {
	Issues []Issue
	Total  int
}

// CreateRequest describes a new issue.
// AssigneeID is omitted from the payload when empty.
type CreateRequest struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
	AssigneeID  string
}

// CreatedIssue identifies a newly created issue.
type CreatedIssue struct {
	ID  string
	Key string
}
