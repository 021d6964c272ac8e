package jira

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"jtask/internal/service"
)

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type idRef struct {
	ID string `json:"id"`
}

type createPayload struct {
	Fields createFields `json:"fields"`
}

type createFields struct {
	Project     keyRef   `json:"project"`
	Summary     string   `json:"summary"`
	Description document `json:"description"`
	IssueType   nameRef  `json:"issuetype"`
}

type transitionPayload struct {
	Transition idRef `json:"transition"`
}

// document is the subset of the Atlassian document format used for
// descriptions: a doc node holding paragraphs of text nodes.
type document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []node `json:"content"`
}

type node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []node `json:"content,omitempty"`
}

// paragraphDocument wraps text in a single paragraph. Blank text yields an
// empty paragraph, since text nodes must not be empty.
func paragraphDocument(text string) document {
	p := node{Type: "paragraph"}
	if strings.TrimSpace(text) != "" {
		p.Content = []node{{Type: "text", Text: text}}
	}
	return document{Type: "doc", Version: 1, Content: []node{p}}
}

// createdLayouts are the timestamp formats Jira uses for issue fields.
var createdLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	time.RFC3339,
}

func parseTime(s string) time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseIssue(raw gjson.Result) service.Issue {
	f := raw.Get("fields")
	return service.Issue{
		Key:         raw.Get("key").String(),
		Summary:     f.Get("summary").String(),
		Status:      f.Get("status.name").String(),
		Priority:    f.Get("priority.name").String(),
		IssueType:   f.Get("issuetype.name").String(),
		AssigneeID:  f.Get("assignee.accountId").String(),
		Assignee:    f.Get("assignee.displayName").String(),
		Reporter:    f.Get("reporter.displayName").String(),
		Created:     parseTime(f.Get("created").String()),
		Description: parseDescription(f.Get("description")),
	}
}

// parseDescription accepts a plain string or a document. A document without
// content, or any other shape, counts as no description.
func parseDescription(d gjson.Result) service.Description {
	switch {
	case d.Type == gjson.String:
		return service.PlainDescription(d.String())
	case d.IsObject() && d.Get("content").Exists():
		var paragraphs [][]string
		d.Get("content").ForEach(func(_, p gjson.Result) bool {
			var runs []string
			p.Get("content").ForEach(func(_, piece gjson.Result) bool {
				runs = append(runs, piece.Get("text").String())
				return true
			})
			paragraphs = append(paragraphs, runs)
			return true
		})
		return service.DocumentDescription(paragraphs...)
	default:
		return service.Description{}
	}
}
