package actions

import (
	"context"
	"strings"

	"jtask/internal/output"
)

// QueryTask renders every issue matching p.Title. It never asks the user to
// disambiguate.
func (a *Actions) QueryTask(ctx context.Context, turn Turn, p QueryParams) string {
	if blank(p.Title) {
		return titleRequired
	}

	issues, err := a.finder.FindByTitle(ctx, p.Title)
	if err != nil {
		return searchFailed(p.Title, err)
	}
	if len(issues) == 0 {
		return notFound(p.Title)
	}

	var b strings.Builder
	output.QueryHeader(&b, len(issues), p.Title)
	for i, iss := range issues {
		output.IssueDetails(&b, i+1, iss, a.settings.Location)
	}
	return b.String()
}
