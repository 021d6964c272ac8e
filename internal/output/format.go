// Package output provides the Markdown formatters for action results.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"jtask/internal/service"
)

// TimestampLayout renders creation times as month/day/year, 12-hour clock.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Separator ends each block of a task listing.
const Separator = " --- "

// Bold wraps s in Markdown strong emphasis.
func Bold(s string) string {
	return "**" + s + "**"
}

// Timestamp formats t in loc, or "Unknown" for the zero time.
func Timestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Unknown"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// Candidates writes the disambiguation listing for a title that matched more
// than one issue. verb is what the user should retry ("update", "delete").
func Candidates(w io.Writer, title string, issues []service.Issue, verb string) {
	fmt.Fprintf(w, "**Multiple issues found matching '%s':**\n", title)
	for _, iss := range issues {
		fmt.Fprintf(w, "- **%s**: %s\n", iss.Key, normalizeText(iss.Summary, ""))
	}
	fmt.Fprintf(w, "\n**Please provide a more specific title or the issue key to %s.**", verb)
}

// QueryHeader writes the heading of a query result.
func QueryHeader(w io.Writer, count int, title string) {
	fmt.Fprintf(w, "**There are %d issues related to '%s':**\n\n", count, title)
}

// IssueDetails writes one numbered query entry. num starts at 1.
func IssueDetails(w io.Writer, num int, iss service.Issue, loc *time.Location) {
	description := "No description provided."
	if !iss.Description.IsZero() {
		description = iss.Description.Text()
	}

	fmt.Fprintf(w, "%d. **%s (%s)**\n", num, normalizeText(iss.Summary, "No summary"), iss.Key)
	fmt.Fprintf(w, "   - **Status:** %s\n", orDefault(iss.Status, "Unknown"))
	fmt.Fprintf(w, "   - **Description:** %s\n", description)
	fmt.Fprintf(w, "   - **Assignee:** %s\n", orDefault(iss.Assignee, "Unassigned"))
	fmt.Fprintf(w, "   - **Created:** %s\n\n", Timestamp(iss.Created, loc))
}

// ListHeader writes the total and the 1-based range shown on this page.
func ListHeader(w io.Writer, total, startAt, count int) {
	fmt.Fprintf(w, "**Found %d task(s) matching your criteria.**\n\n", total)
	fmt.Fprintf(w, "**Showing tasks %d to %d:**\n\n", startAt+1, startAt+count)
}

// IssueBlock writes one listing block, closed by a separator line.
func IssueBlock(w io.Writer, iss service.Issue, loc *time.Location) {
	fields := []struct{ label, value string }{
		{"Issue Key   :", orDefault(iss.Key, "Unknown")},
		{"Summary     :", normalizeText(iss.Summary, "No summary")},
		{"Status      :", orDefault(iss.Status, "Unknown")},
		{"Priority    :", orDefault(iss.Priority, "Not Specified")},
		{"Assignee    :", orDefault(iss.Assignee, "Unassigned")},
		{"Reporter    :", orDefault(iss.Reporter, "Unknown")},
		{"Created     :", Timestamp(iss.Created, loc)},
	}
	for _, f := range fields {
		fmt.Fprintf(w, "**%s** %s\n\n", f.label, f.value)
	}
	fmt.Fprintf(w, "%s\n\n", Separator)
}

// normalizeText flattens a one-line value for display.
// - Newlines are replaced with spaces
// - Empty or whitespace-only values become fallback
func normalizeText(s, fallback string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
