package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"jtask/internal/service"
	"jtask/internal/testutil"
)

var created = time.Date(2024, 1, 15, 14, 5, 9, 0, time.UTC)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		loc  *time.Location
		want string
	}{
		{"utc afternoon", created, time.UTC, "1/15/2024, 2:05:09 PM"},
		{"fixed zone", created, time.FixedZone("UTC-5", -5*3600), "1/15/2024, 9:05:09 AM"},
		{"zero", time.Time{}, time.UTC, "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Timestamp(tc.t, tc.loc); got != tc.want {
				t.Errorf("Timestamp() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCandidates(t *testing.T) {
	var buf bytes.Buffer
	Candidates(&buf, "login", []service.Issue{
		{Key: "PROJ-1", Summary: "Fix login bug"},
		{Key: "PROJ-2", Summary: "Login\npage"},
	}, "delete")

	want := "**Multiple issues found matching 'login':**\n" +
		"- **PROJ-1**: Fix login bug\n" +
		"- **PROJ-2**: Login page\n" +
		"\n**Please provide a more specific title or the issue key to delete.**"
	if buf.String() != want {
		t.Errorf("Candidates() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestIssueDetails(t *testing.T) {
	var buf bytes.Buffer
	QueryHeader(&buf, 2, "login")
	IssueDetails(&buf, 1, service.Issue{
		Key:         "PROJ-1",
		Summary:     "Fix login bug",
		Status:      "In Progress",
		Assignee:    "Ada Lovelace",
		Created:     created,
		Description: service.DocumentDescription([]string{"Steps", "to", "reproduce"}, []string{"Expected: works"}),
	}, time.UTC)
	IssueDetails(&buf, 2, service.Issue{Key: "PROJ-2"}, time.UTC)

	testutil.GoldenString(t, "issue_details", buf.String())
}

func TestIssueBlock(t *testing.T) {
	var buf bytes.Buffer
	ListHeader(&buf, 12, 10, 2)
	IssueBlock(&buf, service.Issue{
		Key:      "PROJ-11",
		Summary:  "Ship release",
		Status:   "To Do",
		Priority: "High",
		Assignee: "Ada Lovelace",
		Reporter: "Grace Hopper",
		Created:  created,
	}, time.UTC)
	IssueBlock(&buf, service.Issue{Key: "PROJ-12"}, time.UTC)

	testutil.GoldenString(t, "issue_block", buf.String())
}

func TestRenderHTML(t *testing.T) {
	got, err := RenderHTML("**Task created in JIRA with key PROJ-1.**")
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(got, "<strong>Task created in JIRA with key PROJ-1.</strong>") {
		t.Errorf("RenderHTML() = %q", got)
	}

	got, _ = RenderHTML("**Task '<script>' deleted from JIRA.**")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should be escaped: %q", got)
	}
}
