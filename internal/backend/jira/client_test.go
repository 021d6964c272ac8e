package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"jtask/internal/config"
	"jtask/internal/jql"
	"jtask/internal/service"
)

// recordedRequest captures what the fake Jira site received.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Auth   string
	Body   string
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()

	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k, v := range r.URL.Query() {
			q[k] = v[0]
		}
		reqs = append(reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  q,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewWithHTTPClient(srv.URL+"/", srv.Client(), WithBasicAuth("admin@example.com", "secret"))
	return client, &reqs
}

func TestSearchUsers(t *testing.T) {
	client, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"accountId":"acc-1","displayName":"Ada Lovelace","emailAddress":"ada@example.com"},{"accountId":"acc-2","displayName":"Ada Other"}]`)
	})

	users, err := client.SearchUsers(context.Background(), "ada lovelace")
	if err != nil {
		t.Fatalf("SearchUsers() error = %v", err)
	}

	if len(users) != 2 || users[0].AccountID != "acc-1" || users[0].Email != "ada@example.com" {
		t.Errorf("users = %+v", users)
	}
	got := (*reqs)[0]
	if got.Method != http.MethodGet || got.Path != "/rest/api/3/user/search" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}
	if got.Query["query"] != "ada lovelace" {
		t.Errorf("query = %q", got.Query["query"])
	}
	// base64("admin@example.com:secret")
	if got.Auth != "Basic YWRtaW5AZXhhbXBsZS5jb206c2VjcmV0" {
		t.Errorf("Authorization = %q", got.Auth)
	}
}

func TestSearchIssues(t *testing.T) {
	client, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"startAt": 10,
			"maxResults": 10,
			"total": 12,
			"issues": [
				{
					"key": "PROJ-1",
					"fields": {
						"summary": "Fix login bug",
						"status": {"name": "To Do"},
						"priority": {"name": "High"},
						"issuetype": {"name": "Task"},
						"assignee": {"accountId": "acc-1", "displayName": "Ada Lovelace"},
						"reporter": {"displayName": "Grace Hopper"},
						"created": "2024-01-15T10:30:00.000+0000",
						"description": {
							"type": "doc",
							"version": 1,
							"content": [
								{"type": "paragraph", "content": [{"type": "text", "text": "Steps"}, {"type": "text", "text": "here"}]},
								{"type": "paragraph"}
							]
						}
					}
				},
				{
					"key": "PROJ-2",
					"fields": {
						"summary": "Plain one",
						"status": {"name": "Done"},
						"assignee": null,
						"description": "plain text body"
					}
				}
			]
		}`)
	})

	q := jql.New().Eq("project", "PROJ").Contains("summary", "login")
	res, err := client.SearchIssues(context.Background(), service.SearchRequest{Query: q, StartAt: 10, MaxResults: 10})
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}

	if res.Total != 12 || len(res.Issues) != 2 {
		t.Fatalf("result total=%d len=%d", res.Total, len(res.Issues))
	}

	first := res.Issues[0]
	if first.Key != "PROJ-1" || first.Summary != "Fix login bug" || first.Status != "To Do" {
		t.Errorf("first = %+v", first)
	}
	if first.Priority != "High" || first.AssigneeID != "acc-1" || first.Assignee != "Ada Lovelace" || first.Reporter != "Grace Hopper" {
		t.Errorf("first people/priority = %+v", first)
	}
	wantCreated := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !first.Created.Equal(wantCreated) {
		t.Errorf("Created = %v, want %v", first.Created, wantCreated)
	}
	if got := first.Description.Text(); got != "Steps here\n" {
		t.Errorf("Description.Text() = %q", got)
	}

	second := res.Issues[1]
	if second.Assignee != "" || second.Description.Text() != "plain text body" || second.Description.Rich {
		t.Errorf("second = %+v", second)
	}

	got := (*reqs)[0]
	if got.Path != "/rest/api/3/search" {
		t.Errorf("path = %q", got.Path)
	}
	if got.Query["jql"] != `project = "PROJ" AND summary ~ "login"` {
		t.Errorf("jql = %q", got.Query["jql"])
	}
	if got.Query["maxResults"] != "10" || got.Query["startAt"] != "10" {
		t.Errorf("paging = %v", got.Query)
	}
}

func TestSearchIssues_NoPaging(t *testing.T) {
	client, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"issues": [], "total": 0}`)
	})

	res, err := client.SearchIssues(context.Background(), service.SearchRequest{Query: jql.New().Eq("project", "PROJ")})
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}
	if len(res.Issues) != 0 {
		t.Errorf("issues = %v", res.Issues)
	}
	if _, ok := (*reqs)[0].Query["maxResults"]; ok {
		t.Error("maxResults should be omitted when zero")
	}
}

func TestCreateIssue(t *testing.T) {
	client, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"10001","key":"PROJ-42","self":"https://example/rest/api/3/issue/10001"}`)
	})

	created, err := client.CreateIssue(context.Background(), service.CreateRequest{
		ProjectKey:  "PROJ",
		Summary:     "Fix login bug",
		Description: "Users cannot log in",
		IssueType:   "Task",
		AssigneeID:  "acc-1",
	})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if created.Key != "PROJ-42" || created.ID != "10001" {
		t.Errorf("created = %+v", created)
	}

	got := (*reqs)[0]
	if got.Method != http.MethodPost || got.Path != "/rest/api/3/issue" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}

	var body struct {
		Fields struct {
			Project     struct{ Key string }  `json:"project"`
			Summary     string                `json:"summary"`
			IssueType   struct{ Name string } `json:"issuetype"`
			Assignee    *struct {
				AccountID string `json:"accountId"`
			} `json:"assignee"`
			Description document `json:"description"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(got.Body), &body); err != nil {
		t.Fatalf("body not JSON: %v\n%s", err, got.Body)
	}
	if body.Fields.Project.Key != "PROJ" || body.Fields.Summary != "Fix login bug" || body.Fields.IssueType.Name != "Task" {
		t.Errorf("fields = %+v", body.Fields)
	}
	if body.Fields.Assignee == nil || body.Fields.Assignee.AccountID != "acc-1" {
		t.Errorf("assignee = %+v", body.Fields.Assignee)
	}
	doc := body.Fields.Description
	if doc.Type != "doc" || doc.Version != 1 || len(doc.Content) != 1 {
		t.Fatalf("description = %+v", doc)
	}
	if p := doc.Content[0]; p.Type != "paragraph" || len(p.Content) != 1 || p.Content[0].Text != "Users cannot log in" {
		t.Errorf("paragraph = %+v", p)
	}
}

func TestCreateIssue_UnassignedOmitsField(t *testing.T) {
	client, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"1","key":"PROJ-1"}`)
	})

	if _, err := client.CreateIssue(context.Background(), service.CreateRequest{ProjectKey: "PROJ", Summary: "x", IssueType: "Task"}); err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if strings.Contains((*reqs)[0].Body, "assignee") {
		t.Errorf("body should not mention assignee: %s", (*reqs)[0].Body)
	}
	if strings.Contains((*reqs)[0].Body, `"text"`) {
		t.Errorf("blank description should not produce a text node: %s", (*reqs)[0].Body)
	}
}

func TestTransitionAndDelete(t *testing.T) {
	client, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.TransitionIssue(context.Background(), "PROJ-7", "31"); err != nil {
		t.Fatalf("TransitionIssue() error = %v", err)
	}
	if err := client.DeleteIssue(context.Background(), "PROJ-7"); err != nil {
		t.Fatalf("DeleteIssue() error = %v", err)
	}

	tr := (*reqs)[0]
	if tr.Method != http.MethodPost || tr.Path != "/rest/api/3/issue/PROJ-7/transitions" {
		t.Errorf("transition request = %s %s", tr.Method, tr.Path)
	}
	if tr.Body != `{"transition":{"id":"31"}}` {
		t.Errorf("transition body = %s", tr.Body)
	}
	del := (*reqs)[1]
	if del.Method != http.MethodDelete || del.Path != "/rest/api/3/issue/PROJ-7" {
		t.Errorf("delete request = %s %s", del.Method, del.Path)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errorMessages":["Client must be authenticated"]}`, service.ErrAuth, "Client must be authenticated"},
		{"forbidden", http.StatusForbidden, ``, service.ErrAuth, "Forbidden"},
		{"not found", http.StatusNotFound, `{"errorMessages":["Issue does not exist"],"errors":{}}`, service.ErrNotFound, "Issue does not exist"},
		{"bad request", http.StatusBadRequest, `{"errorMessages":[],"errors":{"summary":"Summary is required."}}`, nil, "summary: Summary is required."},
		{"server error", http.StatusInternalServerError, `oops`, nil, "status 500"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})

			err := client.DeleteIssue(context.Background(), "PROJ-1")
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Errorf("error %v is not %v", err, tc.wantIs)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.SearchUsers(ctx, "anyone")
	if !errors.Is(err, service.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestBrowseURL(t *testing.T) {
	c := NewWithHTTPClient("https://example.atlassian.net/", http.DefaultClient)
	if got := c.BrowseURL("PROJ-9"); got != "https://example.atlassian.net/browse/PROJ-9" {
		t.Errorf("BrowseURL() = %q", got)
	}
}

func TestParseDescription_Shapes(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"total":3,"issues":[
			{"key":"A-1","fields":{"description":null}},
			{"key":"A-2","fields":{"description":{"type":"doc","version":1}}},
			{"key":"A-3","fields":{}}
		]}`)
	})

	res, err := client.SearchIssues(context.Background(), service.SearchRequest{})
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}
	for _, iss := range res.Issues {
		if !iss.Description.IsZero() {
			t.Errorf("%s description = %+v, want zero", iss.Key, iss.Description)
		}
		if !iss.Created.IsZero() {
			t.Errorf("%s created = %v, want zero", iss.Key, iss.Created)
		}
	}
}

func TestOAuthConfigFromJSON(t *testing.T) {
	cfg, err := OAuthConfigFromJSON([]byte(`{"client_id":"id","client_secret":"secret"}`))
	if err != nil {
		t.Fatalf("OAuthConfigFromJSON() error = %v", err)
	}
	if cfg.Endpoint.TokenURL != Endpoint.TokenURL || cfg.ClientID != "id" {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := OAuthConfigFromJSON([]byte(`{"client_id":"id"}`)); err == nil {
		t.Error("missing secret should fail")
	}
	if _, err := OAuthConfigFromJSON([]byte(`not json`)); err == nil {
		t.Error("invalid JSON should fail")
	}
}

// oauthSetup points the gateway at a local server that serves both the
// accessible-resources listing and the gateway REST root, and writes the
// OAuth files into a fresh config.
func oauthSetup(t *testing.T, cloudID string) (*config.Config, *[]recordedRequest) {
	t.Helper()

	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")})
		switch {
		case r.URL.Path == "/oauth/token/accessible-resources":
			io.WriteString(w, `[
				{"id":"other-cloud","url":"https://other.atlassian.net","name":"other"},
				{"id":"acme-cloud","url":"https://ACME.atlassian.net/","name":"acme"}
			]`)
		case strings.HasSuffix(r.URL.Path, "/rest/api/3/user/search"):
			io.WriteString(w, `[{"accountId":"acc-1","displayName":"Alice"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	oldGateway, oldResources := gatewayBase, accessibleResourcesURL
	gatewayBase = srv.URL + "/ex/jira/"
	accessibleResourcesURL = srv.URL + "/oauth/token/accessible-resources"
	t.Cleanup(func() { gatewayBase, accessibleResourcesURL = oldGateway, oldResources })

	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}
	cfg.Jira.Auth = config.AuthOAuth
	cfg.Jira.BaseURL = "https://acme.atlassian.net"
	cfg.Jira.ProjectKey = "PROJ"
	cfg.Jira.CloudID = cloudID
	if err := os.WriteFile(cfg.OAuthClientPath(), []byte(`{"client_id":"id","client_secret":"secret"}`), 0600); err != nil {
		t.Fatal(err)
	}
	token := `{"access_token":"tok","token_type":"Bearer","expiry":"2999-01-01T00:00:00Z"}`
	if err := os.WriteFile(cfg.TokenPath(), []byte(token), 0600); err != nil {
		t.Fatal(err)
	}
	return cfg, &reqs
}

func TestNew_OAuthUsesGateway(t *testing.T) {
	tests := []struct {
		name      string
		cloudID   string
		wantPaths []string
	}{
		{
			name:    "cloud id looked up",
			cloudID: "",
			wantPaths: []string{
				"/oauth/token/accessible-resources",
				"/ex/jira/acme-cloud/rest/api/3/user/search",
			},
		},
		{
			name:      "cloud id configured",
			cloudID:   "pinned-cloud",
			wantPaths: []string{"/ex/jira/pinned-cloud/rest/api/3/user/search"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, reqs := oauthSetup(t, tt.cloudID)

			client, err := New(context.Background(), cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			users, err := client.SearchUsers(context.Background(), "alice")
			if err != nil {
				t.Fatalf("SearchUsers() error = %v", err)
			}
			if len(users) != 1 || users[0].AccountID != "acc-1" {
				t.Errorf("users = %+v", users)
			}

			if len(*reqs) != len(tt.wantPaths) {
				t.Fatalf("requests = %+v, want paths %v", *reqs, tt.wantPaths)
			}
			for i, want := range tt.wantPaths {
				got := (*reqs)[i]
				if got.Path != want {
					t.Errorf("request %d path = %q, want %q", i, got.Path, want)
				}
				if got.Auth != "Bearer tok" {
					t.Errorf("request %d auth = %q, want bearer token", i, got.Auth)
				}
			}

			if got := client.BrowseURL("PROJ-1"); got != "https://acme.atlassian.net/browse/PROJ-1" {
				t.Errorf("BrowseURL() = %q, want site link", got)
			}
		})
	}
}

func TestNew_OAuthUnknownSite(t *testing.T) {
	cfg, _ := oauthSetup(t, "")
	cfg.Jira.BaseURL = "https://missing.atlassian.net"

	_, err := New(context.Background(), cfg)
	if !errors.Is(err, service.ErrAuth) {
		t.Fatalf("New() error = %v, want ErrAuth", err)
	}
	if !strings.Contains(err.Error(), "https://acme.atlassian.net") {
		t.Errorf("error should list accessible sites, got %v", err)
	}
}
