// Package jira implements the service.Service interface using the Jira Cloud REST API (v3).
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"google.golang.org/api/googleapi"

	"jtask/internal/config"
	"jtask/internal/logging"
	"jtask/internal/service"
)

const apiPrefix = "/rest/api/3"

// Client implements service.Service against a Jira site.
type Client struct {
	baseURL string // site URL, used for browse links
	apiRoot string // REST root; the site in basic mode, the Atlassian gateway in OAuth mode
	http    *http.Client
	email   string // basic auth user; empty when the http client carries auth
	token   string
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAPIRoot sends REST calls to root instead of the site URL.
func WithAPIRoot(root string) Option {
	return func(c *Client) { c.apiRoot = strings.TrimRight(root, "/") }
}

// WithBasicAuth authenticates every request as email:token.
func WithBasicAuth(email, token string) Option {
	return func(c *Client) {
		c.email = email
		c.token = token
	}
}

// New creates a client from configuration. Basic auth uses the admin email
// and API token; OAuth mode requires oauth_client.json and token.json.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrAuth, err)
	}

	if cfg.Jira.Auth == config.AuthOAuth {
		httpClient, err := oauthHTTPClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		cloudID := cfg.Jira.CloudID
		if cloudID == "" {
			cloudID, err = ResolveCloudID(ctx, httpClient, cfg.Jira.BaseURL)
			if err != nil {
				return nil, err
			}
		}
		opts = append([]Option{WithAPIRoot(GatewayRoot(cloudID))}, opts...)
		return NewWithHTTPClient(cfg.Jira.BaseURL, httpClient, opts...), nil
	}

	opts = append([]Option{WithBasicAuth(cfg.Jira.AdminEmail, cfg.Jira.APIToken)}, opts...)
	return NewWithHTTPClient(cfg.Jira.BaseURL, &http.Client{}, opts...), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
	c.apiRoot = c.baseURL
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// BrowseURL returns the web URL of an issue.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

// SearchUsers returns accounts matching query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]service.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/user/search", url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, err
	}

	var users []service.User
	gjson.ParseBytes(data).ForEach(func(_, u gjson.Result) bool {
		users = append(users, service.User{
			AccountID:   u.Get("accountId").String(),
			DisplayName: u.Get("displayName").String(),
			Email:       u.Get("emailAddress").String(),
		})
		return true
	})
	return users, nil
}

// SearchIssues runs a filter query and returns one page of results.
func (c *Client) SearchIssues(ctx context.Context, req service.SearchRequest) (service.SearchResult, error) {
	params := url.Values{}
	if req.Query != nil {
		params.Set("jql", req.Query.String())
	}
	if req.MaxResults > 0 {
		params.Set("maxResults", strconv.Itoa(req.MaxResults))
		params.Set("startAt", strconv.Itoa(req.StartAt))
	} else if req.StartAt > 0 {
		params.Set("startAt", strconv.Itoa(req.StartAt))
	}

	data, err := c.do(ctx, http.MethodGet, "/search", params, nil)
	if err != nil {
		return service.SearchResult{}, err
	}

	res := gjson.ParseBytes(data)
	result := service.SearchResult{Total: int(res.Get("total").Int())}
	res.Get("issues").ForEach(func(_, raw gjson.Result) bool {
		result.Issues = append(result.Issues, parseIssue(raw))
		return true
	})
	return result, nil
}

// CreateIssue creates an issue with a single-paragraph document description.
func (c *Client) CreateIssue(ctx context.Context, req service.CreateRequest) (service.CreatedIssue, error) {
	payload := createPayload{Fields: createFields{
		Project:     keyRef{Key: req.ProjectKey},
		Summary:     req.Summary,
		Description: paragraphDocument(req.Description),
		IssueType:   nameRef{Name: req.IssueType},
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return service.CreatedIssue{}, fmt.Errorf("marshal issue: %w", err)
	}
	if req.AssigneeID != "" {
		body, err = sjson.SetBytes(body, "fields.assignee.accountId", req.AssigneeID)
		if err != nil {
			return service.CreatedIssue{}, fmt.Errorf("set assignee: %w", err)
		}
	}

	data, err := c.do(ctx, http.MethodPost, "/issue", nil, body)
	if err != nil {
		return service.CreatedIssue{}, err
	}

	res := gjson.ParseBytes(data)
	created := service.CreatedIssue{
		ID:  res.Get("id").String(),
		Key: res.Get("key").String(),
	}
	if created.Key == "" {
		return service.CreatedIssue{}, errors.New("create response has no issue key")
	}
	return created, nil
}

// TransitionIssue moves an issue through a workflow transition.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	body, err := json.Marshal(transitionPayload{Transition: idRef{ID: transitionID}})
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/issue/"+url.PathEscape(key)+"/transitions", nil, body)
	return err
}

// DeleteIssue deletes an issue.
func (c *Client) DeleteIssue(ctx context.Context, key string) error {
	_, err := c.do(ctx, http.MethodDelete, "/issue/"+url.PathEscape(key), nil, nil)
	return err
}

// do sends one request and returns the response body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	u := c.apiRoot + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.email != "" {
		req.SetBasicAuth(c.email, c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("jira request failed", "method", method, "path", path, "err", err)
		return nil, wrapError(err)
	}
	defer resp.Body.Close()
	c.logger.Debug("jira request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, wrapError(err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.ErrTimeout
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	detail := errorDetail(apiErr)
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (status %d): %s", service.ErrAuth, apiErr.Code, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, detail)
	default:
		return fmt.Errorf("jira API error (status %d): %s", apiErr.Code, detail)
	}
}

// errorDetail extracts Jira's errorMessages/errors from an error body.
func errorDetail(apiErr *googleapi.Error) string {
	body := gjson.Parse(apiErr.Body)
	var details []string
	body.Get("errorMessages").ForEach(func(_, m gjson.Result) bool {
		details = append(details, m.String())
		return true
	})
	body.Get("errors").ForEach(func(k, v gjson.Result) bool {
		details = append(details, k.String()+": "+v.String())
		return true
	})
	if len(details) > 0 {
		return strings.Join(details, "; ")
	}
	if msg := strings.TrimSpace(apiErr.Body); msg != "" {
		return msg
	}
	return http.StatusText(apiErr.Code)
}
