package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"jtask/internal/config"
	"jtask/internal/service"
)

// Endpoint is the Atlassian OAuth 2.0 (3LO) endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://auth.atlassian.com/authorize",
	TokenURL: "https://auth.atlassian.com/oauth/token",
}

// Atlassian API gateway locations. Variables so tests can point them at a
// local server.
var (
	gatewayBase            = "https://api.atlassian.com/ex/jira/"
	accessibleResourcesURL = "https://api.atlassian.com/oauth/token/accessible-resources"
)

// GatewayRoot is the REST root for the site with cloudID. OAuth tokens are
// only accepted there, not on the site URL.
func GatewayRoot(cloudID string) string {
	return gatewayBase + cloudID
}

// Scopes are the Jira scopes the actions need. offline_access yields a
// refresh token.
var Scopes = []string{
	"read:jira-work",
	"write:jira-work",
	"read:jira-user",
	"offline_access",
}

// AuthCodeOptions are the extra authorize parameters Atlassian requires.
var AuthCodeOptions = []oauth2.AuthCodeOption{
	oauth2.SetAuthURLParam("audience", "api.atlassian.com"),
	oauth2.SetAuthURLParam("prompt", "consent"),
}

type clientFile struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// OAuthConfigFromJSON parses oauth_client.json into an oauth2 config.
func OAuthConfigFromJSON(data []byte) (*oauth2.Config, error) {
	var cf clientFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	if cf.ClientID == "" || cf.ClientSecret == "" {
		return nil, errors.New("client_id and client_secret are required")
	}
	return &oauth2.Config{
		ClientID:     cf.ClientID,
		ClientSecret: cf.ClientSecret,
		Endpoint:     Endpoint,
		Scopes:       Scopes,
	}, nil
}

// LoadToken reads a stored token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// SaveToken saves an OAuth token to a file with mode 0600.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// oauthHTTPClient builds an auto-refreshing client from the stored files.
func oauthHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", service.ErrAuth, config.OAuthClientFile, err)
	}
	oauthConfig, err := OAuthConfigFromJSON(clientJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s: %v", service.ErrAuth, config.OAuthClientFile, err)
	}

	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("%w: not logged in (run: jtask login): %v", service.ErrAuth, err)
	}

	return oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token)), nil
}

// ResolveCloudID asks Atlassian which sites the token can reach and returns
// the cloud id of siteURL.
func ResolveCloudID(ctx context.Context, httpClient *http.Client, siteURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, accessibleResourcesURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", wrapError(err)
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return "", wrapError(err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read accessible resources: %w", err)
	}

	want := normalizeSite(siteURL)
	var sites []string
	for _, res := range gjson.ParseBytes(data).Array() {
		site := normalizeSite(res.Get("url").String())
		if site == want && res.Get("id").String() != "" {
			return res.Get("id").String(), nil
		}
		sites = append(sites, site)
	}
	return "", fmt.Errorf("%w: token has no access to %s (accessible: %s); set jira.cloud-id",
		service.ErrAuth, siteURL, strings.Join(sites, ", "))
}

func normalizeSite(u string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(u), "/"))
}
