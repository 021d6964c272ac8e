// Package config handles the configuration directory, config.toml and
// environment overrides for the Jira connection.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "jtask"

	// ConfigFile is the TOML settings filename.
	ConfigFile = "config.toml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"
)

// Auth modes for the Jira connection.
const (
	AuthBasic = "basic"
	AuthOAuth = "oauth"
)

// Notification policies for the activity sink.
const (
	// NotifyErrors pushes only failures of mutating actions to the sink.
	NotifyErrors = "errors"

	// NotifyAll additionally pushes every update and delete outcome.
	NotifyAll = "all"
)

// State drivers.
const (
	StateMemory = "memory"
	StateYAML   = "yaml"
	StateSQLite = "sqlite"
)

// Defaults applied when the config file leaves a value empty.
var (
	DefaultIssueType      = "Task"
	DefaultPageSize       = 10
	DefaultStatuses       = []string{"To Do", "In Progress"}
	DefaultTransitions    = map[string]string{"inProgress": "31", "done": "41"}
	DefaultServerAddr     = "127.0.0.1:3978"
	DefaultConversationID = "cli"
)

var (
	errMissingBaseURL      = errors.New("jira base-url not configured (set JIRA_BASE_URL)")
	errMissingProjectKey   = errors.New("jira project-key not configured (set JIRA_PROJECT_KEY)")
	errMissingBasicAuth    = errors.New("jira admin-email and api-token required for basic auth (set JIRA_ADMIN_EMAIL, JIRA_API_TOKEN)")
	errUnknownAuthMode     = errors.New("jira auth must be \"basic\" or \"oauth\"")
	errUnknownNotifyPolicy = errors.New("notify must be \"errors\" or \"all\"")
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	Jira     JiraConfig   `toml:"jira"`
	Notify   string       `toml:"notify"`
	Timezone string       `toml:"timezone"`
	State    StateConfig  `toml:"state"`
	Log      LogConfig    `toml:"log"`
	Server   ServerConfig `toml:"server"`
}

// JiraConfig describes the tracker connection and project conventions.
type JiraConfig struct {
	BaseURL    string `toml:"base-url"`

	// CloudID selects the site behind the Atlassian API gateway in OAuth
	// mode. Looked up from the token's accessible resources when empty.
	CloudID string `toml:"cloud-id"`

	ProjectKey string `toml:"project-key"`
	AdminEmail string `toml:"admin-email"`
	APIToken   string `toml:"api-token"`
	Auth       string `toml:"auth"`
	IssueType  string `toml:"issue-type"`
	PageSize   int    `toml:"page-size"`

	// DefaultStatuses is the status set applied when a listing names none.
	DefaultStatuses []string `toml:"default-statuses"`

	// Transitions maps a requested status to the workflow transition id.
	Transitions map[string]string `toml:"transitions"`
}

// StateConfig selects where conversation task records are kept.
type StateConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig controls the bot endpoint.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/jtask or $HOME/.config/jtask.
// Defaults are applied; the config file is not read.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	cfg.applyDefaults()
	return cfg, nil
}

// Load creates a Config and fills it from config.toml (if present) and the
// JIRA_* environment variables, in that order.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	if _, err := toml.DecodeFile(cfg.ConfigPath(), cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Jira.BaseURL, "JIRA_BASE_URL")
	setFromEnv(&c.Jira.ProjectKey, "JIRA_PROJECT_KEY")
	setFromEnv(&c.Jira.AdminEmail, "JIRA_ADMIN_EMAIL")
	setFromEnv(&c.Jira.APIToken, "JIRA_API_TOKEN")
	setFromEnv(&c.Jira.CloudID, "JIRA_CLOUD_ID")
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Jira.Auth == "" {
		c.Jira.Auth = AuthBasic
	}
	if c.Jira.IssueType == "" {
		c.Jira.IssueType = DefaultIssueType
	}
	if c.Jira.PageSize <= 0 {
		c.Jira.PageSize = DefaultPageSize
	}
	if len(c.Jira.DefaultStatuses) == 0 {
		c.Jira.DefaultStatuses = append([]string(nil), DefaultStatuses...)
	}
	if len(c.Jira.Transitions) == 0 {
		c.Jira.Transitions = make(map[string]string, len(DefaultTransitions))
		for k, v := range DefaultTransitions {
			c.Jira.Transitions[k] = v
		}
	}
	if c.Notify == "" {
		c.Notify = NotifyErrors
	}
	if c.State.Driver == "" {
		c.State.Driver = StateYAML
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate reports settings that make the tracker unreachable.
func (c *Config) Validate() error {
	var errs []error
	if c.Jira.BaseURL == "" {
		errs = append(errs, errMissingBaseURL)
	}
	if c.Jira.ProjectKey == "" {
		errs = append(errs, errMissingProjectKey)
	}
	switch c.Jira.Auth {
	case AuthBasic:
		if c.Jira.AdminEmail == "" || c.Jira.APIToken == "" {
			errs = append(errs, errMissingBasicAuth)
		}
	case AuthOAuth:
	default:
		errs = append(errs, errUnknownAuthMode)
	}
	if c.Notify != NotifyErrors && c.Notify != NotifyAll {
		errs = append(errs, errUnknownNotifyPolicy)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err))
		}
	}
	return errors.Join(errs...)
}

// Location returns the zone used to render timestamps.
// Falls back to the local zone when Timezone is empty or unknown;
// Validate reports an unknown zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ConfigPath returns the path to config.toml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// StatePath returns the conversation store location for the configured driver.
func (c *Config) StatePath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	switch c.State.Driver {
	case StateSQLite:
		return filepath.Join(c.Dir, "state.db")
	default:
		return filepath.Join(c.Dir, "state.yaml")
	}
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
