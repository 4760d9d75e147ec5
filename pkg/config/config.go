package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read at startup
const (
	EnvInputConfig      = "INPUT_CONFIG"
	EnvInputToken       = "INPUT_TOKEN"
	EnvGitHubToken      = "GITHUB_TOKEN"
	EnvGitHubRepository = "GITHUB_REPOSITORY"
	EnvGraphQLURL       = "GITHUB_GRAPHQL_URL"
	EnvAPIURL           = "GITHUB_API_URL"
)

// Default endpoints
const (
	DefaultGraphQLURL = "https://api.github.com/graphql"
	DefaultAPIURL     = "https://api.github.com/"
)

var (
	// ErrMissingConfig is returned when INPUT_CONFIG is absent or empty
	ErrMissingConfig = errors.New(EnvInputConfig + " is not set")

	// ErrInvalidConfig is returned when the configuration cannot be parsed or fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the declarative repository settings
type Config struct {
	Labels       []LabelConfig       `yaml:"labels,omitempty"`
	Branches     []BranchConfig      `yaml:"branches,omitempty"`
	Environments []EnvironmentConfig `yaml:"environments,omitempty"`
	Prune        PruneConfig         `yaml:"prune,omitempty"`

	// Repositories lists extra owner/name targets besides GITHUB_REPOSITORY
	Repositories []string `yaml:"repositories,omitempty"`

	Settings SettingsConfig `yaml:"settings,omitempty"`

	// Runtime is resolved from the environment, never from the document
	Runtime RuntimeConfig `yaml:"-"`
}

// LabelConfig describes a desired label
type LabelConfig struct {
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Description string `yaml:"description,omitempty"`
}

// BranchConfig describes a desired branch protection rule
type BranchConfig struct {
	Pattern                      string   `yaml:"pattern"`
	RequiredApprovingReviewCount int      `yaml:"required_approving_review_count"`
	DismissStaleReviews          bool     `yaml:"dismiss_stale_reviews"`
	RequireCodeOwnerReviews      bool     `yaml:"require_code_owner_reviews"`
	RequiredStatusChecks         []string `yaml:"required_status_checks,omitempty"`
	RequireUpToDate              bool     `yaml:"require_up_to_date"`
	EnforceAdmins                bool     `yaml:"enforce_admins"`
	RequireLinearHistory         bool     `yaml:"require_linear_history"`
	AllowForcePushes             bool     `yaml:"allow_force_pushes"`
	AllowDeletions               bool     `yaml:"allow_deletions"`
}

// EnvironmentConfig describes a desired deployment environment
type EnvironmentConfig struct {
	Name              string   `yaml:"name"`
	WaitTimer         int      `yaml:"wait_timer"` // minutes
	Reviewers         []string `yaml:"reviewers,omitempty"`
	PreventSelfReview bool     `yaml:"prevent_self_review"`
}

// PruneConfig selects which unmanaged objects are deleted
type PruneConfig struct {
	Labels       bool `yaml:"labels"`
	Branches     bool `yaml:"branches"`
	Environments bool `yaml:"environments"`
}

// SettingsConfig tunes how the API is called
type SettingsConfig struct {
	Retries           int     `yaml:"retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Concurrency       int     `yaml:"concurrency"`
}

// RuntimeConfig holds values taken from the process environment
type RuntimeConfig struct {
	Token      string
	Repository string
	GraphQLURL string
	APIURL     string
}

// LookupFunc looks up an environment variable, like os.LookupEnv
type LookupFunc func(key string) (string, bool)

// Service gives read access to the loaded configuration
type Service struct {
	cfg *Config
}

// NewService wraps an already loaded configuration
func NewService(cfg *Config) *Service {
	return &Service{cfg: cfg}
}

// ForRoot loads the configuration from INPUT_CONFIG and the process environment
func ForRoot() (*Service, error) {
	return ForRootWithLookup(os.LookupEnv)
}

// ForRootWithLookup loads the configuration through the given lookup function
func ForRootWithLookup(lookup LookupFunc) (*Service, error) {
	raw, ok := lookup(EnvInputConfig)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrMissingConfig
	}

	cfg, err := LoadFromBytes([]byte(raw))
	if err != nil {
		return nil, err
	}
	cfg.Runtime = resolveRuntime(lookup)

	return NewService(cfg), nil
}

// ForRootFromFile loads the configuration from a file instead of INPUT_CONFIG
func ForRootFromFile(path string, lookup LookupFunc) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.Runtime = resolveRuntime(lookup)

	return NewService(cfg), nil
}

// LoadFromBytes parses and validates a YAML or JSON document
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse: %v", ErrInvalidConfig, err)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &cfg, nil
}

// Config returns the loaded configuration
func (s *Service) Config() *Config {
	return s.cfg
}

// Token returns the GitHub token
func (s *Service) Token() string {
	return s.cfg.Runtime.Token
}

// Targets returns every repository the configuration applies to, in order,
// without duplicates
func (s *Service) Targets() []string {
	seen := make(map[string]bool)
	var targets []string

	add := func(repo string) {
		repo = strings.TrimSpace(repo)
		key := strings.ToLower(repo)
		if repo == "" || seen[key] {
			return
		}
		seen[key] = true
		targets = append(targets, repo)
	}

	add(s.cfg.Runtime.Repository)
	for _, repo := range s.cfg.Repositories {
		add(repo)
	}

	return targets
}

// Normalize canonicalizes values users commonly write in more than one way
func (c *Config) Normalize() {
	for i := range c.Labels {
		c.Labels[i].Name = strings.TrimSpace(c.Labels[i].Name)
		c.Labels[i].Color = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Labels[i].Color), "#"))
	}
	for i := range c.Branches {
		c.Branches[i].Pattern = strings.TrimSpace(c.Branches[i].Pattern)
	}
	for i := range c.Environments {
		c.Environments[i].Name = strings.TrimSpace(c.Environments[i].Name)
	}
}

func resolveRuntime(lookup LookupFunc) RuntimeConfig {
	get := func(keys ...string) string {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	rt := RuntimeConfig{
		Token:      get(EnvInputToken, EnvGitHubToken),
		Repository: get(EnvGitHubRepository),
		GraphQLURL: get(EnvGraphQLURL),
		APIURL:     get(EnvAPIURL),
	}
	if rt.GraphQLURL == "" {
		rt.GraphQLURL = DefaultGraphQLURL
	}
	if rt.APIURL == "" {
		rt.APIURL = DefaultAPIURL
	}
	if !strings.HasSuffix(rt.APIURL, "/") {
		rt.APIURL += "/"
	}
	return rt
}
