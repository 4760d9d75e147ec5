package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"ghsync/pkg/config"
)

// AuthManager handles GitHub authentication and token verification
type AuthManager struct {
	client *github.Client
	token  string
}

// NewAuthManager creates a new authentication manager
func NewAuthManager() *AuthManager {
	return &AuthManager{}
}

// GetToken returns the token resolved from INPUT_TOKEN or GITHUB_TOKEN
func (am *AuthManager) GetToken(cfg *config.Config) (string, error) {
	if cfg != nil && strings.TrimSpace(cfg.Runtime.Token) != "" {
		return strings.TrimSpace(cfg.Runtime.Token), nil
	}

	return "", fmt.Errorf("no GitHub token found: set %s or %s", config.EnvInputToken, config.EnvGitHubToken)
}

// Authenticate sets up the REST client used for token verification.
// An empty apiURL or the public API URL selects github.com.
func (am *AuthManager) Authenticate(token, apiURL string) error {
	if token == "" {
		return fmt.Errorf("GitHub token cannot be empty")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := &http.Client{Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport}}

	client := github.NewClient(tc)
	if apiURL != "" && strings.TrimSuffix(apiURL, "/") != strings.TrimSuffix(config.DefaultAPIURL, "/") {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
	}

	am.client = client
	am.token = token
	return nil
}

// TokenInfo contains information about the authenticated token
type TokenInfo struct {
	User             string   `json:"user"`
	Scopes           []string `json:"scopes"`
	GraphQLLimit     int      `json:"graphql_limit"`
	GraphQLRemaining int      `json:"graphql_remaining"`
}

// ValidateToken checks that the token works and reports the remaining GraphQL budget
func (am *AuthManager) ValidateToken(ctx context.Context) (*TokenInfo, error) {
	if am.client == nil {
		return nil, fmt.Errorf("not authenticated: call Authenticate() first")
	}

	user, resp, err := am.client.Users.Get(ctx, "")
	if err != nil {
		return nil, WrapGitHubError(err, "authenticated user")
	}

	info := &TokenInfo{User: user.GetLogin(), Scopes: []string{}}
	if scopeHeader := resp.Header.Get("X-OAuth-Scopes"); scopeHeader != "" {
		info.Scopes = strings.Split(strings.ReplaceAll(scopeHeader, " ", ""), ",")
	}

	limits, _, err := am.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, WrapGitHubError(err, "rate limit")
	}
	if limits != nil && limits.GraphQL != nil {
		info.GraphQLLimit = limits.GraphQL.Limit
		info.GraphQLRemaining = limits.GraphQL.Remaining
	}

	// Fine-grained tokens carry no scope header.
	if len(info.Scopes) > 0 {
		if err := am.validatePermissions(info.Scopes); err != nil {
			return info, err
		}
	}

	return info, nil
}

// validatePermissions checks that a classic token has the repo scope
func (am *AuthManager) validatePermissions(scopes []string) error {
	requiredScopes := []string{"repo"}
	scopeMap := make(map[string]bool)

	for _, scope := range scopes {
		scopeMap[scope] = true
	}

	var missingScopes []string
	for _, required := range requiredScopes {
		if !scopeMap[required] {
			missingScopes = append(missingScopes, required)
		}
	}

	if len(missingScopes) > 0 {
		return fmt.Errorf("GitHub token missing required permissions: %s", strings.Join(missingScopes, ", "))
	}

	return nil
}

// GetClient returns the authenticated REST client
func (am *AuthManager) GetClient() *github.Client {
	return am.client
}

// AuthenticateFromConfig resolves the token from cfg, authenticates and verifies it
func (am *AuthManager) AuthenticateFromConfig(ctx context.Context, cfg *config.Config) (*TokenInfo, error) {
	token, err := am.GetToken(cfg)
	if err != nil {
		return nil, err
	}

	if err := am.Authenticate(token, cfg.Runtime.APIURL); err != nil {
		return nil, err
	}

	return am.ValidateToken(ctx)
}

// GetAuthInstructions returns instructions for setting up GitHub authentication
func GetAuthInstructions() string {
	return `GitHub authentication is required.

In a workflow, pass a token as the "token" input (INPUT_TOKEN) or expose
GITHUB_TOKEN to the step. Locally:

   export GITHUB_TOKEN="your_personal_access_token"

Classic tokens need the 'repo' scope. Fine-grained tokens need read and write
access to Administration, Environments and Issues on each target repository.`
}
