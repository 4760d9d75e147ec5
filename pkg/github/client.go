package github

import (
	"context"
	"net/http"

	"github.com/shurcooL/graphql"
	"github.com/sirupsen/logrus"
)

// DefaultGraphQLURL is GitHub's public GraphQL endpoint
const DefaultGraphQLURL = "https://api.github.com/graphql"

// ClientOptions configures a Client
type ClientOptions struct {
	// Endpoint is the GraphQL URL; defaults to DefaultGraphQLURL
	Endpoint string

	// RequestsPerSecond caps the request rate; zero disables throttling
	RequestsPerSecond float64
	Burst             int

	// Retry controls retries of rate limit and network errors
	Retry *RetryConfig

	// Transport is the base round tripper, mainly for tests
	Transport http.RoundTripper

	Logger *logrus.Logger
}

// Client implements the APIClient interface using the GitHub GraphQL API
type Client struct {
	gql     *graphql.Client
	limiter *RateLimiter
	retry   *RetryConfig
	logger  *logrus.Entry
}

// NewClient creates a new GitHub GraphQL client with the provided token
func NewClient(token string, opts ClientOptions) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultGraphQLURL
	}

	limiterConfig := DefaultRateLimiterConfig()
	limiterConfig.RequestsPerSecond = opts.RequestsPerSecond
	limiterConfig.Burst = opts.Burst
	limiter := NewRateLimiter(limiterConfig)

	retry := opts.Retry
	if retry == nil {
		retry = DefaultRetryConfig()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		gql:     graphql.NewClient(endpoint, newHTTPClient(token, limiter, opts.Transport)),
		limiter: limiter,
		retry:   retry,
		logger:  logger.WithField("component", "graphql_client"),
	}
}

// Query runs a GraphQL query
func (c *Client) Query(ctx context.Context, resource string, q any, variables map[string]any) error {
	return c.do(ctx, "query", resource, func(ctx context.Context) error {
		return c.gql.Query(ctx, q, variables)
	})
}

// Mutate runs a GraphQL mutation
func (c *Client) Mutate(ctx context.Context, resource string, m any, variables map[string]any) error {
	return c.do(ctx, "mutation", resource, func(ctx context.Context) error {
		return c.gql.Mutate(ctx, m, variables)
	})
}

func (c *Client) do(ctx context.Context, kind, resource string, call func(ctx context.Context) error) error {
	return WithRetry(ctx, func(ctx context.Context) error {
		ctx, capture := withCapture(ctx)

		c.logger.WithFields(logrus.Fields{
			"operation": kind,
			"resource":  resource,
		}).Debug("Sending GraphQL request")

		err := call(ctx)
		if err == nil {
			return nil
		}

		ghErr := WrapGitHubError(capture.classify(err), resource)
		c.logger.WithFields(logrus.Fields{
			"operation":  kind,
			"resource":   resource,
			"error_type": ghErr.Type,
		}).Debug("GraphQL request failed")
		return ghErr
	}, c.retry)
}

// GetRepositoryID returns the node id of a repository
func (c *Client) GetRepositoryID(ctx context.Context, params RepositoryParams) (string, error) {
	q, err := NewRepositoryIDQuery(c, params)
	if err != nil {
		return "", err
	}
	return q.Fetch(ctx)
}

// RateLimitStats reports the GraphQL budget observed so far
func (c *Client) RateLimitStats() RateLimiterStats {
	return c.limiter.GetStats()
}
