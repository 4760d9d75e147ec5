package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/shurcooL/graphql"

	"ghsync/pkg/config"
)

// DefaultPageSize is the page size requested for repository connections
const DefaultPageSize = 100

// Executor runs GraphQL documents against the API. Resource names the
// object being operated on and is used for error messages.
type Executor interface {
	Query(ctx context.Context, resource string, q any, variables map[string]any) error
	Mutate(ctx context.Context, resource string, m any, variables map[string]any) error
}

// RepositoryParams identifies the repository a query is scoped to
type RepositoryParams struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Validate checks that both owner and repository name are set
func (p RepositoryParams) Validate() error {
	if strings.TrimSpace(p.Owner) == "" {
		return &config.ValidationError{Field: "owner", Message: "repository owner is required"}
	}
	if strings.TrimSpace(p.Repo) == "" {
		return &config.ValidationError{Field: "repo", Message: "repository name is required"}
	}
	return nil
}

// String returns owner/repo
func (p RepositoryParams) String() string {
	return p.Owner + "/" + p.Repo
}

// ParseRepositoryParams parses an "owner/name" string
func ParseRepositoryParams(fullName string) (RepositoryParams, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	params := RepositoryParams{Owner: owner, Repo: repo}
	if !ok || strings.Contains(repo, "/") {
		return params, &config.ValidationError{Field: "repository", Value: fullName, Message: "expected owner/name"}
	}
	return params, params.Validate()
}

// RepositoryQuery carries what every repository-scoped query shares: the
// owner and name variables and the executor the request goes through.
// Specialized queries embed it and add their own selection set.
type RepositoryQuery struct {
	params RepositoryParams
	exec   Executor
}

// NewRepositoryQuery creates a base query for the given repository
func NewRepositoryQuery(exec Executor, params RepositoryParams) (*RepositoryQuery, error) {
	if exec == nil {
		return nil, fmt.Errorf("repository query for %s: executor is required", params)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &RepositoryQuery{params: params, exec: exec}, nil
}

// newRepositoryQuery is what specialized constructors call; tests swap it
// to observe the forwarded parameters.
var newRepositoryQuery = NewRepositoryQuery

// Params returns the repository the query is scoped to
func (q *RepositoryQuery) Params() RepositoryParams {
	return q.params
}

// Variables returns the owner/name variables merged with extra
func (q *RepositoryQuery) Variables(extra map[string]any) map[string]any {
	variables := map[string]any{
		"owner": graphql.String(q.params.Owner),
		"name":  graphql.String(q.params.Repo),
	}
	for k, v := range extra {
		variables[k] = v
	}
	return variables
}

// Execute issues one query scoped to the repository
func (q *RepositoryQuery) Execute(ctx context.Context, resource string, v any, extra map[string]any) error {
	return q.exec.Query(ctx, fmt.Sprintf("%s in %s", resource, q.params), v, q.Variables(extra))
}

// pageVariables returns the first/after variables of a connection query
func pageVariables(pageSize int, after string) map[string]any {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	cursor := (*graphql.String)(nil)
	if after != "" {
		cursor = graphql.NewString(graphql.String(after))
	}
	return map[string]any{
		"first": graphql.Int(int32(pageSize)), // #nosec G115 - page sizes are small
		"after": cursor,
	}
}

// pageInfoNode is the pageInfo selection shared by every connection
type pageInfoNode struct {
	HasNextPage bool
	EndCursor   string
}

func (p pageInfoNode) toPageInfo() PageInfo {
	return PageInfo{HasNextPage: p.HasNextPage, EndCursor: p.EndCursor}
}

// collectPages follows end cursors until the last page
func collectPages[T any](ctx context.Context, fetch func(ctx context.Context, after string) (*Connection[T], error)) ([]T, error) {
	var all []T
	after := ""
	for {
		page, err := fetch(ctx, after)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Nodes...)

		if !page.PageInfo.HasNextPage {
			return all, nil
		}
		if page.PageInfo.EndCursor == "" || page.PageInfo.EndCursor == after {
			return nil, fmt.Errorf("pagination stalled at cursor %q", after)
		}
		after = page.PageInfo.EndCursor
	}
}

// RepositoryIDQuery fetches the node id of a repository
type RepositoryIDQuery struct {
	*RepositoryQuery
}

// NewRepositoryIDQuery creates a repository id query
func NewRepositoryIDQuery(exec Executor, params RepositoryParams) (*RepositoryIDQuery, error) {
	base, err := newRepositoryQuery(exec, params)
	if err != nil {
		return nil, err
	}
	return &RepositoryIDQuery{RepositoryQuery: base}, nil
}

// Fetch returns the repository node id
func (q *RepositoryIDQuery) Fetch(ctx context.Context) (string, error) {
	var query struct {
		Repository *struct {
			ID string
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	if err := q.Execute(ctx, "repository", &query, nil); err != nil {
		return "", err
	}
	if query.Repository == nil {
		return "", &GitHubError{
			Type:     ErrorTypeNotFound,
			Message:  fmt.Sprintf("Could not resolve to a Repository with the name '%s'.", q.params),
			Resource: "repository",
		}
	}
	return query.Repository.ID, nil
}
