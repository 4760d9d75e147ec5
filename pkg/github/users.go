package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/shurcooL/graphql"

	"ghsync/pkg/config"
)

// UserQuery fetches a user by exact login. It is not repository scoped.
type UserQuery struct {
	Login string
	exec  Executor
}

// NewUserQuery creates a user query
func NewUserQuery(exec Executor, login string) (*UserQuery, error) {
	if strings.TrimSpace(login) == "" {
		return nil, &config.ValidationError{Field: "login", Message: "user login is required"}
	}
	return &UserQuery{Login: login, exec: exec}, nil
}

// Fetch returns the user or a not_found GitHubError
func (q *UserQuery) Fetch(ctx context.Context) (*User, error) {
	var query struct {
		User *struct {
			ID    string
			Login string
			Name  string
		} `graphql:"user(login: $login)"`
	}

	resource := fmt.Sprintf("user %s", q.Login)
	if err := q.exec.Query(ctx, resource, &query, map[string]any{"login": graphql.String(q.Login)}); err != nil {
		return nil, err
	}
	if query.User == nil {
		return nil, &GitHubError{
			Type:     ErrorTypeNotFound,
			Message:  fmt.Sprintf("Could not resolve to a User with the login of '%s'.", q.Login),
			Resource: resource,
			Code:     GraphQLNotFound,
		}
	}

	return &User{ID: query.User.ID, Login: query.User.Login, Name: query.User.Name}, nil
}

// GetUser looks up a user by login
func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	q, err := NewUserQuery(c, login)
	if err != nil {
		return nil, err
	}
	return q.Fetch(ctx)
}
