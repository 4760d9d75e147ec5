package github

import (
	"context"
	"fmt"
	"sort"
)

// Deployment protection rule types
const (
	ProtectionRuleRequiredReviewers = "REQUIRED_REVIEWERS"
	ProtectionRuleWaitTimer         = "WAIT_TIMER"
)

// environmentNode is the environment selection set
type environmentNode struct {
	ID              string
	Name            string
	ProtectionRules struct {
		Nodes []struct {
			Type              string
			Timeout           int
			PreventSelfReview bool
			Reviewers         struct {
				Nodes []struct {
					User struct {
						Login string
					} `graphql:"... on User"`
					Team struct {
						ID string
					} `graphql:"... on Team"`
				}
			} `graphql:"reviewers(first: 10)"`
		}
	} `graphql:"protectionRules(first: 10)"`
}

func (n environmentNode) toEnvironment() Environment {
	env := Environment{ID: n.ID, Name: n.Name}
	for _, rule := range n.ProtectionRules.Nodes {
		switch rule.Type {
		case ProtectionRuleWaitTimer:
			env.WaitTimer = rule.Timeout
		case ProtectionRuleRequiredReviewers:
			env.PreventSelfReview = rule.PreventSelfReview
			for _, reviewer := range rule.Reviewers.Nodes {
				if reviewer.User.Login != "" {
					env.Reviewers = append(env.Reviewers, reviewer.User.Login)
				}
				if reviewer.Team.ID != "" {
					env.TeamReviewerIDs = append(env.TeamReviewerIDs, reviewer.Team.ID)
				}
			}
		}
	}
	sort.Strings(env.Reviewers)
	sort.Strings(env.TeamReviewerIDs)
	return env
}

// EnvironmentsQuery fetches the deployment environments of a repository
type EnvironmentsQuery struct {
	*RepositoryQuery
	PageSize int
}

// NewEnvironmentsQuery creates an environments query
func NewEnvironmentsQuery(exec Executor, params RepositoryParams) (*EnvironmentsQuery, error) {
	base, err := newRepositoryQuery(exec, params)
	if err != nil {
		return nil, err
	}
	return &EnvironmentsQuery{RepositoryQuery: base, PageSize: DefaultPageSize}, nil
}

// Page fetches one page of environments starting after the given cursor
func (q *EnvironmentsQuery) Page(ctx context.Context, after string) (*Connection[Environment], error) {
	var query struct {
		Repository *struct {
			Environments struct {
				Nodes      []environmentNode
				PageInfo   pageInfoNode
				TotalCount int
			} `graphql:"environments(first: $first, after: $after)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	if err := q.Execute(ctx, "environments", &query, pageVariables(q.PageSize, after)); err != nil {
		return nil, err
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("environments in %s: repository not returned", q.params)
	}

	envs := query.Repository.Environments
	conn := &Connection[Environment]{
		Nodes:      make([]Environment, 0, len(envs.Nodes)),
		PageInfo:   envs.PageInfo.toPageInfo(),
		TotalCount: envs.TotalCount,
	}
	for _, node := range envs.Nodes {
		conn.Nodes = append(conn.Nodes, node.toEnvironment())
	}
	return conn, nil
}

// All fetches every environment of the repository
func (q *EnvironmentsQuery) All(ctx context.Context) ([]Environment, error) {
	return collectPages(ctx, q.Page)
}

// ListEnvironments returns all environments of a repository
func (c *Client) ListEnvironments(ctx context.Context, params RepositoryParams) ([]Environment, error) {
	q, err := NewEnvironmentsQuery(c, params)
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}

// CreateEnvironment creates a deployment environment
func (c *Client) CreateEnvironment(ctx context.Context, input CreateEnvironmentInput) (*Environment, error) {
	var m struct {
		CreateEnvironment *struct {
			Environment environmentNode
		} `graphql:"createEnvironment(input: $input)"`
	}

	resource := fmt.Sprintf("environment %s", input.Name)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return nil, err
	}
	if m.CreateEnvironment == nil {
		return nil, fmt.Errorf("%s: empty createEnvironment payload", resource)
	}
	env := m.CreateEnvironment.Environment.toEnvironment()
	return &env, nil
}

// UpdateEnvironment sets the protection settings of an environment
func (c *Client) UpdateEnvironment(ctx context.Context, input UpdateEnvironmentInput) (*Environment, error) {
	var m struct {
		UpdateEnvironment *struct {
			Environment environmentNode
		} `graphql:"updateEnvironment(input: $input)"`
	}

	resource := fmt.Sprintf("environment %s", input.EnvironmentID)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return nil, err
	}
	if m.UpdateEnvironment == nil {
		return nil, fmt.Errorf("%s: empty updateEnvironment payload", resource)
	}
	env := m.UpdateEnvironment.Environment.toEnvironment()
	return &env, nil
}

// DeleteEnvironment deletes a deployment environment
func (c *Client) DeleteEnvironment(ctx context.Context, input DeleteEnvironmentInput) error {
	var m struct {
		DeleteEnvironment *struct {
			ClientMutationID string
		} `graphql:"deleteEnvironment(input: $input)"`
	}

	return c.Mutate(ctx, fmt.Sprintf("environment %s", input.ID), &m, map[string]any{"input": input})
}
