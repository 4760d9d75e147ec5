package github

import (
	"context"
	"fmt"
)

// branchProtectionRuleNode is the branch protection rule selection set
type branchProtectionRuleNode struct {
	ID                           string
	Pattern                      string
	RequiresApprovingReviews     bool
	RequiredApprovingReviewCount int
	DismissesStaleReviews        bool
	RequiresCodeOwnerReviews     bool
	RequiresStatusChecks         bool
	RequiresStrictStatusChecks   bool
	RequiredStatusCheckContexts  []string
	IsAdminEnforced              bool
	RequiresLinearHistory        bool
	AllowsForcePushes            bool
	AllowsDeletions              bool
}

func (n branchProtectionRuleNode) toRule() BranchProtectionRule {
	return BranchProtectionRule{
		ID:                           n.ID,
		Pattern:                      n.Pattern,
		RequiresApprovingReviews:     n.RequiresApprovingReviews,
		RequiredApprovingReviewCount: n.RequiredApprovingReviewCount,
		DismissesStaleReviews:        n.DismissesStaleReviews,
		RequiresCodeOwnerReviews:     n.RequiresCodeOwnerReviews,
		RequiresStatusChecks:         n.RequiresStatusChecks,
		RequiresStrictStatusChecks:   n.RequiresStrictStatusChecks,
		RequiredStatusCheckContexts:  n.RequiredStatusCheckContexts,
		IsAdminEnforced:              n.IsAdminEnforced,
		RequiresLinearHistory:        n.RequiresLinearHistory,
		AllowsForcePushes:            n.AllowsForcePushes,
		AllowsDeletions:              n.AllowsDeletions,
	}
}

// BranchProtectionRulesQuery fetches the branch protection rules of a repository
type BranchProtectionRulesQuery struct {
	*RepositoryQuery
	PageSize int
}

// NewBranchProtectionRulesQuery creates a branch protection rules query
func NewBranchProtectionRulesQuery(exec Executor, params RepositoryParams) (*BranchProtectionRulesQuery, error) {
	base, err := newRepositoryQuery(exec, params)
	if err != nil {
		return nil, err
	}
	return &BranchProtectionRulesQuery{RepositoryQuery: base, PageSize: DefaultPageSize}, nil
}

// Page fetches one page of rules starting after the given cursor
func (q *BranchProtectionRulesQuery) Page(ctx context.Context, after string) (*Connection[BranchProtectionRule], error) {
	var query struct {
		Repository *struct {
			BranchProtectionRules struct {
				Nodes      []branchProtectionRuleNode
				PageInfo   pageInfoNode
				TotalCount int
			} `graphql:"branchProtectionRules(first: $first, after: $after)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	if err := q.Execute(ctx, "branch protection rules", &query, pageVariables(q.PageSize, after)); err != nil {
		return nil, err
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("branch protection rules in %s: repository not returned", q.params)
	}

	rules := query.Repository.BranchProtectionRules
	conn := &Connection[BranchProtectionRule]{
		Nodes:      make([]BranchProtectionRule, 0, len(rules.Nodes)),
		PageInfo:   rules.PageInfo.toPageInfo(),
		TotalCount: rules.TotalCount,
	}
	for _, node := range rules.Nodes {
		conn.Nodes = append(conn.Nodes, node.toRule())
	}
	return conn, nil
}

// All fetches every branch protection rule of the repository
func (q *BranchProtectionRulesQuery) All(ctx context.Context) ([]BranchProtectionRule, error) {
	return collectPages(ctx, q.Page)
}

// ListBranchProtectionRules returns all branch protection rules of a repository
func (c *Client) ListBranchProtectionRules(ctx context.Context, params RepositoryParams) ([]BranchProtectionRule, error) {
	q, err := NewBranchProtectionRulesQuery(c, params)
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}

// CreateBranchProtectionRule creates a branch protection rule
func (c *Client) CreateBranchProtectionRule(ctx context.Context, input CreateBranchProtectionRuleInput) (*BranchProtectionRule, error) {
	var m struct {
		CreateBranchProtectionRule *struct {
			BranchProtectionRule branchProtectionRuleNode
		} `graphql:"createBranchProtectionRule(input: $input)"`
	}

	resource := fmt.Sprintf("branch protection %s", input.Pattern)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return nil, err
	}
	if m.CreateBranchProtectionRule == nil {
		return nil, fmt.Errorf("%s: empty createBranchProtectionRule payload", resource)
	}
	rule := m.CreateBranchProtectionRule.BranchProtectionRule.toRule()
	return &rule, nil
}

// UpdateBranchProtectionRule updates a branch protection rule
func (c *Client) UpdateBranchProtectionRule(ctx context.Context, input UpdateBranchProtectionRuleInput) (*BranchProtectionRule, error) {
	var m struct {
		UpdateBranchProtectionRule *struct {
			BranchProtectionRule branchProtectionRuleNode
		} `graphql:"updateBranchProtectionRule(input: $input)"`
	}

	resource := fmt.Sprintf("branch protection %s", input.Pattern)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return nil, err
	}
	if m.UpdateBranchProtectionRule == nil {
		return nil, fmt.Errorf("%s: empty updateBranchProtectionRule payload", resource)
	}
	rule := m.UpdateBranchProtectionRule.BranchProtectionRule.toRule()
	return &rule, nil
}

// DeleteBranchProtectionRule deletes a branch protection rule
func (c *Client) DeleteBranchProtectionRule(ctx context.Context, input DeleteBranchProtectionRuleInput) error {
	var m struct {
		DeleteBranchProtectionRule *struct {
			ClientMutationID string
		} `graphql:"deleteBranchProtectionRule(input: $input)"`
	}

	return c.Mutate(ctx, fmt.Sprintf("branch protection %s", input.BranchProtectionRuleID), &m, map[string]any{"input": input})
}
