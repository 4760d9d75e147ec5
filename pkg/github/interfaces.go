package github

import (
	"context"

	"ghsync/pkg/config"
)

// APIClient defines the GitHub GraphQL operations the reconciler needs
type APIClient interface {
	// Repository operations
	GetRepositoryID(ctx context.Context, params RepositoryParams) (string, error)

	// Label operations
	ListLabels(ctx context.Context, params RepositoryParams) ([]Label, error)
	CreateLabel(ctx context.Context, input CreateLabelInput) (*Label, error)
	UpdateLabel(ctx context.Context, input UpdateLabelInput) (*Label, error)
	DeleteLabel(ctx context.Context, input DeleteLabelInput) (string, error)

	// Branch protection operations
	ListBranchProtectionRules(ctx context.Context, params RepositoryParams) ([]BranchProtectionRule, error)
	CreateBranchProtectionRule(ctx context.Context, input CreateBranchProtectionRuleInput) (*BranchProtectionRule, error)
	UpdateBranchProtectionRule(ctx context.Context, input UpdateBranchProtectionRuleInput) (*BranchProtectionRule, error)
	DeleteBranchProtectionRule(ctx context.Context, input DeleteBranchProtectionRuleInput) error

	// Environment operations
	ListEnvironments(ctx context.Context, params RepositoryParams) ([]Environment, error)
	CreateEnvironment(ctx context.Context, input CreateEnvironmentInput) (*Environment, error)
	UpdateEnvironment(ctx context.Context, input UpdateEnvironmentInput) (*Environment, error)
	DeleteEnvironment(ctx context.Context, input DeleteEnvironmentInput) error

	// User operations
	GetUser(ctx context.Context, login string) (*User, error)
}

// Reconciler defines the interface for state reconciliation operations
type Reconciler interface {
	Plan(ctx context.Context, cfg *config.Config) (*ReconciliationPlan, error)
	Apply(ctx context.Context, plan *ReconciliationPlan) error
	Validate(cfg *config.Config) error
}

// ChangeType represents the type of change in a reconciliation plan
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// ReconciliationPlan represents a plan of changes to be applied to one repository
type ReconciliationPlan struct {
	Repository   RepositoryParams    `json:"repository"`
	Labels       []LabelChange       `json:"labels,omitempty"`
	BranchRules  []BranchRuleChange  `json:"branch_rules,omitempty"`
	Environments []EnvironmentChange `json:"environments,omitempty"`
}

// HasChanges reports whether the plan contains any change
func (p *ReconciliationPlan) HasChanges() bool {
	return p.ChangeCount() > 0
}

// ChangeCount returns the number of changes in the plan
func (p *ReconciliationPlan) ChangeCount() int {
	if p == nil {
		return 0
	}
	return len(p.Labels) + len(p.BranchRules) + len(p.Environments)
}

// LabelChange represents a change to a label
type LabelChange struct {
	Type   ChangeType `json:"type"`
	Before *Label     `json:"before,omitempty"`
	After  *Label     `json:"after,omitempty"`
}

// BranchRuleChange represents a change to a branch protection rule
type BranchRuleChange struct {
	Type    ChangeType            `json:"type"`
	Pattern string                `json:"pattern"`
	Before  *BranchProtectionRule `json:"before,omitempty"`
	After   *BranchProtectionRule `json:"after,omitempty"`
}

// EnvironmentChange represents a change to a deployment environment.
// ReviewerIDs holds the resolved node ids of After.Reviewers.
type EnvironmentChange struct {
	Type        ChangeType   `json:"type"`
	Before      *Environment `json:"before,omitempty"`
	After       *Environment `json:"after,omitempty"`
	ReviewerIDs []string     `json:"reviewer_ids,omitempty"`
}
