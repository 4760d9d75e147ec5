package github

// Mutation inputs. The Go type names are sent as the GraphQL variable types,
// so they must match GitHub's input object names exactly.

// CreateLabelInput is the input of the createLabel mutation
type CreateLabelInput struct {
	RepositoryID string  `json:"repositoryId"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	Description  *string `json:"description,omitempty"`
}

// UpdateLabelInput is the input of the updateLabel mutation
type UpdateLabelInput struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DeleteLabelInput is the input of the deleteLabel mutation
type DeleteLabelInput struct {
	ID string `json:"id"`
}

// CreateBranchProtectionRuleInput is the input of the createBranchProtectionRule mutation
type CreateBranchProtectionRuleInput struct {
	RepositoryID                 string   `json:"repositoryId"`
	Pattern                      string   `json:"pattern"`
	RequiresApprovingReviews     bool     `json:"requiresApprovingReviews"`
	RequiredApprovingReviewCount int      `json:"requiredApprovingReviewCount"`
	DismissesStaleReviews        bool     `json:"dismissesStaleReviews"`
	RequiresCodeOwnerReviews     bool     `json:"requiresCodeOwnerReviews"`
	RequiresStatusChecks         bool     `json:"requiresStatusChecks"`
	RequiresStrictStatusChecks   bool     `json:"requiresStrictStatusChecks"`
	RequiredStatusCheckContexts  []string `json:"requiredStatusCheckContexts"`
	IsAdminEnforced              bool     `json:"isAdminEnforced"`
	RequiresLinearHistory        bool     `json:"requiresLinearHistory"`
	AllowsForcePushes            bool     `json:"allowsForcePushes"`
	AllowsDeletions              bool     `json:"allowsDeletions"`
}

// UpdateBranchProtectionRuleInput is the input of the updateBranchProtectionRule mutation
type UpdateBranchProtectionRuleInput struct {
	BranchProtectionRuleID       string   `json:"branchProtectionRuleId"`
	Pattern                      string   `json:"pattern"`
	RequiresApprovingReviews     bool     `json:"requiresApprovingReviews"`
	RequiredApprovingReviewCount int      `json:"requiredApprovingReviewCount"`
	DismissesStaleReviews        bool     `json:"dismissesStaleReviews"`
	RequiresCodeOwnerReviews     bool     `json:"requiresCodeOwnerReviews"`
	RequiresStatusChecks         bool     `json:"requiresStatusChecks"`
	RequiresStrictStatusChecks   bool     `json:"requiresStrictStatusChecks"`
	RequiredStatusCheckContexts  []string `json:"requiredStatusCheckContexts"`
	IsAdminEnforced              bool     `json:"isAdminEnforced"`
	RequiresLinearHistory        bool     `json:"requiresLinearHistory"`
	AllowsForcePushes            bool     `json:"allowsForcePushes"`
	AllowsDeletions              bool     `json:"allowsDeletions"`
}

// DeleteBranchProtectionRuleInput is the input of the deleteBranchProtectionRule mutation
type DeleteBranchProtectionRuleInput struct {
	BranchProtectionRuleID string `json:"branchProtectionRuleId"`
}

// CreateEnvironmentInput is the input of the createEnvironment mutation
type CreateEnvironmentInput struct {
	RepositoryID string `json:"repositoryId"`
	Name         string `json:"name"`
}

// UpdateEnvironmentInput is the input of the updateEnvironment mutation.
// Reviewers holds user node ids, not logins.
type UpdateEnvironmentInput struct {
	EnvironmentID     string   `json:"environmentId"`
	WaitTimer         int      `json:"waitTimer"`
	Reviewers         []string `json:"reviewers"`
	PreventSelfReview bool     `json:"preventSelfReview"`
}

// DeleteEnvironmentInput is the input of the deleteEnvironment mutation
type DeleteEnvironmentInput struct {
	ID string `json:"id"`
}

// NewCreateBranchProtectionRuleInput builds a create input from a desired rule
func NewCreateBranchProtectionRuleInput(repositoryID string, rule BranchProtectionRule) CreateBranchProtectionRuleInput {
	return CreateBranchProtectionRuleInput{
		RepositoryID:                 repositoryID,
		Pattern:                      rule.Pattern,
		RequiresApprovingReviews:     rule.RequiresApprovingReviews,
		RequiredApprovingReviewCount: rule.RequiredApprovingReviewCount,
		DismissesStaleReviews:        rule.DismissesStaleReviews,
		RequiresCodeOwnerReviews:     rule.RequiresCodeOwnerReviews,
		RequiresStatusChecks:         rule.RequiresStatusChecks,
		RequiresStrictStatusChecks:   rule.RequiresStrictStatusChecks,
		RequiredStatusCheckContexts:  rule.RequiredStatusCheckContexts,
		IsAdminEnforced:              rule.IsAdminEnforced,
		RequiresLinearHistory:        rule.RequiresLinearHistory,
		AllowsForcePushes:            rule.AllowsForcePushes,
		AllowsDeletions:              rule.AllowsDeletions,
	}
}

// NewUpdateBranchProtectionRuleInput builds an update input from a desired rule
func NewUpdateBranchProtectionRuleInput(ruleID string, rule BranchProtectionRule) UpdateBranchProtectionRuleInput {
	return UpdateBranchProtectionRuleInput{
		BranchProtectionRuleID:       ruleID,
		Pattern:                      rule.Pattern,
		RequiresApprovingReviews:     rule.RequiresApprovingReviews,
		RequiredApprovingReviewCount: rule.RequiredApprovingReviewCount,
		DismissesStaleReviews:        rule.DismissesStaleReviews,
		RequiresCodeOwnerReviews:     rule.RequiresCodeOwnerReviews,
		RequiresStatusChecks:         rule.RequiresStatusChecks,
		RequiresStrictStatusChecks:   rule.RequiresStrictStatusChecks,
		RequiredStatusCheckContexts:  rule.RequiredStatusCheckContexts,
		IsAdminEnforced:              rule.IsAdminEnforced,
		RequiresLinearHistory:        rule.RequiresLinearHistory,
		AllowsForcePushes:            rule.AllowsForcePushes,
		AllowsDeletions:              rule.AllowsDeletions,
	}
}
