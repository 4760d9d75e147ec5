package github

// Label represents a repository label
type Label struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// BranchProtectionRule represents a repository-scoped branch protection rule
type BranchProtectionRule struct {
	ID                           string   `json:"id,omitempty"`
	Pattern                      string   `json:"pattern"`
	RequiresApprovingReviews     bool     `json:"requires_approving_reviews"`
	RequiredApprovingReviewCount int      `json:"required_approving_review_count"`
	DismissesStaleReviews        bool     `json:"dismisses_stale_reviews"`
	RequiresCodeOwnerReviews     bool     `json:"requires_code_owner_reviews"`
	RequiresStatusChecks         bool     `json:"requires_status_checks"`
	RequiresStrictStatusChecks   bool     `json:"requires_strict_status_checks"`
	RequiredStatusCheckContexts  []string `json:"required_status_check_contexts,omitempty"`
	IsAdminEnforced              bool     `json:"is_admin_enforced"`
	RequiresLinearHistory        bool     `json:"requires_linear_history"`
	AllowsForcePushes            bool     `json:"allows_force_pushes"`
	AllowsDeletions              bool     `json:"allows_deletions"`
}

// Environment represents a deployment environment
type Environment struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name"`
	WaitTimer         int      `json:"wait_timer"`
	Reviewers         []string `json:"reviewers,omitempty"` // logins
	PreventSelfReview bool     `json:"prevent_self_review"`
	// TeamReviewerIDs are kept on update; configuration only manages users.
	TeamReviewerIDs []string `json:"team_reviewer_ids,omitempty"`
}

// User represents a GitHub user resolved by login
type User struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// PageInfo carries the cursor of a connection page
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor,omitempty"`
}

// Connection is one page of a cursor-paginated list
type Connection[T any] struct {
	Nodes      []T      `json:"nodes"`
	PageInfo   PageInfo `json:"page_info"`
	TotalCount int      `json:"total_count"`
}
