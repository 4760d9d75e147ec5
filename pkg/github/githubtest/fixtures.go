package githubtest

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed testdata/fixtures.yaml
var defaultFixtures []byte

// Fixtures is the static data the mock server answers from. Resolvers
// receive it by value and never write to it.
type Fixtures struct {
	Repositories []Repository `yaml:"repositories"`
	Users        []User       `yaml:"users"`
	Teams        []Team       `yaml:"teams"`
}

// Repository is a fixture repository with its connections
type Repository struct {
	ID                    string                 `yaml:"id"`
	Owner                 string                 `yaml:"owner"`
	Name                  string                 `yaml:"name"`
	Labels                []Label                `yaml:"labels"`
	BranchProtectionRules []BranchProtectionRule `yaml:"branch_protection_rules"`
	Environments          []Environment          `yaml:"environments"`
}

// Label is a fixture label
type Label struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Description string `yaml:"description"`
}

// BranchProtectionRule is a fixture branch protection rule
type BranchProtectionRule struct {
	ID                           string   `yaml:"id"`
	Pattern                      string   `yaml:"pattern"`
	RequiresApprovingReviews     bool     `yaml:"requires_approving_reviews"`
	RequiredApprovingReviewCount int      `yaml:"required_approving_review_count"`
	DismissesStaleReviews        bool     `yaml:"dismisses_stale_reviews"`
	RequiresCodeOwnerReviews     bool     `yaml:"requires_code_owner_reviews"`
	RequiresStatusChecks         bool     `yaml:"requires_status_checks"`
	RequiresStrictStatusChecks   bool     `yaml:"requires_strict_status_checks"`
	RequiredStatusCheckContexts  []string `yaml:"required_status_check_contexts"`
	IsAdminEnforced              bool     `yaml:"is_admin_enforced"`
	RequiresLinearHistory        bool     `yaml:"requires_linear_history"`
	AllowsForcePushes            bool     `yaml:"allows_force_pushes"`
	AllowsDeletions              bool     `yaml:"allows_deletions"`
}

// Environment is a fixture deployment environment. Reviewers are logins,
// team reviewers are slugs.
type Environment struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	WaitTimer         int      `yaml:"wait_timer"`
	Reviewers         []string `yaml:"reviewers"`
	TeamReviewers     []string `yaml:"team_reviewers"`
	PreventSelfReview bool     `yaml:"prevent_self_review"`
}

// User is a fixture user
type User struct {
	ID    string `yaml:"id"`
	Login string `yaml:"login"`
	Name  string `yaml:"name"`
}

// Team is a fixture team
type Team struct {
	ID   string `yaml:"id"`
	Slug string `yaml:"slug"`
}

// DefaultFixtures returns the fixtures shipped with the package
func DefaultFixtures() Fixtures {
	fx, err := LoadFixtures(defaultFixtures)
	if err != nil {
		panic(fmt.Sprintf("githubtest: embedded fixtures: %v", err))
	}
	return fx
}

// LoadFixtures parses YAML fixtures
func LoadFixtures(data []byte) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixtures{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return fx, nil
}

// Repository returns the repository with the given owner and name
func (fx Fixtures) Repository(owner, name string) (Repository, bool) {
	for _, repo := range fx.Repositories {
		if strings.EqualFold(repo.Owner, owner) && strings.EqualFold(repo.Name, name) {
			return repo, true
		}
	}
	return Repository{}, false
}

// RepositoryByID returns the repository with the given node id
func (fx Fixtures) RepositoryByID(id string) (Repository, bool) {
	i := slices.IndexFunc(fx.Repositories, func(r Repository) bool { return r.ID == id })
	if i < 0 {
		return Repository{}, false
	}
	return fx.Repositories[i], true
}

// UserByLogin returns the user with exactly the given login
func (fx Fixtures) UserByLogin(login string) (User, bool) {
	i := slices.IndexFunc(fx.Users, func(u User) bool { return u.Login == login })
	if i < 0 {
		return User{}, false
	}
	return fx.Users[i], true
}

// UserByID returns the user with the given node id
func (fx Fixtures) UserByID(id string) (User, bool) {
	i := slices.IndexFunc(fx.Users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return User{}, false
	}
	return fx.Users[i], true
}

// TeamBySlug returns the team with the given slug
func (fx Fixtures) TeamBySlug(slug string) (Team, bool) {
	i := slices.IndexFunc(fx.Teams, func(t Team) bool { return t.Slug == slug })
	if i < 0 {
		return Team{}, false
	}
	return fx.Teams[i], true
}

// TeamByID returns the team with the given node id
func (fx Fixtures) TeamByID(id string) (Team, bool) {
	i := slices.IndexFunc(fx.Teams, func(t Team) bool { return t.ID == id })
	if i < 0 {
		return Team{}, false
	}
	return fx.Teams[i], true
}
