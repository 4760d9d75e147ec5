package githubtest

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
)

// ErrorType is the GitHub error classification carried in extensions
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeUnprocessable ErrorType = "UNPROCESSABLE"
)

// DeleteClientMutationID is returned by every delete mutation
const DeleteClientMutationID = "ghsync-delete"

// EnvironmentPageSize is the page size of the environments connection,
// whatever the client asks for
const EnvironmentPageSize = 1

const defaultPageSize = 100

// Error is a resolver failure. Its type is exposed through extensions.
type Error struct {
	Type    ErrorType
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions implements the graphql-go extensions interface
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"type": string(e.Type)}
}

// NotFound returns a NOT_FOUND error
func NotFound(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unprocessable returns an UNPROCESSABLE error
func Unprocessable(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeUnprocessable, Message: fmt.Sprintf(format, args...)}
}

func nodeNotFound(id string) *Error {
	return NotFound("Could not resolve to a node with the global id of '%s'.", id)
}

// PageInfo describes a page of a connection
type PageInfo struct {
	HasNextPage bool
	EndCursor   string
}

// Page is a slice of a connection
type Page[T any] struct {
	Nodes      []T
	PageInfo   PageInfo
	TotalCount int
}

// EncodeCursor returns the opaque cursor pointing at the node with id
func EncodeCursor(id string) string {
	return base64.StdEncoding.EncodeToString([]byte("cursor:" + id))
}

func decodeCursor(cursor string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor %q", cursor)
	}
	id, ok := strings.CutPrefix(string(raw), "cursor:")
	if !ok {
		return "", fmt.Errorf("invalid cursor %q", cursor)
	}
	return id, nil
}

// Paginate returns up to first nodes following the node the after cursor
// points at. A non-positive first means the default page size.
func Paginate[T any](nodes []T, id func(T) string, first int, after string) (Page[T], error) {
	if first <= 0 {
		first = defaultPageSize
	}

	start := 0
	if after != "" {
		afterID, err := decodeCursor(after)
		if err != nil {
			return Page[T]{}, err
		}
		i := slices.IndexFunc(nodes, func(n T) bool { return id(n) == afterID })
		if i < 0 {
			return Page[T]{}, fmt.Errorf("cursor %q does not point into the connection", after)
		}
		start = i + 1
	}

	end := min(start+first, len(nodes))
	page := Page[T]{
		Nodes:      slices.Clone(nodes[start:end]),
		TotalCount: len(nodes),
		PageInfo:   PageInfo{HasNextPage: end < len(nodes)},
	}
	if end > start {
		page.PageInfo.EndCursor = EncodeCursor(id(nodes[end-1]))
	}
	return page, nil
}

// LookupRepository resolves repository(owner, name)
func LookupRepository(fx Fixtures, owner, name string) (Repository, error) {
	repo, ok := fx.Repository(owner, name)
	if !ok {
		return Repository{}, NotFound("Could not resolve to a Repository with the name '%s/%s'.", owner, name)
	}
	return repo, nil
}

// LookupUser resolves user(login) by exact login
func LookupUser(fx Fixtures, login string) (User, error) {
	user, ok := fx.UserByLogin(login)
	if !ok {
		return User{}, NotFound("Could not resolve to a User with the login of '%s'.", login)
	}
	return user, nil
}

func repositoryByID(fx Fixtures, id string) (Repository, error) {
	repo, ok := fx.RepositoryByID(id)
	if !ok {
		return Repository{}, nodeNotFound(id)
	}
	return repo, nil
}

// LabelInput carries the label fields of create and update inputs. Nil
// fields are absent from the request.
type LabelInput struct {
	Name        *string
	Color       *string
	Description *string
}

// CreateLabel checks name uniqueness in the repository and returns the
// input as a label with a new id
func CreateLabel(fx Fixtures, repositoryID string, in LabelInput, newID string) (Label, error) {
	repo, err := repositoryByID(fx, repositoryID)
	if err != nil {
		return Label{}, err
	}

	name := deref(in.Name)
	for _, existing := range repo.Labels {
		if strings.EqualFold(existing.Name, name) {
			return Label{}, Unprocessable("Name has already been taken")
		}
	}

	return Label{ID: newID, Name: name, Color: deref(in.Color), Description: deref(in.Description)}, nil
}

// UpdateLabel returns the fixture label with the given id overlaid with
// the input. Fixtures are not modified.
func UpdateLabel(fx Fixtures, id string, in LabelInput) (Label, error) {
	label, ok := findLabel(fx, id)
	if !ok {
		return Label{}, nodeNotFound(id)
	}

	if in.Name != nil {
		label.Name = *in.Name
	}
	if in.Color != nil {
		label.Color = *in.Color
	}
	if in.Description != nil {
		label.Description = *in.Description
	}
	return label, nil
}

func findLabel(fx Fixtures, id string) (Label, bool) {
	for _, repo := range fx.Repositories {
		for _, label := range repo.Labels {
			if label.ID == id {
				return label, true
			}
		}
	}
	return Label{}, false
}

// DeleteLabel acknowledges the delete without checking the label exists
func DeleteLabel(Fixtures, string) string {
	return DeleteClientMutationID
}

// BranchProtectionRuleInput carries the optional fields of branch
// protection rule inputs
type BranchProtectionRuleInput struct {
	Pattern                      *string
	RequiresApprovingReviews     *bool
	RequiredApprovingReviewCount *int
	DismissesStaleReviews        *bool
	RequiresCodeOwnerReviews     *bool
	RequiresStatusChecks         *bool
	RequiresStrictStatusChecks   *bool
	RequiredStatusCheckContexts  *[]string
	IsAdminEnforced              *bool
	RequiresLinearHistory        *bool
	AllowsForcePushes            *bool
	AllowsDeletions              *bool
}

func (in BranchProtectionRuleInput) applyTo(rule BranchProtectionRule) BranchProtectionRule {
	set(&rule.Pattern, in.Pattern)
	set(&rule.RequiresApprovingReviews, in.RequiresApprovingReviews)
	set(&rule.RequiredApprovingReviewCount, in.RequiredApprovingReviewCount)
	set(&rule.DismissesStaleReviews, in.DismissesStaleReviews)
	set(&rule.RequiresCodeOwnerReviews, in.RequiresCodeOwnerReviews)
	set(&rule.RequiresStatusChecks, in.RequiresStatusChecks)
	set(&rule.RequiresStrictStatusChecks, in.RequiresStrictStatusChecks)
	if in.RequiredStatusCheckContexts != nil {
		rule.RequiredStatusCheckContexts = slices.Clone(*in.RequiredStatusCheckContexts)
	}
	set(&rule.IsAdminEnforced, in.IsAdminEnforced)
	set(&rule.RequiresLinearHistory, in.RequiresLinearHistory)
	set(&rule.AllowsForcePushes, in.AllowsForcePushes)
	set(&rule.AllowsDeletions, in.AllowsDeletions)
	return rule
}

// CreateBranchProtectionRule checks pattern uniqueness in the repository
// and returns the input as a rule with a new id
func CreateBranchProtectionRule(fx Fixtures, repositoryID string, in BranchProtectionRuleInput, newID string) (BranchProtectionRule, error) {
	repo, err := repositoryByID(fx, repositoryID)
	if err != nil {
		return BranchProtectionRule{}, err
	}

	pattern := deref(in.Pattern)
	if pattern == "" {
		return BranchProtectionRule{}, Unprocessable("Pattern can't be blank")
	}
	for _, existing := range repo.BranchProtectionRules {
		if existing.Pattern == pattern {
			return BranchProtectionRule{}, Unprocessable("Name already protected: %s", pattern)
		}
	}

	return in.applyTo(BranchProtectionRule{ID: newID}), nil
}

// UpdateBranchProtectionRule returns the fixture rule with the given id
// overlaid with the input
func UpdateBranchProtectionRule(fx Fixtures, id string, in BranchProtectionRuleInput) (BranchProtectionRule, error) {
	for _, repo := range fx.Repositories {
		for _, rule := range repo.BranchProtectionRules {
			if rule.ID == id {
				rule.RequiredStatusCheckContexts = slices.Clone(rule.RequiredStatusCheckContexts)
				return in.applyTo(rule), nil
			}
		}
	}
	return BranchProtectionRule{}, nodeNotFound(id)
}

// DeleteBranchProtectionRule acknowledges the delete
func DeleteBranchProtectionRule(Fixtures, string) string {
	return DeleteClientMutationID
}

// CreateEnvironment checks name uniqueness in the repository and returns
// an unprotected environment with a new id
func CreateEnvironment(fx Fixtures, repositoryID, name, newID string) (Environment, error) {
	repo, err := repositoryByID(fx, repositoryID)
	if err != nil {
		return Environment{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Environment{}, Unprocessable("Name can't be blank")
	}
	for _, existing := range repo.Environments {
		if strings.EqualFold(existing.Name, name) {
			return Environment{}, Unprocessable("Name has already been taken")
		}
	}
	return Environment{ID: newID, Name: name}, nil
}

// EnvironmentInput carries the optional fields of updateEnvironment.
// Reviewers are user node ids.
type EnvironmentInput struct {
	WaitTimer         *int
	Reviewers         *[]string
	PreventSelfReview *bool
}

// UpdateEnvironment returns the fixture environment with the given id
// overlaid with the input. Reviewer ids must name fixture users.
func UpdateEnvironment(fx Fixtures, id string, in EnvironmentInput) (Environment, error) {
	env, ok := findEnvironment(fx, id)
	if !ok {
		return Environment{}, nodeNotFound(id)
	}

	env.Reviewers = slices.Clone(env.Reviewers)
	env.TeamReviewers = slices.Clone(env.TeamReviewers)
	set(&env.WaitTimer, in.WaitTimer)
	set(&env.PreventSelfReview, in.PreventSelfReview)
	if in.Reviewers != nil {
		logins := make([]string, 0, len(*in.Reviewers))
		var slugs []string
		for _, reviewerID := range *in.Reviewers {
			if user, ok := fx.UserByID(reviewerID); ok {
				logins = append(logins, user.Login)
				continue
			}
			team, ok := fx.TeamByID(reviewerID)
			if !ok {
				return Environment{}, nodeNotFound(reviewerID)
			}
			slugs = append(slugs, team.Slug)
		}
		env.Reviewers = logins
		env.TeamReviewers = slugs
	}
	return env, nil
}

func findEnvironment(fx Fixtures, id string) (Environment, bool) {
	for _, repo := range fx.Repositories {
		for _, env := range repo.Environments {
			if env.ID == id {
				return env, true
			}
		}
	}
	return Environment{}, false
}

// DeleteEnvironment acknowledges the delete
func DeleteEnvironment(Fixtures, string) string {
	return DeleteClientMutationID
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
