package githubtest

import (
	gqlgo "github.com/graph-gophers/graphql-go"
)

// Resolvers adapt fixture values to the schema. Every field delegates to
// the functions in resolve.go; the only side effect is mutation recording.

type rootResolver struct {
	h *Handler
}

type connectionArgs struct {
	First *int32
	After *string
}

func (a connectionArgs) first() int {
	if a.First == nil {
		return 0
	}
	return int(*a.First)
}

func (a connectionArgs) after() string {
	return deref(a.After)
}

type firstArgs struct {
	First *int32
}

type pageInfoNode struct {
	HasNextPage bool
	EndCursor   *string
}

func newPageInfoNode(info PageInfo) *pageInfoNode {
	node := &pageInfoNode{HasNextPage: info.HasNextPage}
	if info.EndCursor != "" {
		cursor := info.EndCursor
		node.EndCursor = &cursor
	}
	return node
}

func (r *rootResolver) Repository(args struct {
	Owner string
	Name  string
}) (*repositoryResolver, error) {
	repo, err := LookupRepository(r.h.fixtures, args.Owner, args.Name)
	if err != nil {
		return nil, err
	}
	return &repositoryResolver{fx: r.h.fixtures, repo: repo}, nil
}

func (r *rootResolver) User(args struct{ Login string }) (*userNode, error) {
	user, err := LookupUser(r.h.fixtures, args.Login)
	if err != nil {
		return nil, err
	}
	return newUserNode(user), nil
}

type repositoryResolver struct {
	fx   Fixtures
	repo Repository
}

func (r *repositoryResolver) ID() gqlgo.ID {
	return gqlgo.ID(r.repo.ID)
}

func (r *repositoryResolver) Name() string {
	return r.repo.Name
}

func (r *repositoryResolver) NameWithOwner() string {
	return r.repo.Owner + "/" + r.repo.Name
}

type labelConnection struct {
	Nodes      []*labelNode
	PageInfo   *pageInfoNode
	TotalCount int32
}

func (r *repositoryResolver) Labels(args connectionArgs) (*labelConnection, error) {
	page, err := Paginate(r.repo.Labels, func(l Label) string { return l.ID }, args.first(), args.after())
	if err != nil {
		return nil, err
	}
	conn := &labelConnection{Nodes: make([]*labelNode, 0, len(page.Nodes)), PageInfo: newPageInfoNode(page.PageInfo), TotalCount: int32(page.TotalCount)} // #nosec G115
	for _, label := range page.Nodes {
		conn.Nodes = append(conn.Nodes, newLabelNode(label))
	}
	return conn, nil
}

type branchProtectionRuleConnection struct {
	Nodes      []*branchProtectionRuleNode
	PageInfo   *pageInfoNode
	TotalCount int32
}

func (r *repositoryResolver) BranchProtectionRules(args connectionArgs) (*branchProtectionRuleConnection, error) {
	page, err := Paginate(r.repo.BranchProtectionRules, func(b BranchProtectionRule) string { return b.ID }, args.first(), args.after())
	if err != nil {
		return nil, err
	}
	conn := &branchProtectionRuleConnection{Nodes: make([]*branchProtectionRuleNode, 0, len(page.Nodes)), PageInfo: newPageInfoNode(page.PageInfo), TotalCount: int32(page.TotalCount)} // #nosec G115
	for _, rule := range page.Nodes {
		conn.Nodes = append(conn.Nodes, newBranchProtectionRuleNode(rule))
	}
	return conn, nil
}

type environmentConnection struct {
	Nodes      []*environmentResolver
	PageInfo   *pageInfoNode
	TotalCount int32
}

// Environments ignores the requested page size
func (r *repositoryResolver) Environments(args connectionArgs) (*environmentConnection, error) {
	page, err := Paginate(r.repo.Environments, func(e Environment) string { return e.ID }, EnvironmentPageSize, args.after())
	if err != nil {
		return nil, err
	}
	conn := &environmentConnection{Nodes: make([]*environmentResolver, 0, len(page.Nodes)), PageInfo: newPageInfoNode(page.PageInfo), TotalCount: int32(page.TotalCount)} // #nosec G115
	for _, env := range page.Nodes {
		conn.Nodes = append(conn.Nodes, &environmentResolver{fx: r.fx, env: env})
	}
	return conn, nil
}

type labelNode struct {
	ID          gqlgo.ID
	Name        string
	Color       string
	Description *string
}

func newLabelNode(label Label) *labelNode {
	node := &labelNode{ID: gqlgo.ID(label.ID), Name: label.Name, Color: label.Color}
	if label.Description != "" {
		description := label.Description
		node.Description = &description
	}
	return node
}

type branchProtectionRuleNode struct {
	ID                           gqlgo.ID
	Pattern                      string
	RequiresApprovingReviews     bool
	RequiredApprovingReviewCount int32
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

func newBranchProtectionRuleNode(rule BranchProtectionRule) *branchProtectionRuleNode {
	contexts := rule.RequiredStatusCheckContexts
	if contexts == nil {
		contexts = []string{}
	}
	return &branchProtectionRuleNode{
		ID:                           gqlgo.ID(rule.ID),
		Pattern:                      rule.Pattern,
		RequiresApprovingReviews:     rule.RequiresApprovingReviews,
		RequiredApprovingReviewCount: int32(rule.RequiredApprovingReviewCount), // #nosec G115 - fixture values are small
		DismissesStaleReviews:        rule.DismissesStaleReviews,
		RequiresCodeOwnerReviews:     rule.RequiresCodeOwnerReviews,
		RequiresStatusChecks:         rule.RequiresStatusChecks,
		RequiresStrictStatusChecks:   rule.RequiresStrictStatusChecks,
		RequiredStatusCheckContexts:  contexts,
		IsAdminEnforced:              rule.IsAdminEnforced,
		RequiresLinearHistory:        rule.RequiresLinearHistory,
		AllowsForcePushes:            rule.AllowsForcePushes,
		AllowsDeletions:              rule.AllowsDeletions,
	}
}

type environmentResolver struct {
	fx  Fixtures
	env Environment
}

func (r *environmentResolver) ID() gqlgo.ID {
	return gqlgo.ID(r.env.ID)
}

func (r *environmentResolver) Name() string {
	return r.env.Name
}

type protectionRuleConnection struct {
	Nodes      []*protectionRuleResolver
	TotalCount int32
}

// ProtectionRules derives GitHub's rule list from the flat fixture fields
func (r *environmentResolver) ProtectionRules(args firstArgs) *protectionRuleConnection {
	var rules []*protectionRuleResolver
	if r.env.WaitTimer > 0 {
		rules = append(rules, &protectionRuleResolver{
			Type:    "WAIT_TIMER",
			Timeout: int32(r.env.WaitTimer), // #nosec G115 - bounded by validation
		})
	}
	if len(r.env.Reviewers) > 0 || len(r.env.TeamReviewers) > 0 || r.env.PreventSelfReview {
		rule := &protectionRuleResolver{Type: "REQUIRED_REVIEWERS", PreventSelfReview: r.env.PreventSelfReview}
		for _, login := range r.env.Reviewers {
			user, ok := r.fx.UserByLogin(login)
			if !ok {
				user = User{ID: "U_" + login, Login: login}
			}
			rule.reviewerNodes = append(rule.reviewerNodes, &reviewerResolver{user: newUserNode(user)})
		}
		for _, slug := range r.env.TeamReviewers {
			team, ok := r.fx.TeamBySlug(slug)
			if !ok {
				team = Team{ID: "T_" + slug, Slug: slug}
			}
			rule.reviewerNodes = append(rule.reviewerNodes, &reviewerResolver{team: &teamNode{ID: gqlgo.ID(team.ID), Slug: team.Slug}})
		}
		rules = append(rules, rule)
	}

	total := int32(len(rules)) // #nosec G115
	return &protectionRuleConnection{Nodes: truncate(rules, args.First), TotalCount: total}
}

type protectionRuleResolver struct {
	Type              string
	Timeout           int32
	PreventSelfReview bool
	reviewerNodes     []*reviewerResolver
}

type reviewerConnection struct {
	Nodes      []*reviewerResolver
	TotalCount int32
}

func (r *protectionRuleResolver) Reviewers(args firstArgs) *reviewerConnection {
	return &reviewerConnection{
		Nodes:      truncate(r.reviewerNodes, args.First),
		TotalCount: int32(len(r.reviewerNodes)), // #nosec G115
	}
}

// reviewerResolver resolves the DeploymentReviewer union
type reviewerResolver struct {
	user *userNode
	team *teamNode
}

func (r *reviewerResolver) ToUser() (*userNode, bool) {
	return r.user, r.user != nil
}

func (r *reviewerResolver) ToTeam() (*teamNode, bool) {
	return r.team, r.team != nil
}

type userNode struct {
	ID    gqlgo.ID
	Login string
	Name  *string
}

func newUserNode(user User) *userNode {
	node := &userNode{ID: gqlgo.ID(user.ID), Login: user.Login}
	if user.Name != "" {
		name := user.Name
		node.Name = &name
	}
	return node
}

type teamNode struct {
	ID   gqlgo.ID
	Slug string
}

func truncate[T any](nodes []T, first *int32) []T {
	if nodes == nil {
		nodes = []T{}
	}
	if first != nil && int(*first) >= 0 && int(*first) < len(nodes) {
		return nodes[:*first]
	}
	return nodes
}

func idsToStrings(ids *[]gqlgo.ID) *[]string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(*ids))
	for _, id := range *ids {
		out = append(out, string(id))
	}
	return &out
}

func int32ToInt(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
