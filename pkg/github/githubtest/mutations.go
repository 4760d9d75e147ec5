package githubtest

import (
	gqlgo "github.com/graph-gophers/graphql-go"
)

type createLabelInput struct {
	RepositoryID     gqlgo.ID `json:"repositoryId"`
	Name             string   `json:"name"`
	Color            string   `json:"color"`
	Description      *string  `json:"description,omitempty"`
	ClientMutationID *string  `json:"clientMutationId,omitempty"`
}

type updateLabelInput struct {
	ID               gqlgo.ID `json:"id"`
	Name             *string  `json:"name,omitempty"`
	Color            *string  `json:"color,omitempty"`
	Description      *string  `json:"description,omitempty"`
	ClientMutationID *string  `json:"clientMutationId,omitempty"`
}

type deleteInput struct {
	ID               gqlgo.ID `json:"id"`
	ClientMutationID *string  `json:"clientMutationId,omitempty"`
}

type labelPayload struct {
	ClientMutationID *string
	Label            *labelNode
}

type deletePayload struct {
	ClientMutationID *string
}

func newDeletePayload(clientMutationID string) *deletePayload {
	return &deletePayload{ClientMutationID: &clientMutationID}
}

func (r *rootResolver) CreateLabel(args struct{ Input createLabelInput }) (*labelPayload, error) {
	in := args.Input
	label, err := CreateLabel(r.h.fixtures, string(in.RepositoryID), LabelInput{
		Name:        &in.Name,
		Color:       &in.Color,
		Description: in.Description,
	}, r.h.newID("LA_"))
	r.h.record("createLabel", in, err)
	if err != nil {
		return nil, err
	}
	return &labelPayload{ClientMutationID: in.ClientMutationID, Label: newLabelNode(label)}, nil
}

func (r *rootResolver) UpdateLabel(args struct{ Input updateLabelInput }) (*labelPayload, error) {
	in := args.Input
	label, err := UpdateLabel(r.h.fixtures, string(in.ID), LabelInput{
		Name:        in.Name,
		Color:       in.Color,
		Description: in.Description,
	})
	r.h.record("updateLabel", in, err)
	if err != nil {
		return nil, err
	}
	return &labelPayload{ClientMutationID: in.ClientMutationID, Label: newLabelNode(label)}, nil
}

func (r *rootResolver) DeleteLabel(args struct{ Input deleteInput }) *deletePayload {
	r.h.record("deleteLabel", args.Input, nil)
	return newDeletePayload(DeleteLabel(r.h.fixtures, string(args.Input.ID)))
}

type branchProtectionRuleFields struct {
	RequiresApprovingReviews     *bool     `json:"requiresApprovingReviews,omitempty"`
	RequiredApprovingReviewCount *int32    `json:"requiredApprovingReviewCount,omitempty"`
	DismissesStaleReviews        *bool     `json:"dismissesStaleReviews,omitempty"`
	RequiresCodeOwnerReviews     *bool     `json:"requiresCodeOwnerReviews,omitempty"`
	RequiresStatusChecks         *bool     `json:"requiresStatusChecks,omitempty"`
	RequiresStrictStatusChecks   *bool     `json:"requiresStrictStatusChecks,omitempty"`
	RequiredStatusCheckContexts  *[]string `json:"requiredStatusCheckContexts,omitempty"`
	IsAdminEnforced              *bool     `json:"isAdminEnforced,omitempty"`
	RequiresLinearHistory        *bool     `json:"requiresLinearHistory,omitempty"`
	AllowsForcePushes            *bool     `json:"allowsForcePushes,omitempty"`
	AllowsDeletions              *bool     `json:"allowsDeletions,omitempty"`
	ClientMutationID             *string   `json:"clientMutationId,omitempty"`
}

func (f branchProtectionRuleFields) toInput(pattern *string) BranchProtectionRuleInput {
	return BranchProtectionRuleInput{
		Pattern:                      pattern,
		RequiresApprovingReviews:     f.RequiresApprovingReviews,
		RequiredApprovingReviewCount: int32ToInt(f.RequiredApprovingReviewCount),
		DismissesStaleReviews:        f.DismissesStaleReviews,
		RequiresCodeOwnerReviews:     f.RequiresCodeOwnerReviews,
		RequiresStatusChecks:         f.RequiresStatusChecks,
		RequiresStrictStatusChecks:   f.RequiresStrictStatusChecks,
		RequiredStatusCheckContexts:  f.RequiredStatusCheckContexts,
		IsAdminEnforced:              f.IsAdminEnforced,
		RequiresLinearHistory:        f.RequiresLinearHistory,
		AllowsForcePushes:            f.AllowsForcePushes,
		AllowsDeletions:              f.AllowsDeletions,
	}
}

type createBranchProtectionRuleInput struct {
	RepositoryID gqlgo.ID `json:"repositoryId"`
	Pattern      string   `json:"pattern"`
	branchProtectionRuleFields
}

type updateBranchProtectionRuleInput struct {
	BranchProtectionRuleID gqlgo.ID `json:"branchProtectionRuleId"`
	Pattern                *string  `json:"pattern,omitempty"`
	branchProtectionRuleFields
}

type deleteBranchProtectionRuleInput struct {
	BranchProtectionRuleID gqlgo.ID `json:"branchProtectionRuleId"`
	ClientMutationID       *string  `json:"clientMutationId,omitempty"`
}

type branchProtectionRulePayload struct {
	ClientMutationID     *string
	BranchProtectionRule *branchProtectionRuleNode
}

func (r *rootResolver) CreateBranchProtectionRule(args struct {
	Input createBranchProtectionRuleInput
}) (*branchProtectionRulePayload, error) {
	in := args.Input
	rule, err := CreateBranchProtectionRule(r.h.fixtures, string(in.RepositoryID), in.toInput(&in.Pattern), r.h.newID("BPR_"))
	r.h.record("createBranchProtectionRule", in, err)
	if err != nil {
		return nil, err
	}
	return &branchProtectionRulePayload{ClientMutationID: in.ClientMutationID, BranchProtectionRule: newBranchProtectionRuleNode(rule)}, nil
}

func (r *rootResolver) UpdateBranchProtectionRule(args struct {
	Input updateBranchProtectionRuleInput
}) (*branchProtectionRulePayload, error) {
	in := args.Input
	rule, err := UpdateBranchProtectionRule(r.h.fixtures, string(in.BranchProtectionRuleID), in.toInput(in.Pattern))
	r.h.record("updateBranchProtectionRule", in, err)
	if err != nil {
		return nil, err
	}
	return &branchProtectionRulePayload{ClientMutationID: in.ClientMutationID, BranchProtectionRule: newBranchProtectionRuleNode(rule)}, nil
}

func (r *rootResolver) DeleteBranchProtectionRule(args struct {
	Input deleteBranchProtectionRuleInput
}) *deletePayload {
	r.h.record("deleteBranchProtectionRule", args.Input, nil)
	return newDeletePayload(DeleteBranchProtectionRule(r.h.fixtures, string(args.Input.BranchProtectionRuleID)))
}

type createEnvironmentInput struct {
	RepositoryID     gqlgo.ID `json:"repositoryId"`
	Name             string   `json:"name"`
	ClientMutationID *string  `json:"clientMutationId,omitempty"`
}

type updateEnvironmentInput struct {
	EnvironmentID     gqlgo.ID    `json:"environmentId"`
	WaitTimer         *int32      `json:"waitTimer,omitempty"`
	Reviewers         *[]gqlgo.ID `json:"reviewers,omitempty"`
	PreventSelfReview *bool       `json:"preventSelfReview,omitempty"`
	ClientMutationID  *string     `json:"clientMutationId,omitempty"`
}

type environmentPayload struct {
	ClientMutationID *string
	Environment      *environmentResolver
}

func (r *rootResolver) CreateEnvironment(args struct{ Input createEnvironmentInput }) (*environmentPayload, error) {
	in := args.Input
	env, err := CreateEnvironment(r.h.fixtures, string(in.RepositoryID), in.Name, r.h.newID("EN_"))
	r.h.record("createEnvironment", in, err)
	if err != nil {
		return nil, err
	}
	return &environmentPayload{ClientMutationID: in.ClientMutationID, Environment: &environmentResolver{fx: r.h.fixtures, env: env}}, nil
}

func (r *rootResolver) UpdateEnvironment(args struct{ Input updateEnvironmentInput }) (*environmentPayload, error) {
	in := args.Input
	env, err := UpdateEnvironment(r.h.fixtures, string(in.EnvironmentID), EnvironmentInput{
		WaitTimer:         int32ToInt(in.WaitTimer),
		Reviewers:         idsToStrings(in.Reviewers),
		PreventSelfReview: in.PreventSelfReview,
	})
	r.h.record("updateEnvironment", in, err)
	if err != nil {
		return nil, err
	}
	return &environmentPayload{ClientMutationID: in.ClientMutationID, Environment: &environmentResolver{fx: r.h.fixtures, env: env}}, nil
}

func (r *rootResolver) DeleteEnvironment(args struct{ Input deleteInput }) *deletePayload {
	r.h.record("deleteEnvironment", args.Input, nil)
	return newDeletePayload(DeleteEnvironment(r.h.fixtures, string(args.Input.ID)))
}
