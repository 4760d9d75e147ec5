package github

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"ghsync/pkg/config"
)

// reconciler implements the Reconciler interface for a single repository
type reconciler struct {
	client APIClient
	params RepositoryParams
	logger *logrus.Entry

	repositoryID string
}

// NewReconciler creates a reconciler for the given repository
func NewReconciler(client APIClient, params RepositoryParams, logger *logrus.Logger) Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &reconciler{
		client: client,
		params: params,
		logger: logger.WithFields(logrus.Fields{
			"component":  "reconciler",
			"repository": params.String(),
		}),
	}
}

// Plan compares the desired configuration with the repository's current state
func (r *reconciler) Plan(ctx context.Context, cfg *config.Config) (*ReconciliationPlan, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := r.params.Validate(); err != nil {
		return nil, err
	}

	plan := &ReconciliationPlan{Repository: r.params}

	labelChanges, err := r.planLabelChanges(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to plan label changes: %w", err)
	}
	plan.Labels = labelChanges

	branchChanges, err := r.planBranchRuleChanges(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to plan branch protection changes: %w", err)
	}
	plan.BranchRules = branchChanges

	envChanges, err := r.planEnvironmentChanges(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to plan environment changes: %w", err)
	}
	plan.Environments = envChanges

	r.logger.WithField("changes", plan.ChangeCount()).Debug("plan computed")
	return plan, nil
}

// Apply executes the plan. Every change is attempted; failures are
// collected into a PartialFailureError.
func (r *reconciler) Apply(ctx context.Context, plan *ReconciliationPlan) error {
	if plan == nil || !plan.HasChanges() {
		return nil
	}

	var succeeded []string
	failed := make(map[string]error)

	record := func(operation string, err error) {
		if err != nil {
			r.logger.WithError(err).WithField("operation", operation).Warn("change failed")
			failed[operation] = err
			return
		}
		r.logger.WithField("operation", operation).Info("change applied")
		succeeded = append(succeeded, operation)
	}

	for _, change := range plan.Labels {
		record(change.Operation(), r.applyLabelChange(ctx, change))
	}

	for _, change := range plan.BranchRules {
		record(change.Operation(), r.applyBranchRuleChange(ctx, change))
	}

	for _, change := range plan.Environments {
		record(change.Operation(), r.applyEnvironmentChange(ctx, change))
	}

	if len(failed) > 0 {
		return NewPartialFailureError(succeeded, failed)
	}

	return nil
}

// Validate validates the configuration without contacting GitHub
func (r *reconciler) Validate(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	return cfg.Validate()
}

// Operation names the change for logs and failure reports
func (c LabelChange) Operation() string {
	name := ""
	if c.After != nil {
		name = c.After.Name
	} else if c.Before != nil {
		name = c.Before.Name
	}
	return fmt.Sprintf("%s label %s", c.Type, name)
}

// Operation names the change for logs and failure reports
func (c BranchRuleChange) Operation() string {
	return fmt.Sprintf("%s branch protection %s", c.Type, c.Pattern)
}

// Operation names the change for logs and failure reports
func (c EnvironmentChange) Operation() string {
	name := ""
	if c.After != nil {
		name = c.After.Name
	} else if c.Before != nil {
		name = c.Before.Name
	}
	return fmt.Sprintf("%s environment %s", c.Type, name)
}

func (r *reconciler) planLabelChanges(ctx context.Context, cfg *config.Config) ([]LabelChange, error) {
	if len(cfg.Labels) == 0 && !cfg.Prune.Labels {
		return nil, nil
	}

	current, err := r.client.ListLabels(ctx, r.params)
	if err != nil {
		return nil, err
	}

	currentByName := make(map[string]*Label, len(current))
	for i := range current {
		currentByName[strings.ToLower(current[i].Name)] = &current[i]
	}

	var changes []LabelChange
	desiredNames := make(map[string]bool, len(cfg.Labels))
	for _, lc := range cfg.Labels {
		desired := LabelFromConfig(lc)
		key := strings.ToLower(desired.Name)
		desiredNames[key] = true

		existing, ok := currentByName[key]
		if !ok {
			changes = append(changes, LabelChange{Type: ChangeTypeCreate, After: &desired})
			continue
		}

		desired.ID = existing.ID
		if !labelsEqual(existing, &desired) {
			changes = append(changes, LabelChange{Type: ChangeTypeUpdate, Before: existing, After: &desired})
		}
	}

	if cfg.Prune.Labels {
		for i := range current {
			if !desiredNames[strings.ToLower(current[i].Name)] {
				changes = append(changes, LabelChange{Type: ChangeTypeDelete, Before: &current[i]})
			}
		}
	}

	return changes, nil
}

func (r *reconciler) planBranchRuleChanges(ctx context.Context, cfg *config.Config) ([]BranchRuleChange, error) {
	if len(cfg.Branches) == 0 && !cfg.Prune.Branches {
		return nil, nil
	}

	current, err := r.client.ListBranchProtectionRules(ctx, r.params)
	if err != nil {
		return nil, err
	}

	currentByPattern := make(map[string]*BranchProtectionRule, len(current))
	for i := range current {
		currentByPattern[current[i].Pattern] = &current[i]
	}

	var changes []BranchRuleChange
	desiredPatterns := make(map[string]bool, len(cfg.Branches))
	for _, bc := range cfg.Branches {
		desired := BranchProtectionRuleFromConfig(bc)
		desiredPatterns[desired.Pattern] = true

		existing, ok := currentByPattern[desired.Pattern]
		if !ok {
			changes = append(changes, BranchRuleChange{Type: ChangeTypeCreate, Pattern: desired.Pattern, After: &desired})
			continue
		}

		desired.ID = existing.ID
		if !branchRulesEqual(existing, &desired) {
			changes = append(changes, BranchRuleChange{
				Type:    ChangeTypeUpdate,
				Pattern: desired.Pattern,
				Before:  existing,
				After:   &desired,
			})
		}
	}

	if cfg.Prune.Branches {
		for i := range current {
			if !desiredPatterns[current[i].Pattern] {
				changes = append(changes, BranchRuleChange{
					Type:    ChangeTypeDelete,
					Pattern: current[i].Pattern,
					Before:  &current[i],
				})
			}
		}
	}

	return changes, nil
}

func (r *reconciler) planEnvironmentChanges(ctx context.Context, cfg *config.Config) ([]EnvironmentChange, error) {
	if len(cfg.Environments) == 0 && !cfg.Prune.Environments {
		return nil, nil
	}

	current, err := r.client.ListEnvironments(ctx, r.params)
	if err != nil {
		return nil, err
	}

	currentByName := make(map[string]*Environment, len(current))
	for i := range current {
		currentByName[strings.ToLower(current[i].Name)] = &current[i]
	}

	users := make(map[string]string)
	var changes []EnvironmentChange
	desiredNames := make(map[string]bool, len(cfg.Environments))
	for _, ec := range cfg.Environments {
		desired := EnvironmentFromConfig(ec)
		key := strings.ToLower(desired.Name)
		desiredNames[key] = true

		change := EnvironmentChange{Type: ChangeTypeCreate, After: &desired}
		if existing, ok := currentByName[key]; ok {
			desired.ID = existing.ID
			if environmentsEqual(existing, &desired) {
				continue
			}
			change.Type = ChangeTypeUpdate
			change.Before = existing
		}

		ids, err := r.resolveReviewers(ctx, desired.Reviewers, users)
		if err != nil {
			return nil, fmt.Errorf("environment %s: %w", desired.Name, err)
		}
		change.ReviewerIDs = ids
		changes = append(changes, change)
	}

	if cfg.Prune.Environments {
		for i := range current {
			if !desiredNames[strings.ToLower(current[i].Name)] {
				changes = append(changes, EnvironmentChange{Type: ChangeTypeDelete, Before: &current[i]})
			}
		}
	}

	return changes, nil
}

// resolveReviewers maps logins to user node ids, caching lookups in users
func (r *reconciler) resolveReviewers(ctx context.Context, logins []string, users map[string]string) ([]string, error) {
	var ids []string
	for _, login := range logins {
		key := strings.ToLower(login)
		if id, ok := users[key]; ok {
			ids = append(ids, id)
			continue
		}

		user, err := r.client.GetUser(ctx, login)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reviewer %s: %w", login, err)
		}
		users[key] = user.ID
		ids = append(ids, user.ID)
	}
	return ids, nil
}

// repoID resolves the repository node id once per reconciler
func (r *reconciler) repoID(ctx context.Context) (string, error) {
	if r.repositoryID != "" {
		return r.repositoryID, nil
	}
	id, err := r.client.GetRepositoryID(ctx, r.params)
	if err != nil {
		return "", err
	}
	r.repositoryID = id
	return id, nil
}

func (r *reconciler) applyLabelChange(ctx context.Context, change LabelChange) error {
	switch change.Type {
	case ChangeTypeCreate:
		repoID, err := r.repoID(ctx)
		if err != nil {
			return err
		}
		input := CreateLabelInput{
			RepositoryID: repoID,
			Name:         change.After.Name,
			Color:        change.After.Color,
		}
		if change.After.Description != "" {
			input.Description = &change.After.Description
		}
		_, err = r.client.CreateLabel(ctx, input)
		return err
	case ChangeTypeUpdate:
		_, err := r.client.UpdateLabel(ctx, UpdateLabelInput{
			ID:          change.Before.ID,
			Name:        &change.After.Name,
			Color:       &change.After.Color,
			Description: &change.After.Description,
		})
		return err
	case ChangeTypeDelete:
		_, err := r.client.DeleteLabel(ctx, DeleteLabelInput{ID: change.Before.ID})
		return err
	default:
		return fmt.Errorf("unsupported label change type: %s", change.Type)
	}
}

func (r *reconciler) applyBranchRuleChange(ctx context.Context, change BranchRuleChange) error {
	switch change.Type {
	case ChangeTypeCreate:
		repoID, err := r.repoID(ctx)
		if err != nil {
			return err
		}
		_, err = r.client.CreateBranchProtectionRule(ctx, NewCreateBranchProtectionRuleInput(repoID, *change.After))
		return err
	case ChangeTypeUpdate:
		_, err := r.client.UpdateBranchProtectionRule(ctx, NewUpdateBranchProtectionRuleInput(change.Before.ID, *change.After))
		return err
	case ChangeTypeDelete:
		return r.client.DeleteBranchProtectionRule(ctx, DeleteBranchProtectionRuleInput{BranchProtectionRuleID: change.Before.ID})
	default:
		return fmt.Errorf("unsupported branch rule change type: %s", change.Type)
	}
}

func (r *reconciler) applyEnvironmentChange(ctx context.Context, change EnvironmentChange) error {
	switch change.Type {
	case ChangeTypeCreate:
		repoID, err := r.repoID(ctx)
		if err != nil {
			return err
		}
		created, err := r.client.CreateEnvironment(ctx, CreateEnvironmentInput{RepositoryID: repoID, Name: change.After.Name})
		if err != nil {
			return err
		}
		// A new environment has no protection rules until it is updated.
		if !hasProtection(change.After) {
			return nil
		}
		_, err = r.client.UpdateEnvironment(ctx, newUpdateEnvironmentInput(created.ID, change))
		return err
	case ChangeTypeUpdate:
		_, err := r.client.UpdateEnvironment(ctx, newUpdateEnvironmentInput(change.Before.ID, change))
		return err
	case ChangeTypeDelete:
		return r.client.DeleteEnvironment(ctx, DeleteEnvironmentInput{ID: change.Before.ID})
	default:
		return fmt.Errorf("unsupported environment change type: %s", change.Type)
	}
}

func newUpdateEnvironmentInput(id string, change EnvironmentChange) UpdateEnvironmentInput {
	reviewers := slices.Clone(change.ReviewerIDs)
	if change.Before != nil {
		reviewers = append(reviewers, change.Before.TeamReviewerIDs...)
	}
	if reviewers == nil {
		reviewers = []string{}
	}
	return UpdateEnvironmentInput{
		EnvironmentID:     id,
		WaitTimer:         change.After.WaitTimer,
		Reviewers:         reviewers,
		PreventSelfReview: change.After.PreventSelfReview,
	}
}

func hasProtection(env *Environment) bool {
	return env.WaitTimer > 0 || len(env.Reviewers) > 0 || env.PreventSelfReview
}

// LabelFromConfig converts a configured label into its API form
func LabelFromConfig(lc config.LabelConfig) Label {
	return Label{
		Name:        lc.Name,
		Color:       strings.ToLower(strings.TrimPrefix(lc.Color, "#")),
		Description: lc.Description,
	}
}

// BranchProtectionRuleFromConfig converts a configured branch rule into its API form
func BranchProtectionRuleFromConfig(bc config.BranchConfig) BranchProtectionRule {
	checks := slices.Clone(bc.RequiredStatusChecks)
	sort.Strings(checks)
	if checks == nil {
		checks = []string{}
	}
	return BranchProtectionRule{
		Pattern:                      bc.Pattern,
		RequiresApprovingReviews:     bc.RequiredApprovingReviewCount > 0,
		RequiredApprovingReviewCount: bc.RequiredApprovingReviewCount,
		DismissesStaleReviews:        bc.DismissStaleReviews,
		RequiresCodeOwnerReviews:     bc.RequireCodeOwnerReviews,
		RequiresStatusChecks:         len(checks) > 0 || bc.RequireUpToDate,
		RequiresStrictStatusChecks:   bc.RequireUpToDate,
		RequiredStatusCheckContexts:  checks,
		IsAdminEnforced:              bc.EnforceAdmins,
		RequiresLinearHistory:        bc.RequireLinearHistory,
		AllowsForcePushes:            bc.AllowForcePushes,
		AllowsDeletions:              bc.AllowDeletions,
	}
}

// EnvironmentFromConfig converts a configured environment into its API form
func EnvironmentFromConfig(ec config.EnvironmentConfig) Environment {
	reviewers := slices.Clone(ec.Reviewers)
	sort.Strings(reviewers)
	return Environment{
		Name:              ec.Name,
		WaitTimer:         ec.WaitTimer,
		Reviewers:         reviewers,
		PreventSelfReview: ec.PreventSelfReview,
	}
}

func labelsEqual(a, b *Label) bool {
	return a.Name == b.Name &&
		strings.EqualFold(a.Color, b.Color) &&
		a.Description == b.Description
}

func branchRulesEqual(a, b *BranchProtectionRule) bool {
	return a.Pattern == b.Pattern &&
		a.RequiresApprovingReviews == b.RequiresApprovingReviews &&
		a.RequiredApprovingReviewCount == b.RequiredApprovingReviewCount &&
		a.DismissesStaleReviews == b.DismissesStaleReviews &&
		a.RequiresCodeOwnerReviews == b.RequiresCodeOwnerReviews &&
		a.RequiresStatusChecks == b.RequiresStatusChecks &&
		a.RequiresStrictStatusChecks == b.RequiresStrictStatusChecks &&
		stringSetsEqual(a.RequiredStatusCheckContexts, b.RequiredStatusCheckContexts) &&
		a.IsAdminEnforced == b.IsAdminEnforced &&
		a.RequiresLinearHistory == b.RequiresLinearHistory &&
		a.AllowsForcePushes == b.AllowsForcePushes &&
		a.AllowsDeletions == b.AllowsDeletions
}

// environmentsEqual ignores name case: environments cannot be renamed
func environmentsEqual(a, b *Environment) bool {
	return strings.EqualFold(a.Name, b.Name) &&
		a.WaitTimer == b.WaitTimer &&
		a.PreventSelfReview == b.PreventSelfReview &&
		stringSetsEqualFold(a.Reviewers, b.Reviewers)
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	sortedA := slices.Clone(a)
	sortedB := slices.Clone(b)
	sort.Strings(sortedA)
	sort.Strings(sortedB)

	return slices.Equal(sortedA, sortedB)
}

func stringSetsEqualFold(a, b []string) bool {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	return stringSetsEqual(lower(a), lower(b))
}
