package github

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ghsync/pkg/config"
)

// MockAPIClient is a mock implementation of APIClient for testing
type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) GetRepositoryID(ctx context.Context, params RepositoryParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockAPIClient) ListLabels(ctx context.Context, params RepositoryParams) ([]Label, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Label), args.Error(1)
}

func (m *MockAPIClient) CreateLabel(ctx context.Context, input CreateLabelInput) (*Label, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Label), args.Error(1)
}

func (m *MockAPIClient) UpdateLabel(ctx context.Context, input UpdateLabelInput) (*Label, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Label), args.Error(1)
}

func (m *MockAPIClient) DeleteLabel(ctx context.Context, input DeleteLabelInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockAPIClient) ListBranchProtectionRules(ctx context.Context, params RepositoryParams) ([]BranchProtectionRule, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BranchProtectionRule), args.Error(1)
}

func (m *MockAPIClient) CreateBranchProtectionRule(ctx context.Context, input CreateBranchProtectionRuleInput) (*BranchProtectionRule, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BranchProtectionRule), args.Error(1)
}

func (m *MockAPIClient) UpdateBranchProtectionRule(ctx context.Context, input UpdateBranchProtectionRuleInput) (*BranchProtectionRule, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BranchProtectionRule), args.Error(1)
}

func (m *MockAPIClient) DeleteBranchProtectionRule(ctx context.Context, input DeleteBranchProtectionRuleInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockAPIClient) ListEnvironments(ctx context.Context, params RepositoryParams) ([]Environment, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Environment), args.Error(1)
}

func (m *MockAPIClient) CreateEnvironment(ctx context.Context, input CreateEnvironmentInput) (*Environment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Environment), args.Error(1)
}

func (m *MockAPIClient) UpdateEnvironment(ctx context.Context, input UpdateEnvironmentInput) (*Environment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Environment), args.Error(1)
}

func (m *MockAPIClient) DeleteEnvironment(ctx context.Context, input DeleteEnvironmentInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockAPIClient) GetUser(ctx context.Context, login string) (*User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

var testRepo = RepositoryParams{Owner: "acme", Repo: "widgets"}

func newTestReconciler(client APIClient) *reconciler {
	logger, _ := test.NewNullLogger()
	return NewReconciler(client, testRepo, logger).(*reconciler)
}

func strPtr(s string) *string { return &s }

func TestReconciler_PlanLabels(t *testing.T) {
	ctx := context.Background()

	current := []Label{
		{ID: "L1", Name: "bug", Color: "d73a4a", Description: "Something isn't working"},
		{ID: "L2", Name: "Enhancement", Color: "a2eeef"},
		{ID: "L3", Name: "wontfix", Color: "ffffff"},
	}

	tests := []struct {
		name    string
		cfg     *config.Config
		want    []LabelChange
		listErr error
	}{
		{
			name: "create update and unchanged",
			cfg: &config.Config{Labels: []config.LabelConfig{
				{Name: "bug", Color: "#D73A4A", Description: "Something isn't working"},
				{Name: "enhancement", Color: "a2eeef"},
				{Name: "docs", Color: "0075ca"},
			}},
			want: []LabelChange{
				{Type: ChangeTypeUpdate, Before: &current[1], After: &Label{ID: "L2", Name: "enhancement", Color: "a2eeef"}},
				{Type: ChangeTypeCreate, After: &Label{Name: "docs", Color: "0075ca"}},
			},
		},
		{
			name: "prune deletes unmanaged labels",
			cfg: &config.Config{
				Labels: []config.LabelConfig{{Name: "BUG", Color: "d73a4a", Description: "Something isn't working"}},
				Prune:  config.PruneConfig{Labels: true},
			},
			want: []LabelChange{
				{Type: ChangeTypeUpdate, Before: &current[0], After: &Label{ID: "L1", Name: "BUG", Color: "d73a4a", Description: "Something isn't working"}},
				{Type: ChangeTypeDelete, Before: &current[1]},
				{Type: ChangeTypeDelete, Before: &current[2]},
			},
		},
		{
			name:    "list failure",
			cfg:     &config.Config{Labels: []config.LabelConfig{{Name: "bug", Color: "d73a4a"}}},
			listErr: &GitHubError{Type: ErrorTypeAuth, Message: "Bad credentials"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockAPIClient)
			if tt.listErr != nil {
				client.On("ListLabels", mock.Anything, testRepo).Return(nil, tt.listErr)
			} else {
				client.On("ListLabels", mock.Anything, testRepo).Return(current, nil)
			}

			plan, err := newTestReconciler(client).Plan(ctx, tt.cfg)
			if tt.listErr != nil {
				require.Error(t, err)
				assert.True(t, IsErrorType(err, ErrorTypeAuth))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testRepo, plan.Repository)
			assert.Equal(t, tt.want, plan.Labels)
			assert.Empty(t, plan.BranchRules)
			assert.Empty(t, plan.Environments)
			client.AssertExpectations(t)
			client.AssertNotCalled(t, "ListBranchProtectionRules", mock.Anything, mock.Anything)
		})
	}
}

func TestReconciler_PlanBranchRules(t *testing.T) {
	current := []BranchProtectionRule{
		{
			ID:                           "B1",
			Pattern:                      "main",
			RequiresApprovingReviews:     true,
			RequiredApprovingReviewCount: 1,
			RequiresStatusChecks:         true,
			RequiredStatusCheckContexts:  []string{"lint", "build"},
		},
		{ID: "B2", Pattern: "release/*"},
	}

	client := new(MockAPIClient)
	client.On("ListBranchProtectionRules", mock.Anything, testRepo).Return(current, nil)

	cfg := &config.Config{
		Branches: []config.BranchConfig{
			{Pattern: "main", RequiredApprovingReviewCount: 1, RequiredStatusChecks: []string{"build", "lint"}},
			{Pattern: "develop", RequiredApprovingReviewCount: 2, EnforceAdmins: true},
		},
		Prune: config.PruneConfig{Branches: true},
	}

	plan, err := newTestReconciler(client).Plan(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, plan.BranchRules, 2)

	create := plan.BranchRules[0]
	assert.Equal(t, ChangeTypeCreate, create.Type)
	assert.Equal(t, "develop", create.Pattern)
	assert.True(t, create.After.RequiresApprovingReviews)
	assert.Equal(t, 2, create.After.RequiredApprovingReviewCount)
	assert.True(t, create.After.IsAdminEnforced)
	assert.False(t, create.After.RequiresStatusChecks)

	del := plan.BranchRules[1]
	assert.Equal(t, ChangeTypeDelete, del.Type)
	assert.Equal(t, "release/*", del.Pattern)
	assert.Equal(t, "B2", del.Before.ID)
}

func TestReconciler_PlanEnvironments(t *testing.T) {
	current := []Environment{
		{ID: "E1", Name: "production", WaitTimer: 10, Reviewers: []string{"octocat"}},
		{ID: "E2", Name: "staging"},
	}

	t.Run("resolves reviewers once per login", func(t *testing.T) {
		client := new(MockAPIClient)
		client.On("ListEnvironments", mock.Anything, testRepo).Return(current, nil)
		client.On("GetUser", mock.Anything, "octocat").Return(&User{ID: "U1", Login: "octocat"}, nil).Once()
		client.On("GetUser", mock.Anything, "hubot").Return(&User{ID: "U2", Login: "hubot"}, nil).Once()

		cfg := &config.Config{Environments: []config.EnvironmentConfig{
			{Name: "production", WaitTimer: 30, Reviewers: []string{"octocat", "hubot"}},
			{Name: "staging"},
			{Name: "preview", Reviewers: []string{"Octocat"}},
		}}

		plan, err := newTestReconciler(client).Plan(context.Background(), cfg)
		require.NoError(t, err)
		require.Len(t, plan.Environments, 2)

		update := plan.Environments[0]
		assert.Equal(t, ChangeTypeUpdate, update.Type)
		assert.Equal(t, "E1", update.After.ID)
		assert.Equal(t, []string{"hubot", "octocat"}, update.After.Reviewers)
		assert.Equal(t, []string{"U2", "U1"}, update.ReviewerIDs)

		create := plan.Environments[1]
		assert.Equal(t, ChangeTypeCreate, create.Type)
		assert.Equal(t, []string{"U1"}, create.ReviewerIDs)

		client.AssertExpectations(t)
	})

	t.Run("name differing only in case is unchanged", func(t *testing.T) {
		client := new(MockAPIClient)
		client.On("ListEnvironments", mock.Anything, testRepo).Return([]Environment{
			{ID: "E1", Name: "production", WaitTimer: 30, Reviewers: []string{"octocat"}, PreventSelfReview: true},
		}, nil)

		cfg := &config.Config{Environments: []config.EnvironmentConfig{
			{Name: "Production", WaitTimer: 30, Reviewers: []string{"octocat"}, PreventSelfReview: true},
		}}

		plan, err := newTestReconciler(client).Plan(context.Background(), cfg)
		require.NoError(t, err)
		assert.Empty(t, plan.Environments)
		assert.False(t, plan.HasChanges())
		client.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("unknown reviewer fails with not found", func(t *testing.T) {
		client := new(MockAPIClient)
		client.On("ListEnvironments", mock.Anything, testRepo).Return(current, nil)
		client.On("GetUser", mock.Anything, "ghost-user").Return(nil, &GitHubError{
			Type:    ErrorTypeNotFound,
			Message: "Could not resolve to a User with the login of 'ghost-user'.",
			Code:    GraphQLNotFound,
		})

		cfg := &config.Config{Environments: []config.EnvironmentConfig{
			{Name: "qa", Reviewers: []string{"ghost-user"}},
		}}

		plan, err := newTestReconciler(client).Plan(context.Background(), cfg)
		assert.Nil(t, plan)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, ErrorTypeNotFound))
		assert.Contains(t, err.Error(), "ghost-user")
	})
}

func TestReconciler_PlanNilConfig(t *testing.T) {
	_, err := newTestReconciler(new(MockAPIClient)).Plan(context.Background(), nil)
	assert.Error(t, err)
}

func TestReconciler_Apply(t *testing.T) {
	ctx := context.Background()

	plan := &ReconciliationPlan{
		Repository: testRepo,
		Labels: []LabelChange{
			{Type: ChangeTypeCreate, After: &Label{Name: "docs", Color: "0075ca", Description: "Documentation"}},
			{Type: ChangeTypeUpdate, Before: &Label{ID: "L2", Name: "Enhancement"}, After: &Label{ID: "L2", Name: "enhancement", Color: "a2eeef"}},
			{Type: ChangeTypeDelete, Before: &Label{ID: "L3", Name: "wontfix"}},
		},
		BranchRules: []BranchRuleChange{
			{Type: ChangeTypeCreate, Pattern: "develop", After: &BranchProtectionRule{Pattern: "develop", RequiredStatusCheckContexts: []string{}}},
			{Type: ChangeTypeDelete, Pattern: "release/*", Before: &BranchProtectionRule{ID: "B2", Pattern: "release/*"}},
		},
		Environments: []EnvironmentChange{
			{Type: ChangeTypeCreate, After: &Environment{Name: "qa", WaitTimer: 5}},
			{Type: ChangeTypeCreate, After: &Environment{Name: "preview"}},
			{Type: ChangeTypeUpdate, Before: &Environment{ID: "E1", Name: "production"}, After: &Environment{ID: "E1", Name: "production", Reviewers: []string{"octocat"}}, ReviewerIDs: []string{"U1"}},
			{Type: ChangeTypeDelete, Before: &Environment{ID: "E2", Name: "staging"}},
		},
	}

	client := new(MockAPIClient)
	client.On("GetRepositoryID", mock.Anything, testRepo).Return("R1", nil).Once()
	client.On("CreateLabel", mock.Anything, CreateLabelInput{
		RepositoryID: "R1", Name: "docs", Color: "0075ca", Description: strPtr("Documentation"),
	}).Return(&Label{ID: "L9", Name: "docs"}, nil)
	client.On("UpdateLabel", mock.Anything, UpdateLabelInput{
		ID: "L2", Name: strPtr("enhancement"), Color: strPtr("a2eeef"), Description: strPtr(""),
	}).Return(&Label{ID: "L2"}, nil)
	client.On("DeleteLabel", mock.Anything, DeleteLabelInput{ID: "L3"}).Return("ghsync", nil)
	client.On("CreateBranchProtectionRule", mock.Anything, mock.MatchedBy(func(in CreateBranchProtectionRuleInput) bool {
		return in.RepositoryID == "R1" && in.Pattern == "develop"
	})).Return(&BranchProtectionRule{ID: "B9"}, nil)
	client.On("DeleteBranchProtectionRule", mock.Anything, DeleteBranchProtectionRuleInput{BranchProtectionRuleID: "B2"}).Return(nil)
	client.On("CreateEnvironment", mock.Anything, CreateEnvironmentInput{RepositoryID: "R1", Name: "qa"}).Return(&Environment{ID: "E9", Name: "qa"}, nil)
	client.On("UpdateEnvironment", mock.Anything, UpdateEnvironmentInput{EnvironmentID: "E9", WaitTimer: 5, Reviewers: []string{}}).Return(&Environment{ID: "E9"}, nil)
	client.On("CreateEnvironment", mock.Anything, CreateEnvironmentInput{RepositoryID: "R1", Name: "preview"}).Return(&Environment{ID: "E10", Name: "preview"}, nil)
	client.On("UpdateEnvironment", mock.Anything, UpdateEnvironmentInput{EnvironmentID: "E1", Reviewers: []string{"U1"}}).Return(&Environment{ID: "E1"}, nil)
	client.On("DeleteEnvironment", mock.Anything, DeleteEnvironmentInput{ID: "E2"}).Return(nil)

	err := newTestReconciler(client).Apply(ctx, plan)
	require.NoError(t, err)
	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "UpdateEnvironment", 2)
}

func TestReconciler_ApplyPartialFailure(t *testing.T) {
	plan := &ReconciliationPlan{
		Repository: testRepo,
		Labels: []LabelChange{
			{Type: ChangeTypeCreate, After: &Label{Name: "bug", Color: "d73a4a"}},
			{Type: ChangeTypeDelete, Before: &Label{ID: "L3", Name: "wontfix"}},
		},
	}

	duplicate := &GitHubError{Type: ErrorTypeUnprocessable, Message: "Name has already been taken", Code: GraphQLUnprocessable}

	client := new(MockAPIClient)
	client.On("GetRepositoryID", mock.Anything, testRepo).Return("R1", nil)
	client.On("CreateLabel", mock.Anything, mock.Anything).Return(nil, duplicate)
	client.On("DeleteLabel", mock.Anything, DeleteLabelInput{ID: "L3"}).Return("ghsync", nil)

	logger, hook := test.NewNullLogger()
	r := NewReconciler(client, testRepo, logger)

	err := r.Apply(context.Background(), plan)
	require.Error(t, err)

	var partial *PartialFailureError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"delete label wontfix"}, partial.Succeeded)
	require.Contains(t, partial.Failed, "create label bug")
	assert.True(t, IsErrorType(partial.Failed["create label bug"], ErrorTypeUnprocessable))
	assert.Contains(t, err.Error(), "Name has already been taken")

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["operation"] == "create label bug" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestReconciler_ApplyRepositoryIDFailure(t *testing.T) {
	plan := &ReconciliationPlan{
		Repository: testRepo,
		Labels:     []LabelChange{{Type: ChangeTypeCreate, After: &Label{Name: "bug", Color: "d73a4a"}}},
	}

	client := new(MockAPIClient)
	client.On("GetRepositoryID", mock.Anything, testRepo).Return("", &GitHubError{Type: ErrorTypeNotFound, Message: "missing"})

	err := newTestReconciler(client).Apply(context.Background(), plan)
	require.Error(t, err)
	client.AssertNotCalled(t, "CreateLabel", mock.Anything, mock.Anything)
}

func TestReconciler_ApplyEmptyPlan(t *testing.T) {
	client := new(MockAPIClient)
	r := newTestReconciler(client)

	assert.NoError(t, r.Apply(context.Background(), nil))
	assert.NoError(t, r.Apply(context.Background(), &ReconciliationPlan{Repository: testRepo}))
	client.AssertExpectations(t)
}

func TestReconciler_Validate(t *testing.T) {
	r := newTestReconciler(new(MockAPIClient))

	assert.NoError(t, r.Validate(&config.Config{Labels: []config.LabelConfig{{Name: "bug", Color: "ff0000"}}}))
	assert.Error(t, r.Validate(&config.Config{Labels: []config.LabelConfig{{Name: "bug", Color: "nope"}}}))
	assert.Error(t, r.Validate(nil))
}

func TestReconciliationPlan_ChangeCount(t *testing.T) {
	var nilPlan *ReconciliationPlan
	assert.Equal(t, 0, nilPlan.ChangeCount())
	assert.False(t, nilPlan.HasChanges())

	plan := &ReconciliationPlan{
		Labels:       []LabelChange{{Type: ChangeTypeCreate}},
		Environments: []EnvironmentChange{{Type: ChangeTypeDelete}, {Type: ChangeTypeUpdate}},
	}
	assert.Equal(t, 3, plan.ChangeCount())
	assert.True(t, plan.HasChanges())
}

func TestReconciler_ApplyKeepsTeamReviewers(t *testing.T) {
	plan := &ReconciliationPlan{
		Repository: testRepo,
		Environments: []EnvironmentChange{{
			Type:        ChangeTypeUpdate,
			Before:      &Environment{ID: "E1", Name: "production", WaitTimer: 30, Reviewers: []string{"octocat"}, TeamReviewerIDs: []string{"T1"}},
			After:       &Environment{ID: "E1", Name: "production", WaitTimer: 60, Reviewers: []string{"octocat"}},
			ReviewerIDs: []string{"U1"},
		}},
	}

	client := new(MockAPIClient)
	client.On("UpdateEnvironment", mock.Anything, UpdateEnvironmentInput{
		EnvironmentID: "E1",
		WaitTimer:     60,
		Reviewers:     []string{"U1", "T1"},
	}).Return(&Environment{ID: "E1"}, nil).Once()

	require.NoError(t, newTestReconciler(client).Apply(context.Background(), plan))
	client.AssertExpectations(t)
	assert.Equal(t, []string{"U1"}, plan.Environments[0].ReviewerIDs)
}
