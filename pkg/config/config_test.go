package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
labels:
  - name: bug
    color: "#D73A4A"
    description: Something isn't working
  - name: enhancement
    color: a2eeef
branches:
  - pattern: main
    required_approving_review_count: 2
    required_status_checks: [ci/build]
    require_up_to_date: true
environments:
  - name: production
    wait_timer: 30
    reviewers: [octocat]
prune:
  labels: true
repositories:
  - acme/api
`

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestForRoot_ExposesConfig(t *testing.T) {
	svc, err := ForRootWithLookup(lookupFrom(map[string]string{
		EnvInputConfig:      sampleConfig,
		EnvGitHubToken:      "ghp_env",
		EnvGitHubRepository: "acme/web",
	}))
	require.NoError(t, err)
	require.NotNil(t, svc)

	cfg := svc.Config()
	require.NotNil(t, cfg)
	require.Len(t, cfg.Labels, 2)
	assert.Equal(t, "bug", cfg.Labels[0].Name)
	assert.Equal(t, "d73a4a", cfg.Labels[0].Color)
	assert.Equal(t, "Something isn't working", cfg.Labels[0].Description)
	require.Len(t, cfg.Branches, 1)
	assert.Equal(t, 2, cfg.Branches[0].RequiredApprovingReviewCount)
	assert.Equal(t, []string{"ci/build"}, cfg.Branches[0].RequiredStatusChecks)
	require.Len(t, cfg.Environments, 1)
	assert.Equal(t, 30, cfg.Environments[0].WaitTimer)
	assert.True(t, cfg.Prune.Labels)
	assert.False(t, cfg.Prune.Branches)

	assert.Equal(t, "ghp_env", svc.Token())
	assert.Equal(t, DefaultGraphQLURL, cfg.Runtime.GraphQLURL)
	assert.Equal(t, DefaultAPIURL, cfg.Runtime.APIURL)
	assert.Equal(t, []string{"acme/web", "acme/api"}, svc.Targets())
}

func TestForRoot_AcceptsJSON(t *testing.T) {
	svc, err := ForRootWithLookup(lookupFrom(map[string]string{
		EnvInputConfig: `{"labels":[{"name":"bug","color":"ff0000"}]}`,
	}))
	require.NoError(t, err)
	require.Len(t, svc.Config().Labels, 1)
	assert.Equal(t, "ff0000", svc.Config().Labels[0].Color)
}

func TestForRoot_MissingConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unset", env: map[string]string{}},
		{name: "blank", env: map[string]string{EnvInputConfig: "   \n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := ForRootWithLookup(lookupFrom(tt.env))
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, ErrMissingConfig)
		})
	}
}

func TestForRoot_MalformedConfig(t *testing.T) {
	svc, err := ForRootWithLookup(lookupFrom(map[string]string{
		EnvInputConfig: "labels: [name: bug",
	}))
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestForRoot_InvalidConfigCarriesValidationErrors(t *testing.T) {
	_, err := ForRootWithLookup(lookupFrom(map[string]string{
		EnvInputConfig: "labels:\n  - name: bug\n    color: red\n",
	}))
	require.ErrorIs(t, err, ErrInvalidConfig)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "labels[0].color", verrs[0].Field)
}

func TestForRoot_TokenPrecedence(t *testing.T) {
	svc, err := ForRootWithLookup(lookupFrom(map[string]string{
		EnvInputConfig: "labels: []",
		EnvInputToken:  "ghp_input",
		EnvGitHubToken: "ghp_env",
		EnvGraphQLURL:  "https://ghe.example.com/api/graphql",
		EnvAPIURL:      "https://ghe.example.com/api/v3",
	}))
	require.NoError(t, err)

	rt := svc.Config().Runtime
	assert.Equal(t, "ghp_input", rt.Token)
	assert.Equal(t, "https://ghe.example.com/api/graphql", rt.GraphQLURL)
	assert.Equal(t, "https://ghe.example.com/api/v3/", rt.APIURL)
}

func TestForRootFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	svc, err := ForRootFromFile(path, lookupFrom(map[string]string{EnvInputToken: "ghp_file"}))
	require.NoError(t, err)
	assert.Len(t, svc.Config().Labels, 2)
	assert.Equal(t, "ghp_file", svc.Token())
	assert.Equal(t, []string{"acme/api"}, svc.Targets())

	_, err = ForRootFromFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestService_TargetsDeduplicates(t *testing.T) {
	svc := NewService(&Config{
		Repositories: []string{"Acme/Web", "acme/api", "acme/api"},
		Runtime:      RuntimeConfig{Repository: "acme/web"},
	})
	assert.Equal(t, []string{"acme/web", "acme/api"}, svc.Targets())
}
