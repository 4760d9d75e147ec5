package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghsync/pkg/config"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name           string
		inputConfig    string
		file           string
		expectErr      bool
		expectedOutput []string
	}{
		{
			name: "valid INPUT_CONFIG",
			inputConfig: `
labels:
  - name: bug
    color: d73a4a
branches:
  - pattern: main
    required_approving_review_count: 2
environments:
  - name: production
    reviewers: [octocat]
`,
			expectedOutput: []string{
				"✓ Configuration is valid",
				"Labels: 1",
				"Branch protection rules: 1",
				"Environments: 1",
				"Repositories: 1",
			},
		},
		{
			name: "valid JSON file",
			file: `{"labels": [{"name": "bug", "color": "#D73A4A"}, {"name": "triage", "color": "ededed"}]}`,
			expectedOutput: []string{
				"✓ Configuration is valid",
				"Labels: 2",
			},
		},
		{
			name: "every violation is listed",
			inputConfig: `
labels:
  - name: bug
    color: red
branches:
  - pattern: main
    required_approving_review_count: 7
environments:
  - name: production
    reviewers: [-octocat]
`,
			expectErr: true,
			expectedOutput: []string{
				"❌ Configuration has 3 error(s):",
				"labels[0].color",
				"branches[0].required_approving_review_count",
				"environments[0].reviewers[0]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvInputConfig, tt.inputConfig)
			t.Setenv(config.EnvGitHubRepository, "acme/widgets")

			args := []string{"validate"}
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "settings.json")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				args = append(args, "--config", path)
			}

			stdout, _, err := executeCommand(t, args...)
			if tt.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}

			for _, expected := range tt.expectedOutput {
				assert.Contains(t, stdout, expected)
			}
		})
	}
}

func TestValidateCommandMissingConfig(t *testing.T) {
	t.Setenv(config.EnvInputConfig, "")

	stdout, _, err := executeCommand(t, "validate")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingConfig)
	assert.NotContains(t, stdout, "Configuration is valid")
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
