package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ghsync/pkg/config"
	"ghsync/pkg/github"
)

var (
	syncConfigFile  string
	syncDryRun      bool
	syncRepos       []string
	syncConcurrency int
	syncVerifyToken bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile repository settings with the configuration",
	Long: `Reconcile labels, branch protection rules and environments of every
target repository with the configuration.

The configuration is read from INPUT_CONFIG unless --config is given. The
target is GITHUB_REPOSITORY plus the repositories listed in the
configuration, or the --repos flag when set. The token comes from
INPUT_TOKEN or GITHUB_TOKEN.

Examples:
  # Preview the changes
  ghsync sync --config settings.yaml --dry-run

  # Apply to two repositories, four at a time
  ghsync sync --config settings.yaml --repos acme/api,acme/web --concurrency 4`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncConfigFile, "config", "c", "", "Configuration file (defaults to INPUT_CONFIG)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Preview changes without applying them")
	syncCmd.Flags().StringSliceVar(&syncRepos, "repos", nil, "Comma-separated owner/name list overriding the configured targets")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "Repositories processed in parallel (defaults to settings.concurrency)")
	syncCmd.Flags().BoolVar(&syncVerifyToken, "verify-token", false, "Verify the token through the REST API before syncing")
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	svc, err := loadConfig(syncConfigFile)
	if err != nil {
		return err
	}
	cfg := svc.Config()

	token, err := github.NewAuthManager().GetToken(cfg)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(svc, syncRepos)
	if err != nil {
		return err
	}

	if syncVerifyToken {
		if err := verifyToken(ctx, cmd, token, cfg.Runtime.APIURL); err != nil {
			return err
		}
	}

	client := github.NewClient(token, github.ClientOptions{
		Endpoint:          cfg.Runtime.GraphQLURL,
		RequestsPerSecond: cfg.Settings.RequestsPerSecond,
		Retry:             retryConfig(cfg.Settings.Retries),
		Logger:            logger,
	})

	concurrency := syncConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Settings.Concurrency
	}
	mr := github.NewMultiReconciler(client, concurrency, logger)

	logger.WithField("repositories", len(targets)).Info("Planning changes")
	plans, planResult := mr.PlanAll(ctx, cfg, targets)

	printer := newPlanPrinter(out)
	printer.displayMultiRepoPlan(plans, planResult, syncDryRun)

	if planResult.HasFailures() {
		return fmt.Errorf("planning failed: %w", planResult.Err())
	}

	if syncDryRun {
		fmt.Fprintf(out, "\n✓ Dry-run completed. No changes were applied.\n")
		return nil
	}

	if countTotalChanges(plans) == 0 {
		fmt.Fprintf(out, "\n✓ All repositories are up to date\n")
		return nil
	}

	logger.WithField("changes", countTotalChanges(plans)).Info("Applying changes")
	result := mr.ApplyAll(ctx, plans)
	printer.displayMultiRepoResults(result)

	logger.WithFields(logrus.Fields{
		"succeeded": result.Summary.SuccessCount,
		"failed":    result.Summary.FailureCount,
		"duration":  result.Summary.Duration.Round(time.Millisecond),
	}).Debug("Sync finished")

	return result.Err()
}

// loadConfig reads the configuration from path, or from INPUT_CONFIG when path is empty
func loadConfig(path string) (*config.Service, error) {
	if path != "" {
		svc, err := config.ForRootFromFile(path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		return svc, nil
	}

	svc, err := config.ForRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return svc, nil
}

// resolveTargets parses the --repos override or the configured targets
func resolveTargets(svc *config.Service, override []string) ([]github.RepositoryParams, error) {
	names := svc.Targets()
	if len(override) > 0 {
		names = override
	}

	targets := make([]github.RepositoryParams, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		params, err := github.ParseRepositoryParams(name)
		if err != nil {
			return nil, err
		}
		seen[strings.ToLower(name)] = true
		targets = append(targets, params)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no target repositories: set %s, list repositories in the configuration or use --repos", config.EnvGitHubRepository)
	}
	return targets, nil
}

// verifyToken checks the token against the REST API and logs the remaining GraphQL budget
func verifyToken(ctx context.Context, cmd *cobra.Command, token, apiURL string) error {
	am := github.NewAuthManager()
	if err := am.Authenticate(token, apiURL); err != nil {
		return err
	}

	info, err := am.ValidateToken(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Authentication failed: %v\n\n%s\n", err, github.GetAuthInstructions())
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Authenticated as %s\n", info.User)
	logger.WithFields(logrus.Fields{
		"user":      info.User,
		"limit":     info.GraphQLLimit,
		"remaining": info.GraphQLRemaining,
	}).Debug("GraphQL rate limit")
	return nil
}

// retryConfig turns the configured retry count into a RetryConfig
func retryConfig(retries int) *github.RetryConfig {
	rc := github.DefaultRetryConfig()
	if retries > 0 {
		rc.MaxRetries = retries
	}
	return rc
}
