package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ghsync/pkg/config"
)

// DefaultConcurrency is the number of repositories processed at once
const DefaultConcurrency = 4

// MultiReconciler plans and applies one configuration across many repositories
type MultiReconciler interface {
	// PlanAll creates a plan for every target; failures are reported per repository
	PlanAll(ctx context.Context, cfg *config.Config, targets []RepositoryParams) (map[string]*ReconciliationPlan, *MultiRepoResult)

	// ApplyAll applies previously computed plans
	ApplyAll(ctx context.Context, plans map[string]*ReconciliationPlan) *MultiRepoResult
}

// MultiRepoResult summarises a run over several repositories
type MultiRepoResult struct {
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"failed"`
	Skipped   []string         `json:"skipped"`
	Summary   MultiRepoSummary `json:"summary"`
}

// MultiRepoSummary provides aggregate statistics for a run
type MultiRepoSummary struct {
	TotalRepositories int           `json:"total_repositories"`
	SuccessCount      int           `json:"success_count"`
	FailureCount      int           `json:"failure_count"`
	SkippedCount      int           `json:"skipped_count"`
	TotalChanges      int           `json:"total_changes"`
	Duration          time.Duration `json:"duration"`
}

// HasFailures reports whether any repository failed
func (r *MultiRepoResult) HasFailures() bool {
	return r != nil && len(r.Failed) > 0
}

// Err returns nil when every repository succeeded, otherwise an error
// naming each failed repository
func (r *MultiRepoResult) Err() error {
	if !r.HasFailures() {
		return nil
	}

	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make([]string, 0, len(names))
	for _, name := range names {
		details = append(details, fmt.Sprintf("%s: %v", name, r.Failed[name]))
	}
	return fmt.Errorf("%d of %d repositories failed: %s",
		len(r.Failed), r.Summary.TotalRepositories, strings.Join(details, "; "))
}

// ReconcilerFactory builds the single-repository reconciler used for each target
type ReconcilerFactory func(params RepositoryParams) Reconciler

// multiReconciler implements the MultiReconciler interface
type multiReconciler struct {
	newReconciler ReconcilerFactory
	concurrency   int
	logger        *logrus.Entry
}

// NewMultiReconciler creates a multi-repository reconciler on top of client
func NewMultiReconciler(client APIClient, concurrency int, logger *logrus.Logger) MultiReconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	factory := func(params RepositoryParams) Reconciler {
		return NewReconciler(client, params, logger)
	}
	return NewMultiReconcilerWithFactory(factory, concurrency, logger)
}

// NewMultiReconcilerWithFactory creates a multi-repository reconciler with a custom reconciler factory
func NewMultiReconcilerWithFactory(factory ReconcilerFactory, concurrency int, logger *logrus.Logger) MultiReconciler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &multiReconciler{
		newReconciler: factory,
		concurrency:   concurrency,
		logger:        logger.WithField("component", "multi-reconciler"),
	}
}

// PlanAll creates plans for all targets concurrently
func (mr *multiReconciler) PlanAll(ctx context.Context, cfg *config.Config, targets []RepositoryParams) (map[string]*ReconciliationPlan, *MultiRepoResult) {
	start := time.Now()
	result := newMultiRepoResult(len(targets))
	plans := make(map[string]*ReconciliationPlan, len(targets))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mr.concurrency)

	for _, target := range targets {
		target := target
		g.Go(func() error {
			name := target.String()
			logger := mr.logger.WithField("repository", name)

			plan, err := mr.newReconciler(target).Plan(gctx, cfg)
			if err == nil {
				logger.WithField("changes", plan.ChangeCount()).Debug("planned")
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WithError(err).Error("planning failed")
				result.Failed[name] = err
				return nil
			}
			plans[name] = plan
			if !plan.HasChanges() {
				result.Skipped = append(result.Skipped, name)
				return nil
			}
			result.record(name, plan, nil)
			return nil
		})
	}

	// Workers never return an error; one repository's failure must not
	// cancel the others.
	_ = g.Wait()
	result.finish(start)
	return plans, result
}

// ApplyAll applies the given plans concurrently. Plans without changes are skipped.
func (mr *multiReconciler) ApplyAll(ctx context.Context, plans map[string]*ReconciliationPlan) *MultiRepoResult {
	start := time.Now()
	result := newMultiRepoResult(len(plans))

	names := make([]string, 0, len(plans))
	for name := range plans {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mr.concurrency)

	for _, name := range names {
		name := name
		plan := plans[name]
		if !plan.HasChanges() {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		g.Go(func() error {
			err := mr.newReconciler(plan.Repository).Apply(gctx, plan)

			mu.Lock()
			defer mu.Unlock()
			result.record(name, plan, err)
			return nil
		})
	}

	_ = g.Wait()
	result.finish(start)
	return result
}

func newMultiRepoResult(total int) *MultiRepoResult {
	return &MultiRepoResult{
		Succeeded: make([]string, 0),
		Failed:    make(map[string]error),
		Skipped:   make([]string, 0),
		Summary:   MultiRepoSummary{TotalRepositories: total},
	}
}

func (r *MultiRepoResult) record(name string, plan *ReconciliationPlan, err error) {
	if err != nil {
		r.Failed[name] = err
		return
	}
	r.Succeeded = append(r.Succeeded, name)
	r.Summary.TotalChanges += plan.ChangeCount()
}

func (r *MultiRepoResult) finish(start time.Time) {
	sort.Strings(r.Succeeded)
	sort.Strings(r.Skipped)
	r.Summary.SuccessCount = len(r.Succeeded)
	r.Summary.FailureCount = len(r.Failed)
	r.Summary.SkippedCount = len(r.Skipped)
	r.Summary.Duration = time.Since(start)
}
