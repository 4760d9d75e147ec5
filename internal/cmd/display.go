package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"ghsync/pkg/github"
)

// planPrinter renders plans and results for humans
type planPrinter struct {
	out     io.Writer
	add     *color.Color
	change  *color.Color
	remove  *color.Color
	success *color.Color
	failure *color.Color
}

func newPlanPrinter(out io.Writer) *planPrinter {
	p := &planPrinter{
		out:     out,
		add:     color.New(color.FgGreen),
		change:  color.New(color.FgYellow),
		remove:  color.New(color.FgRed, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
	if !isTerminal(out) {
		for _, c := range []*color.Color{p.add, p.change, p.remove, p.success, p.failure} {
			c.DisableColor()
		}
	}
	return p
}

func (p *planPrinter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// displayMultiRepoPlan shows the planned changes of every repository and
// returns the number of potentially destructive changes
func (p *planPrinter) displayMultiRepoPlan(plans map[string]*github.ReconciliationPlan, planResult *github.MultiRepoResult, isDryRun bool) int {
	if isDryRun {
		p.printf("\n🔍 Dry-run mode: Showing planned changes for %d repositories\n", planResult.Summary.TotalRepositories)
	} else {
		p.printf("\n📋 Planned changes for %d repositories:\n", planResult.Summary.TotalRepositories)
	}

	repoNames := make([]string, 0, len(plans)+len(planResult.Failed))
	for name := range plans {
		repoNames = append(repoNames, name)
	}
	for name := range planResult.Failed {
		if _, ok := plans[name]; !ok {
			repoNames = append(repoNames, name)
		}
	}
	sort.Strings(repoNames)

	totalChanges := 0
	totalDestructive := 0
	withChanges := 0

	for _, name := range repoNames {
		if err, failed := planResult.Failed[name]; failed {
			p.failure.Fprintf(p.out, "\n📦 %s: ❌ Planning failed: %v\n", name, err)
			continue
		}

		plan := plans[name]
		if !plan.HasChanges() {
			p.printf("\n📦 %s: No changes needed\n", name)
			continue
		}

		withChanges++
		totalChanges += plan.ChangeCount()
		p.printf("\n📦 %s:\n", name)
		totalDestructive += p.displayRepositoryPlanChanges(plan, "  ")
	}

	p.printf("\n📊 Summary:")
	p.printf("\n  • Total repositories: %d", planResult.Summary.TotalRepositories)
	p.printf("\n  • Repositories with changes: %d", withChanges)
	if n := len(planResult.Failed); n > 0 {
		p.printf("\n  • Repositories with planning errors: %d", n)
	}
	p.printf("\n  • Total changes: %d", totalChanges)
	if totalDestructive > 0 {
		p.printf("\n  • Potentially destructive changes: %d", totalDestructive)
		if isDryRun {
			p.remove.Fprintf(p.out, "\n\n⚠️  WARNING: %d potentially destructive change(s) detected across all repositories!", totalDestructive)
			p.printf("\n   Review these changes carefully before applying.")
		}
	}
	p.printf("\n")

	return totalDestructive
}

// displayRepositoryPlanChanges shows one plan and returns its destructive change count
func (p *planPrinter) displayRepositoryPlanChanges(plan *github.ReconciliationPlan, indent string) int {
	destructive := 0

	for _, change := range plan.Labels {
		switch change.Type {
		case github.ChangeTypeCreate:
			p.add.Fprintf(p.out, "%s+ Label: CREATE %s (#%s)\n", indent, change.After.Name, change.After.Color)
			if change.After.Description != "" {
				p.printf("%s  - Description: %s\n", indent, change.After.Description)
			}
		case github.ChangeTypeUpdate:
			p.change.Fprintf(p.out, "%s~ Label: UPDATE %s\n", indent, change.Before.Name)
			if change.Before.Name != change.After.Name {
				p.printf("%s  ~ Name: %q → %q\n", indent, change.Before.Name, change.After.Name)
			}
			if !strings.EqualFold(change.Before.Color, change.After.Color) {
				p.printf("%s  ~ Color: #%s → #%s\n", indent, change.Before.Color, change.After.Color)
			}
			if change.Before.Description != change.After.Description {
				p.printf("%s  ~ Description: %q → %q\n", indent, change.Before.Description, change.After.Description)
			}
		case github.ChangeTypeDelete:
			p.remove.Fprintf(p.out, "%s⚠️  Label: DELETE %s (REMOVING LABEL)\n", indent, change.Before.Name)
			destructive++
		}
	}

	for _, change := range plan.BranchRules {
		switch change.Type {
		case github.ChangeTypeCreate:
			p.add.Fprintf(p.out, "%s+ Branch Protection: CREATE rule for %s\n", indent, change.Pattern)
			p.displayBranchProtectionDetails(change.After, indent+"  ")
		case github.ChangeTypeUpdate:
			p.change.Fprintf(p.out, "%s~ Branch Protection: UPDATE rule for %s\n", indent, change.Pattern)
			destructive += p.displayBranchProtectionChanges(change.Before, change.After, indent+"  ")
		case github.ChangeTypeDelete:
			p.remove.Fprintf(p.out, "%s⚠️  Branch Protection: DELETE rule for %s (REMOVING PROTECTION)\n", indent, change.Pattern)
			destructive++
		}
	}

	for _, change := range plan.Environments {
		switch change.Type {
		case github.ChangeTypeCreate:
			p.add.Fprintf(p.out, "%s+ Environment: CREATE %s\n", indent, change.After.Name)
			p.displayEnvironmentDetails(change.After, indent+"  ")
		case github.ChangeTypeUpdate:
			p.change.Fprintf(p.out, "%s~ Environment: UPDATE %s\n", indent, change.After.Name)
			destructive += p.displayEnvironmentChanges(change.Before, change.After, indent+"  ")
		case github.ChangeTypeDelete:
			p.remove.Fprintf(p.out, "%s⚠️  Environment: DELETE %s (REMOVING ENVIRONMENT)\n", indent, change.Before.Name)
			destructive++
		}
	}

	return destructive
}

func (p *planPrinter) displayBranchProtectionDetails(rule *github.BranchProtectionRule, indent string) {
	if rule.RequiredApprovingReviewCount > 0 {
		p.printf("%s- Required reviews: %d\n", indent, rule.RequiredApprovingReviewCount)
		if rule.DismissesStaleReviews {
			p.printf("%s- Dismiss stale reviews: enabled\n", indent)
		}
		if rule.RequiresCodeOwnerReviews {
			p.printf("%s- Require code owner review: enabled\n", indent)
		}
	}
	if len(rule.RequiredStatusCheckContexts) > 0 {
		p.printf("%s- Required status checks: %s\n", indent, strings.Join(rule.RequiredStatusCheckContexts, ", "))
	}
	if rule.RequiresStrictStatusChecks {
		p.printf("%s- Require up-to-date branches: enabled\n", indent)
	}
	if rule.IsAdminEnforced {
		p.printf("%s- Enforce for admins: enabled\n", indent)
	}
	if rule.RequiresLinearHistory {
		p.printf("%s- Require linear history: enabled\n", indent)
	}
	if rule.AllowsForcePushes {
		p.printf("%s- Allow force pushes: enabled\n", indent)
	}
	if rule.AllowsDeletions {
		p.printf("%s- Allow deletions: enabled\n", indent)
	}
}

// boolDiff prints a changed flag. weakening is true when the new value
// lowers protection.
func (p *planPrinter) boolDiff(indent, name string, before, after, weakening bool) int {
	if before == after {
		return 0
	}
	if weakening {
		p.remove.Fprintf(p.out, "%s⚠️  %s: %t → %t (REDUCING PROTECTION)\n", indent, name, before, after)
		return 1
	}
	p.printf("%s~ %s: %t → %t\n", indent, name, before, after)
	return 0
}

// displayBranchProtectionChanges shows the differences between two rules and
// returns the destructive change count
func (p *planPrinter) displayBranchProtectionChanges(before, after *github.BranchProtectionRule, indent string) int {
	destructive := 0

	if before.RequiredApprovingReviewCount != after.RequiredApprovingReviewCount {
		if before.RequiredApprovingReviewCount > after.RequiredApprovingReviewCount {
			p.remove.Fprintf(p.out, "%s⚠️  Required reviews: %d → %d (REDUCING PROTECTION)\n", indent, before.RequiredApprovingReviewCount, after.RequiredApprovingReviewCount)
			destructive++
		} else {
			p.printf("%s~ Required reviews: %d → %d\n", indent, before.RequiredApprovingReviewCount, after.RequiredApprovingReviewCount)
		}
	}
	destructive += p.boolDiff(indent, "Dismiss stale reviews", before.DismissesStaleReviews, after.DismissesStaleReviews, before.DismissesStaleReviews)
	destructive += p.boolDiff(indent, "Require code owner review", before.RequiresCodeOwnerReviews, after.RequiresCodeOwnerReviews, before.RequiresCodeOwnerReviews)

	if !stringSlicesEqual(before.RequiredStatusCheckContexts, after.RequiredStatusCheckContexts) {
		if len(before.RequiredStatusCheckContexts) > len(after.RequiredStatusCheckContexts) {
			p.remove.Fprintf(p.out, "%s⚠️  Required status checks: [%s] → [%s] (REDUCING PROTECTION)\n", indent,
				strings.Join(before.RequiredStatusCheckContexts, ", "),
				strings.Join(after.RequiredStatusCheckContexts, ", "))
			destructive++
		} else {
			p.printf("%s~ Required status checks: [%s] → [%s]\n", indent,
				strings.Join(before.RequiredStatusCheckContexts, ", "),
				strings.Join(after.RequiredStatusCheckContexts, ", "))
		}
	}

	destructive += p.boolDiff(indent, "Require up-to-date branches", before.RequiresStrictStatusChecks, after.RequiresStrictStatusChecks, before.RequiresStrictStatusChecks)
	destructive += p.boolDiff(indent, "Enforce for admins", before.IsAdminEnforced, after.IsAdminEnforced, before.IsAdminEnforced)
	destructive += p.boolDiff(indent, "Require linear history", before.RequiresLinearHistory, after.RequiresLinearHistory, before.RequiresLinearHistory)
	destructive += p.boolDiff(indent, "Allow force pushes", before.AllowsForcePushes, after.AllowsForcePushes, after.AllowsForcePushes)
	destructive += p.boolDiff(indent, "Allow deletions", before.AllowsDeletions, after.AllowsDeletions, after.AllowsDeletions)

	return destructive
}

func (p *planPrinter) displayEnvironmentDetails(env *github.Environment, indent string) {
	if env.WaitTimer > 0 {
		p.printf("%s- Wait timer: %d minutes\n", indent, env.WaitTimer)
	}
	if len(env.Reviewers) > 0 {
		p.printf("%s- Reviewers: %s\n", indent, strings.Join(env.Reviewers, ", "))
	}
	if env.PreventSelfReview {
		p.printf("%s- Prevent self review: enabled\n", indent)
	}
}

// displayEnvironmentChanges shows the differences between two environments
// and returns the destructive change count
func (p *planPrinter) displayEnvironmentChanges(before, after *github.Environment, indent string) int {
	destructive := 0

	if before.WaitTimer != after.WaitTimer {
		p.printf("%s~ Wait timer: %d → %d minutes\n", indent, before.WaitTimer, after.WaitTimer)
	}
	if !stringSlicesEqual(before.Reviewers, after.Reviewers) {
		if len(after.Reviewers) < len(before.Reviewers) {
			p.remove.Fprintf(p.out, "%s⚠️  Reviewers: [%s] → [%s] (REDUCING PROTECTION)\n", indent,
				strings.Join(before.Reviewers, ", "), strings.Join(after.Reviewers, ", "))
			destructive++
		} else {
			p.printf("%s~ Reviewers: [%s] → [%s]\n", indent,
				strings.Join(before.Reviewers, ", "), strings.Join(after.Reviewers, ", "))
		}
	}
	destructive += p.boolDiff(indent, "Prevent self review", before.PreventSelfReview, after.PreventSelfReview, before.PreventSelfReview)

	return destructive
}

// displayMultiRepoResults shows the outcome of applying plans
func (p *planPrinter) displayMultiRepoResults(result *github.MultiRepoResult) {
	if result.HasFailures() {
		p.change.Fprintf(p.out, "\n⚠️  Partial success: Applied changes to %d repositories\n", result.Summary.SuccessCount)
	} else {
		p.success.Fprintf(p.out, "\n✅ Successfully applied changes to %d repositories\n", result.Summary.SuccessCount)
	}

	if len(result.Succeeded) > 0 {
		p.printf("\n✅ Successful repositories:\n")
		for _, name := range result.Succeeded {
			p.printf("  • %s: https://github.com/%s\n", name, name)
		}
	}

	if len(result.Failed) > 0 {
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}
		sort.Strings(names)

		p.failure.Fprintf(p.out, "\n❌ Failed repositories:\n")
		for _, name := range names {
			p.printf("  • %s: %v\n", name, result.Failed[name])
		}
	}

	if len(result.Skipped) > 0 {
		p.printf("\n⏭️  Skipped repositories:\n")
		for _, name := range result.Skipped {
			p.printf("  • %s\n", name)
		}
	}

	p.printf("\n📊 Summary:\n")
	p.printf("  • Total repositories: %d\n", result.Summary.TotalRepositories)
	p.printf("  • Successful: %d\n", result.Summary.SuccessCount)
	p.printf("  • Failed: %d\n", result.Summary.FailureCount)
	p.printf("  • Skipped: %d\n", result.Summary.SkippedCount)
	p.printf("  • Total changes applied: %d\n", result.Summary.TotalChanges)
}

// countTotalChanges counts the changes across all plans
func countTotalChanges(plans map[string]*github.ReconciliationPlan) int {
	total := 0
	for _, plan := range plans {
		total += plan.ChangeCount()
	}
	return total
}

// stringSlicesEqual compares two string slices ignoring order
func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}
