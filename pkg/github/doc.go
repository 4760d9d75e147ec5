// Package github reconciles repository labels, branch protection rules and
// deployment environments through GitHub's GraphQL API.
//
// The package includes:
// - RepositoryQuery, the owner/name base composed into LabelsQuery,
// BranchProtectionRulesQuery and EnvironmentsQuery, plus UserQuery
// - mutation inputs named after GitHub's input objects
// - Client, an APIClient over shurcooL/graphql with typed errors
// - Reconciler and MultiReconciler for planning and applying changes
package github
