package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/google/go-github/v66/github"

	"ghsync/pkg/config"
)

// ErrorType represents different categories of GitHub API errors
type ErrorType string

const (
	ErrorTypeAuth          ErrorType = "authentication"
	ErrorTypePermission    ErrorType = "permission"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUnprocessable ErrorType = "unprocessable"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// GraphQL error types as reported by GitHub in the top-level "type" field
const (
	GraphQLNotFound      = "NOT_FOUND"
	GraphQLUnprocessable = "UNPROCESSABLE"
	GraphQLForbidden     = "FORBIDDEN"
	GraphQLRateLimited   = "RATE_LIMITED"
	GraphQLInternal      = "INTERNAL"
)

var graphQLErrorTypes = map[string]ErrorType{
	GraphQLNotFound:      ErrorTypeNotFound,
	GraphQLUnprocessable: ErrorTypeUnprocessable,
	GraphQLForbidden:     ErrorTypePermission,
	GraphQLRateLimited:   ErrorTypeRateLimit,
	GraphQLInternal:      ErrorTypeNetwork,
}

// GitHubError represents a structured error from GitHub operations
type GitHubError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Resource  string    `json:"resource,omitempty"`
	Field     string    `json:"field,omitempty"`
	Code      string    `json:"code,omitempty"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *GitHubError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s error for %s: %s", e.Type, e.Resource, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *GitHubError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *GitHubError) IsRetryable() bool {
	return e.Retryable
}

// NewGitHubError creates a new GitHubError with the specified type and message
func NewGitHubError(errorType ErrorType, message string, cause error) *GitHubError {
	return &GitHubError{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryableErrorType(errorType),
	}
}

// IsErrorType reports whether err wraps a GitHubError of the given type
func IsErrorType(err error, errorType ErrorType) bool {
	var ghErr *GitHubError
	return errors.As(err, &ghErr) && ghErr.Type == errorType
}

// GraphQLError is one entry of the "errors" array of a GraphQL response.
// GitHub reports the error category in the top-level "type" field; other
// servers put it under "extensions".
type GraphQLError struct {
	Type       string         `json:"type,omitempty"`
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Category returns the error type from the top level or the extensions
func (e GraphQLError) Category() string {
	if e.Type != "" {
		return e.Type
	}
	for _, key := range []string{"type", "code"} {
		if v, ok := e.Extensions[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// GraphQLErrors is the errors array of a GraphQL response
type GraphQLErrors []GraphQLError

// Error implements the error interface
func (e GraphQLErrors) Error() string {
	if len(e) == 0 {
		return "graphql: unknown error"
	}
	messages := make([]string, 0, len(e))
	for _, gqlErr := range e {
		messages = append(messages, gqlErr.Message)
	}
	return strings.Join(messages, "; ")
}

// HTTPStatusError is returned when the GraphQL endpoint answers with a non-200 status
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// WrapGitHubError maps err onto the GitHubError taxonomy. Errors that are
// already GitHubErrors are returned as they are, with resource filled in.
func WrapGitHubError(err error, resource string) *GitHubError {
	if err == nil {
		return nil
	}

	var (
		ghErr     *GitHubError
		gqlErrs   GraphQLErrors
		apiErr    *github.ErrorResponse
		rateErr   *github.RateLimitError
		statusErr *HTTPStatusError
	)

	switch {
	case errors.As(err, &ghErr):
		if ghErr.Resource == "" {
			ghErr.Resource = resource
		}
		return ghErr

	case errors.As(err, &gqlErrs):
		return fromGraphQLErrors(gqlErrs, resource)

	case errors.As(err, &apiErr) && apiErr.Response != nil:
		return fromRESTError(apiErr, resource)

	case errors.As(err, &rateErr):
		return &GitHubError{
			Type:      ErrorTypeRateLimit,
			Message:   fmt.Sprintf("Rate limit exceeded. Reset at %v", rateErr.Rate.Reset.Time),
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}

	case errors.As(err, &statusErr):
		ghErr := fromStatus(statusErr.StatusCode, statusErr.Body, resource, statusErr)
		if ghErr.Type == ErrorTypeUnknown {
			ghErr.Message = statusErr.Error()
		}
		return ghErr

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The caller gave up; retrying would only be cancelled again.
		return &GitHubError{Type: ErrorTypeNetwork, Message: err.Error(), Cause: err, Resource: resource}

	case isNetworkError(err):
		return &GitHubError{
			Type:      ErrorTypeNetwork,
			Message:   "Network error occurred. Please check your connection and try again",
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	return &GitHubError{Type: ErrorTypeUnknown, Message: err.Error(), Cause: err, Resource: resource}
}

// fromGraphQLErrors maps the first GraphQL error onto the taxonomy.
// The remote message is kept unchanged.
func fromGraphQLErrors(gqlErrs GraphQLErrors, resource string) *GitHubError {
	ghErr := &GitHubError{
		Type:     ErrorTypeUnknown,
		Message:  gqlErrs.Error(),
		Cause:    gqlErrs,
		Resource: resource,
	}
	if len(gqlErrs) == 0 {
		return ghErr
	}

	first := gqlErrs[0]
	ghErr.Code = first.Category()
	if n := len(first.Path); n > 0 {
		ghErr.Field = fmt.Sprint(first.Path[n-1])
	}
	if errorType, ok := graphQLErrorTypes[ghErr.Code]; ok {
		ghErr.Type = errorType
		ghErr.Retryable = isRetryableErrorType(errorType)
	}

	return ghErr
}

// fromStatus classifies an HTTP status shared by the GraphQL and REST endpoints.
// detail is the response body or message, used to tell rate limits from
// permission errors on 403.
func fromStatus(status int, detail, resource string, cause error) *GitHubError {
	ghErr := &GitHubError{
		Type:     ErrorTypeUnknown,
		Message:  detail,
		Cause:    cause,
		Resource: resource,
		Code:     fmt.Sprint(status),
	}

	switch {
	case status == http.StatusUnauthorized:
		ghErr.Type = ErrorTypeAuth
		ghErr.Message = "Authentication failed. Please check your GitHub token"
	case status == http.StatusTooManyRequests,
		status == http.StatusForbidden && strings.Contains(strings.ToLower(detail), "rate limit"):
		ghErr.Type = ErrorTypeRateLimit
		ghErr.Message = "GitHub API rate limit exceeded. Please wait before retrying"
	case status == http.StatusForbidden:
		ghErr.Type = ErrorTypePermission
		ghErr.Message = "Insufficient permissions. Your token may not have the required scopes"
	case status == http.StatusNotFound:
		ghErr.Type = ErrorTypeNotFound
		ghErr.Message = "Resource not found"
	case status == http.StatusConflict:
		ghErr.Type = ErrorTypeConflict
		ghErr.Message = "Resource conflict occurred"
	case status >= http.StatusInternalServerError:
		ghErr.Type = ErrorTypeNetwork
		ghErr.Message = "GitHub API is temporarily unavailable. Please try again later"
	}
	ghErr.Retryable = isRetryableErrorType(ghErr.Type)

	return ghErr
}

// fromRESTError maps a go-github error response, keeping the field level
// details GitHub returns on 422
func fromRESTError(apiErr *github.ErrorResponse, resource string) *GitHubError {
	status := apiErr.Response.StatusCode
	ghErr := fromStatus(status, apiErr.Message, resource, apiErr)
	ghErr.Code = ""

	switch status {
	case http.StatusUnauthorized:
		msg := strings.ToLower(apiErr.Message)
		if strings.Contains(msg, "token") || strings.Contains(msg, "credentials") {
			ghErr.Message = fmt.Sprintf("Invalid or expired GitHub token. Please update %s or %s", config.EnvInputToken, config.EnvGitHubToken)
		}

	case http.StatusUnprocessableEntity:
		ghErr.Type = ErrorTypeUnprocessable
		ghErr.Message = "Validation failed"

		details := make([]string, 0, len(apiErr.Errors))
		for _, detail := range apiErr.Errors {
			if detail.Field == "" {
				details = append(details, detail.Message)
				continue
			}
			details = append(details, fmt.Sprintf("%s: %s", detail.Field, detail.Message))
			if ghErr.Field == "" {
				ghErr.Field = detail.Field
				ghErr.Code = detail.Code
			}
		}
		if len(details) > 0 {
			ghErr.Message += ": " + strings.Join(details, "; ")
		}
	}

	return ghErr
}

var networkKeywords = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"network is unreachable",
	"no such host",
	"timeout",
	"dial tcp",
}

// isNetworkError checks if an error is a network-related error
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isRetryableErrorType determines if an error type is generally retryable
func isRetryableErrorType(errorType ErrorType) bool {
	return errorType == ErrorTypeRateLimit || errorType == ErrorTypeNetwork
}

// PartialFailureError reports the changes of a plan that failed while others succeeded
type PartialFailureError struct {
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"failed"`
}

// NewPartialFailureError creates a new partial failure error
func NewPartialFailureError(succeeded []string, failed map[string]error) *PartialFailureError {
	return &PartialFailureError{Succeeded: succeeded, Failed: failed}
}

// Error lists every failed change, sorted by description
func (e *PartialFailureError) Error() string {
	details := make([]string, 0, len(e.Failed))
	for _, op := range e.GetFailedOperations() {
		details = append(details, fmt.Sprintf("%s: %v", op, e.Failed[op]))
	}
	return fmt.Sprintf("%d of %d changes failed (%s)",
		len(e.Failed), len(e.Failed)+len(e.Succeeded), strings.Join(details, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, op := range e.GetFailedOperations() {
		errs = append(errs, e.Failed[op])
	}
	return errs
}

// GetFailedOperations returns the failed change descriptions, sorted
func (e *PartialFailureError) GetFailedOperations() []string {
	operations := make([]string, 0, len(e.Failed))
	for op := range e.Failed {
		operations = append(operations, op)
	}
	sort.Strings(operations)
	return operations
}

// GetSucceededOperations returns the applied change descriptions, in order
func (e *PartialFailureError) GetSucceededOperations() []string {
	return e.Succeeded
}
