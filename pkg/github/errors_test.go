package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *GitHubError
		expected string
	}{
		{
			name: "error with resource",
			err: &GitHubError{
				Type:     ErrorTypeNotFound,
				Message:  "Could not resolve to a User with the login of 'ghost'.",
				Resource: "user ghost",
			},
			expected: "not_found error for user ghost: Could not resolve to a User with the login of 'ghost'.",
		},
		{
			name: "error without resource",
			err: &GitHubError{
				Type:    ErrorTypeUnprocessable,
				Message: "Name has already been taken",
			},
			expected: "unprocessable error: Name has already been taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestGitHubError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &GitHubError{Type: ErrorTypeNetwork, Message: "network error", Cause: cause}

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestNewGitHubError(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewGitHubError(ErrorTypeAuth, "authentication failed", cause)
	assert.Equal(t, ErrorTypeAuth, err.Type)
	assert.Equal(t, "authentication failed", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.False(t, err.Retryable)

	assert.True(t, NewGitHubError(ErrorTypeRateLimit, "slow down", nil).Retryable)
}

func TestIsErrorType(t *testing.T) {
	err := fmt.Errorf("planning: %w", &GitHubError{Type: ErrorTypeNotFound})
	assert.True(t, IsErrorType(err, ErrorTypeNotFound))
	assert.False(t, IsErrorType(err, ErrorTypeAuth))
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeNotFound))
}

func TestGraphQLError_Category(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", GraphQLError{Type: "NOT_FOUND"}.Category())
	assert.Equal(t, "UNPROCESSABLE", GraphQLError{Extensions: map[string]any{"type": "UNPROCESSABLE"}}.Category())
	assert.Equal(t, "FORBIDDEN", GraphQLError{Extensions: map[string]any{"code": "FORBIDDEN"}}.Category())
	assert.Equal(t, "", GraphQLError{Message: "boom"}.Category())
}

func TestWrapGitHubError_GraphQL(t *testing.T) {
	tests := []struct {
		name          string
		errs          GraphQLErrors
		expectedType  ErrorType
		expectedCode  string
		expectedField string
		retryable     bool
	}{
		{
			name:          "not found keeps remote message",
			errs:          GraphQLErrors{{Type: "NOT_FOUND", Message: "Could not resolve to a node with the global id of 'L_x'.", Path: []any{"updateLabel"}}},
			expectedType:  ErrorTypeNotFound,
			expectedCode:  GraphQLNotFound,
			expectedField: "updateLabel",
		},
		{
			name:         "unprocessable from extensions",
			errs:         GraphQLErrors{{Message: "Name has already been taken", Extensions: map[string]any{"type": "UNPROCESSABLE"}}},
			expectedType: ErrorTypeUnprocessable,
			expectedCode: GraphQLUnprocessable,
		},
		{
			name:         "forbidden",
			errs:         GraphQLErrors{{Type: "FORBIDDEN", Message: "Resource not accessible by integration"}},
			expectedType: ErrorTypePermission,
			expectedCode: GraphQLForbidden,
		},
		{
			name:         "rate limited",
			errs:         GraphQLErrors{{Type: "RATE_LIMITED", Message: "API rate limit exceeded"}},
			expectedType: ErrorTypeRateLimit,
			expectedCode: GraphQLRateLimited,
			retryable:    true,
		},
		{
			name:         "untyped",
			errs:         GraphQLErrors{{Message: "Something went wrong"}},
			expectedType: ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapGitHubError(tt.errs, "label L_x")
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedType, result.Type)
			assert.Equal(t, tt.errs[0].Message, result.Message)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.Equal(t, tt.expectedField, result.Field)
			assert.Equal(t, tt.retryable, result.Retryable)
			assert.Equal(t, "label L_x", result.Resource)
		})
	}
}

func TestWrapGitHubError(t *testing.T) {
	tests := []struct {
		name         string
		inputError   error
		resource     string
		expectedType ErrorType
		expectedMsg  string
	}{
		{
			name:       "nil error returns nil",
			inputError: nil,
			resource:   "test",
		},
		{
			name:         "already GitHubError returns as-is",
			inputError:   &GitHubError{Type: ErrorTypeAuth, Message: "auth error"},
			resource:     "labels in acme/widgets",
			expectedType: ErrorTypeAuth,
			expectedMsg:  "auth error",
		},
		{
			name: "REST 401",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusUnauthorized},
				Message:  "Bad credentials",
			},
			resource:     "authenticated user",
			expectedType: ErrorTypeAuth,
			expectedMsg:  "Invalid or expired GitHub token",
		},
		{
			name: "REST 403 rate limit",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusForbidden},
				Message:  "API rate limit exceeded",
			},
			resource:     "rate limit",
			expectedType: ErrorTypeRateLimit,
			expectedMsg:  "rate limit exceeded",
		},
		{
			name: "REST 422",
			inputError: &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
				Message:  "Validation Failed",
				Errors: []github.Error{
					{Field: "name", Message: "is required", Code: "missing_field"},
					{Message: "Label name is invalid"},
				},
			},
			resource:     "label bug",
			expectedType: ErrorTypeUnprocessable,
			expectedMsg:  "Validation failed: name: is required; Label name is invalid",
		},
		{
			name:         "GraphQL endpoint 401",
			inputError:   &HTTPStatusError{StatusCode: http.StatusUnauthorized, Body: `{"message":"Bad credentials"}`},
			resource:     "labels in acme/widgets",
			expectedType: ErrorTypeAuth,
			expectedMsg:  "Authentication failed",
		},
		{
			name:         "GraphQL endpoint 502",
			inputError:   &HTTPStatusError{StatusCode: http.StatusBadGateway},
			resource:     "labels in acme/widgets",
			expectedType: ErrorTypeNetwork,
			expectedMsg:  "temporarily unavailable",
		},
		{
			name:         "context canceled",
			inputError:   fmt.Errorf("request: %w", context.Canceled),
			resource:     "labels in acme/widgets",
			expectedType: ErrorTypeNetwork,
			expectedMsg:  "context canceled",
		},
		{
			name:         "network error",
			inputError:   errors.New("dial tcp 127.0.0.1:1: connection refused"),
			resource:     "labels in acme/widgets",
			expectedType: ErrorTypeNetwork,
			expectedMsg:  "Network error occurred",
		},
		{
			name:         "unknown",
			inputError:   errors.New("something odd"),
			resource:     "labels in acme/widgets",
			expectedType: ErrorTypeUnknown,
			expectedMsg:  "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapGitHubError(tt.inputError, tt.resource)

			if tt.inputError == nil {
				assert.Nil(t, result)
				return
			}

			require.NotNil(t, result)
			assert.Equal(t, tt.expectedType, result.Type)
			assert.Contains(t, result.Message, tt.expectedMsg)
			assert.Equal(t, tt.resource, result.Resource)
		})
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		detail    string
		wantType  ErrorType
		retryable bool
	}{
		{http.StatusUnauthorized, "Bad credentials", ErrorTypeAuth, false},
		{http.StatusForbidden, "Resource not accessible by integration", ErrorTypePermission, false},
		{http.StatusForbidden, "API rate limit exceeded for installation", ErrorTypeRateLimit, true},
		{http.StatusTooManyRequests, "", ErrorTypeRateLimit, true},
		{http.StatusNotFound, "Not Found", ErrorTypeNotFound, false},
		{http.StatusConflict, "", ErrorTypeConflict, false},
		{http.StatusInternalServerError, "", ErrorTypeNetwork, true},
		{http.StatusGatewayTimeout, "", ErrorTypeNetwork, true},
		{http.StatusTeapot, "short and stout", ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.status, tt.detail), func(t *testing.T) {
			ghErr := fromStatus(tt.status, tt.detail, "labels in acme/widgets", nil)

			assert.Equal(t, tt.wantType, ghErr.Type)
			assert.Equal(t, tt.retryable, ghErr.Retryable)
			assert.Equal(t, fmt.Sprint(tt.status), ghErr.Code)
			assert.Equal(t, "labels in acme/widgets", ghErr.Resource)
			if tt.wantType == ErrorTypeUnknown {
				assert.Equal(t, tt.detail, ghErr.Message)
			}
		})
	}
}

func TestWrapGitHubError_UnknownHTTPStatusKeepsBody(t *testing.T) {
	ghErr := WrapGitHubError(&HTTPStatusError{StatusCode: http.StatusTeapot, Body: "teapot"}, "user octocat")

	assert.Equal(t, ErrorTypeUnknown, ghErr.Type)
	assert.Equal(t, "unexpected HTTP status 418: teapot", ghErr.Message)
	assert.Equal(t, "418", ghErr.Code)
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "op error", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, expected: true},
		{name: "wrapped op error", err: fmt.Errorf("post: %w", &net.OpError{Op: "read", Err: errors.New("reset")}), expected: true},
		{name: "dns timeout", err: &net.DNSError{Err: "timeout", IsTimeout: true}, expected: true},
		{name: "connection refused text", err: errors.New("dial tcp: connection refused"), expected: true},
		{name: "no such host text", err: errors.New("lookup api.github.com: no such host"), expected: true},
		{name: "i/o timeout text", err: errors.New("read tcp: i/o timeout"), expected: true},
		{name: "regular error", err: errors.New("Name has already been taken"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isNetworkError(tt.err))
		})
	}
}

func TestPartialFailureError(t *testing.T) {
	notFound := &GitHubError{Type: ErrorTypeNotFound, Message: "Could not resolve to a node with the global id of 'LA_x'."}
	succeeded := []string{"create label docs", "delete label wontfix"}
	failed := map[string]error{
		"update label bug":           notFound,
		"create environment staging": errors.New("forbidden"),
	}

	err := NewPartialFailureError(succeeded, failed)

	assert.Equal(t,
		"2 of 4 changes failed (create environment staging: forbidden; "+
			"update label bug: not_found error: Could not resolve to a node with the global id of 'LA_x'.)",
		err.Error())
	assert.Equal(t, succeeded, err.GetSucceededOperations())
	assert.Equal(t, []string{"create environment staging", "update label bug"}, err.GetFailedOperations())

	wrapped := fmt.Errorf("apply acme/widgets: %w", err)
	assert.ErrorIs(t, wrapped, notFound)
	assert.True(t, IsErrorType(wrapped, ErrorTypeNotFound))
}

func TestIsRetryableErrorType(t *testing.T) {
	retryable := map[ErrorType]bool{ErrorTypeRateLimit: true, ErrorTypeNetwork: true}

	for _, errorType := range []ErrorType{
		ErrorTypeAuth, ErrorTypePermission, ErrorTypeNotFound, ErrorTypeUnprocessable,
		ErrorTypeValidation, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeConflict, ErrorTypeUnknown,
	} {
		assert.Equal(t, retryable[errorType], isRetryableErrorType(errorType), string(errorType))
	}
}
