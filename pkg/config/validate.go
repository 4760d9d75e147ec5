package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Limits enforced by GitHub
const (
	MaxLabelDescriptionLength = 100
	MaxRequiredReviews        = 6
	MaxWaitTimerMinutes       = 43200
	MaxEnvironmentReviewers   = 6
	maxLoginLength            = 39
)

var (
	hexColor      = regexp.MustCompile(`^[0-9a-f]{6}$`)
	validLogin    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	validRepoPart = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation error for field '%s' (value: %s): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	if len(e) == 1 {
		return e[0].Error()
	}

	messages := make([]string, 0, len(e))
	for i := range e {
		messages = append(messages, e[i].Error())
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e), strings.Join(messages, "; "))
}

// Add adds a validation error to the collection
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate checks the configuration without contacting GitHub.
// Every violation is reported, not only the first.
func (c *Config) Validate() error {
	var errs ValidationErrors

	c.validateLabels(&errs)
	c.validateBranches(&errs)
	c.validateEnvironments(&errs)
	c.validateRepositories(&errs)

	if c.Settings.Retries < 0 {
		errs.Add("settings.retries", fmt.Sprint(c.Settings.Retries), "must not be negative")
	}
	if c.Settings.RequestsPerSecond < 0 {
		errs.Add("settings.requests_per_second", fmt.Sprint(c.Settings.RequestsPerSecond), "must not be negative")
	}
	if c.Settings.Concurrency < 0 {
		errs.Add("settings.concurrency", fmt.Sprint(c.Settings.Concurrency), "must not be negative")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (c *Config) validateLabels(errs *ValidationErrors) {
	seen := make(map[string]int)
	for i, label := range c.Labels {
		field := fmt.Sprintf("labels[%d]", i)

		if label.Name == "" {
			errs.Add(field+".name", "", "label name is required")
		} else {
			key := strings.ToLower(label.Name)
			if first, dup := seen[key]; dup {
				errs.Add(field+".name", label.Name, fmt.Sprintf("duplicate of labels[%d]", first))
			} else {
				seen[key] = i
			}
		}

		color := strings.ToLower(strings.TrimPrefix(label.Color, "#"))
		if !hexColor.MatchString(color) {
			errs.Add(field+".color", label.Color, "color must be 6 hexadecimal digits")
		}

		if len([]rune(label.Description)) > MaxLabelDescriptionLength {
			errs.Add(field+".description", "", fmt.Sprintf("description must be %d characters or less", MaxLabelDescriptionLength))
		}
	}
}

func (c *Config) validateBranches(errs *ValidationErrors) {
	seen := make(map[string]int)
	for i, branch := range c.Branches {
		field := fmt.Sprintf("branches[%d]", i)

		if branch.Pattern == "" {
			errs.Add(field+".pattern", "", "branch pattern is required")
		} else if first, dup := seen[branch.Pattern]; dup {
			errs.Add(field+".pattern", branch.Pattern, fmt.Sprintf("duplicate of branches[%d]", first))
		} else {
			seen[branch.Pattern] = i
		}

		if branch.RequiredApprovingReviewCount < 0 || branch.RequiredApprovingReviewCount > MaxRequiredReviews {
			errs.Add(field+".required_approving_review_count", fmt.Sprint(branch.RequiredApprovingReviewCount),
				fmt.Sprintf("must be between 0 and %d", MaxRequiredReviews))
		}

		for j, check := range branch.RequiredStatusChecks {
			if strings.TrimSpace(check) == "" {
				errs.Add(fmt.Sprintf("%s.required_status_checks[%d]", field, j), "", "status check context cannot be empty")
			}
		}
	}
}

func (c *Config) validateEnvironments(errs *ValidationErrors) {
	seen := make(map[string]int)
	for i, env := range c.Environments {
		field := fmt.Sprintf("environments[%d]", i)

		if env.Name == "" {
			errs.Add(field+".name", "", "environment name is required")
		} else {
			key := strings.ToLower(env.Name)
			if first, dup := seen[key]; dup {
				errs.Add(field+".name", env.Name, fmt.Sprintf("duplicate of environments[%d]", first))
			} else {
				seen[key] = i
			}
		}

		if env.WaitTimer < 0 || env.WaitTimer > MaxWaitTimerMinutes {
			errs.Add(field+".wait_timer", fmt.Sprint(env.WaitTimer), fmt.Sprintf("must be between 0 and %d minutes", MaxWaitTimerMinutes))
		}

		if len(env.Reviewers) > MaxEnvironmentReviewers {
			errs.Add(field+".reviewers", "", fmt.Sprintf("at most %d reviewers are allowed", MaxEnvironmentReviewers))
		}
		for j, login := range env.Reviewers {
			if err := ValidateLogin(login); err != nil {
				errs.Add(fmt.Sprintf("%s.reviewers[%d]", field, j), login, err.Error())
			}
		}
	}
}

func (c *Config) validateRepositories(errs *ValidationErrors) {
	for i, repo := range c.Repositories {
		if _, _, err := SplitRepository(repo); err != nil {
			errs.Add(fmt.Sprintf("repositories[%d]", i), repo, err.Error())
		}
	}
}

// ValidateLogin checks a GitHub username: alphanumerics and single
// hyphens, not starting or ending with a hyphen, at most 39 characters
func ValidateLogin(login string) error {
	if login == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(login) > maxLoginLength {
		return fmt.Errorf("username must be %d characters or less", maxLoginLength)
	}
	if !validLogin.MatchString(login) || strings.Contains(login, "--") {
		return fmt.Errorf("username '%s' is invalid", login)
	}
	return nil
}

// SplitRepository splits "owner/name" into its parts
func SplitRepository(fullName string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(fullName), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be in owner/name form")
	}
	if !validRepoPart.MatchString(parts[0]) || !validRepoPart.MatchString(parts[1]) {
		return "", "", fmt.Errorf("repository may only contain alphanumerics, periods, hyphens and underscores")
	}
	return parts[0], parts[1], nil
}
