package provider

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the project was not found on the host
	ErrNotFound = errors.New("project not found")
	// ErrRateLimit indicates API rate limit exceeded
	ErrRateLimit = errors.New("API rate limit exceeded")
	// ErrAPIError indicates a general API error
	ErrAPIError = errors.New("API error")
)

// IssueCounts summarizes the open issues and pull requests of a project.
// Unlabeled items are the ones nobody has triaged yet.
type IssueCounts struct {
	OpenIssues      int
	UnlabeledIssues int
	OpenPulls       int
	UnlabeledPulls  int
}

// Provider fetches project metadata from a code hosting service
type Provider interface {
	// Name returns a human-readable name for this provider
	Name() string

	// Matches reports whether a normalized project URL is hosted here
	Matches(url string) bool

	// IssueCounts counts the open issues and pull requests of owner/repo
	IssueCounts(ctx context.Context, owner, repo string) (IssueCounts, error)

	// IssuesURL and PullsURL link to the web pages listing them
	IssuesURL(projectURL string) string
	PullsURL(projectURL string) string
}
