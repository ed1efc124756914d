package provider

import (
	"context"
	"strings"

	"github.com/obentoo/project-summary/internal/common/github"
)

// GitHubProvider counts issues through the GitHub REST API
type GitHubProvider struct {
	Client *github.Client
}

// NewGitHubProvider creates a new GitHub API provider
func NewGitHubProvider(client *github.Client) *GitHubProvider {
	return &GitHubProvider{Client: client}
}

// Name returns the provider name
func (p *GitHubProvider) Name() string {
	return "GitHub"
}

// Matches accepts https://github.com/ URLs
func (p *GitHubProvider) Matches(url string) bool {
	return strings.HasPrefix(url, "https://github.com/")
}

// IssueCounts lists the open issues; GitHub returns pull requests in the
// same list. GitHub API errors are returned unwrapped so callers can match
// *github.RateLimitError.
func (p *GitHubProvider) IssueCounts(ctx context.Context, owner, repo string) (IssueCounts, error) {
	issues, err := p.Client.Issues(ctx, owner, repo)
	if err != nil {
		return IssueCounts{}, err
	}

	var counts IssueCounts
	for _, issue := range issues {
		unlabeled := len(issue.Labels) == 0
		if issue.IsPullRequest() {
			counts.OpenPulls++
			if unlabeled {
				counts.UnlabeledPulls++
			}
			continue
		}
		counts.OpenIssues++
		if unlabeled {
			counts.UnlabeledIssues++
		}
	}
	return counts, nil
}

func (p *GitHubProvider) IssuesURL(projectURL string) string {
	return projectURL + "/issues"
}

func (p *GitHubProvider) PullsURL(projectURL string) string {
	return projectURL + "/pulls"
}

// Ensure GitHubProvider implements Provider interface
var _ Provider = (*GitHubProvider)(nil)
