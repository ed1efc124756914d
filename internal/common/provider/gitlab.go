package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/obentoo/project-summary/internal/common/httpclient"
)

// GitLabProvider counts issues and merge requests through the GitLab API
type GitLabProvider struct {
	BaseURL    string // e.g., "https://gitlab.com"
	Token      string
	HTTPClient httpclient.Doer
}

// gitlabItem is the subset of an issue or merge request we look at
type gitlabItem struct {
	IID    int      `json:"iid"`
	Labels []string `json:"labels"`
}

// NewGitLabProvider creates a new GitLab API provider
func NewGitLabProvider(baseURL, token string, doer httpclient.Doer) *GitLabProvider {
	return &GitLabProvider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: jsonClient(doer),
	}
}

// jsonClient returns a copy of doer that asks for JSON by default. Doers
// other than the retrying client are used as they are.
func jsonClient(doer httpclient.Doer) httpclient.Doer {
	var client *httpclient.RetryableHTTPClient
	switch c := doer.(type) {
	case nil:
		client = httpclient.NewRetryableHTTPClient()
	case *httpclient.RetryableHTTPClient:
		client = c.Clone()
	default:
		return doer
	}
	client.SetDefaultHeaders(map[string]string{"Accept": "application/json"})
	return client
}

// Name returns the provider name
func (p *GitLabProvider) Name() string {
	return "GitLab"
}

// Matches accepts project URLs on the same host as BaseURL
func (p *GitLabProvider) Matches(projectURL string) bool {
	return strings.HasPrefix(projectURL, p.BaseURL+"/")
}

// projectID is the URL-encoded "owner/repo" path GitLab accepts as an ID
func projectID(owner, repo string) string {
	return url.PathEscape(owner + "/" + repo)
}

// IssueCounts counts open issues and open merge requests
func (p *GitLabProvider) IssueCounts(ctx context.Context, owner, repo string) (IssueCounts, error) {
	base := fmt.Sprintf("%s/api/v4/projects/%s", p.BaseURL, projectID(owner, repo))

	issues, err := p.list(ctx, base+"/issues?state=opened")
	if err != nil {
		return IssueCounts{}, err
	}
	merges, err := p.list(ctx, base+"/merge_requests?state=opened")
	if err != nil {
		return IssueCounts{}, err
	}

	counts := IssueCounts{OpenIssues: len(issues), OpenPulls: len(merges)}
	for _, item := range issues {
		if len(item.Labels) == 0 {
			counts.UnlabeledIssues++
		}
	}
	for _, item := range merges {
		if len(item.Labels) == 0 {
			counts.UnlabeledPulls++
		}
	}
	return counts, nil
}

// list fetches every page, following the X-Next-Page header
func (p *GitLabProvider) list(ctx context.Context, apiURL string) ([]gitlabItem, error) {
	var items []gitlabItem
	page := "1"
	for page != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"&per_page=100&page="+page, nil)
		if err != nil {
			return nil, err
		}
		// GitLab uses PRIVATE-TOKEN header for authentication
		if p.Token != "" {
			req.Header.Set("PRIVATE-TOKEN", p.Token)
		}

		resp, err := p.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimit
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var batch []gitlabItem
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("%w: failed to parse GitLab response: %v", ErrAPIError, err)
		}
		items = append(items, batch...)
		page = resp.Header.Get("X-Next-Page")
	}
	return items, nil
}

func (p *GitLabProvider) IssuesURL(projectURL string) string {
	return projectURL + "/-/issues"
}

func (p *GitLabProvider) PullsURL(projectURL string) string {
	return projectURL + "/-/merge_requests"
}

// Ensure GitLabProvider implements Provider interface
var _ Provider = (*GitLabProvider)(nil)
