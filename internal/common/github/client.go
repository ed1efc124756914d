package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/obentoo/project-summary/internal/common/httpclient"
)

// ErrAPI is matched by every *APIError and *RateLimitError. 5xx responses
// are plain errors.
var ErrAPI = errors.New("GitHub API error")

// APIError is a 4xx response from the GitHub API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// RateLimitError reports an exhausted API quota
type RateLimitError struct {
	Message string
	Reset   time.Time
	now     time.Time
}

func (e *RateLimitError) Error() string {
	now := e.now
	if now.IsZero() {
		now = time.Now()
	}
	minutes := int(math.Ceil(e.Reset.Sub(now).Minutes()))
	return fmt.Sprintf("%s\nTry again in %d minutes, at %s.",
		e.Message, minutes, e.Reset.Local().Format("15:04"))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrAPI
}

// Client handles communication with the GitHub API
type Client struct {
	BaseURL    string
	Token      string // GitHub personal access token (optional, increases rate limit)
	HTTPClient httpclient.Doer
	now        func() time.Time
}

// Label is an issue label
type Label struct {
	Name string `json:"name"`
}

// Issue is an issue or a pull request; GitHub lists both under /issues
type Issue struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	State       string          `json:"state"`
	Labels      []Label         `json:"labels"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the issue is a pull request
func (i Issue) IsPullRequest() bool {
	return len(i.PullRequest) > 0 && string(i.PullRequest) != "null"
}

// Response is a successful API response
type Response struct {
	Body   []byte
	Header http.Header
}

// NewClient creates a new GitHub API client
func NewClient(doer httpclient.Doer, token string) *Client {
	if doer == nil {
		doer = httpclient.NewRetryableHTTPClient()
	}
	return &Client{
		BaseURL:    "https://api.github.com",
		Token:      token,
		HTTPClient: doer,
		now:        time.Now,
	}
}

// resolve turns an API path into a full URL
func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "/") {
		return strings.TrimRight(c.BaseURL, "/") + url
	}
	return url
}

// Request fetches one API URL (or path relative to BaseURL)
func (c *Client) Request(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(url), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
		return nil, &RateLimitError{
			Message: errorMessage(body),
			Reset:   time.Unix(reset, 0),
			now:     c.now(),
		}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	// Server errors are transient and do not match ErrAPI
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("GitHub API: status %d", resp.StatusCode)
	}

	return &Response{Body: body, Header: resp.Header}, nil
}

// errorMessage extracts the "message" field of an error body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		text := strings.TrimSpace(string(body))
		if text == "" {
			return "no error message"
		}
		return "unexpected response: " + text
	}
	return payload.Message
}

// List fetches every page of a list endpoint and concatenates the items
func (c *Client) List(ctx context.Context, url string, batchSize int) ([]json.RawMessage, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	base := fmt.Sprintf("%s%sper_page=%d", url, sep, batchSize)

	var items []json.RawMessage
	pageURL := base
	for page := 2; ; page++ {
		resp, err := c.Request(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		var batch []json.RawMessage
		if err := json.Unmarshal(resp.Body, &batch); err != nil {
			return nil, &APIError{Status: http.StatusOK, Message: fmt.Sprintf("failed to parse list response: %v", err)}
		}
		items = append(items, batch...)

		if !strings.Contains(resp.Header.Get("Link"), `rel="next"`) {
			return items, nil
		}
		pageURL = fmt.Sprintf("%s&page=%d", base, page)
	}
}

// Issues returns the open issues and pull requests of a repository
func (c *Client) Issues(ctx context.Context, owner, repo string) ([]Issue, error) {
	raw, err := c.List(ctx, fmt.Sprintf("/repos/%s/%s/issues", owner, repo), 100)
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(raw))
	for _, item := range raw {
		var issue Issue
		if err := json.Unmarshal(item, &issue); err != nil {
			return nil, &APIError{Status: http.StatusOK, Message: fmt.Sprintf("failed to parse issue: %v", err)}
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// RateLimit returns the remaining core API quota and when it resets
func (c *Client) RateLimit(ctx context.Context) (remaining int, resetTime time.Time, err error) {
	resp, err := c.Request(ctx, "/rate_limit")
	if err != nil {
		return 0, time.Time{}, err
	}

	var result struct {
		Resources struct {
			Core struct {
				Remaining int   `json:"remaining"`
				Reset     int64 `json:"reset"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return 0, time.Time{}, err
	}

	return result.Resources.Core.Remaining, time.Unix(result.Resources.Core.Reset, 0), nil
}
