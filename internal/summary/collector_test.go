package summary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/common/git"
	"github.com/obentoo/project-summary/internal/common/github"
	"github.com/obentoo/project-summary/internal/common/httpclient"
	"github.com/obentoo/project-summary/internal/common/provider"
)

// rewriteTransport sends every request to the test server, keeping the path
type rewriteTransport struct {
	target *url.URL
	base   *http.Transport
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	req.Host = t.target.Host
	return t.base.RoundTrip(req)
}

// fakeServices stands in for the GitHub API, Coveralls and pypistats. A
// non-zero issuesStatus makes the issues endpoint fail: 403 with an
// exhausted quota, any other status as is.
func fakeServices(t *testing.T, issuesStatus int) (*httpclient.RetryableHTTPClient, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/mgedmin/zodbbrowser/issues":
			switch issuesStatus {
			case 0:
			case http.StatusForbidden:
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"message": "API rate limit exceeded"}`))
				return
			default:
				w.WriteHeader(issuesStatus)
				return
			}
			w.Write([]byte(`[
				{"number": 1, "labels": []},
				{"number": 2, "labels": [], "pull_request": {}},
				{"number": 3, "labels": [{"name": "bug"}], "pull_request": {}}
			]`))
		case "/repos/mgedmin/zodbbrowser/badge.svg":
			http.Redirect(w, r, coverallsBadgePrefix+"91.svg", http.StatusFound)
		case "/api/packages/zodbbrowser/recent":
			w.Write([]byte(`{"data": {"last_month": 12345}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	target, _ := url.Parse(server.URL)
	transport := &http.Transport{}

	client := httpclient.NewRetryableHTTPClient()
	client.SetDelayFunc(func(time.Duration) {})
	client.SetTransport(&rewriteTransport{target: target, base: transport})

	return client, func() {
		transport.CloseIdleConnections()
		server.Close()
	}
}

// checkouts creates the working trees and the git doubles describing them
func checkouts(t *testing.T) ([]string, map[string]*git.MockGitRunner) {
	t.Helper()
	root := t.TempDir()
	zodb := filepath.Join(root, "zodbbrowser")
	writeFile(t, zodb, ".travis.yml", "language: python\n")
	writeFile(t, zodb, "setup.py", `setup(classifiers=[
    'Programming Language :: Python :: 3.8',
    'Programming Language :: Python :: Implementation :: PyPy',
])`)

	repos := map[string]*git.MockGitRunner{}

	m := git.NewMockGitRunner(zodb)
	m.RemoteURLFunc = func(string) (string, error) { return "git@github.com:mgedmin/zodbbrowser.git", nil }
	m.LastTagFunc = func() (string, error) { return "1.0", nil }
	m.TagDateFunc = func(string) (string, error) { return "2020-05-30 11:15:25 +0300", nil }
	m.PendingCommitsFunc = func(tag, branch string) ([]string, error) {
		return []string{"abc1234 Fix", "def5678 Bump"}, nil
	}
	repos[zodb] = m

	ignored := filepath.Join(root, "ignored-proj")
	m = git.NewMockGitRunner(ignored)
	m.LastTagFunc = func() (string, error) { return "1.0", nil }
	repos[ignored] = m

	untagged := filepath.Join(root, "untagged")
	repos[untagged] = git.NewMockGitRunner(untagged)

	fallback := filepath.Join(root, "fallback")
	m = git.NewMockGitRunner(fallback)
	m.RemoteURLFunc = func(string) (string, error) { return "https://example.com/fallback.git", nil }
	m.BranchNameFunc = func() (string, error) { return "1.x", nil }
	m.TagsFunc = func() ([]string, error) { return []string{"junk", "v1.10.0", "v1.2.0"}, nil }
	m.StatusFunc = func() ([]git.StatusEntry, error) {
		return []git.StatusEntry{{Status: "M", FilePath: "README"}}, nil
	}
	repos[fallback] = m

	return []string{zodb, ignored, untagged, fallback}, repos
}

func newTestCollector(cfg *config.Config, client *httpclient.RetryableHTTPClient, repos map[string]*git.MockGitRunner) *Collector {
	c := NewCollector(cfg, provider.DefaultRegistry(client, provider.Tokens{}), client)
	c.NewGit = func(dir string) git.GitExecutor { return repos[dir] }
	return c
}

func intPtr(n int) *int { return &n }

func TestCollect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, stop := fakeServices(t, 0)
	defer stop()

	dirs, repos := checkouts(t)
	cfg := config.Defaults()
	cfg.Ignore = config.StringList{"ignored-proj"}

	projects, err := newTestCollector(cfg, client, repos).Collect(context.Background(), dirs)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := []*Project{
		{
			WorkingTree:    dirs[0],
			URL:            "https://github.com/mgedmin/zodbbrowser",
			Owner:          "mgedmin",
			Name:           "zodbbrowser",
			Branch:         "master",
			LastTag:        "1.0",
			LastTagDate:    "2020-05-30 11:15:25 +0300",
			PendingCommits: []string{"abc1234 Fix", "def5678 Bump"},
			PythonVersions: []string{"3.8", "PyPy"},
			Coverage:       intPtr(91),
			Downloads:      intPtr(12345),
			Issues:         provider.IssueCounts{OpenIssues: 1, UnlabeledIssues: 1, OpenPulls: 2, UnlabeledPulls: 1},
			HasIssues:      true,
			IssuesURL:      "https://github.com/mgedmin/zodbbrowser/issues",
			PullsURL:       "https://github.com/mgedmin/zodbbrowser/pulls",
			UsesTravis:     true,
			PyPIName:       "zodbbrowser",
		},
		{
			WorkingTree: dirs[3],
			URL:         "https://example.com/fallback.git",
			Name:        "fallback.git",
			Branch:      "1.x",
			LastTag:     "v1.10.0",
			Dirty:       true,
			PyPIName:    "fallback.git",
		},
	}
	if diff := cmp.Diff(want, projects); diff != "" {
		t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectSkipBranches(t *testing.T) {
	dirs, repos := checkouts(t)
	cfg := config.Defaults()
	cfg.SkipBranches = true

	c := newTestCollector(cfg, nil, repos)
	c.Registry = nil
	projects, err := c.Collect(context.Background(), dirs)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	var names []string
	for _, p := range projects {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"zodbbrowser", "ignored-proj"}, names); diff != "" {
		t.Errorf("projects mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectFetchAndPull(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dirs, repos := checkouts(t)
	var fetched, pulled atomic.Int32
	for _, m := range repos {
		m.FetchFunc = func() error { fetched.Add(1); return nil }
		m.PullFunc = func() error { pulled.Add(1); return errors.New("merge conflict") }
	}
	cfg := config.Defaults()
	cfg.Fetch = true
	cfg.Pull = true

	c := newTestCollector(cfg, nil, repos)
	c.Registry = nil
	c.Jobs = 4
	projects, err := c.Collect(context.Background(), dirs)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if fetched.Load() != 4 || pulled.Load() != 4 {
		t.Errorf("fetched %d, pulled %d checkouts, want 4 each", fetched.Load(), pulled.Load())
	}
	// a failed pull is not fatal, and the order survives parallel inspection
	if len(projects) != 3 || projects[0].Name != "zodbbrowser" || projects[2].Name != "fallback.git" {
		t.Errorf("unexpected projects %v", projects)
	}
}

func TestCollectGitHubErrorAborts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, stop := fakeServices(t, http.StatusForbidden)
	defer stop()

	dirs, repos := checkouts(t)
	_, err := newTestCollector(config.Defaults(), client, repos).Collect(context.Background(), dirs)

	var rateErr *github.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected *github.RateLimitError, got %v", err)
	}
	if rateErr.Message != "API rate limit exceeded" {
		t.Errorf("Message = %q", rateErr.Message)
	}
}

func TestCollectGitHubServerErrorContinues(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, stop := fakeServices(t, http.StatusServiceUnavailable)
	defer stop()

	dirs, repos := checkouts(t)
	projects, err := newTestCollector(config.Defaults(), client, repos).Collect(context.Background(), dirs)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(projects) == 0 || projects[0].Name != "zodbbrowser" {
		t.Fatalf("Collect() = %v, want zodbbrowser first", projects)
	}
	if projects[0].HasIssues {
		t.Error("issue counts should be missing after a server error")
	}
	if projects[0].Downloads == nil || *projects[0].Downloads != 12345 {
		t.Error("other lookups should still run")
	}
}

func TestCollectCancelled(t *testing.T) {
	dirs, repos := checkouts(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCollector(config.Defaults(), nil, repos)
	c.Registry = nil
	if _, err := c.Collect(ctx, dirs); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHighestVersionTag(t *testing.T) {
	tests := []struct {
		tags []string
		want string
	}{
		{[]string{"1.0", "1.10", "1.9"}, "1.10"},
		{[]string{"v0.9.42", "v0.10.0", "release"}, "v0.10.0"},
		{[]string{"nightly", "latest"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := HighestVersionTag(tt.tags); got != tt.want {
			t.Errorf("HighestVersionTag(%v) = %q, want %q", tt.tags, got, tt.want)
		}
	}
}

func TestLastTag(t *testing.T) {
	m := git.NewMockGitRunner("/src/demo")
	m.TagsFunc = func() ([]string, error) { return []string{"v1.0", "v1.2"}, nil }
	if got := lastTag(m); got != "v1.2" {
		t.Errorf("without a described tag lastTag() = %q, want v1.2", got)
	}

	m.LastTagFunc = func() (string, error) { return "v1.1", nil }
	if got := lastTag(m); got != "v1.1" {
		t.Errorf("lastTag() = %q, want v1.1", got)
	}

	m.LastTagFunc = func() (string, error) { return "", errors.New("fatal: bad object HEAD") }
	if got := lastTag(m); got != "" {
		t.Errorf("after a describe failure lastTag() = %q, want empty", got)
	}
}
