package summary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/common/git"
	"github.com/obentoo/project-summary/internal/common/github"
	"github.com/obentoo/project-summary/internal/common/httpclient"
	"github.com/obentoo/project-summary/internal/common/logger"
	"github.com/obentoo/project-summary/internal/common/provider"
)

// Collector inspects checkouts and gathers everything the report shows
type Collector struct {
	Config   *config.Config
	Registry *provider.Registry
	HTTP     *httpclient.RetryableHTTPClient
	// NewGit opens a checkout; defaults to the git command line
	NewGit func(dir string) git.GitExecutor
	// Jobs bounds the number of checkouts inspected at once
	Jobs int
}

// NewCollector creates a collector using the git command line
func NewCollector(cfg *config.Config, registry *provider.Registry, client *httpclient.RetryableHTTPClient) *Collector {
	return &Collector{
		Config:   cfg,
		Registry: registry,
		HTTP:     client,
		NewGit:   func(dir string) git.GitExecutor { return git.NewGitRunner(dir) },
		Jobs:     1,
	}
}

// Collect inspects every checkout and returns the released projects in
// the order of dirs. Hosting API errors from GitHub abort the run.
func (c *Collector) Collect(ctx context.Context, dirs []string) ([]*Project, error) {
	results := make([]*Project, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	jobs := c.Jobs
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)

	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := c.Inspect(ctx, dir)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	projects := make([]*Project, 0, len(results))
	for _, p := range results {
		if p != nil {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

// Inspect gathers one checkout. It returns nil without an error when the
// project is filtered out or has never been released.
func (c *Collector) Inspect(ctx context.Context, dir string) (*Project, error) {
	repo := c.NewGit(dir)

	remote, err := repo.RemoteURL("origin")
	if err != nil {
		logger.Debug("%s: no origin: %v", dir, err)
	}
	p := NewProject(dir, remote, c.Config)
	if c.Config.IsIgnored(p.Name) {
		logger.Debug("%s: ignored", p.Name)
		return nil, nil
	}

	if p.Branch, err = repo.BranchName(); err != nil {
		logger.Warn("%s: cannot determine branch: %v", p.Name, err)
		return nil, nil
	}
	if c.Config.SkipBranches && !isMainBranch(p.Branch) {
		logger.Info("%s: skipping branch %s", p.Name, p.Branch)
		return nil, nil
	}

	if c.Config.Fetch {
		if err := repo.Fetch(); err != nil {
			logger.Warn("%s: fetch failed: %v", p.Name, err)
		}
	}
	if c.Config.Pull {
		if err := repo.Pull(); err != nil {
			logger.Warn("%s: pull failed: %v", p.Name, err)
		}
	}

	if p.LastTag = lastTag(repo); p.LastTag == "" {
		logger.Debug("%s: no releases", p.Name)
		return nil, nil
	}
	logger.Info("inspecting %s %s", p.Name, p.LastTag)

	if p.LastTagDate, err = repo.TagDate(p.LastTag); err != nil {
		logger.Warn("%s: cannot date tag %s: %v", p.Name, p.LastTag, err)
	}
	if p.PendingCommits, err = repo.PendingCommits(p.LastTag, p.Branch); err != nil {
		logger.Warn("%s: cannot list pending commits: %v", p.Name, err)
	}
	if status, err := repo.Status(); err != nil {
		logger.Warn("%s: git status failed: %v", p.Name, err)
	} else {
		p.Dirty = len(status) > 0
	}

	c.detectCI(p)

	if p.PythonVersions, err = PythonVersions(dir); err != nil {
		logger.Warn("%s: cannot read classifiers: %v", p.Name, err)
	}

	if err := c.fetchRemote(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// detectCI looks for CI configuration files in the checkout
func (c *Collector) detectCI(p *Project) {
	if !p.IsOnGitHub() {
		return
	}
	p.UsesTravis = fileExists(filepath.Join(p.WorkingTree, ".travis.yml"))
	p.UsesAppveyor = c.Config.AppveyorAccount != "" && fileExists(filepath.Join(p.WorkingTree, "appveyor.yml"))
	p.ActionsWorkflow = firstWorkflow(p.WorkingTree)
}

// fetchRemote queries coverage, downloads and issue counts
func (c *Collector) fetchRemote(ctx context.Context, p *Project) error {
	if c.HTTP != nil {
		if p.UsesCoveralls() {
			coverage, err := FetchCoverage(ctx, c.HTTP.WithoutRedirects(), p.CoverallsImageURL())
			if err != nil {
				logger.Warn("%s: coverage unknown: %v", p.Name, err)
			}
			p.Coverage = coverage
		}
		if isPythonPackage(p.WorkingTree) {
			downloads, err := FetchDownloads(ctx, c.HTTP, p.PyPIStatsAPIURL())
			if err != nil {
				logger.Warn("%s: downloads unknown: %v", p.Name, err)
			}
			p.Downloads = downloads
		}
	}

	prov := c.Registry.ForURL(p.URL)
	if prov == nil || p.Owner == "" {
		return nil
	}
	counts, err := prov.IssueCounts(ctx, p.Owner, p.Name)
	if err != nil {
		if errors.Is(err, github.ErrAPI) {
			return err
		}
		logger.Warn("%s: %s issues unavailable: %v", p.Name, prov.Name(), err)
		return nil
	}
	p.Issues = counts
	p.HasIssues = true
	p.IssuesURL = prov.IssuesURL(p.URL)
	p.PullsURL = prov.PullsURL(p.URL)
	return nil
}

// lastTag asks git describe first, then falls back to the highest
// version-like tag
func lastTag(repo git.GitExecutor) string {
	tag, err := repo.LastTag()
	switch {
	case err == nil && tag != "":
		return tag
	case err != nil && !errors.Is(err, git.ErrNoTag):
		logger.Warn("%s: git describe failed: %v", repo.WorkDir(), err)
		return ""
	}
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}
	return HighestVersionTag(tags)
}

// HighestVersionTag returns the tag with the highest semantic version.
// Tags that do not parse as versions are ignored.
func HighestVersionTag(tags []string) string {
	var best string
	var bestVersion *semver.Version
	for _, tag := range tags {
		v, err := semver.NewVersion(tag)
		if err != nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = tag, v
		}
	}
	return best
}

func isMainBranch(branch string) bool {
	return branch == "master" || branch == "main"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isPythonPackage(dir string) bool {
	for _, name := range []string{"setup.py", "setup.cfg", "pyproject.toml"} {
		if fileExists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

// firstWorkflow returns the alphabetically first GitHub Actions workflow
func firstWorkflow(dir string) string {
	entries, err := os.ReadDir(filepath.Join(dir, ".github", "workflows"))
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && (strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
