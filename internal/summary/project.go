package summary

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/common/provider"
)

// TagDateLayout is the layout of `git log --format=%ai`
const TagDateLayout = "2006-01-02 15:04:05 -0700"

// Behind labels how far a project is from its last release
type Behind string

const (
	BehindReleased Behind = "released"
	BehindPending  Behind = "pending"
	BehindStale    Behind = "stale"
)

// Project is one inspected checkout
type Project struct {
	WorkingTree string
	URL         string
	Owner       string
	Name        string
	Branch      string

	LastTag        string
	LastTagDate    string
	PendingCommits []string
	Dirty          bool

	PythonVersions []string
	Coverage       *int
	Downloads      *int

	Issues    provider.IssueCounts
	HasIssues bool
	IssuesURL string
	PullsURL  string

	UsesTravis      bool
	UsesAppveyor    bool
	ActionsWorkflow string

	// Copied from the configuration
	PyPIName        string
	AppveyorAccount string
	JenkinsBaseURL  string

	Behind Behind
}

// NewProject fills in the identity of a checkout from its remote URL
func NewProject(workingTree, remoteURL string, cfg *config.Config) *Project {
	p := &Project{
		WorkingTree: workingTree,
		URL:         NormalizeURL(remoteURL),
	}
	if p.URL != "" {
		p.Name = Name(p.URL)
	} else {
		p.Name = filepath.Base(workingTree)
	}
	if p.IsOnGitHub() || p.IsOnGitLab() {
		p.Owner = Owner(p.URL)
	}
	if cfg != nil {
		p.PyPIName = cfg.PyPIName(p.Name)
		p.AppveyorAccount = cfg.AppveyorAccount
		p.JenkinsBaseURL = cfg.JenkinsURL
	}
	return p
}

// IsOnGitHub reports whether the project is hosted on GitHub
func (p *Project) IsOnGitHub() bool {
	return IsGitHub(p.URL)
}

// IsOnGitLab reports whether the project is hosted on gitlab.com
func (p *Project) IsOnGitLab() bool {
	return strings.HasPrefix(p.URL, "https://gitlab.com/")
}

// PendingCount is the number of commits since the last tag
func (p *Project) PendingCount() int {
	return len(p.PendingCommits)
}

// ReleaseTime parses LastTagDate
func (p *Project) ReleaseTime() (time.Time, error) {
	return time.Parse(TagDateLayout, p.LastTagDate)
}

// SupportsPython reports whether version is among the declared classifiers
func (p *Project) SupportsPython(version string) bool {
	for _, v := range p.PythonVersions {
		if v == version {
			return true
		}
	}
	return false
}

// CompareURL links to the diff between the last tag and the branch
func (p *Project) CompareURL() string {
	switch {
	case p.IsOnGitHub():
		return fmt.Sprintf("%s/compare/%s...%s", p.URL, p.LastTag, p.Branch)
	case p.IsOnGitLab():
		return fmt.Sprintf("%s/-/compare/%s...%s", p.URL, p.LastTag, p.Branch)
	}
	return ""
}

func (p *Project) pypiName() string {
	if p.PyPIName != "" {
		return p.PyPIName
	}
	return p.Name
}

// PyPIURL links to the package page on PyPI
func (p *Project) PyPIURL() string {
	return fmt.Sprintf("https://pypi.org/project/%s/", p.pypiName())
}

// PyPIStatsURL links to the download statistics page
func (p *Project) PyPIStatsURL() string {
	return fmt.Sprintf("https://pypistats.org/packages/%s", p.pypiName())
}

// PyPIStatsAPIURL is queried for the download count
func (p *Project) PyPIStatsAPIURL() string {
	return fmt.Sprintf("https://pypistats.org/api/packages/%s/recent", p.pypiName())
}

// TravisImageURL is the 20px high build status badge
func (p *Project) TravisImageURL() string {
	if !p.UsesTravis {
		return ""
	}
	return fmt.Sprintf("https://api.travis-ci.org/%s/%s.svg?branch=%s", p.Owner, p.Name, p.Branch)
}

func (p *Project) TravisURL() string {
	if !p.UsesTravis {
		return ""
	}
	return fmt.Sprintf("https://travis-ci.org/%s/%s", p.Owner, p.Name)
}

func (p *Project) AppveyorImageURL() string {
	if !p.UsesAppveyor {
		return ""
	}
	return fmt.Sprintf("https://ci.appveyor.com/api/projects/status/github/%s/%s?branch=%s&svg=true", p.Owner, p.Name, p.Branch)
}

func (p *Project) AppveyorURL() string {
	if !p.UsesAppveyor {
		return ""
	}
	return fmt.Sprintf("https://ci.appveyor.com/project/%s/%s/branch/%s", p.AppveyorAccount, p.Name, p.Branch)
}

// UsesActions reports whether a GitHub Actions workflow was found
func (p *Project) UsesActions() bool {
	return p.ActionsWorkflow != ""
}

func (p *Project) ActionsImageURL() string {
	if !p.UsesActions() {
		return ""
	}
	return fmt.Sprintf("%s/actions/workflows/%s/badge.svg?branch=%s", p.URL, p.ActionsWorkflow, p.Branch)
}

func (p *Project) ActionsURL() string {
	if !p.UsesActions() {
		return ""
	}
	return fmt.Sprintf("%s/actions/workflows/%s", p.URL, p.ActionsWorkflow)
}

// UsesCoveralls is true for GitHub projects built on a CI service
func (p *Project) UsesCoveralls() bool {
	return p.IsOnGitHub() && (p.UsesTravis || p.UsesActions())
}

func (p *Project) CoverallsImageURL() string {
	if !p.UsesCoveralls() {
		return ""
	}
	return fmt.Sprintf("https://coveralls.io/repos/%s/%s/badge.svg?branch=%s", p.Owner, p.Name, p.Branch)
}

func (p *Project) CoverallsURL() string {
	if !p.UsesCoveralls() {
		return ""
	}
	return fmt.Sprintf("https://coveralls.io/r/%s/%s?branch=%s", p.Owner, p.Name, p.Branch)
}

// JenkinsJob is the job name derived from the working tree. Jenkins
// checkouts live in <job>/workspace.
func (p *Project) JenkinsJob() string {
	base := filepath.Base(p.WorkingTree)
	if base == "workspace" {
		return filepath.Base(filepath.Dir(p.WorkingTree))
	}
	return base
}

func (p *Project) JenkinsImageURL(job config.JenkinsJob) string {
	if p.JenkinsBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/job/%s/badge/icon", p.JenkinsBaseURL, job.JobName(p.JenkinsJob()))
}

func (p *Project) JenkinsURL(job config.JenkinsJob) string {
	if p.JenkinsBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/job/%s/", p.JenkinsBaseURL, job.JobName(p.JenkinsJob()))
}

// CoverageText formats the coverage percentage, or unknown when it could
// not be determined
func (p *Project) CoverageText(format, unknown string) string {
	if p.Coverage == nil {
		return unknown
	}
	return fmt.Sprintf(format, *p.Coverage)
}
