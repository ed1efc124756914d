package summary

import (
	"testing"

	"github.com/obentoo/project-summary/internal/common/config"
)

func newGitHubProject(t *testing.T) *Project {
	t.Helper()
	cfg := config.Defaults()
	cfg.AppveyorAccount = "mg"
	cfg.JenkinsURL = "https://jenkins.example.com"
	cfg.PyPINameMap = map[string]string{"zodbbrowser": "ZODBBrowser"}
	p := NewProject("/src/zodbbrowser", "git@github.com:mgedmin/zodbbrowser.git", cfg)
	p.Branch = "master"
	p.LastTag = "0.17.1"
	return p
}

func TestNewProject(t *testing.T) {
	p := newGitHubProject(t)
	if p.URL != "https://github.com/mgedmin/zodbbrowser" {
		t.Errorf("URL = %q", p.URL)
	}
	if p.Owner != "mgedmin" || p.Name != "zodbbrowser" {
		t.Errorf("Owner, Name = %q, %q", p.Owner, p.Name)
	}
	if p.PyPIName != "ZODBBrowser" {
		t.Errorf("PyPIName = %q", p.PyPIName)
	}
}

func TestNewProjectWithoutRemote(t *testing.T) {
	p := NewProject("/src/scratch", "", config.Defaults())
	if p.Name != "scratch" || p.Owner != "" {
		t.Errorf("Name, Owner = %q, %q", p.Name, p.Owner)
	}
	if p.CompareURL() != "" {
		t.Errorf("CompareURL() = %q, want empty", p.CompareURL())
	}
}

func TestProjectURLs(t *testing.T) {
	p := newGitHubProject(t)
	p.UsesTravis = true
	p.UsesAppveyor = true
	p.ActionsWorkflow = "build.yml"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"compare", p.CompareURL(), "https://github.com/mgedmin/zodbbrowser/compare/0.17.1...master"},
		{"pypi", p.PyPIURL(), "https://pypi.org/project/ZODBBrowser/"},
		{"pypistats", p.PyPIStatsURL(), "https://pypistats.org/packages/ZODBBrowser"},
		{"pypistats api", p.PyPIStatsAPIURL(), "https://pypistats.org/api/packages/ZODBBrowser/recent"},
		{"travis image", p.TravisImageURL(), "https://api.travis-ci.org/mgedmin/zodbbrowser.svg?branch=master"},
		{"travis", p.TravisURL(), "https://travis-ci.org/mgedmin/zodbbrowser"},
		{"appveyor image", p.AppveyorImageURL(), "https://ci.appveyor.com/api/projects/status/github/mgedmin/zodbbrowser?branch=master&svg=true"},
		{"appveyor", p.AppveyorURL(), "https://ci.appveyor.com/project/mg/zodbbrowser/branch/master"},
		{"actions image", p.ActionsImageURL(), "https://github.com/mgedmin/zodbbrowser/actions/workflows/build.yml/badge.svg?branch=master"},
		{"actions", p.ActionsURL(), "https://github.com/mgedmin/zodbbrowser/actions/workflows/build.yml"},
		{"coveralls image", p.CoverallsImageURL(), "https://coveralls.io/repos/mgedmin/zodbbrowser/badge.svg?branch=master"},
		{"coveralls", p.CoverallsURL(), "https://coveralls.io/r/mgedmin/zodbbrowser?branch=master"},
		{"jenkins image", p.JenkinsImageURL(config.JenkinsJob{NameTemplate: "{name}-py3"}), "https://jenkins.example.com/job/zodbbrowser-py3/badge/icon"},
		{"jenkins", p.JenkinsURL(config.JenkinsJob{NameTemplate: "{name}"}), "https://jenkins.example.com/job/zodbbrowser/"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s URL = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestProjectURLsWithoutServices(t *testing.T) {
	p := NewProject("/src/foo", "https://example.com/foo.git", config.Defaults())
	for name, got := range map[string]string{
		"compare":   p.CompareURL(),
		"travis":    p.TravisURL(),
		"appveyor":  p.AppveyorURL(),
		"actions":   p.ActionsURL(),
		"coveralls": p.CoverallsURL(),
		"jenkins":   p.JenkinsURL(config.JenkinsJob{NameTemplate: "{name}"}),
	} {
		if got != "" {
			t.Errorf("%s URL = %q, want empty", name, got)
		}
	}
}

func TestGitLabCompareURL(t *testing.T) {
	p := NewProject("/src/bentoo", "git@gitlab.com:obentoo/bentoo.git", config.Defaults())
	p.LastTag, p.Branch = "v1.0", "main"
	if got := p.CompareURL(); got != "https://gitlab.com/obentoo/bentoo/-/compare/v1.0...main" {
		t.Errorf("CompareURL() = %q", got)
	}
	if p.Owner != "obentoo" {
		t.Errorf("Owner = %q", p.Owner)
	}
}

func TestGitLabSubgroupProject(t *testing.T) {
	p := NewProject("/src/overlay", "git@gitlab.com:obentoo/gentoo/overlay.git", config.Defaults())
	if p.Owner != "obentoo/gentoo" || p.Name != "overlay" {
		t.Errorf("Owner, Name = %q, %q", p.Owner, p.Name)
	}
}

func TestJenkinsJob(t *testing.T) {
	tests := []struct {
		tree string
		want string
	}{
		{"/src/zodbbrowser", "zodbbrowser"},
		{"/var/lib/jenkins/jobs/zodbbrowser/workspace", "zodbbrowser"},
	}
	for _, tt := range tests {
		p := &Project{WorkingTree: tt.tree}
		if got := p.JenkinsJob(); got != tt.want {
			t.Errorf("JenkinsJob(%q) = %q, want %q", tt.tree, got, tt.want)
		}
	}
}

func TestCoverageText(t *testing.T) {
	p := &Project{}
	if got := p.CoverageText("%d%%", "unknown"); got != "unknown" {
		t.Errorf("CoverageText() = %q", got)
	}
	n := 90
	p.Coverage = &n
	if got := p.CoverageText("%d%%", "unknown"); got != "90%" {
		t.Errorf("CoverageText() = %q", got)
	}
}

func TestSupportsPython(t *testing.T) {
	p := &Project{PythonVersions: []string{"3.6", "3.7"}}
	if !p.SupportsPython("3.6") || p.SupportsPython("3.5") {
		t.Errorf("SupportsPython mismatch for %v", p.PythonVersions)
	}
}
