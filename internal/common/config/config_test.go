package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if len(cfg.Projects) != 0 {
		t.Errorf("expected no projects, got %v", cfg.Projects)
	}
	if len(cfg.Ignore) != 0 {
		t.Errorf("expected no ignored projects, got %v", cfg.Ignore)
	}
	if cfg.SkipBranches || cfg.Fetch || cfg.Pull {
		t.Error("skip-branches, fetch and pull should default to false")
	}
	if cfg.AppveyorAccount != "" || cfg.JenkinsURL != "" {
		t.Error("CI accounts should default to empty")
	}
	if len(cfg.JenkinsJobs) != 0 {
		t.Errorf("expected no jenkins jobs without jenkins-url, got %v", cfg.JenkinsJobs)
	}
	if cfg.Footer != DefaultFooter {
		t.Errorf("unexpected footer %q", cfg.Footer)
	}
	if len(cfg.PyPINameMap) != 0 {
		t.Errorf("expected empty pypi-name-map, got %v", cfg.PyPINameMap)
	}
	if !reflect.DeepEqual([]string(cfg.PythonVersions), DefaultPythonVersions) {
		t.Errorf("unexpected python versions %v", cfg.PythonVersions)
	}
	if cfg.Cache.Path != ".httpcache" || cfg.Cache.Backend != "sqlite" || cfg.Cache.Duration != "15m" {
		t.Errorf("unexpected cache defaults %+v", cfg.Cache)
	}
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadProjects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "sequence",
			content: "projects:\n  - foo\n  - bar\n",
			want:    []string{"foo", "bar"},
		},
		{
			name:    "whitespace separated",
			content: "projects: |\n  foo\n  bar\n",
			want:    []string{"foo", "bar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(writeConfig(t, "ps.yaml", tt.content))
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if !reflect.DeepEqual([]string(cfg.Projects), tt.want) {
				t.Errorf("projects = %v, want %v", cfg.Projects, tt.want)
			}
		})
	}
}

func TestLoadIgnore(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "ps.yaml", "ignore: [foo, bar]\n"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !cfg.IsIgnored("foo") || !cfg.IsIgnored("bar") || cfg.IsIgnored("baz") {
		t.Errorf("unexpected ignore list %v", cfg.Ignore)
	}
}

func TestJenkinsURLStripsTrailingSlash(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "ps.yaml", "jenkins-url: https://jenkins.example.com/\n"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.JenkinsURL != "https://jenkins.example.com" {
		t.Errorf("JenkinsURL = %q", cfg.JenkinsURL)
	}
	want := []JenkinsJob{{NameTemplate: "{name}"}}
	if !reflect.DeepEqual(cfg.JenkinsJobs, want) {
		t.Errorf("JenkinsJobs = %v, want %v", cfg.JenkinsJobs, want)
	}
}

func TestJenkinsJobs(t *testing.T) {
	content := `jenkins-url: https://jenkins.example.com/
jenkins-jobs:
  - "{name}-on-linux    Linux"
  - name: "{name}-on-windows"
    title: Windows
`
	cfg, err := LoadFrom(writeConfig(t, "ps.yaml", content))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	want := []JenkinsJob{
		{NameTemplate: "{name}-on-linux", Title: "Linux"},
		{NameTemplate: "{name}-on-windows", Title: "Windows"},
	}
	if !reflect.DeepEqual(cfg.JenkinsJobs, want) {
		t.Errorf("JenkinsJobs = %v, want %v", cfg.JenkinsJobs, want)
	}
	if got := cfg.JenkinsJobs[0].JobName("zodbbrowser"); got != "zodbbrowser-on-linux" {
		t.Errorf("JobName() = %q", got)
	}
}

func TestPyPINameMap(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "ps.yaml", "pypi-name-map:\n  foo: bar\n"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.PyPIName("foo") != "bar" {
		t.Errorf("PyPIName(foo) = %q", cfg.PyPIName("foo"))
	}
	if cfg.PyPIName("baz") != "baz" {
		t.Errorf("PyPIName(baz) = %q", cfg.PyPIName("baz"))
	}
}

func TestAllowsUnderscoresOrDashes(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "ps.yaml", "pypi_name-map:\n  foo_x: bar\nskip_branches: true\n"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.PyPIName("foo_x") != "bar" {
		t.Errorf("pypi-name-map keys must be kept verbatim, got %v", cfg.PyPINameMap)
	}
	if !cfg.SkipBranches {
		t.Error("skip_branches should be accepted as skip-branches")
	}
}

func TestLoadTOML(t *testing.T) {
	content := `projects = ["~/src/*"]
fetch = true
appveyor_account = "mgedmin"

[cache]
backend = "json"
duration = "1 hour"

[[jenkins-jobs]]
name = "{name}-py3"
title = "Py3"
`
	cfg, err := LoadFrom(writeConfig(t, "project-summary.toml", content))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !cfg.Fetch || cfg.AppveyorAccount != "mgedmin" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Cache.Backend != "json" || cfg.Cache.Duration != "1 hour" {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}
	// No jenkins-url, so job definitions are dropped
	if len(cfg.JenkinsJobs) != 0 {
		t.Errorf("expected no jobs without jenkins-url, got %v", cfg.JenkinsJobs)
	}
}

func TestInvalidBackend(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "ps.yaml", "cache:\n  backend: redis\n"))
	if !errors.Is(err, ErrInvalidBackend) {
		t.Errorf("expected ErrInvalidBackend, got %v", err)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("x"), "ini")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestTokens(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "from-env")
	t.Setenv("MY_GITLAB", "gl-secret")

	cfg := Defaults()
	if cfg.GitHubToken() != "from-env" {
		t.Errorf("GitHubToken() = %q", cfg.GitHubToken())
	}
	cfg.GitHub.Token = "explicit"
	if cfg.GitHubToken() != "explicit" {
		t.Errorf("GitHubToken() = %q", cfg.GitHubToken())
	}
	cfg.GitLab.Token = "${MY_GITLAB}"
	if cfg.GitLabToken() != "gl-secret" {
		t.Errorf("GitLabToken() = %q", cfg.GitLabToken())
	}
}

func TestLoadExplicitPath(t *testing.T) {
	path := writeConfig(t, "custom.yaml", "pull: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Pull {
		t.Error("expected pull from explicit config")
	}
}

// genProjectName generates directory-like project names
func genProjectName() gopter.Gen {
	return gen.RegexMatch(`^[a-z][a-z0-9-]{0,15}$`)
}

func TestConfigRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("Config YAML round-trip preserves data", prop.ForAll(
		func(projects []string, ignored string, fetch bool) bool {
			cfg := Defaults()
			cfg.Projects = StringList(projects)
			cfg.Ignore = StringList{ignored}
			cfg.Fetch = fetch
			cfg.JenkinsURL = "https://ci.example.com"
			cfg.JenkinsJobs = []JenkinsJob{{NameTemplate: "{name}-linux", Title: "Linux"}}

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := cfg.SaveTo(path); err != nil {
				t.Logf("Failed to save config: %v", err)
				return false
			}
			loaded, err := LoadFrom(path)
			if err != nil {
				t.Logf("Failed to load config: %v", err)
				return false
			}
			if len(cfg.Projects) == 0 {
				// An empty list is written as [] and read back as empty
				cfg.Projects = loaded.Projects
			}
			return reflect.DeepEqual(cfg, loaded)
		},
		gen.SliceOf(genProjectName()),
		genProjectName(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
