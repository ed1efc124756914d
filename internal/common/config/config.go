package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidBackend    = errors.New("invalid cache backend: must be 'sqlite', 'json' or 'memory'")
	ErrInvalidJenkinsJob = errors.New("invalid jenkins job")
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

const (
	// DefaultFooter is shown at the bottom of the HTML page
	DefaultFooter = `Generated by <a href="https://github.com/obentoo/project-summary">project-summary</a>.`
	// DefaultCachePath is the HTTP cache database name; the backend adds its extension
	DefaultCachePath = ".httpcache"
	// DefaultCacheDuration is how long HTTP responses stay fresh
	DefaultCacheDuration = "15m"
	// DefaultStaleAfterDays marks a release as stale when changes are pending
	DefaultStaleAfterDays = 180
)

// DefaultPythonVersions are the columns of the Python versions page
var DefaultPythonVersions = []string{"2.7", "3.6", "3.7", "3.8", "3.9", "PyPy"}

// Config represents the application configuration
type Config struct {
	Projects        StringList        `yaml:"projects"`
	Ignore          StringList        `yaml:"ignore"`
	SkipBranches    bool              `yaml:"skip-branches"`
	Fetch           bool              `yaml:"fetch"`
	Pull            bool              `yaml:"pull"`
	AppveyorAccount string            `yaml:"appveyor-account,omitempty"`
	JenkinsURL      string            `yaml:"jenkins-url,omitempty"`
	JenkinsJobs     []JenkinsJob      `yaml:"jenkins-jobs,omitempty"`
	Footer          string            `yaml:"footer,omitempty"`
	PyPINameMap     map[string]string `yaml:"pypi-name-map,omitempty"`
	PythonVersions  StringList        `yaml:"python-versions,omitempty"`
	StaleAfterDays  int               `yaml:"stale-after-days,omitempty"`
	GitHub          TokenConfig       `yaml:"github,omitempty"`
	GitLab          TokenConfig       `yaml:"gitlab,omitempty"`
	Cache           CacheConfig       `yaml:"cache,omitempty"`
	LogFile         string            `yaml:"log-file,omitempty"`
}

// TokenConfig holds hosting API credentials
type TokenConfig struct {
	Token string `yaml:"token,omitempty"` // Personal access token for higher rate limits
}

// CacheConfig holds HTTP cache settings
type CacheConfig struct {
	Path     string `yaml:"path,omitempty"`
	Backend  string `yaml:"backend,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// JenkinsJob describes one Jenkins column. NameTemplate contains {name},
// which is replaced by the project's job name.
type JenkinsJob struct {
	NameTemplate string `yaml:"name"`
	Title        string `yaml:"title,omitempty"`
}

// UnmarshalYAML accepts either a mapping or the short form
// "<template> [title]" on a single line.
func (j *JenkinsJob) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		fields := strings.Fields(node.Value)
		if len(fields) == 0 {
			return fmt.Errorf("%w: empty entry", ErrInvalidJenkinsJob)
		}
		j.NameTemplate = fields[0]
		j.Title = strings.Join(fields[1:], " ")
		return nil
	}
	type plain JenkinsJob
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.NameTemplate == "" {
		p.NameTemplate = "{name}"
	}
	*j = JenkinsJob(p)
	return nil
}

// JobName expands the template for a project
func (j JenkinsJob) JobName(project string) string {
	return strings.ReplaceAll(j.NameTemplate, "{name}", project)
}

// StringList is a list of strings that may also be written as one
// whitespace-separated string
type StringList []string

// UnmarshalYAML accepts a sequence or a whitespace-separated scalar
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = strings.Fields(node.Value)
		return nil
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*s = items
	return nil
}

// Defaults returns a configuration with every default applied
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in unset values and normalizes the rest
func (c *Config) applyDefaults() {
	c.JenkinsURL = strings.TrimRight(c.JenkinsURL, "/")
	if c.JenkinsURL != "" && len(c.JenkinsJobs) == 0 {
		c.JenkinsJobs = []JenkinsJob{{NameTemplate: "{name}"}}
	}
	if c.JenkinsURL == "" {
		c.JenkinsJobs = nil
	}
	if c.Footer == "" {
		c.Footer = DefaultFooter
	}
	if len(c.PythonVersions) == 0 {
		c.PythonVersions = append(StringList(nil), DefaultPythonVersions...)
	}
	if c.PyPINameMap == nil {
		c.PyPINameMap = map[string]string{}
	}
	if c.StaleAfterDays <= 0 {
		c.StaleAfterDays = DefaultStaleAfterDays
	}
	if c.Cache.Path == "" {
		c.Cache.Path = DefaultCachePath
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "sqlite"
	}
	if c.Cache.Duration == "" {
		c.Cache.Duration = DefaultCacheDuration
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "sqlite", "json", "memory":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidBackend, c.Cache.Backend)
	}
	for i, job := range c.JenkinsJobs {
		if job.NameTemplate == "" {
			return fmt.Errorf("%w: entry %d has no name template", ErrInvalidJenkinsJob, i+1)
		}
	}
	return nil
}

// PyPIName returns the package name on PyPI for a project
func (c *Config) PyPIName(project string) string {
	if name, ok := c.PyPINameMap[project]; ok && name != "" {
		return name
	}
	return project
}

// IsIgnored reports whether a project name is listed in ignore
func (c *Config) IsIgnored(name string) bool {
	for _, ignored := range c.Ignore {
		if ignored == name {
			return true
		}
	}
	return false
}

// envVarPattern matches ${VAR_NAME} syntax for environment variable substitution
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// SubstituteEnvVars replaces ${VAR_NAME} patterns in a string with
// the corresponding environment variable values.
func SubstituteEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// GitHubToken returns the configured GitHub token, falling back to GITHUB_TOKEN
func (c *Config) GitHubToken() string {
	if token := SubstituteEnvVars(c.GitHub.Token); token != "" {
		return token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// GitLabToken returns the configured GitLab token, falling back to GITLAB_TOKEN
func (c *Config) GitLabToken() string {
	if token := SubstituteEnvVars(c.GitLab.Token); token != "" {
		return token
	}
	return os.Getenv("GITLAB_TOKEN")
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ./project-summary.yaml, .yml, .toml (next to the report)
// 2. ~/.config/project-summary/config.yaml (XDG standard)
func ConfigPaths() ([]string, error) {
	paths := []string{
		"project-summary.yaml",
		"project-summary.yml",
		"project-summary.toml",
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return paths, nil
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return append(paths, filepath.Join(xdgConfig, "project-summary", "config.yaml")), nil
}

// FindConfigPath returns the first existing config file path, or "" when
// there is none
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// Load reads the explicit config file when given, otherwise the first one
// found by FindConfigPath. No config file at all yields the defaults.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		return LoadFrom(explicit)
	}
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return Defaults(), nil
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, err
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// formatOf picks the parser from the file extension
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// Parse decodes configuration in the given format ("yaml" or "toml").
// Keys may use dashes or underscores.
func Parse(data []byte, format string) (*Config, error) {
	var raw map[string]interface{}
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	// Re-encode with normalized keys so one set of struct tags serves both
	// formats and both spellings
	normalized, err := yaml.Marshal(normalizeKeys(raw))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(normalized, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeKeys rewrites underscores in mapping keys to dashes, recursively.
// Values of pypi-name-map are project names and stay untouched.
func normalizeKeys(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for key, item := range value {
			key = strings.ReplaceAll(key, "_", "-")
			if key == "pypi-name-map" {
				out[key] = item
				continue
			}
			out[key] = normalizeKeys(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = normalizeKeys(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = normalizeKeys(item)
		}
		return out
	default:
		return v
	}
}

// SaveTo writes configuration to a specific file path as YAML
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
