package provider

import (
	"testing"
)

func TestRegistryForURL(t *testing.T) {
	registry := DefaultRegistry(nil, Tokens{GitHub: "gh", GitLab: "gl"})

	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/mgedmin/zodbbrowser", "GitHub"},
		{"https://gitlab.com/group/project", "GitLab"},
		{"https://bitbucket.org/someone/thing", ""},
		{"/srv/git/local.git", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p := registry.ForURL(tt.url)
			got := ""
			if p != nil {
				got = p.Name()
			}
			if got != tt.want {
				t.Errorf("ForURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestDefaultRegistryTokens(t *testing.T) {
	registry := DefaultRegistry(nil, Tokens{GitHub: "gh", GitLab: "gl"})
	providers := registry.Providers()
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if gh := providers[0].(*GitHubProvider); gh.Client.Token != "gh" {
		t.Errorf("GitHub token = %q", gh.Client.Token)
	}
	if gl := providers[1].(*GitLabProvider); gl.Token != "gl" {
		t.Errorf("GitLab token = %q", gl.Token)
	}
}

func TestNilRegistry(t *testing.T) {
	var registry *Registry
	if registry.ForURL("https://github.com/a/b") != nil {
		t.Error("nil registry should match nothing")
	}
}
