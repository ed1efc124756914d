package provider

import (
	"github.com/obentoo/project-summary/internal/common/github"
	"github.com/obentoo/project-summary/internal/common/httpclient"
)

// Tokens holds the credentials for each hosting service
type Tokens struct {
	GitHub string
	GitLab string
}

// Registry picks the provider responsible for a project URL
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry that tries providers in order
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// DefaultRegistry creates the GitHub and gitlab.com providers sharing one
// HTTP client
func DefaultRegistry(doer httpclient.Doer, tokens Tokens) *Registry {
	return NewRegistry(
		NewGitHubProvider(github.NewClient(doer, tokens.GitHub)),
		NewGitLabProvider("https://gitlab.com", tokens.GitLab, doer),
	)
}

// ForURL returns the provider hosting url, or nil when none does
func (r *Registry) ForURL(url string) Provider {
	if r == nil || url == "" {
		return nil
	}
	for _, p := range r.providers {
		if p.Matches(url) {
			return p
		}
	}
	return nil
}

// Providers returns the registered providers
func (r *Registry) Providers() []Provider {
	return r.providers
}
