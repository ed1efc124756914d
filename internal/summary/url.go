package summary

import "strings"

// hostPrefixes maps the clone URL spellings of a hosting service to its web
// URL prefix
var hostPrefixes = []struct {
	web     string
	aliases []string
}{
	{"https://github.com/", []string{"git://github.com/", "git@github.com:", "ssh://git@github.com/"}},
	{"https://gitlab.com/", []string{"git://gitlab.com/", "git@gitlab.com:", "ssh://git@gitlab.com/"}},
}

// NormalizeURL turns a git remote URL into the project's web URL. Only
// GitHub and gitlab.com remotes are rewritten; others are returned as is.
func NormalizeURL(url string) string {
	for _, host := range hostPrefixes {
		for _, alias := range host.aliases {
			if strings.HasPrefix(url, alias) {
				url = host.web + url[len(alias):]
				break
			}
		}
		if strings.HasPrefix(url, host.web) {
			return strings.TrimSuffix(url, ".git")
		}
	}
	return url
}

// Owner returns the namespace of a project URL. On GitHub and gitlab.com
// that is the whole path before the last component, so GitLab subgroups
// give "group/subgroup". Elsewhere it is the second to last component.
func Owner(url string) string {
	url = strings.TrimRight(url, "/")
	for _, host := range hostPrefixes {
		if path, ok := strings.CutPrefix(url, host.web); ok {
			if i := strings.LastIndex(path, "/"); i > 0 {
				return path[:i]
			}
			return ""
		}
	}
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// Name returns the last path component of a project URL
func Name(url string) string {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	return parts[len(parts)-1]
}

// IsGitHub reports whether url points to github.com
func IsGitHub(url string) bool {
	return strings.HasPrefix(url, "https://github.com/")
}
