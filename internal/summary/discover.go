package summary

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/obentoo/project-summary/internal/common/config"
)

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// isCheckout reports whether dir is a git working tree. Worktrees and
// submodules have a .git file instead of a directory.
func isCheckout(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Discover expands the configured project globs into the sorted list of
// git checkouts they match
func Discover(cfg *config.Config) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range cfg.Projects {
		matches, err := filepath.Glob(expandHome(pattern))
		if err != nil {
			return nil, err
		}
		for _, dir := range matches {
			dir = filepath.Clean(dir)
			if seen[dir] || !isCheckout(dir) {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
