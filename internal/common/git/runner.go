package git

import (
	"bytes"
	"errors"
	"os/exec"
	"sort"
	"strings"

	"github.com/obentoo/project-summary/internal/common/logger"
)

var (
	ErrGitCommand = errors.New("git command failed")
	ErrNoTag      = errors.New("no tags found")
)

// DetachedBranch is reported when HEAD matches no branch at all
const DetachedBranch = "(detached)"

// GitRunner executes git commands in a specific working directory
type GitRunner struct {
	workDir string
}

// NewGitRunner creates a new GitRunner for the specified working directory
func NewGitRunner(workDir string) *GitRunner {
	return &GitRunner{
		workDir: workDir,
	}
}

// WorkDir returns the working directory of the GitRunner
func (g *GitRunner) WorkDir() string {
	return g.workDir
}

// FormatCommand renders a git invocation the way a user would type it
func FormatCommand(dir string, args ...string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "git")
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'$*?") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		quoted = append(quoted, arg)
	}
	cmd := strings.Join(quoted, " ")
	if dir == "" {
		return cmd
	}
	return "cd " + dir + " && " + cmd
}

// runCommand executes a git command and returns stdout, stderr, and any error
func (g *GitRunner) runCommand(args ...string) (stdout, stderr string, err error) {
	logger.Debug("%s", FormatCommand(g.workDir, args...))

	cmd := exec.Command("git", args...)
	cmd.Dir = g.workDir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		// Wrap the error with stderr for context
		if msg := strings.TrimSpace(stderr); msg != "" {
			err = errors.Join(ErrGitCommand, errors.New(msg))
		} else {
			err = errors.Join(ErrGitCommand, err)
		}
	}

	return stdout, stderr, err
}

// lines splits command output into non-empty trimmed lines
func lines(output string) []string {
	var result []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}

// RemoteURL returns the URL of the named remote. Git echoes the remote name
// back when no such remote exists; that case, like a directory that is not a
// repository, yields "".
func (g *GitRunner) RemoteURL(remote string) (string, error) {
	stdout, _, err := g.runCommand("ls-remote", "--get-url", remote)
	if err != nil {
		return "", nil
	}
	url := strings.TrimSpace(stdout)
	if url == remote {
		return "", nil
	}
	return url, nil
}

// BranchName returns the current branch. For a detached HEAD it looks for a
// local or remote branch pointing at the same commit, then for a remote
// branch containing it.
func (g *GitRunner) BranchName() (string, error) {
	stdout, _, err := g.runCommand("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch := strings.TrimSpace(stdout); branch != "HEAD" {
		return branch, nil
	}

	head, _, err := g.runCommand("rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	commit := strings.TrimSpace(head)

	// show-ref exits non-zero in a repository without refs
	refs, _, _ := g.runCommand("show-ref")
	if name := branchFromRefs(refs, commit); name != "" {
		return name, nil
	}

	containing, _, err := g.runCommand("branch", "-r", "--contains", "HEAD")
	if err == nil {
		if name := branchFromContains(containing); name != "" {
			return name, nil
		}
	}
	return DetachedBranch, nil
}

// branchFromRefs finds a branch name in show-ref output for a commit
func branchFromRefs(output, commit string) string {
	for _, line := range lines(output) {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] != commit {
			continue
		}
		name := strings.TrimPrefix(fields[1], "refs/")
		if strings.HasPrefix(name, "tags/") {
			continue
		}
		name = strings.TrimPrefix(name, "heads/")
		name = strings.TrimPrefix(name, "remotes/")
		name = strings.TrimPrefix(name, "origin/")
		if name == "HEAD" {
			continue
		}
		return name
	}
	return ""
}

// branchFromContains picks a branch from `git branch -r --contains` output
func branchFromContains(output string) string {
	for _, line := range lines(output) {
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if strings.Contains(line, "HEAD detached at") || strings.Contains(line, "->") {
			continue
		}
		return strings.TrimPrefix(line, "origin/")
	}
	return ""
}

// LastTag returns the most recent tag reachable from HEAD, or ErrNoTag when
// describe finds none
func (g *GitRunner) LastTag() (string, error) {
	stdout, _, err := g.runCommand("describe", "--tags", "--abbrev=0")
	if err != nil {
		return "", errors.Join(ErrNoTag, err)
	}
	tag := strings.TrimSpace(stdout)
	if tag == "" {
		return "", ErrNoTag
	}
	return tag, nil
}

// Tags lists every tag in the repository, sorted by name
func (g *GitRunner) Tags() ([]string, error) {
	stdout, _, err := g.runCommand("tag", "--list")
	if err != nil {
		return nil, err
	}
	tags := lines(stdout)
	sort.Strings(tags)
	return tags, nil
}

// TagDate returns the commit date of a tag, e.g. "2016-02-13 15:34:21 +0200"
func (g *GitRunner) TagDate(tag string) (string, error) {
	stdout, _, err := g.runCommand("log", "-1", "--format=%ai", tag, "--")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout), nil
}

// PendingCommits returns one-line summaries of the commits on origin/<branch>
// that are not in the tag
func (g *GitRunner) PendingCommits(tag, branch string) ([]string, error) {
	stdout, _, err := g.runCommand("log", "--oneline", tag+"..origin/"+branch, "--")
	if err != nil {
		return nil, err
	}
	return lines(stdout), nil
}

// StatusEntry represents a single entry from git status --porcelain
type StatusEntry struct {
	Status   string // A, M, D, R, ??
	FilePath string
}

// Status returns the current git status as a list of StatusEntry
func (g *GitRunner) Status() ([]StatusEntry, error) {
	stdout, _, err := g.runCommand("status", "--porcelain")
	if err != nil {
		return nil, err
	}

	return ParseStatusOutput(stdout), nil
}

// ParseStatusOutput parses git status --porcelain output into StatusEntry slice
func ParseStatusOutput(output string) []StatusEntry {
	var entries []StatusEntry

	for _, line := range strings.Split(output, "\n") {
		if len(line) < 3 {
			continue
		}

		// Git status --porcelain format: XY filename
		status := strings.TrimSpace(line[:2])
		filePath := line[3:]

		// Handle renamed files: R  old -> new
		if strings.HasPrefix(status, "R") {
			parts := strings.Split(filePath, " -> ")
			if len(parts) == 2 {
				filePath = parts[1]
			}
		}

		entries = append(entries, StatusEntry{
			Status:   status,
			FilePath: filePath,
		})
	}

	return entries
}

// Fetch fetches changes from origin
func (g *GitRunner) Fetch() error {
	_, _, err := g.runCommand("fetch", "--prune")
	return err
}

// Pull pulls changes from origin
func (g *GitRunner) Pull() error {
	_, _, err := g.runCommand("pull", "--prune")
	return err
}

var _ GitExecutor = (*GitRunner)(nil)
