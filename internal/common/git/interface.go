package git

// GitExecutor defines the interface for git operations on a checkout.
// This interface allows for mocking git operations in tests.
type GitExecutor interface {
	// RemoteURL returns the URL of a remote, or "" when there is none
	RemoteURL(remote string) (string, error)

	// BranchName returns the checked out branch, resolving detached heads
	BranchName() (string, error)

	// LastTag returns the most recent tag reachable from HEAD, or ErrNoTag
	LastTag() (string, error)

	// Tags lists every tag in the repository
	Tags() ([]string, error)

	// TagDate returns the commit date of a tag in %ai format
	TagDate(tag string) (string, error)

	// PendingCommits lists commits on origin/<branch> since the tag
	PendingCommits(tag, branch string) ([]string, error)

	// Status returns the current git status as a list of StatusEntry
	Status() ([]StatusEntry, error)

	// Fetch fetches changes from origin, pruning deleted branches
	Fetch() error

	// Pull pulls changes from origin, pruning deleted branches
	Pull() error

	// WorkDir returns the working directory of the git repository
	WorkDir() string
}
