package git

// MockGitRunner implements GitExecutor for testing.
// Each method can be configured with a custom function to control behavior.
type MockGitRunner struct {
	RemoteURLFunc      func(remote string) (string, error)
	BranchNameFunc     func() (string, error)
	LastTagFunc        func() (string, error)
	TagsFunc           func() ([]string, error)
	TagDateFunc        func(tag string) (string, error)
	PendingCommitsFunc func(tag, branch string) ([]string, error)
	StatusFunc         func() ([]StatusEntry, error)
	FetchFunc          func() error
	PullFunc           func() error
	workDir            string
}

// NewMockGitRunner creates a new MockGitRunner with the specified working directory
func NewMockGitRunner(workDir string) *MockGitRunner {
	return &MockGitRunner{
		workDir: workDir,
	}
}

func (m *MockGitRunner) RemoteURL(remote string) (string, error) {
	if m.RemoteURLFunc != nil {
		return m.RemoteURLFunc(remote)
	}
	return "", nil
}

// BranchName defaults to master
func (m *MockGitRunner) BranchName() (string, error) {
	if m.BranchNameFunc != nil {
		return m.BranchNameFunc()
	}
	return "master", nil
}

// LastTag defaults to ErrNoTag
func (m *MockGitRunner) LastTag() (string, error) {
	if m.LastTagFunc != nil {
		return m.LastTagFunc()
	}
	return "", ErrNoTag
}

func (m *MockGitRunner) Tags() ([]string, error) {
	if m.TagsFunc != nil {
		return m.TagsFunc()
	}
	return nil, nil
}

func (m *MockGitRunner) TagDate(tag string) (string, error) {
	if m.TagDateFunc != nil {
		return m.TagDateFunc(tag)
	}
	return "", nil
}

func (m *MockGitRunner) PendingCommits(tag, branch string) ([]string, error) {
	if m.PendingCommitsFunc != nil {
		return m.PendingCommitsFunc(tag, branch)
	}
	return nil, nil
}

func (m *MockGitRunner) Status() ([]StatusEntry, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	return nil, nil
}

func (m *MockGitRunner) Fetch() error {
	if m.FetchFunc != nil {
		return m.FetchFunc()
	}
	return nil
}

func (m *MockGitRunner) Pull() error {
	if m.PullFunc != nil {
		return m.PullFunc()
	}
	return nil
}

// WorkDir returns the working directory of the git repository
func (m *MockGitRunner) WorkDir() string {
	return m.workDir
}

// Ensure MockGitRunner implements GitExecutor interface
var _ GitExecutor = (*MockGitRunner)(nil)
