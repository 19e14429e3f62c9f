package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCommit is a commit on the simulated remote
type MockCommit struct {
	Hash    string
	Subject string
}

// GitOperation tracks source operations performed
type GitOperation struct {
	Type      string // "clone", "fetch", "hashes", "subjects"
	Arguments []string
	Timestamp time.Time
}

// MockCommitSource simulates a remote branch and a shallow local clone of it.
// It satisfies git.CommitSource.
type MockCommitSource struct {
	mu sync.Mutex

	// Remote history, oldest first
	remote []MockCommit
	// Index of the oldest remote commit present locally, fixed at clone time
	boundary int
	// Local view of origin/<branch>, oldest first
	local  []MockCommit
	cloned bool

	// HistoryLimit truncates history queries to the newest N entries when set
	HistoryLimit int
	// DropSubjects removes N subjects from subject queries
	DropSubjects int

	// Error simulation
	CloneError    error
	FetchError    error
	HashesError   error
	SubjectsError error

	// Operation tracking
	Operations []GitOperation
}

// NewMockCommitSource creates a source whose remote holds commits, oldest first
func NewMockCommitSource(commits ...MockCommit) *MockCommitSource {
	return &MockCommitSource{remote: append([]MockCommit(nil), commits...)}
}

// Push appends commits to the remote branch
func (m *MockCommitSource) Push(commits ...MockCommit) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remote = append(m.remote, commits...)
}

// PushN appends n generated commits named after prefix and returns them
func (m *MockCommitSource) PushN(prefix string, n int) []MockCommit {
	m.mu.Lock()
	defer m.mu.Unlock()

	commits := make([]MockCommit, n)
	for i := range commits {
		idx := len(m.remote) + i + 1
		commits[i] = MockCommit{
			Hash:    fmt.Sprintf("%s%d", prefix, idx),
			Subject: fmt.Sprintf("%s commit %d", prefix, idx),
		}
	}
	m.remote = append(m.remote, commits...)
	return commits
}

// Clone simulates a shallow clone keeping the newest depth commits
func (m *MockCommitSource) Clone(ctx context.Context, remote, branch, dest string, depth int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordOperation("clone", []string{remote, branch, dest, fmt.Sprint(depth)})

	if m.CloneError != nil {
		return m.CloneError
	}

	m.boundary = 0
	if depth > 0 && depth < len(m.remote) {
		m.boundary = len(m.remote) - depth
	}
	m.local = append([]MockCommit(nil), m.remote[m.boundary:]...)
	m.cloned = true
	return nil
}

// Fetch brings the local view up to date without deepening it
func (m *MockCommitSource) Fetch(ctx context.Context, localPath, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordOperation("fetch", []string{localPath, branch})

	if m.FetchError != nil {
		return m.FetchError
	}
	if !m.cloned {
		return fmt.Errorf("not a git repository: %s", localPath)
	}

	m.local = append([]MockCommit(nil), m.remote[m.boundary:]...)
	return nil
}

// ListHashes returns local hashes, newest first
func (m *MockCommitSource) ListHashes(ctx context.Context, localPath, branch string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordOperation("hashes", []string{localPath, branch})

	if m.HashesError != nil {
		return nil, m.HashesError
	}

	var hashes []string
	for _, c := range m.newestFirst() {
		hashes = append(hashes, c.Hash)
	}
	return hashes, nil
}

// ListSubjects returns local subjects, newest first
func (m *MockCommitSource) ListSubjects(ctx context.Context, localPath, branch string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordOperation("subjects", []string{localPath, branch})

	if m.SubjectsError != nil {
		return nil, m.SubjectsError
	}

	var subjects []string
	for _, c := range m.newestFirst() {
		subjects = append(subjects, c.Subject)
	}
	if m.DropSubjects > 0 && m.DropSubjects <= len(subjects) {
		subjects = subjects[:len(subjects)-m.DropSubjects]
	}
	return subjects, nil
}

// OperationCount returns how many operations of a type were performed
func (m *MockCommitSource) OperationCount(opType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, op := range m.Operations {
		if op.Type == opType {
			count++
		}
	}
	return count
}

func (m *MockCommitSource) newestFirst() []MockCommit {
	result := make([]MockCommit, 0, len(m.local))
	for i := len(m.local) - 1; i >= 0; i-- {
		result = append(result, m.local[i])
		if m.HistoryLimit > 0 && len(result) == m.HistoryLimit {
			break
		}
	}
	return result
}

func (m *MockCommitSource) recordOperation(opType string, args []string) {
	m.Operations = append(m.Operations, GitOperation{
		Type:      opType,
		Arguments: args,
		Timestamp: time.Now(),
	})
}
