package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"gitnotifier/internal/common"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// WriteFile writes content to a file in the given directory
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	h.t.Helper()
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), common.FilePermissionSecure); err != nil {
		h.t.Fatalf("Failed to write file %s: %v", path, err)
	}

	return path
}

// GitRepo is a throwaway go-git repository with a working tree
type GitRepo struct {
	t    *testing.T
	Dir  string
	Repo *git.Repository
	n    int
}

// NewGitRepo initialises a repository in a temp dir. The initial branch is master.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}

	return &GitRepo{t: t, Dir: dir, Repo: repo}
}

// Commit writes a file and commits it with message, returning the hash
func (g *GitRepo) Commit(message string) string {
	g.t.Helper()
	g.n++

	name := filepath.Join("changes", fmt.Sprintf("change-%d.txt", g.n))
	NewTestHelper(g.t).WriteFile(g.Dir, name, message+"\n")

	wt, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("Failed to open worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		g.t.Fatalf("Failed to stage %s: %v", name, err)
	}

	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(g.n) * time.Minute)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: when},
	})
	if err != nil {
		g.t.Fatalf("Failed to commit: %v", err)
	}
	return hash.String()
}

// SetRemoteBranch points refs/remotes/origin/<branch> at hash, as a fetch would
func (g *GitRepo) SetRemoteBranch(branch, hash string) {
	g.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", branch), plumbing.NewHash(hash))
	if err := g.Repo.Storer.SetReference(ref); err != nil {
		g.t.Fatalf("Failed to set remote reference: %v", err)
	}
}
