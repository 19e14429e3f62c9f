package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGitSource implements CommitSource in process with go-git
type GoGitSource struct {
	auth *AuthManager
}

// NewGoGitSource returns a go-git backed source. auth may be nil for
// public and local repositories.
func NewGoGitSource(auth *AuthManager) *GoGitSource {
	return &GoGitSource{auth: auth}
}

// Clone makes a single-branch clone of depth commits without a checkout.
// A depth of zero clones the full history.
func (s *GoGitSource) Clone(ctx context.Context, remote, branch, dest string, depth int) error {
	auth, err := s.auth.GetAuth(remote)
	if err != nil {
		return err
	}

	_, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           remote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		NoCheckout:    true,
		Depth:         depth,
		Tags:          git.NoTags,
		Auth:          auth,
	})
	if err != nil {
		return fmt.Errorf("go-git clone %s: %w", remote, err)
	}
	return nil
}

// Fetch updates refs/remotes/origin/<branch>
func (s *GoGitSource) Fetch(ctx context.Context, localPath, branch string) error {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", localPath, err)
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return fmt.Errorf("failed to read remote %s: %w", git.DefaultRemoteName, err)
	}

	var remoteURL string
	if urls := remote.Config().URLs; len(urls) > 0 {
		remoteURL = urls[0]
	}
	auth, err := s.auth.GetAuth(remoteURL)
	if err != nil {
		return err
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, git.DefaultRemoteName, branch))
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Tags:       git.NoTags,
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("go-git fetch %s: %w", branch, err)
	}
	return nil
}

// ListHashes returns commit hashes reachable from origin/<branch>, newest first
func (s *GoGitSource) ListHashes(ctx context.Context, localPath, branch string) ([]string, error) {
	var hashes []string
	err := s.walk(ctx, localPath, branch, func(c *object.Commit) {
		hashes = append(hashes, c.Hash.String())
	})
	return hashes, err
}

// ListSubjects returns commit subjects reachable from origin/<branch>, newest first
func (s *GoGitSource) ListSubjects(ctx context.Context, localPath, branch string) ([]string, error) {
	var subjects []string
	err := s.walk(ctx, localPath, branch, func(c *object.Commit) {
		subjects = append(subjects, subjectOf(c.Message))
	})
	return subjects, err
}

// walk visits the history of origin/<branch> in committer-time order.
// The walk ends quietly at the shallow boundary, where parents are missing.
func (s *GoGitSource) walk(ctx context.Context, localPath, branch string, visit func(*object.Commit)) error {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", localPath, err)
	}

	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return fmt.Errorf("failed to resolve %s/%s: %w", git.DefaultRemoteName, branch, err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return fmt.Errorf("failed to read log of %s/%s: %w", git.DefaultRemoteName, branch, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		visit(c)
		return nil
	})
	if err != nil && !errors.Is(err, plumbing.ErrObjectNotFound) && !errors.Is(err, storer.ErrStop) {
		return err
	}
	return nil
}
