package git

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by NewSource
const (
	BackendCLI   = "git"
	BackendGoGit = "go-git"
)

// CommitSource performs the four git operations the notifier needs.
// History queries read the remote-tracking branch origin/<branch> and
// return entries newest first.
type CommitSource interface {
	Clone(ctx context.Context, remote, branch, dest string, depth int) error
	Fetch(ctx context.Context, localPath, branch string) error
	ListHashes(ctx context.Context, localPath, branch string) ([]string, error)
	ListSubjects(ctx context.Context, localPath, branch string) ([]string, error)
}

// NewSource returns the commit source for a backend name
func NewSource(backend string, auth *AuthManager) (CommitSource, error) {
	switch backend {
	case "", BackendCLI:
		return NewCLISource(), nil
	case BackendGoGit:
		return NewGoGitSource(auth), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q", backend)
	}
}

// subjectOf returns the subject of a commit message the way git's %s does:
// the first paragraph with its lines joined by single spaces.
func subjectOf(message string) string {
	var parts []string
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// splitLines splits git's --pretty=tformat output, in which every entry ends
// with a newline. An entry may be empty, so "\n" is one empty entry and only
// "" means no entries.
func splitLines(output string) []string {
	if output == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(output, "\n"), "\n")
}
