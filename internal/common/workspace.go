package common

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// workspaceDirName is the directory under the run's temp dir that holds clones
const workspaceDirName = "git-notifier"

// Workspace hands out clone destinations inside a temp directory owned by one run.
// Destinations are numbered in the order they are requested.
type Workspace struct {
	root string
	base string

	mu   sync.Mutex
	next int
}

// NewWorkspace creates a fresh temp directory under parent, or under the
// system temp dir when parent is empty
func NewWorkspace(parent string) (*Workspace, error) {
	if parent != "" {
		cleaned, err := CleanPath(parent)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(cleaned, DirPermissionNormal); err != nil {
			return nil, fmt.Errorf("failed to create workspace parent %s: %w", cleaned, err)
		}
		parent = cleaned
	}

	root, err := os.MkdirTemp(parent, "gitnotifier-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	base, err := JoinPath(root, workspaceDirName)
	if err != nil {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := os.MkdirAll(base, DirPermissionNormal); err != nil {
		_ = os.RemoveAll(root)
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return &Workspace{root: root, base: base}, nil
}

// Root is the temp directory removed by Close
func (w *Workspace) Root() string {
	return w.root
}

// NewPath returns the next unused clone destination. The directory is not created.
func (w *Workspace) NewPath() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path, err := JoinPath(w.base, strconv.Itoa(w.next))
	if err != nil {
		return "", fmt.Errorf("failed to allocate clone destination: %w", err)
	}
	w.next++
	return path, nil
}

// Close removes the workspace and every clone in it
func (w *Workspace) Close() error {
	if w.root == "" {
		return nil
	}
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.root, err)
	}
	return nil
}
