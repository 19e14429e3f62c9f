package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CLISource runs the git binary
type CLISource struct {
	// Binary is the git executable, looked up on PATH when relative
	Binary string
	// Env is appended to the process environment of every command
	Env []string
}

// NewCLISource returns a source using git from PATH. Interactive
// credential prompts are disabled so a poll never blocks on a terminal.
func NewCLISource() *CLISource {
	return &CLISource{
		Binary: "git",
		Env:    []string{"GIT_TERMINAL_PROMPT=0"},
	}
}

// Clone makes a shallow, tree-less, single-branch clone without a checkout
func (s *CLISource) Clone(ctx context.Context, remote, branch, dest string, depth int) error {
	_, err := s.run(ctx, "", "clone",
		"--depth="+strconv.Itoa(depth),
		"--filter=tree:0",
		"--no-checkout",
		"--single-branch",
		"--no-tags",
		"--branch", branch,
		remote, dest,
	)
	return err
}

// Fetch updates the remote-tracking branch without deepening the history
func (s *CLISource) Fetch(ctx context.Context, localPath, branch string) error {
	_, err := s.run(ctx, localPath, "fetch",
		"--filter=tree:0",
		"--no-tags",
		"--no-deepen",
		"--update-shallow",
		"--no-recurse-submodules",
	)
	return err
}

// ListHashes returns full commit hashes of origin/<branch>, newest first
func (s *CLISource) ListHashes(ctx context.Context, localPath, branch string) ([]string, error) {
	out, err := s.run(ctx, localPath, "log", "--pretty=tformat:%H", "origin/"+branch)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListSubjects returns commit subjects of origin/<branch>, newest first
func (s *CLISource) ListSubjects(ctx context.Context, localPath, branch string) ([]string, error) {
	out, err := s.run(ctx, localPath, "log", "--pretty=tformat:%s", "origin/"+branch)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// run executes git in dir and returns stdout. A non-zero exit becomes an
// error carrying git's stderr.
func (s *CLISource) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := s.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), s.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}

	return stdout.String(), nil
}
