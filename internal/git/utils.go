package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IsSSHURL checks if a git URL is using SSH protocol
func IsSSHURL(gitURL string) bool {
	return strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://")
}

// IsHTTPSURL checks if a git URL is using HTTPS protocol
func IsHTTPSURL(gitURL string) bool {
	return strings.HasPrefix(gitURL, "https://") || strings.HasPrefix(gitURL, "http://")
}

// IsFileURL checks if a git URL points at a local repository
func IsFileURL(gitURL string) bool {
	return strings.HasPrefix(gitURL, "file://") || filepath.IsAbs(gitURL)
}

// ExtractRepoName extracts the repository name from a git URL
func ExtractRepoName(gitURL string) string {
	url := strings.TrimSuffix(strings.TrimRight(gitURL, "/"), ".git")

	if IsSSHURL(url) && !strings.HasPrefix(url, "ssh://") {
		// git@host:owner/repo
		if idx := strings.Index(url, ":"); idx >= 0 {
			url = url[idx+1:]
		}
	}

	parts := strings.Split(url, "/")
	if name := parts[len(parts)-1]; name != "" {
		return name
	}
	return "unknown"
}

// ValidateGitURL performs basic validation on a git URL
func ValidateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL cannot be empty")
	}

	if !IsSSHURL(gitURL) && !IsHTTPSURL(gitURL) && !IsFileURL(gitURL) {
		return fmt.Errorf("invalid git URL %q: must be SSH, HTTPS, file:// or an absolute local path", gitURL)
	}

	return nil
}

// extractHost extracts the host from a git URL
func extractHost(gitURL string) string {
	url := gitURL
	for _, prefix := range []string{"https://", "http://", "ssh://", "git@"} {
		url = strings.TrimPrefix(url, prefix)
	}

	// user@host in ssh:// URLs
	if idx := strings.Index(url, "@"); idx >= 0 && idx < strings.IndexAny(url+"/", "/:") {
		url = url[idx+1:]
	}

	if idx := strings.IndexAny(url, "/:"); idx > 0 {
		url = url[:idx]
	}

	return url
}
